package coinbase

import "fmt"

const (
	// DefaultURL is the production websocket feed.
	DefaultURL = "wss://ws-feed.pro.coinbase.com"
	// DefaultRESTURL is the production REST API.
	DefaultRESTURL = "https://api.pro.coinbase.com"
	// DefaultProduct is subscribed to when no products are configured.
	DefaultProduct = "BTC-USD"
	// DefaultMessageType is the type of the first outbound frame.
	DefaultMessageType = "subscribe"
)

// Channel is a feed channel name sent in the subscribe request.
type Channel string

const (
	ChannelHeartbeat   Channel = "heartbeat"
	ChannelStatus      Channel = "status"
	ChannelTicker      Channel = "ticker"
	ChannelTickerBatch Channel = "ticker_batch"
	ChannelLevel2      Channel = "level2"
	ChannelLevel2Batch Channel = "level2_batch"
	ChannelFull        Channel = "full"
	ChannelUser        Channel = "user"
	ChannelMatches     Channel = "matches"
	ChannelAuction     Channel = "auctionfeed"
	ChannelRFQMatches  Channel = "rfq_matches"
)

// ChannelMeta describes a feed channel.
type ChannelMeta struct {
	Name         Channel
	RequiresAuth bool
}

var knownChannels = map[Channel]ChannelMeta{
	ChannelHeartbeat:   {Name: ChannelHeartbeat},
	ChannelStatus:      {Name: ChannelStatus},
	ChannelTicker:      {Name: ChannelTicker},
	ChannelTickerBatch: {Name: ChannelTickerBatch},
	ChannelLevel2:      {Name: ChannelLevel2, RequiresAuth: true},
	ChannelLevel2Batch: {Name: ChannelLevel2Batch},
	ChannelFull:        {Name: ChannelFull},
	ChannelUser:        {Name: ChannelUser, RequiresAuth: true},
	ChannelMatches:     {Name: ChannelMatches},
	ChannelAuction:     {Name: ChannelAuction},
	ChannelRFQMatches:  {Name: ChannelRFQMatches},
}

// IsValid reports whether c is a known feed channel.
func (c Channel) IsValid() bool {
	_, ok := knownChannels[c]
	return ok
}

// ParseChannel looks up a channel by name.
func ParseChannel(s string) (ChannelMeta, error) {
	meta, ok := knownChannels[Channel(s)]
	if !ok {
		return ChannelMeta{}, fmt.Errorf("unknown channel: %s", s)
	}
	return meta, nil
}
