package coinbase

import "time"

// Options configures a WSClient. Zero values fall back to the feed defaults.
type Options struct {
	URL         string   // feed endpoint; one trailing slash is stripped on connect
	Products    []string // product ids, e.g. "BTC-USD"; empty means DefaultProduct
	Channels    []string // omitted from the subscribe request when empty
	MessageType string   // type of the first frame, normally "subscribe"

	Auth       bool
	Key        string
	Secret     string // base64 encoded
	Passphrase string

	// Used by the default handler only.
	ShouldPrint bool
	Sink        Sink

	HandshakeTimeout time.Duration
	// ReadTimeout bounds each read; zero waits for the next frame indefinitely.
	ReadTimeout time.Duration
	// PingInterval enables keepalive pings; zero disables them.
	PingInterval time.Duration
}

func (o *Options) applyDefaults() {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.MessageType == "" {
		o.MessageType = DefaultMessageType
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
}
