package stream

import (
	"context"
	"errors"
	"time"

	"cbfeed/internal/feed/memorystore"
	"cbfeed/internal/metrics"
	"cbfeed/pkg/coinbase"

	"go.uber.org/zap"
)

// Handler extends the default print/persist behaviour with an in-memory
// per-product store and prometheus counters.
type Handler struct {
	*coinbase.DefaultHandler
	Store *memorystore.MessageStore
}

// NewHandler returns a Handler whose sink inserts are timed and counted.
func NewHandler(shouldPrint bool, sink coinbase.Sink, store *memorystore.MessageStore, logger *zap.Logger) *Handler {
	if sink != nil {
		sink = InstrumentSink(sink)
	}
	return &Handler{
		DefaultHandler: coinbase.NewDefaultHandler(shouldPrint, sink, logger),
		Store:          store,
	}
}

func (h *Handler) OnMessage(msg coinbase.Message) {
	msgType := msg.Type()
	if msgType == "" {
		msgType = "unknown"
	}
	metrics.MessagesTotal.WithLabelValues(msgType).Inc()

	if h.Store != nil {
		h.Store.Add(msg)
	}
	h.DefaultHandler.OnMessage(msg)
}

func (h *Handler) OnError(err error, data []byte) {
	metrics.ErrorsTotal.WithLabelValues(ErrorKind(err)).Inc()
	h.DefaultHandler.OnError(err, data)
}

// ErrorKind names the feed error category of err.
func ErrorKind(err error) string {
	var (
		cfgErr   *coinbase.ConfigurationError
		connErr  *coinbase.ConnectionError
		protoErr *coinbase.ProtocolError
		tranErr  *coinbase.TransportError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &protoErr):
		return "protocol"
	case errors.As(err, &tranErr):
		return "transport"
	default:
		return "other"
	}
}

type instrumentedSink struct {
	next coinbase.Sink
}

// InstrumentSink wraps sink so every insert feeds the latency histogram and
// failures are counted.
func InstrumentSink(sink coinbase.Sink) coinbase.Sink {
	return &instrumentedSink{next: sink}
}

func (s *instrumentedSink) InsertOne(ctx context.Context, msg coinbase.Message) error {
	start := time.Now()
	err := s.next.InsertOne(ctx, msg)
	metrics.InsertLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SinkErrors.Inc()
	}
	return err
}
