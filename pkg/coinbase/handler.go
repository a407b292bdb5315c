package coinbase

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Handler receives lifecycle events and messages from a WSClient.
// All methods except OnOpen run on the client's receive goroutine.
type Handler interface {
	OnOpen()
	OnClose()
	OnMessage(msg Message)
	// OnError is called once with the error that ends the receive loop.
	// data holds the offending frame for protocol errors.
	OnError(err error, data []byte)
}

// Sink persists received messages.
type Sink interface {
	InsertOne(ctx context.Context, msg Message) error
}

// DefaultHandler optionally prints lifecycle transitions and messages and
// writes every message to Sink when one is set. Embed it to override
// individual hooks.
type DefaultHandler struct {
	ShouldPrint   bool
	Sink          Sink
	InsertTimeout time.Duration
	Out           io.Writer
	Logger        *zap.Logger
}

// NewDefaultHandler creates a DefaultHandler printing to stdout.
func NewDefaultHandler(shouldPrint bool, sink Sink, logger *zap.Logger) *DefaultHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultHandler{
		ShouldPrint:   shouldPrint,
		Sink:          sink,
		InsertTimeout: 2 * time.Second,
		Out:           os.Stdout,
		Logger:        logger,
	}
}

func (h *DefaultHandler) OnOpen() {
	h.printf("-- Subscribed! --\n\n")
}

func (h *DefaultHandler) OnClose() {
	h.printf("\n-- Socket Closed --\n")
}

func (h *DefaultHandler) OnMessage(msg Message) {
	h.printf("%s\n", msg.Raw)

	if h.Sink == nil {
		return
	}

	timeout := h.InsertTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	// bounded by the insert timeout and by client shutdown
	ctx, cancel := context.WithTimeout(msg.Context(), timeout)
	defer cancel()
	if err := h.Sink.InsertOne(ctx, msg); err != nil {
		h.logger().Warn("failed to persist message",
			zap.String("type", msg.Type()),
			zap.String("product_id", msg.ProductID()),
			zap.Error(err))
	}
}

func (h *DefaultHandler) OnError(err error, data []byte) {
	h.logger().Warn("feed error", zap.Error(err), zap.Int("bytes", len(data)))
}

func (h *DefaultHandler) printf(format string, args ...any) {
	if !h.ShouldPrint || h.Out == nil {
		return
	}
	fmt.Fprintf(h.Out, format, args...)
}

func (h *DefaultHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
