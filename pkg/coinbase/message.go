package coinbase

import (
	"context"
	"encoding/json"
	"time"
)

// Message is one decoded inbound frame.
type Message struct {
	Raw        json.RawMessage // frame as received
	Data       any             // decoded JSON value
	ReceivedAt time.Time

	ctx context.Context
}

// Context returns the context of the connection that delivered the message.
// It is cancelled once the client shuts down. Messages that were not
// delivered by a client return context.Background().
func (m Message) Context() context.Context {
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}

// WithContext returns a copy of m carrying ctx.
func (m Message) WithContext(ctx context.Context) Message {
	m.ctx = ctx
	return m
}

// DecodeMessage parses a frame. Anything that is not valid JSON yields a *ProtocolError.
func DecodeMessage(data []byte, receivedAt time.Time) (Message, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Message{}, &ProtocolError{Data: data, Err: err}
	}
	return Message{
		Raw:        json.RawMessage(data),
		Data:       v,
		ReceivedAt: receivedAt,
	}, nil
}

// Type returns the "type" field of an object message, or "".
func (m Message) Type() string {
	return m.stringField("type")
}

// ProductID returns the "product_id" field of an object message, or "".
func (m Message) ProductID() string {
	return m.stringField("product_id")
}

func (m Message) stringField(name string) string {
	obj, ok := m.Data.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[name].(string)
	return s
}
