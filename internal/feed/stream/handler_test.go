package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cbfeed/internal/feed/memorystore"
	"cbfeed/internal/metrics"
	"cbfeed/pkg/coinbase"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type countingSink struct {
	calls int
	err   error
}

func (s *countingSink) InsertOne(_ context.Context, _ coinbase.Message) error {
	s.calls++
	return s.err
}

// go test -v --run TestHandlerOnMessage
func TestHandlerOnMessage(t *testing.T) {
	store := memorystore.NewMessageStore(0)
	sink := &countingSink{}
	h := NewHandler(true, sink, store, nil)
	var out bytes.Buffer
	h.Out = &out

	before := testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues("l2update"))

	raw := `{"type":"l2update","product_id":"BTC-USD","changes":[["buy","1","2"]]}`
	msg, err := coinbase.DecodeMessage([]byte(raw), time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	h.OnMessage(msg)

	if got := testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues("l2update")) - before; got != 1 {
		t.Errorf("messages_total delta = %v; want 1", got)
	}
	if n := len(store.GetByProduct("BTC-USD")); n != 1 {
		t.Errorf("store has %d messages; want 1", n)
	}
	if sink.calls != 1 {
		t.Errorf("sink calls = %d; want 1", sink.calls)
	}
	if out.String() != raw+"\n" {
		t.Errorf("printed %q", out.String())
	}
}

// go test -v --run TestHandlerSinkFailureCounted
func TestHandlerSinkFailureCounted(t *testing.T) {
	h := NewHandler(false, &countingSink{err: errors.New("db down")}, nil, nil)

	before := testutil.ToFloat64(metrics.SinkErrors)
	msg, _ := coinbase.DecodeMessage([]byte(`{"type":"ticker"}`), time.Now())
	h.OnMessage(msg)

	if got := testutil.ToFloat64(metrics.SinkErrors) - before; got != 1 {
		t.Errorf("sink errors delta = %v; want 1", got)
	}
}

// go test -v --run TestErrorKind
func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&coinbase.ConfigurationError{Field: "secret", Err: errors.New("bad")}, "configuration"},
		{&coinbase.ConnectionError{URL: "wss://x", Err: errors.New("refused")}, "connection"},
		{&coinbase.ProtocolError{Err: errors.New("json")}, "protocol"},
		{fmt.Errorf("wrapped: %w", &coinbase.TransportError{Err: errors.New("eof")}), "transport"},
		{errors.New("plain"), "other"},
	}
	for _, c := range cases {
		if got := ErrorKind(c.err); got != c.want {
			t.Errorf("ErrorKind(%v) = %q; want %q", c.err, got, c.want)
		}
	}
}

// go test -v --run TestHandlerOnErrorCounted
func TestHandlerOnErrorCounted(t *testing.T) {
	h := NewHandler(false, nil, nil, nil)

	before := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("protocol"))
	h.OnError(&coinbase.ProtocolError{Data: []byte("nope"), Err: errors.New("invalid")}, []byte("nope"))

	if got := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("protocol")) - before; got != 1 {
		t.Errorf("errors_total delta = %v; want 1", got)
	}
}
