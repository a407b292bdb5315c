package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"cbfeed/pkg/coinbase"

	"github.com/google/uuid"
)

// go test -v --run TestToMessageRecord
func TestToMessageRecord(t *testing.T) {
	received := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw := `{"type":"ticker","product_id":"BTC-USD","sequence":1234567890,"price":"64000.01"}`

	msg, err := coinbase.DecodeMessage([]byte(raw), received)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec := ToMessageRecord(msg)
	if rec.ID == uuid.Nil {
		t.Error("expected generated ID")
	}
	if rec.Type != "ticker" || rec.ProductID != "BTC-USD" {
		t.Errorf("Type/ProductID = %q/%q", rec.Type, rec.ProductID)
	}
	if rec.Sequence == nil || *rec.Sequence != 1234567890 {
		t.Errorf("Sequence = %v; want 1234567890", rec.Sequence)
	}
	if rec.Payload != raw {
		t.Errorf("Payload = %q; want raw frame", rec.Payload)
	}
	if !rec.ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt = %s; want %s", rec.ReceivedAt, received)
	}
}

// go test -v --run TestToMessageRecordNonObject
func TestToMessageRecordNonObject(t *testing.T) {
	msg, err := coinbase.DecodeMessage([]byte(`[1,2,3]`), time.Time{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec := ToMessageRecord(msg)
	if rec.Type != "unknown" || rec.ProductID != "" || rec.Sequence != nil {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ReceivedAt.IsZero() {
		t.Error("ReceivedAt should default to now")
	}

	// constructed messages without a raw frame fall back to Data
	rec = ToMessageRecord(coinbase.Message{Data: map[string]any{"type": "status"}})
	if !json.Valid([]byte(rec.Payload)) || rec.Payload != `{"type":"status"}` || rec.Type != "status" {
		t.Errorf("Payload = %q, Type = %q", rec.Payload, rec.Type)
	}
}

// go test -v --run TestMessageRecordTableName
func TestMessageRecordTableName(t *testing.T) {
	if got := (MessageRecord{}).TableName(); got != "feed_message" {
		t.Errorf("TableName() = %q", got)
	}
}
