package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cbfeed/pkg/coinbase"
)

func msgN(t *testing.T, n int) coinbase.Message {
	t.Helper()
	msg, err := coinbase.DecodeMessage([]byte(fmt.Sprintf(`{"type":"ticker","sequence":%d}`, n)), time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

// go test -v --run TestStoreCapacity
func TestStoreCapacity(t *testing.T) {
	s := NewStore(3)
	for i := 1; i <= 5; i++ {
		if err := s.InsertOne(context.Background(), msgN(t, i)); err != nil {
			t.Fatalf("InsertOne: %v", err)
		}
	}

	got := s.Messages()
	if len(got) != 3 {
		t.Fatalf("len = %d; want 3", len(got))
	}
	if string(got[0].Raw) != `{"type":"ticker","sequence":3}` {
		t.Errorf("oldest kept = %s; want sequence 3", got[0].Raw)
	}
	if s.Inserted() != 5 {
		t.Errorf("Inserted() = %d; want 5", s.Inserted())
	}
}

// go test -v --run TestStoreCancelledContext
func TestStoreCancelledContext(t *testing.T) {
	s := NewStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.InsertOne(ctx, msgN(t, 1)); err == nil {
		t.Error("expected error for cancelled context")
	}
	if len(s.Messages()) != 0 {
		t.Error("message stored despite cancelled context")
	}
}

// go test -v --run TestStoreConcurrent
func TestStoreConcurrent(t *testing.T) {
	s := NewStore(0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = s.InsertOne(context.Background(), coinbase.Message{})
			}
		}()
	}
	wg.Wait()

	if n := len(s.Messages()); n != 800 {
		t.Errorf("len = %d; want 800", n)
	}
}
