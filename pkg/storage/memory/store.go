package memory

import (
	"context"
	"sync"

	"cbfeed/pkg/coinbase"
)

// Store keeps inserted messages in memory, dropping the oldest once
// capacity is reached. A capacity of 0 keeps everything.
type Store struct {
	mu       sync.Mutex
	capacity int
	messages []coinbase.Message
	inserted int64
}

func NewStore(capacity int) *Store {
	return &Store{
		capacity: capacity,
		messages: make([]coinbase.Message, 0),
	}
}

func (s *Store) InsertOne(ctx context.Context, msg coinbase.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	if s.capacity > 0 && len(s.messages) > s.capacity {
		s.messages = s.messages[len(s.messages)-s.capacity:]
	}
	s.inserted++
	return nil
}

func (s *Store) Messages() []coinbase.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid race
	out := make([]coinbase.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Inserted returns the number of messages ever inserted, including dropped ones.
func (s *Store) Inserted() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserted
}
