package memorystore

import (
	"sync"

	"cbfeed/pkg/coinbase"
)

// MessageStore keeps the most recent messages per product. Messages without
// a product_id are kept under "".
type MessageStore struct {
	globalMu   sync.RWMutex
	data       map[string]*productMessageStore
	perProduct int
}

type productMessageStore struct {
	mu       sync.Mutex
	messages []coinbase.Message
	total    int64
}

// NewMessageStore creates a store holding up to perProduct messages per
// product. Zero keeps everything.
func NewMessageStore(perProduct int) *MessageStore {
	return &MessageStore{
		data:       make(map[string]*productMessageStore),
		perProduct: perProduct,
	}
}

func (s *MessageStore) Add(msg coinbase.Message) {
	productID := msg.ProductID()

	// Fast path: lock per-product store only
	s.globalMu.RLock()
	store, ok := s.data[productID]
	s.globalMu.RUnlock()

	if !ok {
		s.globalMu.Lock()
		if store, ok = s.data[productID]; !ok {
			store = &productMessageStore{}
			s.data[productID] = store
		}
		s.globalMu.Unlock()
	}

	store.mu.Lock()
	store.messages = append(store.messages, msg)
	if s.perProduct > 0 && len(store.messages) > s.perProduct {
		store.messages = store.messages[len(store.messages)-s.perProduct:]
	}
	store.total++
	store.mu.Unlock()
}

func (s *MessageStore) GetByProduct(productID string) []coinbase.Message {
	s.globalMu.RLock()
	store, ok := s.data[productID]
	s.globalMu.RUnlock()
	if !ok {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	cp := make([]coinbase.Message, len(store.messages))
	copy(cp, store.messages)
	return cp
}

// Latest returns the newest message for productID.
func (s *MessageStore) Latest(productID string) (coinbase.Message, bool) {
	s.globalMu.RLock()
	store, ok := s.data[productID]
	s.globalMu.RUnlock()
	if !ok {
		return coinbase.Message{}, false
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.messages) == 0 {
		return coinbase.Message{}, false
	}
	return store.messages[len(store.messages)-1], true
}

// CountByProduct returns how many messages each product has received,
// including ones evicted by the per-product limit.
func (s *MessageStore) CountByProduct() map[string]int64 {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	result := make(map[string]int64, len(s.data))
	for id, store := range s.data {
		store.mu.Lock()
		result[id] = store.total
		store.mu.Unlock()
	}
	return result
}

// CountAll returns the total number of messages received across all products.
func (s *MessageStore) CountAll() int64 {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	var total int64
	for _, store := range s.data {
		store.mu.Lock()
		total += store.total
		store.mu.Unlock()
	}
	return total
}
