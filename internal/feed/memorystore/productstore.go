package memorystore

import "sync"

type ProductStore struct {
	mu       sync.Mutex
	products []string
	seen     map[string]struct{}
}

func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make([]string, 0),
		seen:     make(map[string]struct{}),
	}
}

// Add appends productID unless it is already present.
func (s *ProductStore) Add(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[productID]; ok {
		return
	}
	s.seen[productID] = struct{}{}
	s.products = append(s.products, productID)
}

// StartWorker drains ch into the store. The returned channel is closed once
// ch is closed and fully consumed.
func (s *ProductStore) StartWorker(ch <-chan string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for productID := range ch {
			s.Add(productID)
		}
	}()
	return done
}

func (s *ProductStore) GetAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.products))
	copy(out, s.products)
	return out
}
