package notify

import (
	"sort"
	"sync"
)

// Subscriptions is the set of YouTube channel IDs being polled.
type Subscriptions struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{ids: make(map[string]struct{})}
}

func (s *Subscriptions) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *Subscriptions) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *Subscriptions) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// List returns a sorted snapshot.
func (s *Subscriptions) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
