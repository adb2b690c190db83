package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recruitkit/billing/pkg/holder"
)

// memoryStore is an in-memory Store used in tests and local development.
type memoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

// NewMemoryStore returns an empty in-memory subscription store.
func NewMemoryStore() Store {
	return &memoryStore{subs: make(map[uuid.UUID]*Subscription)}
}

func (s *memoryStore) Create(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.Status == StatusActive {
		for _, existing := range s.subs {
			if existing.Status == StatusActive && existing.Holder == sub.Holder {
				return ErrAlreadyExists
			}
		}
	}

	cp := *sub
	s.subs[sub.ID] = &cp
	return nil
}

func (s *memoryStore) GetActiveByHolder(_ context.Context, ref holder.Ref) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.Status == StatusActive && sub.Holder == ref {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryStore) Update(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subs[sub.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Version != sub.Version {
		return ErrVersionConflict
	}

	cp := *sub
	cp.Version++
	s.subs[sub.ID] = &cp
	sub.Version = cp.Version
	return nil
}

func (s *memoryStore) ListExpired(_ context.Context, now time.Time) ([]*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Subscription
	for _, sub := range s.subs {
		if sub.Status == StatusActive && sub.PeriodExpired(now) {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}
