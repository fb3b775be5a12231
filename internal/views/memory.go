package views

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"spacetraveling/internal/listing"
)

type memoryView struct {
	state     listing.State
	expiresAt time.Time
}

// MemoryStore keeps views in process. Expired views are removed lazily and
// on Create.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	views map[string]memoryView
}

// NewMemoryStore creates a store whose views expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		views: make(map[string]memoryView),
	}
}

func (s *MemoryStore) Create(_ context.Context, state listing.State) (string, error) {
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range s.views {
		if !now.Before(v.expiresAt) {
			delete(s.views, key)
		}
	}
	s.views[id] = memoryView{state: clone(state), expiresAt: now.Add(s.ttl)}

	return id, nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (listing.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[id]
	if !ok {
		return listing.State{}, ErrViewNotFound
	}
	if !s.now().Before(v.expiresAt) {
		delete(s.views, id)
		return listing.State{}, ErrViewNotFound
	}

	return clone(v.state), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, state listing.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, ok := s.views[id]
	if !ok || !now.Before(v.expiresAt) {
		delete(s.views, id)
		return ErrViewNotFound
	}

	s.views[id] = memoryView{state: clone(state), expiresAt: now.Add(s.ttl)}
	return nil
}

func clone(state listing.State) listing.State {
	return listing.Restore(nil, state).Snapshot()
}
