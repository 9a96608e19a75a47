package events

import (
	"context"
	"sort"
	"sync"

	"eventhub/internal/apperr"
)

// MemoryRepository keeps events in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]Event
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]Event{}}
}

func (r *MemoryRepository) Create(_ context.Context, e Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[e.ID]; exists {
		return Event{}, apperr.Conflict("event already exists")
	}
	r.byID[e.ID] = e
	return e, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return Event{}, apperr.NotFound("event not found")
	}
	return e, nil
}

func (r *MemoryRepository) List(context.Context) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Event, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, e Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID]; !ok {
		return Event{}, apperr.NotFound("event not found")
	}
	r.byID[e.ID] = e
	return e, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return apperr.NotFound("event not found")
	}
	delete(r.byID, id)
	return nil
}
