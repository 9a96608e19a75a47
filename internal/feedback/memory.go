package feedback

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps feedback in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	list []Feedback
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (r *MemoryRepository) Create(_ context.Context, f Feedback) (Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, f)
	return f, nil
}

func (r *MemoryRepository) List(_ context.Context, eventID string) ([]Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Feedback, 0, len(r.list))
	for i := len(r.list) - 1; i >= 0; i-- {
		if eventID == "" || r.list[i].EventID == eventID {
			out = append(out, r.list[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MemoryForms is a FormRegistry for single-process runs.
type MemoryForms struct {
	mu    sync.RWMutex
	forms map[string]string
}

var _ FormRegistry = (*MemoryForms)(nil)

func NewMemoryForms() *MemoryForms { return &MemoryForms{forms: map[string]string{}} }

func (m *MemoryForms) SetForm(_ context.Context, eventID, formID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[eventID] = formID
	return nil
}

func (m *MemoryForms) Form(_ context.Context, eventID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forms[eventID], nil
}
