package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
)

// MemoryRepository keeps users in process memory. It backs STORE_BACKEND=memory
// and the tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	seq   int
	byID  map[string]memUser
	email map[string]string
}

type memUser struct {
	User
	seq int
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]memUser{}, email: map[string]string{}}
}

func (r *MemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.email[u.Email]; taken {
		return User{}, apperr.Conflict("email is already registered")
	}
	if _, taken := r.byID[u.ID]; taken {
		return User{}, apperr.Conflict("user id already exists")
	}
	r.seq++
	r.byID[u.ID] = memUser{User: u, seq: r.seq}
	r.email[u.Email] = u.ID
	return u, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return User{}, apperr.NotFound("user not found")
	}
	return m.User, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.email[email]
	if !ok {
		return User{}, apperr.NotFound("user not found")
	}
	return r.byID[id].User, nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]memUser, 0, len(r.byID))
	for _, m := range r.byID {
		if f.matches(m.User) {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})
	out := make([]User, len(matched))
	for i, m := range matched {
		out[i] = m.User
	}
	return out, nil
}

func (r *MemoryRepository) UpdateState(_ context.Context, id string, expect Snapshot, status auth.Status, role auth.Role, at time.Time) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return User{}, apperr.NotFound("user not found")
	}
	if m.Snapshot() != expect {
		return User{}, ErrStale
	}
	m.Status = status
	m.Role = role
	m.UpdatedAt = at
	r.byID[id] = m
	return m.User, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string, expect Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	if m.Snapshot() != expect {
		return ErrStale
	}
	delete(r.byID, id)
	delete(r.email, m.Email)
	return nil
}

func (r *MemoryRepository) Count(_ context.Context, f Filter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, m := range r.byID {
		if f.matches(m.User) {
			n++
		}
	}
	return n, nil
}

func (f Filter) matches(u User) bool {
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	return true
}
