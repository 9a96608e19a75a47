package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"eventhub/internal/apperr"
)

// MemoryRepository keeps records in process memory. A single mutex guards
// every WithKey callback, which gives the same one-open-record guarantee as
// the Postgres advisory lock.
type MemoryRepository struct {
	mu   sync.Mutex
	byID map[string]Record
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]Record{}}
}

func (r *MemoryRepository) WithKey(ctx context.Context, studentID, key string, fn func(tx KeyTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memKeyTx{repo: r, studentID: studentID, key: key, writes: map[string]Record{}}
	if err := fn(tx); err != nil {
		return err
	}
	for id, rec := range tx.writes {
		r.byID[id] = rec
	}
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, apperr.NotFound("attendance record not found")
	}
	return rec, nil
}

func (r *MemoryRepository) List(_ context.Context, studentID string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.byID))
	for _, rec := range r.byID {
		if studentID == "" || rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].TimeIn.Equal(recs[j].TimeIn) {
			return recs[i].TimeIn.After(recs[j].TimeIn)
		}
		return recs[i].ID > recs[j].ID
	})
}

// memKeyTx buffers writes until the callback succeeds. The repository
// mutex is held for its whole lifetime.
type memKeyTx struct {
	repo      *MemoryRepository
	studentID string
	key       string
	writes    map[string]Record
}

func (t *memKeyTx) lookup(id string) (Record, bool) {
	if rec, ok := t.writes[id]; ok {
		return rec, true
	}
	rec, ok := t.repo.byID[id]
	return rec, ok
}

func (t *memKeyTx) records() []Record {
	seen := map[string]bool{}
	var out []Record
	for id, rec := range t.writes {
		seen[id] = true
		if rec.StudentID == t.studentID && rec.Key == t.key {
			out = append(out, rec)
		}
	}
	for id, rec := range t.repo.byID {
		if !seen[id] && rec.StudentID == t.studentID && rec.Key == t.key {
			out = append(out, rec)
		}
	}
	return out
}

func (t *memKeyTx) State(context.Context) (KeyState, error) {
	var st KeyState
	for _, rec := range t.records() {
		st.CheckIns++
		if rec.Open() {
			open := rec
			st.Open = &open
			continue
		}
		st.CheckOuts++
	}
	return st, nil
}

func (t *memKeyTx) Insert(_ context.Context, rec Record) error {
	if rec.StudentID != t.studentID || rec.Key != t.key {
		return apperr.New(apperr.KindInvalidTransition, "record does not belong to the locked key")
	}
	if _, exists := t.lookup(rec.ID); exists {
		return apperr.Conflict("attendance record already exists")
	}
	for _, existing := range t.records() {
		if existing.Open() {
			return apperr.InvalidTransition("an attendance session is already open; please check out first")
		}
	}
	t.writes[rec.ID] = rec
	return nil
}

func (t *memKeyTx) Close(_ context.Context, id string, at time.Time) (Record, error) {
	rec, ok := t.lookup(id)
	if !ok || rec.StudentID != t.studentID || rec.Key != t.key {
		return Record{}, apperr.NotFound("attendance record not found")
	}
	if !rec.Open() {
		return Record{}, apperr.AlreadyClosed("this attendance record is already checked out")
	}
	out := at
	rec.TimeOut = &out
	rec.UpdatedAt = at
	t.writes[id] = rec
	return rec, nil
}
