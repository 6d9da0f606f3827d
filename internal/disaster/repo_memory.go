package disaster

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory repository useful for tests.
// A single mutex stands in for the per-record locking the Postgres
// repository gets from FOR UPDATE.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]Disaster
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]Disaster)}
}

func (r *MemoryRepo) Insert(_ context.Context, d Disaster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[d.ID] = d.clone()
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (Disaster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.records[id]
	if !ok {
		return Disaster{}, ErrNotFound
	}
	return d.clone(), nil
}

func (r *MemoryRepo) List(_ context.Context, tag string) ([]Disaster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Disaster
	for _, d := range r.records {
		if tag != "" && !d.HasTag(tag) {
			continue
		}
		out = append(out, d.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Mutate(_ context.Context, id string, fn func(*Disaster)) (Disaster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.records[id]
	if !ok {
		return Disaster{}, ErrNotFound
	}
	cp := d.clone()
	fn(&cp)
	r.records[id] = cp.clone()
	return cp, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}
