package quest

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory catalog, used by tests and as the backing for
// the SQL repos' seed path. Insertion order is preserved.
type MemoryRepo struct {
	mu     sync.RWMutex
	order  []string
	quests map[string]Quest
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{quests: make(map[string]Quest)}
}

func (r *MemoryRepo) Seed(ctx context.Context, quests []Quest) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, q := range quests {
		if _, ok := r.quests[q.ID]; !ok {
			r.order = append(r.order, q.ID)
		}
		r.quests[q.ID] = q
	}
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Quest, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Quest, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.quests[id])
	}
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Quest, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.quests[id]
	return q, ok, nil
}

func (r *MemoryRepo) Create(ctx context.Context, q Quest) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quests[q.ID]; ok {
		return ErrDuplicate
	}
	r.order = append(r.order, q.ID)
	r.quests[q.ID] = q
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, q Quest) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quests[q.ID]; !ok {
		return ErrNotFound
	}
	r.quests[q.ID] = q
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quests[id]; !ok {
		return ErrNotFound
	}
	delete(r.quests, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
