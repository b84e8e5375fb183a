package extraction

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Task
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Task)}
}

func (r *MemoryRepo) CreateOrReuse(ctx context.Context, task Task) (Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.CompanyID == task.CompanyID && existing.ProjectID == task.ProjectID &&
			existing.DocumentID == task.DocumentID && existing.Active() {
			return existing, false, nil
		}
	}
	r.data[task.ID] = task
	return task, true, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, companyID, id string) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.data[id]
	if !ok || task.CompanyID != companyID {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (r *MemoryRepo) Load(ctx context.Context, id string) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.data[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (r *MemoryRepo) Transition(ctx context.Context, id string, from []string, upd StatusUpdate) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.data[id]
	if !ok {
		return false, ErrNotFound
	}
	if !contains(from, task.Status) {
		return false, nil
	}
	upd.apply(&task)
	r.data[id] = task
	return true, nil
}

func (r *MemoryRepo) TransitionTx(ctx context.Context, _ *sql.Tx, id string, from []string, upd StatusUpdate) (bool, error) {
	return r.Transition(ctx, id, from, upd)
}

func (r *MemoryRepo) SetProgress(ctx context.Context, id string, progress int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	if task.Status == StatusProcessing && progress > task.Progress {
		task.Progress = progress
		r.data[id] = task
	}
	return nil
}

// ListByProject returns project tasks newest first.
func (r *MemoryRepo) ListByProject(ctx context.Context, companyID, projectID string, limit int) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Task, 0)
	for _, task := range r.data {
		if task.CompanyID == companyID && task.ProjectID == projectID {
			out = append(out, task)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) CountActive(ctx context.Context, companyID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, task := range r.data {
		if task.CompanyID == companyID && task.Active() {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) ExpireStale(ctx context.Context, cutoff time.Time, upd StatusUpdate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, task := range r.data {
		if !task.Active() || !task.CreatedAt.Before(cutoff) {
			continue
		}
		u := upd
		u.Progress = task.Progress
		u.apply(&task)
		r.data[id] = task
		n++
	}
	return n, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
