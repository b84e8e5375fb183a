package checkup

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Record)}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.ID] = clone(rec)
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[rec.ID]
	if !ok || existing.CompanyID != rec.CompanyID {
		return ErrNotFound
	}
	if existing.State == StateCompleted {
		return ErrCompleted
	}
	r.data[rec.ID] = clone(rec)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, companyID, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[id]
	if !ok || rec.CompanyID != companyID {
		return Record{}, ErrNotFound
	}
	return clone(rec), nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, companyID, projectID string, filter ListFilter) ([]Record, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	out := make([]Record, 0)
	for _, rec := range r.data {
		if rec.CompanyID != companyID || rec.ProjectID != projectID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, clone(rec))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	total := len(out)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []Record{}, total, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (r *MemoryRepo) CountByStatus(ctx context.Context, companyID string, since time.Time) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]int{}
	for _, rec := range r.data {
		if rec.CompanyID != companyID || rec.State != StateCompleted || rec.CreatedAt.Before(since) {
			continue
		}
		out[rec.Status]++
	}
	return out, nil
}

func clone(rec Record) Record {
	rec.Results = append([]Result(nil), rec.Results...)
	return rec
}
