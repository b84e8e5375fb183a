package qualifications

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Qualification
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Qualification)}
}

func (r *MemoryRepo) Create(ctx context.Context, q Qualification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[q.ID] = q
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, companyID, id string) (Qualification, error) {
	if err := ctx.Err(); err != nil {
		return Qualification{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.data[id]
	if !ok || q.CompanyID != companyID {
		return Qualification{}, ErrNotFound
	}
	return q, nil
}

func (r *MemoryRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Qualification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Qualification, 0)
	for _, q := range r.data {
		if q.CompanyID != companyID {
			continue
		}
		if filter.ProductModel != "" && q.ProductModel != filter.ProductModel {
			continue
		}
		if filter.Query != "" && !strings.Contains(q.Name, filter.Query) && !strings.Contains(q.LicenseNumber, filter.Query) {
			continue
		}
		out = append(out, q)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ExpiryDate, out[j].ExpiryDate
		if a.Before(b) || b.Before(a) {
			return a.Before(b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, q Qualification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[q.ID]
	if !ok || cur.CompanyID != q.CompanyID {
		return ErrNotFound
	}
	r.data[q.ID] = q
	return nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.data[id]
	if !ok || q.CompanyID != companyID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) Companies(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, q := range r.data {
		if _, ok := seen[q.CompanyID]; ok {
			continue
		}
		seen[q.CompanyID] = struct{}{}
		out = append(out, q.CompanyID)
	}
	sort.Strings(out)
	return out, nil
}
