package specs

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Entry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Entry)}
}

func (r *MemoryRepo) Create(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.findLocked(e.CompanyID, e.ProductModel, e.ParameterName); ok {
		return ErrDuplicate
	}
	r.data[e.ID] = e
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, companyID, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.data[id]
	if !ok || e.CompanyID != companyID {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (r *MemoryRepo) Find(ctx context.Context, companyID, productModel, parameterName string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.findLocked(companyID, productModel, parameterName)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (r *MemoryRepo) findLocked(companyID, productModel, parameterName string) (Entry, bool) {
	for _, e := range r.data {
		if e.CompanyID == companyID && e.ProductModel == productModel && e.ParameterName == parameterName {
			return e, true
		}
	}
	return Entry{}, false
}

// List returns entries ordered by product model then parameter name.
func (r *MemoryRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Entry, 0)
	for _, e := range r.data {
		if e.CompanyID != companyID {
			continue
		}
		if filter.ProductModel != "" && e.ProductModel != filter.ProductModel {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Query != "" && !strings.Contains(e.ParameterName, filter.Query) && !strings.Contains(e.ProductModel, filter.Query) {
			continue
		}
		out = append(out, e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductModel != out[j].ProductModel {
			return out[i].ProductModel < out[j].ProductModel
		}
		return out[i].ParameterName < out[j].ParameterName
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []Entry{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) ListModels(ctx context.Context, companyID string) ([]Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	byModel := make(map[string]*Model)
	for _, e := range r.data {
		if e.CompanyID != companyID {
			continue
		}
		m, ok := byModel[e.ProductModel]
		if !ok {
			m = &Model{ProductModel: e.ProductModel, Category: e.Category, SubCategory: e.SubCategory}
			byModel[e.ProductModel] = m
		}
		m.ParameterCount++
	}
	r.mu.RUnlock()
	out := make([]Model, 0, len(byModel))
	for _, m := range byModel {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductModel < out[j].ProductModel })
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[e.ID]
	if !ok || existing.CompanyID != e.CompanyID {
		return ErrNotFound
	}
	if other, ok := r.findLocked(e.CompanyID, e.ProductModel, e.ParameterName); ok && other.ID != e.ID {
		return ErrDuplicate
	}
	r.data[e.ID] = e
	return nil
}

func (r *MemoryRepo) UpsertMany(ctx context.Context, entries []Entry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	created := 0
	for _, e := range entries {
		if existing, ok := r.findLocked(e.CompanyID, e.ProductModel, e.ParameterName); ok {
			e.ID = existing.ID
			e.CreatedAt = existing.CreatedAt
		} else {
			created++
		}
		r.data[e.ID] = e
	}
	return created, nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[id]
	if !ok || e.CompanyID != companyID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}
