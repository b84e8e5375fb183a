package knowledge

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Chunk
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Chunk)}
}

func (r *MemoryRepo) Create(ctx context.Context, c Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, companyID, id string) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok || c.CompanyID != companyID {
		return Chunk{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := strings.ToLower(filter.Query)
	r.mu.RLock()
	out := make([]Chunk, 0)
	for _, c := range r.data {
		if c.CompanyID != companyID {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.Tag != "" && !slices.Contains(c.Tags, filter.Tag) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Title), query) && !strings.Contains(strings.ToLower(c.Content), query) {
			continue
		}
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []Chunk{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, c Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[c.ID]
	if !ok || existing.CompanyID != c.CompanyID {
		return ErrNotFound
	}
	r.data[c.ID] = c
	return nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok || c.CompanyID != companyID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}
