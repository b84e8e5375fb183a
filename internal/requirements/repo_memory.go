package requirements

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	reqs    map[string]Requirement
	scoring map[string]ScoringItem
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		reqs:    make(map[string]Requirement),
		scoring: make(map[string]ScoringItem),
	}
}

func (r *MemoryRepo) Replace(ctx context.Context, companyID, projectID, documentID string, res Result, guard Guard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if guard != nil {
		if err := guard(ctx, nil); err != nil {
			return err
		}
	}
	for id, req := range r.reqs {
		if req.CompanyID == companyID && req.ProjectID == projectID && req.DocumentID == documentID {
			delete(r.reqs, id)
		}
	}
	for id, item := range r.scoring {
		if item.CompanyID == companyID && item.ProjectID == projectID && item.DocumentID == documentID {
			delete(r.scoring, id)
		}
	}
	for _, req := range res.Requirements {
		r.reqs[req.ID] = req
	}
	for _, item := range res.ScoringItems {
		r.scoring[item.ID] = item
	}
	return nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, companyID, projectID, documentID string) ([]Requirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Requirement, 0)
	for _, req := range r.reqs {
		if req.CompanyID != companyID || req.ProjectID != projectID {
			continue
		}
		if documentID != "" && req.DocumentID != documentID {
			continue
		}
		out = append(out, req)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r *MemoryRepo) ListScoringItems(ctx context.Context, companyID, projectID, documentID string) ([]ScoringItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]ScoringItem, 0)
	for _, item := range r.scoring {
		if item.CompanyID != companyID || item.ProjectID != projectID {
			continue
		}
		if documentID != "" && item.DocumentID != documentID {
			continue
		}
		out = append(out, item)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, companyID, id string) (Requirement, error) {
	if err := ctx.Err(); err != nil {
		return Requirement{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.reqs[id]
	if !ok || req.CompanyID != companyID {
		return Requirement{}, ErrNotFound
	}
	return req, nil
}

func (r *MemoryRepo) Update(ctx context.Context, req Requirement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.reqs[req.ID]
	if !ok || existing.CompanyID != req.CompanyID {
		return ErrNotFound
	}
	r.reqs[req.ID] = req
	return nil
}
