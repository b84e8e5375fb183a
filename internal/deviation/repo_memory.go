package deviation

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows []Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Replace(ctx context.Context, companyID, projectID, productModel string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0:0]
	for _, rec := range r.rows {
		if rec.CompanyID == companyID && rec.ProjectID == projectID && rec.ProductModel == productModel {
			continue
		}
		kept = append(kept, rec)
	}
	r.rows = append(kept, records...)
	return nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, companyID, projectID, productModel string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0)
	for _, rec := range r.rows {
		if rec.CompanyID != companyID || rec.ProjectID != projectID {
			continue
		}
		if productModel != "" && rec.ProductModel != productModel {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, companyID, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.rows {
		if rec.ID == id && rec.CompanyID == companyID {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (r *MemoryRepo) UpdateRemark(ctx context.Context, companyID, id, remark string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.rows {
		if rec.ID == id && rec.CompanyID == companyID {
			r.rows[i].Remark = remark
			r.rows[i].RemarkEdited = true
			return r.rows[i], nil
		}
	}
	return Record{}, ErrNotFound
}
