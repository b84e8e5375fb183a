package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Document)}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, companyID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok || doc.CompanyID != companyID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByProject returns project documents newest first; kind "" matches all.
func (r *MemoryRepo) ListByProject(ctx context.Context, companyID, projectID, kind string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Document, 0)
	for _, doc := range r.data {
		if doc.CompanyID != companyID || doc.ProjectID != projectID {
			continue
		}
		if kind != "" && doc.Kind != kind {
			continue
		}
		out = append(out, doc)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateExtraction stores derived artifact keys the first time only.
func (r *MemoryRepo) UpdateExtraction(ctx context.Context, companyID, documentID, textKey, layoutKey string, extractedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok || doc.CompanyID != companyID {
		return ErrNotFound
	}
	if doc.ExtractedTextKey == "" {
		doc.ExtractedTextKey = textKey
		doc.LayoutKey = layoutKey
		doc.ExtractedAt = &extractedAt
		r.data[documentID] = doc
	}
	return nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, companyID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok || doc.CompanyID != companyID {
		return ErrNotFound
	}
	delete(r.data, documentID)
	return nil
}
