package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, companyID, documentID string) (Document, error)
	ListByProject(ctx context.Context, companyID, projectID, kind string) ([]Document, error)
	UpdateExtraction(ctx context.Context, companyID, documentID, textKey, layoutKey string, extractedAt time.Time) error
	SoftDelete(ctx context.Context, companyID, documentID string) error
}
