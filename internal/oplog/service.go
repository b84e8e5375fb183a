package oplog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Service records and lists operation logs.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

const maxContentRunes = 500

// Record stores e. Failures are logged and swallowed; auditing never fails
// the audited request.
func (s *Service) Record(ctx context.Context, e Entry) {
	if s == nil || s.Repo == nil || e.CompanyID == "" {
		return
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	if r := []rune(e.Content); len(r) > maxContentRunes {
		e.Content = string(r[:maxContentRunes])
	}
	if err := s.Repo.Insert(context.WithoutCancel(ctx), e); err != nil {
		telemetry.Error("oplog.insert_failed", map[string]any{
			"company_id":     e.CompanyID,
			"operation_type": e.OperationType,
			"resource_type":  e.ResourceType,
			"error":          err.Error(),
		})
	}
}

// List returns a page of logs, newest first, with the total match count.
func (s *Service) List(ctx context.Context, companyID string, filter ListFilter) ([]Entry, int, error) {
	filter.OperationType = strings.TrimSpace(filter.OperationType)
	filter.ResourceType = strings.TrimSpace(filter.ResourceType)
	return s.Repo.List(ctx, companyID, filter)
}
