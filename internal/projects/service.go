package projects

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Service contains business logic for projects.
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

// CreateInput carries the editable project fields.
type CreateInput struct {
	Name        string
	Purchaser   string
	Description string
	Deadline    *time.Time
}

// Create registers a new project in the parsing stage.
func (s *Service) Create(ctx context.Context, companyID, ownerID string, in CreateInput) (Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Project{}, apperr.Validation("validation_error", "name is required")
	}
	now := s.now()
	p := Project{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		Name:        name,
		Purchaser:   strings.TrimSpace(in.Purchaser),
		Description: strings.TrimSpace(in.Description),
		Status:      StatusParsing,
		OwnerID:     ownerID,
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Get returns a project within the company scope.
func (s *Service) Get(ctx context.Context, companyID, id string) (Project, error) {
	if strings.TrimSpace(id) == "" {
		return Project{}, apperr.Validation("validation_error", "project id is required")
	}
	return s.Repo.GetByID(ctx, companyID, id)
}

// List returns the company's projects newest first.
func (s *Service) List(ctx context.Context, companyID string, filter ListFilter) ([]Project, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, apperr.Validation("validation_error", "unknown status "+filter.Status)
	}
	return s.Repo.List(ctx, companyID, filter)
}

// UpdateInput carries optional changes; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Purchaser   *string
	Description *string
	Status      *string
	Deadline    *time.Time
}

// Update edits a project. Sealed projects are read-only and sealing only
// happens through Seal.
func (s *Service) Update(ctx context.Context, companyID, id string, in UpdateInput) (Project, error) {
	p, err := s.Get(ctx, companyID, id)
	if err != nil {
		return Project{}, err
	}
	if p.Sealed() {
		return Project{}, ErrSealed
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Project{}, apperr.Validation("validation_error", "name cannot be empty")
		}
		p.Name = name
	}
	if in.Purchaser != nil {
		p.Purchaser = strings.TrimSpace(*in.Purchaser)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Deadline != nil {
		p.Deadline = in.Deadline
	}
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		if !validStatus(status) || status == StatusSealed {
			return Project{}, apperr.Validation("validation_error", "invalid status "+status)
		}
		p.Status = status
	}
	p.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Delete soft-deletes a project.
func (s *Service) Delete(ctx context.Context, companyID, id string) error {
	if _, err := s.Get(ctx, companyID, id); err != nil {
		return err
	}
	return s.Repo.SoftDelete(ctx, companyID, id)
}

// Seal finalizes the bid package. Requirements become immutable afterwards.
func (s *Service) Seal(ctx context.Context, companyID, id string) (Project, error) {
	p, err := s.Get(ctx, companyID, id)
	if err != nil {
		return Project{}, err
	}
	if p.Sealed() {
		return p, nil
	}
	now := s.now()
	prev := p.Status
	p.Status = StatusSealed
	p.SealedAt = &now
	p.UpdatedAt = now
	if err := s.Repo.Update(ctx, p); err != nil {
		return Project{}, err
	}
	telemetry.Info("project.status", map[string]any{
		"company_id":        companyID,
		"project_id":        id,
		"status_transition": prev + "->" + StatusSealed,
	})
	return p, nil
}

// EnsureEditable fails with ErrSealed when the project is finalized.
func (s *Service) EnsureEditable(ctx context.Context, companyID, id string) (Project, error) {
	p, err := s.Get(ctx, companyID, id)
	if err != nil {
		return Project{}, err
	}
	if p.Sealed() {
		return Project{}, ErrSealed
	}
	return p, nil
}

// Advance moves the project forward to status when it is behind it.
// It never moves a project backwards or out of sealed.
func (s *Service) Advance(ctx context.Context, companyID, id, status string) error {
	p, err := s.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if p.Sealed() || status == StatusSealed || statusRank(status) <= statusRank(p.Status) {
		return nil
	}
	prev := p.Status
	p.Status = status
	p.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, p); err != nil {
		return err
	}
	telemetry.Info("project.status", map[string]any{
		"company_id":        companyID,
		"project_id":        id,
		"status_transition": prev + "->" + status,
	})
	return nil
}

// SetRFPDocument records the tender document the project was parsed from.
func (s *Service) SetRFPDocument(ctx context.Context, companyID, id, documentID string) error {
	p, err := s.EnsureEditable(ctx, companyID, id)
	if err != nil {
		return err
	}
	p.RFPDocumentID = documentID
	p.UpdatedAt = s.now()
	return s.Repo.Update(ctx, p)
}

// CountByStatus returns project counts keyed by status.
func (s *Service) CountByStatus(ctx context.Context, companyID string) (map[string]int, error) {
	return s.Repo.CountByStatus(ctx, companyID)
}
