package requirements

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
)

// Service exposes requirement persistence and manual review.
type Service struct {
	Repo     Repo
	Projects *projects.Service
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Save stamps ownership, ids and order onto res and replaces the stored set
// for (project, document).
func (s *Service) Save(ctx context.Context, companyID, projectID, documentID, version string, res Result) (Result, error) {
	return s.SaveIf(ctx, companyID, projectID, documentID, version, res, nil)
}

// SaveIf is Save with guard checked inside the same write. A guard error
// leaves the previous set untouched and is returned as is.
func (s *Service) SaveIf(ctx context.Context, companyID, projectID, documentID, version string, res Result, guard Guard) (Result, error) {
	now := s.now()
	out := Result{
		Requirements: make([]Requirement, 0, len(res.Requirements)),
		ScoringItems: make([]ScoringItem, 0, len(res.ScoringItems)),
	}
	for i, req := range res.Requirements {
		req.ID = uuid.NewString()
		req.CompanyID = companyID
		req.ProjectID = projectID
		req.DocumentID = documentID
		req.Version = version
		req.Seq = i + 1
		req.CreatedAt = now
		req.UpdatedAt = now
		out.Requirements = append(out.Requirements, req)
	}
	for i, item := range res.ScoringItems {
		item.ID = uuid.NewString()
		item.CompanyID = companyID
		item.ProjectID = projectID
		item.DocumentID = documentID
		item.Version = version
		item.Seq = i + 1
		item.CreatedAt = now
		out.ScoringItems = append(out.ScoringItems, item)
	}
	if err := s.Repo.Replace(ctx, companyID, projectID, documentID, out, guard); err != nil {
		return Result{}, err
	}
	return out, nil
}

// List returns the requirements of the project's current tender document.
func (s *Service) List(ctx context.Context, companyID, projectID string, filter ListFilter) ([]Requirement, error) {
	p, err := s.Projects.Get(ctx, companyID, projectID)
	if err != nil {
		return nil, err
	}
	all, err := s.Repo.ListByProject(ctx, companyID, projectID, p.RFPDocumentID)
	if err != nil {
		return nil, err
	}
	if filter.Category == "" && filter.Status == "" {
		return all, nil
	}
	out := make([]Requirement, 0, len(all))
	for _, req := range all {
		if filter.Category != "" && req.Category != filter.Category {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

// ByDocument returns the requirements extracted from one document.
func (s *Service) ByDocument(ctx context.Context, companyID, projectID, documentID string) ([]Requirement, error) {
	return s.Repo.ListByProject(ctx, companyID, projectID, documentID)
}

// ScoringItems returns the scoring table of the project's current tender document.
func (s *Service) ScoringItems(ctx context.Context, companyID, projectID string) ([]ScoringItem, error) {
	p, err := s.Projects.Get(ctx, companyID, projectID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListScoringItems(ctx, companyID, projectID, p.RFPDocumentID)
}

// Get returns one requirement.
func (s *Service) Get(ctx context.Context, companyID, id string) (Requirement, error) {
	return s.Repo.GetByID(ctx, companyID, id)
}

// ReviewInput carries the fields an operator may correct; nil leaves a field as is.
type ReviewInput struct {
	Category       *string
	ParameterName  *string
	RequiredValue  *string
	ExtractedValue *string
	Operator       *string
	Status         *string
}

// Review applies a manual correction. Requirements of sealed projects are immutable.
func (s *Service) Review(ctx context.Context, companyID, userID, id string, in ReviewInput) (Requirement, error) {
	req, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return Requirement{}, err
	}
	if _, err := s.Projects.EnsureEditable(ctx, companyID, req.ProjectID); err != nil {
		return Requirement{}, err
	}

	if in.Category != nil {
		if !validCategory(*in.Category) {
			return Requirement{}, apperr.Validation("invalid_category", "unknown requirement category")
		}
		req.Category = *in.Category
	}
	if in.ParameterName != nil {
		name := strings.TrimSpace(*in.ParameterName)
		if name == "" {
			return Requirement{}, apperr.Validation("validation_error", "parameterName is required")
		}
		req.ParameterName = name
	}
	if in.RequiredValue != nil {
		req.RequiredValue = strings.TrimSpace(*in.RequiredValue)
		if in.Operator == nil {
			op, value, _ := ParseValue(req.RequiredValue)
			req.Operator = op
			if in.ExtractedValue == nil {
				req.ExtractedValue = value
			}
		}
	}
	if in.ExtractedValue != nil {
		req.ExtractedValue = strings.TrimSpace(*in.ExtractedValue)
	}
	if in.Operator != nil {
		op, ok := ParseOperator(*in.Operator)
		if !ok {
			return Requirement{}, apperr.Validation("invalid_operator", "unknown comparison operator")
		}
		req.Operator = op
	}

	status := StatusConfirmed
	if in.Status != nil {
		status = *in.Status
	}
	if !validStatus(status) {
		return Requirement{}, apperr.Validation("invalid_status", "unknown requirement status")
	}
	if status == StatusConfirmed && req.Operator != OpNone && req.ExtractedValue == "" {
		return Requirement{}, apperr.Validation("validation_error", "extractedValue is required to confirm")
	}
	req.Status = status
	if status == StatusConfirmed {
		req.Confidence = 1
	}
	req.ReviewedBy = userID
	req.UpdatedAt = s.now()

	if err := s.Repo.Update(ctx, req); err != nil {
		return Requirement{}, err
	}
	return req, nil
}
