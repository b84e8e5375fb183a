package deviation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/metrics"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/specs"
)

// Service evaluates and stores deviation tables.
type Service struct {
	Repo         Repo
	Projects     *projects.Service
	Requirements *requirements.Service
	Specs        *specs.Service
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// inputs loads the technical requirements of the project and the catalog
// entries of one product model.
func (s *Service) inputs(ctx context.Context, companyID, projectID, productModel string) ([]requirements.Requirement, []specs.Entry, error) {
	reqs, err := s.Requirements.List(ctx, companyID, projectID, requirements.ListFilter{Category: requirements.CategoryTechnical})
	if err != nil {
		return nil, nil, err
	}
	if len(reqs) == 0 {
		return nil, nil, ErrNoRequirements
	}
	entries, err := s.Specs.ByModel(ctx, companyID, productModel)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, ErrUnknownModel
	}
	return reqs, entries, nil
}

// Evaluate recomputes the deviation table of (project, product model) and
// stores it. Remarks edited by hand survive recomputation.
func (s *Service) Evaluate(ctx context.Context, companyID, projectID, productModel string) (Result, error) {
	productModel = strings.TrimSpace(productModel)
	if productModel == "" {
		return Result{}, ErrMissingModel
	}
	if _, err := s.Projects.EnsureEditable(ctx, companyID, projectID); err != nil {
		return Result{}, err
	}
	reqs, entries, err := s.inputs(ctx, companyID, projectID, productModel)
	if err != nil {
		return Result{}, err
	}

	previous, err := s.Repo.ListByProject(ctx, companyID, projectID, productModel)
	if err != nil {
		return Result{}, err
	}
	edited := make(map[string]string)
	for _, rec := range previous {
		if rec.RemarkEdited {
			edited[rec.ParameterName] = rec.Remark
		}
	}

	records := Evaluate(reqs, entries)
	now := s.now()
	for i := range records {
		records[i].ID = uuid.NewString()
		records[i].CompanyID = companyID
		records[i].ProjectID = projectID
		records[i].ProductModel = productModel
		records[i].ComputedAt = now
		if remark, ok := edited[records[i].ParameterName]; ok {
			records[i].Remark = remark
			records[i].RemarkEdited = true
		}
	}
	if err := s.Repo.Replace(ctx, companyID, projectID, productModel, records); err != nil {
		return Result{}, err
	}

	summary := Summarize(records)
	metrics.AddDeviations(Positive, summary.Positive)
	metrics.AddDeviations(None, summary.None)
	metrics.AddDeviations(Negative, summary.Negative)
	telemetry.Info("deviation.evaluated", map[string]any{
		"company_id":    companyID,
		"project_id":    projectID,
		"product_model": productModel,
		"total":         summary.Total,
		"negative":      summary.Negative,
		"errors":        summary.Errors,
	})
	return Result{ProjectID: projectID, ProductModel: productModel, Records: records, Summary: summary}, nil
}

// List returns the stored table. An empty model returns all models.
func (s *Service) List(ctx context.Context, companyID, projectID, productModel string) (Result, error) {
	if _, err := s.Projects.Get(ctx, companyID, projectID); err != nil {
		return Result{}, err
	}
	records, err := s.Repo.ListByProject(ctx, companyID, projectID, strings.TrimSpace(productModel))
	if err != nil {
		return Result{}, err
	}
	return Result{ProjectID: projectID, ProductModel: productModel, Records: records, Summary: Summarize(records)}, nil
}

// UpdateRemark replaces the remark of one record and marks it hand-edited.
func (s *Service) UpdateRemark(ctx context.Context, companyID, id, remark string) (Record, error) {
	remark = strings.TrimSpace(remark)
	if utf8.RuneCountInString(remark) > maxRemarkRunes {
		return Record{}, ErrRemarkTooLong
	}
	rec, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return Record{}, err
	}
	if _, err := s.Projects.EnsureEditable(ctx, companyID, rec.ProjectID); err != nil {
		return Record{}, err
	}
	return s.Repo.UpdateRemark(ctx, companyID, id, remark)
}

// Comparison is one model's outcome in a side-by-side comparison.
type Comparison struct {
	ProductModel string   `json:"productModel"`
	Records      []Record `json:"records,omitempty"`
	Summary      Summary  `json:"summary"`
	ErrorCode    string   `json:"errorCode,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Compare evaluates several product models against the project without
// storing anything. A failing model is reported on its own entry.
func (s *Service) Compare(ctx context.Context, companyID, projectID string, models []string) ([]Comparison, error) {
	models = uniqueModels(models)
	if len(models) == 0 {
		return nil, ErrMissingModel
	}
	if len(models) > maxCompareModels {
		return nil, ErrTooManyModels
	}
	if _, err := s.Projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	reqs, err := s.Requirements.List(ctx, companyID, projectID, requirements.ListFilter{Category: requirements.CategoryTechnical})
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, ErrNoRequirements
	}

	out := make([]Comparison, len(models))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compareParallelism)
	for i, model := range models {
		g.Go(func() error {
			cmp := Comparison{ProductModel: model}
			entries, err := s.Specs.ByModel(gctx, companyID, model)
			switch {
			case err != nil:
				cmp.ErrorCode, cmp.Error = apperr.CodeOf(err), errorMessage(err)
			case len(entries) == 0:
				cmp.ErrorCode, cmp.Error = CodeUnknownModel, errorMessage(ErrUnknownModel)
			default:
				cmp.Records = Evaluate(reqs, entries)
				for j := range cmp.Records {
					cmp.Records[j].CompanyID = companyID
					cmp.Records[j].ProjectID = projectID
					cmp.Records[j].ProductModel = model
				}
				cmp.Summary = Summarize(cmp.Records)
			}
			out[i] = cmp
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func uniqueModels(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
