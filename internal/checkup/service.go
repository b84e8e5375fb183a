package checkup

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/deviation"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/qualifications"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/settings"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/metrics"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Service runs checkups and keeps their history.
type Service struct {
	Repo           Repo
	Projects       *projects.Service
	Documents      *documents.Service
	Requirements   *requirements.Service
	Deviations     *deviation.Service
	Qualifications *qualifications.Service
	Settings       *settings.Service
	// Rules defaults to DefaultRules.
	Rules []Rule
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) rules() []Rule {
	if len(s.Rules) > 0 {
		return s.Rules
	}
	return DefaultRules()
}

// Input selects the bid document to check. ProductModel picks the
// deviation table the technical checks compare against.
type Input struct {
	ProjectID    string `json:"projectId"`
	DocumentID   string `json:"documentId"`
	ProductModel string `json:"productModel"`
}

// Run checks a bid document and returns the completed record.
func (s *Service) Run(ctx context.Context, companyID, userID string, in Input) (Record, error) {
	return s.run(ctx, companyID, userID, in, "")
}

// Recheck runs the checks of an earlier record again. The earlier record is
// left untouched; the new one points back to it.
func (s *Service) Recheck(ctx context.Context, companyID, userID, id string) (Record, error) {
	prev, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return Record{}, err
	}
	in := Input{ProjectID: prev.ProjectID, DocumentID: prev.DocumentID, ProductModel: prev.ProductModel}
	return s.run(ctx, companyID, userID, in, prev.ID)
}

func (s *Service) run(ctx context.Context, companyID, userID string, in Input, previousID string) (Record, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.DocumentID = strings.TrimSpace(in.DocumentID)
	in.ProductModel = strings.TrimSpace(in.ProductModel)
	if in.ProjectID == "" || in.DocumentID == "" {
		return Record{}, ErrDocumentRequired
	}
	project, err := s.Projects.Get(ctx, companyID, in.ProjectID)
	if err != nil {
		return Record{}, err
	}
	doc, err := s.Documents.Get(ctx, companyID, in.DocumentID)
	if err != nil {
		return Record{}, err
	}
	if doc.ProjectID != project.ID {
		return Record{}, documents.ErrNotFound
	}
	if doc.Kind != documents.KindBid {
		return Record{}, ErrNotBidDocument
	}

	started := time.Now()
	rec := Record{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		ProjectID:    project.ID,
		DocumentID:   doc.ID,
		FileName:     doc.FileName,
		ProductModel: in.ProductModel,
		State:        StateCreated,
		Results:      []Result{},
		PreviousID:   previousID,
		CreatedBy:    userID,
		CreatedAt:    s.now(),
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}

	// From here on the record must reach completed even if the caller goes away.
	wctx := context.WithoutCancel(ctx)
	rec.State = StateRunning
	if err := s.Repo.Update(wctx, rec); err != nil {
		return Record{}, err
	}
	results, err := s.evaluate(wctx, project, doc, in.ProductModel)
	if err != nil {
		telemetry.Warn("checkup.package_failed", map[string]any{
			"checkup_id":  rec.ID,
			"document_id": doc.ID,
			"error":       err.Error(),
		})
		results = failAll(s.rules(), "无法完成检查："+err.Error())
	}

	completed := s.now()
	rec.Results = results
	rec.Totals, rec.Status, rec.Progress = Aggregate(results)
	rec.State = StateCompleted
	rec.CompletedAt = &completed
	if err := s.Repo.Update(wctx, rec); err != nil {
		return Record{}, err
	}

	metrics.IncCheckup(rec.Status, time.Since(started))
	telemetry.Info("checkup.completed", map[string]any{
		"checkup_id":  rec.ID,
		"company_id":  companyID,
		"project_id":  project.ID,
		"status":      rec.Status,
		"progress":    rec.Progress,
		"previous_id": previousID,
	})
	return rec, nil
}

func (s *Service) evaluate(ctx context.Context, project projects.Project, doc documents.Document, model string) ([]Result, error) {
	pkg, err := s.assemble(ctx, project, doc, model)
	if err != nil {
		return nil, err
	}
	return Run(ctx, s.rules(), pkg)
}

// assemble loads the bid text and everything the rules compare it with.
func (s *Service) assemble(ctx context.Context, project projects.Project, doc documents.Document, model string) (*Package, error) {
	companyID := project.CompanyID
	bid, err := s.Documents.LoadContent(ctx, doc)
	if err != nil {
		return nil, err
	}
	pkg := &Package{Project: project, FileName: doc.FileName, ProductModel: model, Bid: bid}

	if project.RFPDocumentID != "" {
		if rfp, err := s.Documents.Get(ctx, companyID, project.RFPDocumentID); err == nil {
			if content, err := s.Documents.LoadContent(ctx, rfp); err == nil {
				pkg.TenderText = content.Text
			} else {
				telemetry.Warn("checkup.tender_unreadable", map[string]any{"document_id": rfp.ID, "error": err.Error()})
			}
		}
	}
	if pkg.Requirements, err = s.Requirements.List(ctx, companyID, project.ID, requirements.ListFilter{}); err != nil {
		return nil, err
	}
	if pkg.ScoringItems, err = s.Requirements.ScoringItems(ctx, companyID, project.ID); err != nil {
		return nil, err
	}
	if model != "" && s.Deviations != nil {
		table, err := s.Deviations.List(ctx, companyID, project.ID, model)
		if err != nil {
			return nil, err
		}
		pkg.Deviations = table.Records
	}
	if s.Qualifications != nil {
		if pkg.Qualifications, err = s.Qualifications.List(ctx, companyID, qualifications.Query{}); err != nil {
			return nil, err
		}
	}
	if s.Settings != nil {
		pkg.CompetitorNames = s.Settings.Current().Compliance.CompetitorNames
	}
	return pkg, nil
}

func failAll(rules []Rule, desc string) []Result {
	out := make([]Result, 0, len(rules))
	for _, r := range rules {
		out = append(out, Result{
			Category:    r.Category(),
			CheckItem:   r.Name(),
			Status:      StatusError,
			Description: desc,
			Suggestion:  "请确认投标文件可以正常打开后重新检查",
		})
	}
	return out
}

func (s *Service) Get(ctx context.Context, companyID, id string) (Record, error) {
	return s.Repo.GetByID(ctx, companyID, id)
}

// ListByProject returns the project's checkup history, newest first.
func (s *Service) ListByProject(ctx context.Context, companyID, projectID string, filter ListFilter) ([]Record, int, error) {
	if _, err := s.Projects.Get(ctx, companyID, projectID); err != nil {
		return nil, 0, err
	}
	return s.Repo.ListByProject(ctx, companyID, projectID, filter)
}

// CountRecent counts completed checkups by overall status since the given time.
func (s *Service) CountRecent(ctx context.Context, companyID string, since time.Time) (map[string]int, error) {
	return s.Repo.CountByStatus(ctx, companyID, since)
}
