package specs

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Service manages the company product parameter catalog.
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

// Input carries the editable entry fields.
type Input struct {
	Category       string `json:"category"`
	SubCategory    string `json:"subCategory"`
	ProductModel   string `json:"productModel"`
	ParameterName  string `json:"parameterName"`
	ParameterValue string `json:"parameterValue"`
	IsCoreParam    bool   `json:"isCoreParam"`
}

func (in Input) normalize() (Input, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.SubCategory = strings.TrimSpace(in.SubCategory)
	in.ProductModel = strings.TrimSpace(in.ProductModel)
	in.ParameterName = strings.TrimSpace(in.ParameterName)
	in.ParameterValue = strings.TrimSpace(in.ParameterValue)
	if in.ProductModel == "" {
		return in, apperr.Validation("validation_error", "productModel is required")
	}
	if in.ParameterName == "" {
		return in, apperr.Validation("validation_error", "parameterName is required")
	}
	return in, nil
}

// Create adds a catalog entry. Parameter names are stored verbatim; they
// join against requirement names exactly.
func (s *Service) Create(ctx context.Context, companyID string, in Input) (Entry, error) {
	in, err := in.normalize()
	if err != nil {
		return Entry{}, err
	}
	now := s.now()
	e := Entry{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		Category:       in.Category,
		SubCategory:    in.SubCategory,
		ProductModel:   in.ProductModel,
		ParameterName:  in.ParameterName,
		ParameterValue: in.ParameterValue,
		IsCoreParam:    in.IsCoreParam,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (Entry, error) {
	return s.Repo.GetByID(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID string, filter ListFilter) ([]Entry, error) {
	filter.ProductModel = strings.TrimSpace(filter.ProductModel)
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Query = strings.TrimSpace(filter.Query)
	return s.Repo.List(ctx, companyID, filter)
}

// ByModel returns every parameter declared for a product model.
func (s *Service) ByModel(ctx context.Context, companyID, productModel string) ([]Entry, error) {
	return s.Repo.List(ctx, companyID, ListFilter{ProductModel: productModel})
}

// Models lists the catalog's product models.
func (s *Service) Models(ctx context.Context, companyID string) ([]Model, error) {
	return s.Repo.ListModels(ctx, companyID)
}

func (s *Service) Update(ctx context.Context, companyID, id string, in Input) (Entry, error) {
	in, err := in.normalize()
	if err != nil {
		return Entry{}, err
	}
	e, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return Entry{}, err
	}
	e.Category = in.Category
	e.SubCategory = in.SubCategory
	e.ProductModel = in.ProductModel
	e.ParameterName = in.ParameterName
	e.ParameterValue = in.ParameterValue
	e.IsCoreParam = in.IsCoreParam
	e.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id string) error {
	return s.Repo.SoftDelete(ctx, companyID, id)
}

// ImportResult summarises a workbook import.
type ImportResult struct {
	Total   int        `json:"total"`
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

// Import upserts the workbook rows keyed by product model and parameter
// name. Later rows win over earlier duplicates in the same file.
func (s *Service) Import(ctx context.Context, companyID string, r io.Reader) (ImportResult, error) {
	rows, rowErrs, err := ParseWorkbook(r)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Total: len(rows) + len(rowErrs), Skipped: len(rowErrs), Errors: rowErrs}
	if res.Errors == nil {
		res.Errors = []RowError{}
	}

	now := s.now()
	index := make(map[string]int, len(rows))
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e := row.Entry
		e.ID = uuid.NewString()
		e.CompanyID = companyID
		e.CreatedAt = now
		e.UpdatedAt = now
		key := e.ProductModel + "\x00" + e.ParameterName
		if i, ok := index[key]; ok {
			entries[i] = e
			res.Skipped++
			continue
		}
		index[key] = len(entries)
		entries = append(entries, e)
	}
	if len(entries) > 0 {
		created, err := s.Repo.UpsertMany(ctx, entries)
		if err != nil {
			return ImportResult{}, err
		}
		res.Created = created
		res.Updated = len(entries) - created
	}
	telemetry.Info("specs.imported", map[string]any{
		"company_id": companyID,
		"total":      res.Total,
		"created":    res.Created,
		"updated":    res.Updated,
		"skipped":    res.Skipped,
	})
	return res, nil
}
