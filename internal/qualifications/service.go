package qualifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/metrics"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Service manages the qualification catalog and its expiry scans.
type Service struct {
	Repo     Repo
	Notifier Notifier
	Location *time.Location
	Now      func() time.Time
	// AlertDays returns the exclusive day threshold for scan alerts.
	// Nil or non-positive values alert on everything in the expiring window.
	AlertDays func() int
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) alertDays() int {
	if s.AlertDays != nil {
		if d := s.AlertDays(); d > 0 {
			return d
		}
	}
	return ExpiringWindowDays + 1
}

func (s *Service) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// Input carries the editable qualification fields.
type Input struct {
	Name          string `json:"name"`
	ProductModel  string `json:"productModel"`
	LicenseNumber string `json:"licenseNumber"`
	Issuer        string `json:"issuer"`
	IssueDate     Date   `json:"issueDate"`
	ExpiryDate    Date   `json:"expiryDate"`
}

func (in Input) normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ProductModel = strings.TrimSpace(in.ProductModel)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	in.Issuer = strings.TrimSpace(in.Issuer)
	if in.Name == "" {
		return in, apperr.Validation("validation_error", "name is required")
	}
	if in.ExpiryDate.IsZero() {
		return in, apperr.Validation("validation_error", "expiryDate is required")
	}
	if !in.IssueDate.IsZero() && in.ExpiryDate.Before(in.IssueDate) {
		return in, apperr.Validation("validation_error", "expiryDate must not precede issueDate")
	}
	return in, nil
}

func (s *Service) Create(ctx context.Context, companyID string, in Input) (Evaluated, error) {
	in, err := in.normalize()
	if err != nil {
		return Evaluated{}, err
	}
	now := s.now().UTC()
	q := Qualification{
		ID:            uuid.NewString(),
		CompanyID:     companyID,
		Name:          in.Name,
		ProductModel:  in.ProductModel,
		LicenseNumber: in.LicenseNumber,
		Issuer:        in.Issuer,
		IssueDate:     in.IssueDate,
		ExpiryDate:    in.ExpiryDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Create(ctx, q); err != nil {
		return Evaluated{}, err
	}
	return Evaluate(q, s.now(), s.loc()), nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (Evaluated, error) {
	q, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return Evaluated{}, err
	}
	return Evaluate(q, s.now(), s.loc()), nil
}

func (s *Service) Update(ctx context.Context, companyID, id string, in Input) (Evaluated, error) {
	in, err := in.normalize()
	if err != nil {
		return Evaluated{}, err
	}
	q, err := s.Repo.GetByID(ctx, companyID, id)
	if err != nil {
		return Evaluated{}, err
	}
	q.Name = in.Name
	q.ProductModel = in.ProductModel
	q.LicenseNumber = in.LicenseNumber
	q.Issuer = in.Issuer
	q.IssueDate = in.IssueDate
	q.ExpiryDate = in.ExpiryDate
	q.UpdatedAt = s.now().UTC()
	if err := s.Repo.Update(ctx, q); err != nil {
		return Evaluated{}, err
	}
	return Evaluate(q, s.now(), s.loc()), nil
}

func (s *Service) Delete(ctx context.Context, companyID, id string) error {
	return s.Repo.SoftDelete(ctx, companyID, id)
}

// Query narrows a monitored listing. WithinDays keeps qualifications with
// fewer days left, expired ones included.
type Query struct {
	ListFilter
	Status     string
	WithinDays *int
}

// List evaluates the catalog as of today, soonest expiry first.
func (s *Service) List(ctx context.Context, companyID string, q Query) ([]Evaluated, error) {
	if q.Status != "" && q.Status != StatusValid && q.Status != StatusExpiring && q.Status != StatusExpired {
		return nil, apperr.Validation("validation_error", "status must be valid, expiring or expired")
	}
	qs, err := s.Repo.List(ctx, companyID, q.ListFilter)
	if err != nil {
		return nil, err
	}
	var evs []Evaluated
	if q.WithinDays != nil {
		evs = BelowThreshold(qs, s.now(), s.loc(), *q.WithinDays)
	} else {
		evs = EvaluateAll(qs, s.now(), s.loc())
	}
	if q.Status != "" {
		evs = FilterByStatus(evs, q.Status)
	}
	return evs, nil
}

// Stats counts the company catalog by status.
func (s *Service) Stats(ctx context.Context, companyID string) (Stats, error) {
	qs, err := s.Repo.List(ctx, companyID, ListFilter{})
	if err != nil {
		return Stats{}, err
	}
	return StatsOf(EvaluateAll(qs, s.now(), s.loc())), nil
}

// ScanResult summarizes one tenant scan.
type ScanResult struct {
	CompanyID string      `json:"companyId"`
	ScannedAt time.Time   `json:"scannedAt"`
	Stats     Stats       `json:"stats"`
	Alerts    []Evaluated `json:"alerts"`
}

// Scan evaluates a tenant catalog and notifies about every expiring or
// expired qualification.
func (s *Service) Scan(ctx context.Context, companyID string) (ScanResult, error) {
	qs, err := s.Repo.List(ctx, companyID, ListFilter{})
	if err != nil {
		return ScanResult{}, err
	}
	now := s.now()
	evs := EvaluateAll(qs, now, s.loc())
	alerts := BelowThreshold(qs, now, s.loc(), s.alertDays())
	res := ScanResult{CompanyID: companyID, ScannedAt: now.UTC(), Stats: StatsOf(evs), Alerts: alerts}

	metrics.AddQualificationAlerts(StatusExpiring, res.Stats.Expiring)
	metrics.AddQualificationAlerts(StatusExpired, res.Stats.Expired)
	telemetry.Info("qualification.scan", map[string]any{
		"company_id": companyID,
		"total":      res.Stats.Total,
		"expiring":   res.Stats.Expiring,
		"expired":    res.Stats.Expired,
	})
	if len(alerts) > 0 && s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, Alert{CompanyID: companyID, ScannedAt: res.ScannedAt, Items: alerts}); err != nil {
			telemetry.Error("qualification.notify_failed", map[string]any{
				"company_id": companyID,
				"error":      err.Error(),
			})
		}
	}
	return res, nil
}

// ScanAll scans every tenant. A failing tenant is logged and skipped.
func (s *Service) ScanAll(ctx context.Context) ([]ScanResult, error) {
	companies, err := s.Repo.Companies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ScanResult, 0, len(companies))
	for _, companyID := range companies {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := s.Scan(ctx, companyID)
		if err != nil {
			telemetry.Error("qualification.scan_failed", map[string]any{
				"company_id": companyID,
				"error":      err.Error(),
			})
			continue
		}
		out = append(out, res)
	}
	return out, nil
}
