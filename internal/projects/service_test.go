package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
)

func newTestService() *Service {
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &Service{Repo: NewMemoryRepo(), Now: func() time.Time { return fixed }}
}

func TestCreateRequiresName(t *testing.T) {
	svc := newTestService()
	_, err := svc.Create(context.Background(), "c1", "u1", CreateInput{Name: "  "})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProjectsAreTenantScoped(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p, err := svc.Create(ctx, "c1", "u1", CreateInput{Name: "CT 采购", Purchaser: "市第一人民医院"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != StatusParsing {
		t.Fatalf("expected parsing, got %s", p.Status)
	}
	if _, err := svc.Get(ctx, "c2", p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
	list, err := svc.List(ctx, "c2", ListFilter{})
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list for other tenant, got %v %v", list, err)
	}
}

func TestSealMakesProjectReadOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p, _ := svc.Create(ctx, "c1", "u1", CreateInput{Name: "MRI"})

	sealed, err := svc.Seal(ctx, "c1", p.ID)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if sealed.Status != StatusSealed || sealed.SealedAt == nil {
		t.Fatalf("expected sealed project, got %+v", sealed)
	}

	name := "renamed"
	if _, err := svc.Update(ctx, "c1", p.ID, UpdateInput{Name: &name}); !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
	if _, err := svc.EnsureEditable(ctx, "c1", p.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := svc.Advance(ctx, "c1", p.ID, StatusReviewing); err != nil {
		t.Fatalf("Advance on sealed should be a no-op, got %v", err)
	}
	got, _ := svc.Get(ctx, "c1", p.ID)
	if got.Status != StatusSealed {
		t.Fatalf("sealed project moved to %s", got.Status)
	}
}

func TestUpdateRejectsSealStatus(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p, _ := svc.Create(ctx, "c1", "u1", CreateInput{Name: "MRI"})
	status := StatusSealed
	if _, err := svc.Update(ctx, "c1", p.ID, UpdateInput{Status: &status}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdvanceOnlyMovesForward(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p, _ := svc.Create(ctx, "c1", "u1", CreateInput{Name: "DR"})

	if err := svc.Advance(ctx, "c1", p.ID, StatusReviewing); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := svc.Advance(ctx, "c1", p.ID, StatusDrafting); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	got, _ := svc.Get(ctx, "c1", p.ID)
	if got.Status != StatusReviewing {
		t.Fatalf("expected reviewing, got %s", got.Status)
	}
}

func TestCountByStatus(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, "c1", "u1", CreateInput{Name: "A"})
	_, _ = svc.Create(ctx, "c1", "u1", CreateInput{Name: "B"})
	_, _ = svc.Seal(ctx, "c1", a.ID)

	counts, err := svc.CountByStatus(ctx, "c1")
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[StatusParsing] != 1 || counts[StatusSealed] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
