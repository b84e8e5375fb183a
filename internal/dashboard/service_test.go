package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/checkup"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/qualifications"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/auth"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
)

type fakeCheckups struct {
	since  time.Time
	counts map[string]int
	err    error
}

func (f *fakeCheckups) CountRecent(_ context.Context, _ string, since time.Time) (map[string]int, error) {
	f.since = since
	return f.counts, f.err
}

type fakeTasks int

func (f fakeTasks) CountActive(context.Context, string) (int, error) { return int(f), nil }

func newTestService(t *testing.T, checkups *fakeCheckups) *Service {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	projSvc := &projects.Service{Repo: projects.NewMemoryRepo()}
	for _, name := range []string{"CT采购", "MRI采购"} {
		if _, err := projSvc.Create(ctx, "c1", "u1", projects.CreateInput{Name: name}); err != nil {
			t.Fatalf("create project: %v", err)
		}
	}
	qualSvc := &qualifications.Service{Repo: qualifications.NewMemoryRepo(), Now: func() time.Time { return now }}
	for _, expiry := range []qualifications.Date{
		qualifications.NewDate(2028, 1, 1),
		qualifications.NewDate(2026, 6, 20),
		qualifications.NewDate(2026, 5, 1),
	} {
		if _, err := qualSvc.Create(ctx, "c1", qualifications.Input{Name: "医疗器械注册证", ExpiryDate: expiry}); err != nil {
			t.Fatalf("create qualification: %v", err)
		}
	}
	return &Service{
		Projects:       projSvc,
		Qualifications: qualSvc,
		Checkups:       checkups,
		Extractions:    fakeTasks(2),
		Now:            func() time.Time { return now },
	}
}

func TestSummary(t *testing.T) {
	checkups := &fakeCheckups{counts: map[string]int{checkup.OverallError: 3}}
	svc := newTestService(t, checkups)

	sum, err := svc.Summary(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Projects[projects.StatusParsing] != 2 || sum.Projects[projects.StatusSealed] != 0 {
		t.Fatalf("unexpected project counts %v", sum.Projects)
	}
	if sum.Qualifications != (qualifications.Stats{Total: 3, Valid: 1, Expiring: 1, Expired: 1}) {
		t.Fatalf("unexpected qualification stats %+v", sum.Qualifications)
	}
	if sum.Checkups[checkup.OverallError] != 3 || sum.Checkups[checkup.OverallSuccess] != 0 || len(sum.Checkups) != 3 {
		t.Fatalf("unexpected checkup counts %v", sum.Checkups)
	}
	if want := sum.GeneratedAt.AddDate(0, 0, -DefaultWindowDays); !checkups.since.Equal(want) {
		t.Fatalf("expected window start %s, got %s", want, checkups.since)
	}
	if sum.ActiveExtractions != 2 {
		t.Fatalf("unexpected active extractions %d", sum.ActiveExtractions)
	}
}

func TestSummaryPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := newTestService(t, &fakeCheckups{err: boom})
	if _, err := svc.Summary(context.Background(), "c1"); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestDashboardRequiresManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	svc := newTestService(t, &fakeCheckups{})
	router := gin.New()
	router.Use(middleware.Auth("production"))
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))

	for role, want := range map[string]int{
		middleware.RoleAdmin:    http.StatusOK,
		middleware.RoleManager:  http.StatusOK,
		middleware.RoleOperator: http.StatusForbidden,
	} {
		token, err := auth.SignJWT(auth.Claims{Sub: "u1", CompanyID: "c1", Role: role})
		if err != nil {
			t.Fatalf("SignJWT: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("role %s: expected %d, got %d", role, want, resp.Code)
		}
	}
}
