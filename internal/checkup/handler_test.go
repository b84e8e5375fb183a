package checkup

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/auth"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T, f fixture) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.SignJWT(auth.Claims{Sub: "u1", CompanyID: "c1", Role: middleware.RoleOperator})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	router := gin.New()
	router.Use(middleware.Auth("production"))
	NewHandler(f.svc, ReportOptions{Location: time.UTC}).RegisterRoutes(router.Group("/api/v1"))
	return router, token
}

func doJSON(router *gin.Engine, token, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHandlerRunAndReport(t *testing.T) {
	f := newFixture(t)
	doc := f.uploadBid(t, bidLines)
	router, token := newTestRouter(t, f)

	resp := doJSON(router, token, http.MethodPost, "/api/v1/checkups", Input{ProjectID: f.project.ID, DocumentID: doc.ID, ProductModel: "CT-X1"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.State != StateCompleted || len(rec.Results) != 15 {
		t.Fatalf("unexpected record %+v", rec)
	}

	resp = doJSON(router, token, http.MethodGet, "/api/v1/checkups/"+rec.ID+"/report", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf body")
	}

	resp = doJSON(router, token, http.MethodGet, "/api/v1/projects/"+f.project.ID+"/checkups?limit=5", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"total":1`) {
		t.Fatalf("unexpected history response %d: %s", resp.Code, resp.Body.String())
	}
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(t)
	router, token := newTestRouter(t, f)

	if resp := doJSON(router, token, http.MethodPost, "/api/v1/checkups", Input{ProjectID: f.project.ID}); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without document, got %d", resp.Code)
	}
	if resp := doJSON(router, token, http.MethodGet, "/api/v1/checkups/missing", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := doJSON(router, token, http.MethodPost, "/api/v1/checkups/missing/recheck", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on recheck, got %d", resp.Code)
	}
}

func TestRenderPDF(t *testing.T) {
	completed := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := Record{
		ID:          "k1",
		FileName:    "bid.docx",
		State:       StateCompleted,
		Status:      OverallWarning,
		Totals:      Totals{Total: 2, Passed: 1, Warnings: 1},
		Progress:    50,
		CreatedAt:   completed.Add(-time.Minute),
		CompletedAt: &completed,
		Results: []Result{
			{Category: CategoryFormat, CheckItem: "page numbers", Status: StatusPassed, Description: "ok"},
			{Category: CategoryFormat, CheckItem: "toc", Status: StatusWarning, Description: "missing", Suggestion: "add one"},
		},
	}
	data, err := RenderPDF(rec, ReportOptions{})
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected pdf output")
	}
}
