package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/oplog"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/auth"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
)

func newRouter(t *testing.T, svc *Service, logs *oplog.MemoryRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Auth("production"))
	api := router.Group("/api/v1")
	api.Use(oplog.Recorder(&oplog.Service{Repo: logs}, "/api/v1"))
	NewHandler(svc).RegisterRoutes(api)
	return router
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: "u1", CompanyID: "c1", Role: role})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return "Bearer " + token
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadRouteRecordsAudit(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc, _ := newTestService(t)
	logs := oplog.NewMemoryRepo()
	router := newRouter(t, svc, logs)

	body, contentType := multipartBody(t, map[string]string{"name": "CT标准模板", "templateType": "CT"}, "CT标准模板.pdf", samplePDF)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bid-templates", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, middleware.RoleManager))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var tpl Template
	if err := json.NewDecoder(resp.Body).Decode(&tpl); err != nil {
		t.Fatalf("decode: %v", err)
	}

	entries, total, err := logs.List(context.Background(), "c1", oplog.ListFilter{})
	if err != nil || total != 1 {
		t.Fatalf("expected one audit entry, got %+v (%d, %v)", entries, total, err)
	}
	if entries[0].OperationType != oplog.OpCreate || entries[0].ResourceType != "bid-templates" || entries[0].ResourceID != tpl.ID {
		t.Fatalf("unexpected audit entry %+v", entries[0])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bid-templates/"+tpl.ID+"/download", nil)
	req.Header.Set("Authorization", bearer(t, middleware.RoleOperator))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || resp.Body.String() != samplePDF {
		t.Fatalf("download: %d %q", resp.Code, resp.Body.String())
	}
}

func TestUploadRouteRequiresWriterRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc, _ := newTestService(t)
	router := newRouter(t, svc, oplog.NewMemoryRepo())

	body, contentType := multipartBody(t, map[string]string{"name": "模板", "templateType": "CT"}, "模板.pdf", samplePDF)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bid-templates", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, middleware.RoleOperator))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for operator, got %d", resp.Code)
	}
}
