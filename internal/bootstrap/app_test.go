package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/settings"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/config"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/scheduler"
)

func memoryConfig(t *testing.T) config.Config {
	return config.Config{
		Env:                "dev",
		ObjectStoreType:    "local",
		LocalStoreDir:      t.TempDir(),
		Extractor:          "rules",
		ExtractionTimeout:  time.Minute,
		MaxConcurrentTasks: 3,
	}
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.DB != nil {
		t.Fatal("expected no database without DATABASE_URL")
	}
	if app.Queue != nil {
		t.Fatal("expected in-process extraction without SQS_QUEUE_URL")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["database"] != "memory" {
		t.Fatalf("unexpected health body %v", body)
	}
}

func TestBuildRoutesRequireIdentity(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBuildRejectsMissingDatabaseInProduction(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Env = "production"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatal("expected error without DATABASE_URL in production")
	}
}

func TestBuildRejectsS3WithoutBucket(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.ObjectStoreType = "s3"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatal("expected error for s3 without bucket")
	}
}

func TestJobsAreSchedulable(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	jobs := app.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if _, err := scheduler.New(context.Background(), app.Config.Location(), jobs...); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	for _, job := range jobs {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("job %s: %v", job.Name, err)
		}
	}
}

func TestMailConfigFollowsSettings(t *testing.T) {
	cfg, ok := mailConfig(settings.Email{
		Enabled:    true,
		SMTPHost:   "smtp.example.com",
		SMTPPort:   465,
		From:       "alerts@example.com",
		Recipients: []string{"ops@example.com"},
	})
	if !ok || cfg.Host != "smtp.example.com" || cfg.Port != 465 || len(cfg.Recipients) != 1 {
		t.Fatalf("unexpected mail config %+v ok=%v", cfg, ok)
	}
	if _, ok := mailConfig(settings.Email{SMTPHost: "smtp.example.com"}); ok {
		t.Fatal("expected disabled mail")
	}
}

func TestBuildMountsKnowledgeAndTemplates(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if app.Knowledge == nil || app.Templates == nil || app.Templates.Store != app.Store {
		t.Fatal("expected knowledge and template services sharing the document store")
	}
	for _, path := range []string{"/api/v1/knowledge-chunks", "/api/v1/bid-templates"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Guest-Id", "g1")
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}
