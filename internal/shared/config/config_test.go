package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"ENV", "EXTRACTOR", "EXTRACTION_TIMEOUT", "MAX_RFP_UPLOAD_MB", "MAX_BID_UPLOAD_MB", "MAX_CONCURRENT_TASKS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %s", cfg.Env)
	}
	if cfg.Extractor != "rules" {
		t.Fatalf("expected rules extractor, got %s", cfg.Extractor)
	}
	if cfg.ExtractionTimeout != 300*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.ExtractionTimeout)
	}
	if cfg.MaxRFPUploadBytes != 50<<20 || cfg.MaxBidUploadBytes != 100<<20 {
		t.Fatalf("unexpected upload limits %d/%d", cfg.MaxRFPUploadBytes, cfg.MaxBidUploadBytes)
	}
	if cfg.MaxConcurrentTasks != 5 {
		t.Fatalf("unexpected concurrency %d", cfg.MaxConcurrentTasks)
	}
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "PORT=9090\nEXTRACTION_TIMEOUT=45\nEXTRACTOR=openai\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("EXTRACTION_TIMEOUT", "")
	t.Setenv("EXTRACTOR", "")
	os.Unsetenv("EXTRACTION_TIMEOUT")
	os.Unsetenv("EXTRACTOR")

	cfg := Load()
	if cfg.Port != "7070" {
		t.Fatalf("expected env PORT to win, got %s", cfg.Port)
	}
	if cfg.ExtractionTimeout != 45*time.Second {
		t.Fatalf("expected 45s from .env, got %s", cfg.ExtractionTimeout)
	}
	if cfg.Extractor != "llm" {
		t.Fatalf("expected llm extractor, got %s", cfg.Extractor)
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := Config{Timezone: "Not/AZone"}
	loc := cfg.Location()
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != 8*60*60 {
		t.Fatalf("expected +08:00 fallback, got %d", offset)
	}
}
