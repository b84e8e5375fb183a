package templates

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object/local"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &Service{
		Store:           local.New(t.TempDir()),
		Repo:            NewMemoryRepo(),
		StorageProvider: "local",
		Now:             func() time.Time { return clock },
	}, &clock
}

func upload(svc *Service, companyID, name, templateType string) (Template, error) {
	return svc.Upload(context.Background(), companyID, "u1", UploadInput{
		Name:         name,
		TemplateType: templateType,
		FileName:     name + ".pdf",
		Body:         strings.NewReader(samplePDF),
	})
}

func TestUploadStoresFileAndRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl, err := upload(svc, "c1", "CT标准投标模板", "ＣＴ")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if tpl.TemplateType != "CT" || tpl.MimeType != "application/pdf" || tpl.SizeBytes != int64(len(samplePDF)) {
		t.Fatalf("unexpected template %+v", tpl)
	}
	if tpl.StorageKey == "" || tpl.StorageProvider != "local" || tpl.UploadedBy != "u1" {
		t.Fatalf("storage not recorded: %+v", tpl)
	}

	got, rc, err := svc.Open(ctx, "c1", tpl.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if got.ID != tpl.ID || string(data) != samplePDF {
		t.Fatalf("unexpected file %q", data)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for name, in := range map[string]UploadInput{
		"no name": {TemplateType: "CT", FileName: "a.pdf", Body: strings.NewReader(samplePDF)},
		"no type": {Name: "模板", FileName: "a.pdf", Body: strings.NewReader(samplePDF)},
		"no file": {Name: "模板", TemplateType: "CT"},
	} {
		if _, err := svc.Upload(ctx, "c1", "u1", in); apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	for fileName, body := range map[string]string{
		"模板.xlsx": "PK\x03\x04",
		"伪装.pdf":  "plain text pretending to be a pdf",
	} {
		_, err := svc.Upload(ctx, "c1", "u1", UploadInput{Name: "模板", TemplateType: "CT", FileName: fileName, Body: strings.NewReader(body)})
		if !errors.Is(err, apperr.Validation(documents.CodeUnsupportedFormat, "")) {
			t.Fatalf("%s: expected UNSUPPORTED_FORMAT, got %v", fileName, err)
		}
	}

	svc.MaxBytes = 64
	_, err := svc.Upload(ctx, "c1", "u1", UploadInput{
		Name: "大模板", TemplateType: "CT", FileName: "big.pdf",
		Body: strings.NewReader(samplePDF + strings.Repeat("%", 80)),
	})
	if !errors.Is(err, apperr.Validation(documents.CodeFileTooLarge, "")) {
		t.Fatalf("expected FILE_TOO_LARGE, got %v", err)
	}
}

func TestUploadRejectsDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := upload(svc, "c1", "MRI模板", "MRI"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := upload(svc, "c1", "MRI模板", "MRI"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := upload(svc, "c1", "MRI模板", "超声"); err != nil {
		t.Fatalf("same name under another type should be allowed: %v", err)
	}
	if _, err := upload(svc, "c2", "MRI模板", "MRI"); err != nil {
		t.Fatalf("same name in another company should be allowed: %v", err)
	}
}

func TestListAndDeleteAreTenantScoped(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	for _, tt := range []struct{ name, kind string }{{"CT模板", "CT"}, {"超声模板", "超声"}, {"CT简版", "CT"}} {
		*clock = clock.Add(time.Minute)
		if _, err := upload(svc, "c1", tt.name, tt.kind); err != nil {
			t.Fatalf("Upload %s: %v", tt.name, err)
		}
	}
	other, err := upload(svc, "c2", "别家模板", "CT")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	all, err := svc.List(ctx, "c1", "")
	if err != nil || len(all) != 3 || all[0].Name != "CT简版" {
		t.Fatalf("expected newest first, got %+v %v", all, err)
	}
	ct, _ := svc.List(ctx, "c1", "ＣＴ")
	if len(ct) != 2 {
		t.Fatalf("type filter: %+v", ct)
	}

	if _, err := svc.Get(ctx, "c1", other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other tenant template hidden, got %v", err)
	}
	if err := svc.Delete(ctx, "c1", other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cross-tenant delete to fail, got %v", err)
	}
	if err := svc.Delete(ctx, "c1", all[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rest, _ := svc.List(ctx, "c1", ""); len(rest) != 2 {
		t.Fatalf("expected 2 left, got %d", len(rest))
	}
}
