package templates

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/width"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/extract"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// DefaultMaxBytes caps a template upload.
const DefaultMaxBytes int64 = 50 << 20

const maxNameRunes = 100

// Service stores bid templates next to the company's documents.
type Service struct {
	Store           object.ObjectStore
	Repo            Repo
	StorageProvider string
	MaxBytes        int64
	Now             func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Limit returns the upload size limit.
func (s *Service) Limit() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxBytes
}

// UploadInput describes an incoming template file.
type UploadInput struct {
	Name         string
	TemplateType string
	FileName     string
	DeclaredSize int64
	Body         io.Reader
}

// normalizeType folds full-width letters so ＣＴ and CT name the same type.
func normalizeType(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// Upload checks the file the same way tender uploads are checked, stores it
// and records the template.
func (s *Service) Upload(ctx context.Context, companyID, userID string, in UploadInput) (Template, error) {
	name := strings.TrimSpace(in.Name)
	templateType := normalizeType(in.TemplateType)
	fileName := strings.TrimSpace(in.FileName)
	switch {
	case name == "":
		return Template{}, apperr.Validation("validation_error", "name is required")
	case utf8.RuneCountInString(name) > maxNameRunes:
		return Template{}, apperr.Validation("validation_error", "name is too long")
	case templateType == "":
		return Template{}, apperr.Validation("validation_error", "templateType is required")
	case fileName == "" || in.Body == nil:
		return Template{}, apperr.Validation("validation_error", "file is required")
	}
	if !extract.AllowedExtension(fileName) {
		return Template{}, documents.CheckType(fileName, nil)
	}
	limit := s.Limit()
	if in.DeclaredSize > limit {
		return Template{}, documents.TooLarge(limit)
	}

	head := make([]byte, object.SniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Template{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return Template{}, apperr.Validation("validation_error", "file is empty")
	}
	if err := documents.CheckType(fileName, head); err != nil {
		return Template{}, err
	}

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), limit+1)
	storageKey, size, mimeType, err := s.Store.Save(ctx, companyID, fileName, body)
	if err != nil {
		return Template{}, err
	}
	if size > limit {
		telemetry.Warn("templates.upload_oversize", map[string]any{
			"company_id": companyID,
			"limit":      limit,
		})
		return Template{}, documents.TooLarge(limit)
	}

	t := Template{
		ID:              uuid.NewString(),
		CompanyID:       companyID,
		Name:            name,
		TemplateType:    templateType,
		FileName:        fileName,
		MimeType:        extract.Normalize(mimeType, fileName, head),
		SizeBytes:       size,
		StorageProvider: s.StorageProvider,
		StorageKey:      storageKey,
		UploadedBy:      userID,
		CreatedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		return Template{}, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (Template, error) {
	if strings.TrimSpace(id) == "" {
		return Template{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, companyID, id)
}

// List returns the company's templates, optionally for one product type.
func (s *Service) List(ctx context.Context, companyID, templateType string) ([]Template, error) {
	return s.Repo.List(ctx, companyID, normalizeType(templateType))
}

// Open returns the template with a reader over its file. The caller closes
// the reader.
func (s *Service) Open(ctx context.Context, companyID, id string) (Template, io.ReadCloser, error) {
	t, err := s.Get(ctx, companyID, id)
	if err != nil {
		return Template{}, nil, err
	}
	rc, err := s.Store.Open(ctx, t.StorageKey)
	if err != nil {
		return Template{}, nil, fmt.Errorf("open template %s: %w", t.ID, err)
	}
	return t, rc, nil
}

// Delete soft-deletes the record; the stored file is kept.
func (s *Service) Delete(ctx context.Context, companyID, id string) error {
	return s.Repo.SoftDelete(ctx, companyID, id)
}
