package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/extract"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Default upload limits per document kind.
const (
	DefaultMaxRFPBytes int64 = 50 << 20
	DefaultMaxBidBytes int64 = 100 << 20
)

// Service contains business logic for documents.
type Service struct {
	Store           object.ObjectStore
	Repo            DocumentsRepo
	Projects        *projects.Service
	StorageProvider string
	MaxRFPBytes     int64
	MaxBidBytes     int64
	Now             func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// MaxBytes returns the upload limit for kind.
func (s *Service) MaxBytes(kind string) int64 {
	if kind == KindRFP {
		if s.MaxRFPBytes > 0 {
			return s.MaxRFPBytes
		}
		return DefaultMaxRFPBytes
	}
	if s.MaxBidBytes > 0 {
		return s.MaxBidBytes
	}
	return DefaultMaxBidBytes
}

// UploadInput describes an incoming file.
type UploadInput struct {
	ProjectID    string
	Kind         string
	FileName     string
	DeclaredSize int64
	Body         io.Reader
}

// Upload validates, stores and records a document. RFP uploads become the
// project's current tender document.
func (s *Service) Upload(ctx context.Context, companyID, userID string, in UploadInput) (Document, error) {
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = KindRFP
	}
	if kind != KindRFP && kind != KindBid {
		return Document{}, apperr.Validation("invalid_kind", "kind must be rfp or bid")
	}
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" || in.Body == nil {
		return Document{}, apperr.Validation("validation_error", "file is required")
	}
	if !extract.AllowedExtension(fileName) {
		return Document{}, unsupported(fileName)
	}
	limit := s.MaxBytes(kind)
	if in.DeclaredSize > limit {
		return Document{}, tooLarge(limit)
	}

	if kind == KindRFP {
		if _, err := s.Projects.EnsureEditable(ctx, companyID, in.ProjectID); err != nil {
			return Document{}, err
		}
	} else if _, err := s.Projects.Get(ctx, companyID, in.ProjectID); err != nil {
		return Document{}, err
	}

	head := make([]byte, object.SniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return Document{}, apperr.Validation("validation_error", "file is empty")
	}
	if err := CheckType(fileName, head); err != nil {
		return Document{}, err
	}

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), limit+1)
	storageKey, size, mimeType, err := s.Store.Save(ctx, companyID, fileName, body)
	if err != nil {
		return Document{}, err
	}
	if size > limit {
		telemetry.Warn("documents.upload_oversize", map[string]any{
			"company_id": companyID,
			"project_id": in.ProjectID,
			"limit":      limit,
		})
		return Document{}, tooLarge(limit)
	}

	doc := Document{
		ID:              uuid.NewString(),
		CompanyID:       companyID,
		ProjectID:       in.ProjectID,
		Kind:            kind,
		FileName:        fileName,
		MimeType:        extract.Normalize(mimeType, fileName, head),
		SizeBytes:       size,
		StorageProvider: s.StorageProvider,
		StorageKey:      storageKey,
		UploadedBy:      userID,
		CreatedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	if kind == KindRFP {
		if err := s.Projects.SetRFPDocument(ctx, companyID, in.ProjectID, doc.ID); err != nil {
			return Document{}, err
		}
	}
	return doc, nil
}

// Get returns a document within the company.
func (s *Service) Get(ctx context.Context, companyID, documentID string) (Document, error) {
	if strings.TrimSpace(documentID) == "" {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, companyID, documentID)
}

// Open returns the document together with a reader over its original bytes.
// The caller closes the reader.
func (s *Service) Open(ctx context.Context, companyID, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, companyID, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("open document %s: %w", doc.ID, err)
	}
	return doc, rc, nil
}

// List returns a project's documents, optionally filtered by kind.
func (s *Service) List(ctx context.Context, companyID, projectID, kind string) ([]Document, error) {
	if _, err := s.Projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.Repo.ListByProject(ctx, companyID, projectID, strings.ToLower(strings.TrimSpace(kind)))
}

// Delete soft-deletes a document. Tender documents of sealed projects are kept.
func (s *Service) Delete(ctx context.Context, companyID, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, companyID, documentID)
	if err != nil {
		return err
	}
	if doc.Kind == KindRFP {
		if _, err := s.Projects.EnsureEditable(ctx, companyID, doc.ProjectID); err != nil {
			return err
		}
	}
	return s.Repo.SoftDelete(ctx, companyID, documentID)
}

// LoadContent returns the document's text and layout, extracting and caching
// them on first use.
func (s *Service) LoadContent(ctx context.Context, doc Document) (extract.Document, error) {
	if doc.ExtractedTextKey != "" {
		content, err := extract.LoadDerived(ctx, s.Store, doc.ExtractedTextKey, doc.LayoutKey)
		if err == nil {
			return content, nil
		}
		telemetry.Warn("documents.derived_unreadable", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}

	content, err := extract.Extract(ctx, s.Store, doc.StorageKey, doc.MimeType, doc.FileName)
	if err != nil {
		return extract.Document{}, err
	}
	textKey, layoutKey, err := extract.SaveDerived(ctx, s.Store, doc.StorageKey, content)
	if err != nil {
		telemetry.Warn("documents.derived_save_failed", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
		return content, nil
	}
	if err := s.Repo.UpdateExtraction(ctx, doc.CompanyID, doc.ID, textKey, layoutKey, s.now()); err != nil {
		telemetry.Warn("documents.derived_record_failed", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}
	return content, nil
}

// CheckType rejects a file unless its extension is PDF, DOC or DOCX and its
// leading bytes agree with that extension.
func CheckType(fileName string, head []byte) error {
	if !extract.AllowedExtension(fileName) || !signatureMatches(object.DetectMIME(head), fileName) {
		return unsupported(fileName)
	}
	return nil
}

// TooLarge is the validation error for an upload over limit bytes.
func TooLarge(limit int64) error {
	return tooLarge(limit)
}

// signatureMatches checks the sniffed content type agrees with the extension.
func signatureMatches(sniffed, fileName string) bool {
	sniffed = strings.ToLower(sniffed)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return sniffed == extract.MimePDF
	case ".docx":
		return sniffed == extract.MimeDOCX || sniffed == "application/zip"
	case ".doc":
		return sniffed == extract.MimeDOC || sniffed == "application/x-ole-storage"
	default:
		return false
	}
}

func unsupported(fileName string) error {
	return apperr.Validation(CodeUnsupportedFormat, "only PDF, DOC and DOCX files are accepted").
		WithDetails(map[string]any{"fileName": fileName})
}

func tooLarge(limit int64) error {
	return apperr.Validation(CodeFileTooLarge, fmt.Sprintf("file exceeds %dMB limit", limit>>20)).
		WithDetails(map[string]any{"maxBytes": limit})
}
