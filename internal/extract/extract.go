package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
)

// Error codes carried by extraction failures.
const (
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeTooLarge          = "TOO_LARGE"
	CodeUnreadable        = "UNREADABLE_DOCUMENT"
	CodeEmpty             = "EMPTY_DOCUMENT"
)

// MaxInputBytes bounds any payload handed to the parsers.
var MaxInputBytes int64 = 100 << 20

// Document is the text of an uploaded file plus the layout facts the
// format checks need.
type Document struct {
	Text   string `json:"text"`
	Layout Layout `json:"layout"`
}

// Layout summarises page and font information recovered from the file.
type Layout struct {
	PageCount int `json:"pageCount"`
	// Fonts maps a font family to the number of runs (DOCX) or pages (PDF) using it.
	Fonts map[string]int `json:"fonts"`
	// PageNumbers lists printed page numbers detected in page order (PDF only).
	PageNumbers []int `json:"pageNumbers,omitempty"`
	// PageFields is set when the document numbers pages with PAGE fields.
	PageFields bool `json:"pageFields"`
}

// Extract reads a stored object and extracts its text and layout.
func Extract(ctx context.Context, store object.ObjectStore, key, mimeType, fileName string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	body, err := store.Open(ctx, key)
	if err != nil {
		return Document{}, fmt.Errorf("extract key=%s: open: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, MaxInputBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("extract key=%s: read: %w", key, err)
	}
	return FromBytes(ctx, raw, mimeType, fileName)
}

// FromBytes extracts text and layout from an in-memory payload.
func FromBytes(ctx context.Context, data []byte, mimeType, fileName string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if int64(len(data)) > MaxInputBytes {
		return Document{}, apperr.Extraction(CodeTooLarge, "document exceeds size limit", nil)
	}
	if len(data) == 0 {
		return Document{}, apperr.Extraction(CodeEmpty, "document is empty", nil)
	}

	kind := Normalize(mimeType, fileName, data)
	var (
		doc Document
		err error
	)
	switch kind {
	case MimePDF:
		doc, err = extractPDF(data)
	case MimeDOCX:
		doc, err = extractDOCX(data)
	case MimeDOC:
		doc, err = extractDOC(data)
	default:
		return Document{}, apperr.Extraction(CodeUnsupportedFormat, "unsupported document type: "+kind, nil)
	}
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return Document{}, err
		}
		return Document{}, apperr.Extraction(CodeUnreadable, "document could not be parsed", err)
	}
	doc.Text = strings.TrimSpace(doc.Text)
	if doc.Text == "" {
		return Document{}, apperr.Extraction(CodeEmpty, "no text could be extracted", nil)
	}
	if doc.Layout.Fonts == nil {
		doc.Layout.Fonts = map[string]int{}
	}
	return doc, nil
}

// Normalize maps a sniffed or declared type onto one of the supported
// document types, using the container contents and file extension to
// disambiguate generic zip and OLE types.
func Normalize(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == "" && len(data) > 0 {
		clean = object.DetectMIME(data)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	switch clean {
	case MimePDF, MimeDOCX, MimeDOC:
		return clean
	case "application/zip":
		if ext == ".docx" || hasZipEntry(data, "word/document.xml") {
			return MimeDOCX
		}
	case "application/x-ole-storage", "application/vnd.ms-office", "application/octet-stream":
		if ext == ".doc" {
			return MimeDOC
		}
	}
	return clean
}

// AllowedExtension reports whether name carries an accepted extension.
func AllowedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".doc", ".docx":
		return true
	}
	return false
}

func hasZipEntry(data []byte, want string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == want {
			return true
		}
	}
	return false
}

// Derived artifact keys live next to the original object.
func TextKey(storageKey string) string   { return storageKey + ".extracted.txt" }
func LayoutKey(storageKey string) string { return storageKey + ".layout.json" }

// SaveDerived persists the extracted text and layout next to the source object.
func SaveDerived(ctx context.Context, store object.ObjectStore, storageKey string, doc Document) (textKey, layoutKey string, err error) {
	textKey = TextKey(storageKey)
	if _, err := store.SaveWithKey(ctx, textKey, "text/plain; charset=utf-8", strings.NewReader(doc.Text)); err != nil {
		return "", "", fmt.Errorf("save extracted text: %w", err)
	}
	layout, err := json.Marshal(doc.Layout)
	if err != nil {
		return "", "", fmt.Errorf("marshal layout: %w", err)
	}
	layoutKey = LayoutKey(storageKey)
	if _, err := store.SaveWithKey(ctx, layoutKey, "application/json", bytes.NewReader(layout)); err != nil {
		return "", "", fmt.Errorf("save layout: %w", err)
	}
	return textKey, layoutKey, nil
}

// LoadDerived reads artifacts written by SaveDerived.
func LoadDerived(ctx context.Context, store object.ObjectStore, textKey, layoutKey string) (Document, error) {
	text, err := readAll(ctx, store, textKey)
	if err != nil {
		return Document{}, fmt.Errorf("load extracted text: %w", err)
	}
	doc := Document{Text: string(text)}
	if layoutKey != "" {
		raw, err := readAll(ctx, store, layoutKey)
		if err != nil {
			return Document{}, fmt.Errorf("load layout: %w", err)
		}
		if err := json.Unmarshal(raw, &doc.Layout); err != nil {
			return Document{}, fmt.Errorf("decode layout: %w", err)
		}
	}
	if doc.Layout.Fonts == nil {
		doc.Layout.Fonts = map[string]int{}
	}
	return doc, nil
}

func readAll(ctx context.Context, store object.ObjectStore, key string) ([]byte, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
