package object

import (
	"context"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// SniffLen is how many leading bytes stores inspect to detect the content type.
const SniffLen = 3072

// ObjectStore defines the contract for saving and retrieving binary objects.
// Objects saved with Save are namespaced by tenant; SaveWithKey writes derived
// artifacts (extracted text, layout profiles, reports) at a caller-chosen key.
type ObjectStore interface {
	Save(ctx context.Context, tenantID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// DetectMIME returns the media type of head without parameters.
func DetectMIME(head []byte) string {
	mt := mimetype.Detect(head)
	return mt.String()
}
