package documents

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

// Validation codes returned synchronously on upload.
const (
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

var ErrNotFound = apperr.NotFound("document")
