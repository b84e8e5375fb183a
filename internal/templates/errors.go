package templates

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

const CodeDuplicateTemplate = "DUPLICATE_TEMPLATE"

var (
	ErrNotFound  = apperr.NotFound("bid template")
	ErrDuplicate = apperr.Conflict(CodeDuplicateTemplate, "a template with this name already exists for the product type")
)
