package specs

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

const (
	CodeDuplicateParameter = "DUPLICATE_PARAMETER"
	CodeInvalidWorkbook    = "INVALID_WORKBOOK"
)

var (
	ErrNotFound  = apperr.NotFound("product spec")
	ErrDuplicate = apperr.Conflict(CodeDuplicateParameter, "product model already declares this parameter")
)
