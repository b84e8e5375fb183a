package deviation

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

const (
	CodeMissingModel    = "PRODUCT_MODEL_REQUIRED"
	CodeUnknownModel    = "PRODUCT_MODEL_NOT_FOUND"
	CodeNoRequirements  = "NO_TECHNICAL_REQUIREMENTS"
	CodeTooManyModels   = "TOO_MANY_MODELS"
	CodeRemarkTooLong   = "REMARK_TOO_LONG"
	maxRemarkRunes      = 500
	maxCompareModels    = 10
	compareParallelism  = 4
)

var (
	ErrNotFound       = apperr.NotFound("deviation record")
	ErrMissingModel   = apperr.Validation(CodeMissingModel, "productModel is required")
	ErrUnknownModel   = apperr.Validation(CodeUnknownModel, "product model has no parameters in the catalog")
	ErrNoRequirements = apperr.Validation(CodeNoRequirements, "project has no technical-parameter requirements; run extraction first")
	ErrTooManyModels  = apperr.Validation(CodeTooManyModels, "at most 10 product models can be compared at once")
	ErrRemarkTooLong  = apperr.Validation(CodeRemarkTooLong, "remark must be at most 500 characters")
)
