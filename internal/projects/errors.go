package projects

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

var (
	ErrNotFound = apperr.NotFound("project")
	ErrSealed   = apperr.Conflict("PROJECT_SEALED", "project is sealed and can no longer be modified")
)
