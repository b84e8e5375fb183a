package requirements

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

var ErrNotFound = apperr.NotFound("requirement")
