package checkup

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

var (
	ErrNotFound         = apperr.NotFound("checkup")
	ErrCompleted        = apperr.Conflict("CHECKUP_COMPLETED", "completed checkups cannot be modified")
	ErrDocumentRequired = apperr.Validation("validation_error", "projectId and documentId are required")
	ErrNotBidDocument   = apperr.Validation("NOT_BID_DOCUMENT", "checkups run on bid documents only")
	ErrNotCompleted     = apperr.Conflict("CHECKUP_NOT_COMPLETED", "the checkup has not completed yet")
)
