package extraction

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

var (
	ErrNotFound         = apperr.NotFound("extraction task")
	ErrNotCancellable   = apperr.Conflict("TASK_NOT_CANCELLABLE", "task already finished")
	ErrNoTenderDocument = apperr.Validation("NO_TENDER_DOCUMENT", "upload a tender document first")
)
