package extraction

import "time"

// Task statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Failure codes recorded on tasks.
const (
	CodeTimeout   = "EXTRACTION_TIMEOUT"
	CodeCancelled = "CANCELLED"
	CodeInternal  = "INTERNAL_ERROR"
)

// Task is the handle a client polls while a tender document is extracted.
type Task struct {
	ID               string     `json:"id"`
	CompanyID        string     `json:"companyId"`
	ProjectID        string     `json:"projectId"`
	DocumentID       string     `json:"documentId"`
	Status           string     `json:"status"`
	Progress         int        `json:"progress"`
	ExtractorVersion string     `json:"extractorVersion"`
	ErrorCode        string     `json:"errorCode,omitempty"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	RequirementCount int        `json:"requirementCount"`
	CreatedBy        string     `json:"createdBy,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// Active reports whether the task may still change state.
func (t Task) Active() bool {
	return t.Status == StatusPending || t.Status == StatusProcessing
}

// StatusUpdate is applied by Repo.Transition. Nil timestamps keep the stored value.
type StatusUpdate struct {
	Status           string
	Progress         int
	ErrorCode        string
	ErrorMessage     string
	RequirementCount int
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

func (u StatusUpdate) apply(t *Task) {
	t.Status = u.Status
	t.Progress = u.Progress
	t.ErrorCode = u.ErrorCode
	t.ErrorMessage = u.ErrorMessage
	t.RequirementCount = u.RequirementCount
	if u.StartedAt != nil {
		t.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil {
		t.CompletedAt = u.CompletedAt
	}
}
