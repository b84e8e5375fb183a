package requirements

import "time"

// Categories.
const (
	CategoryTechnical        = "technical-parameter"
	CategoryQualification    = "qualification"
	CategoryDisqualification = "disqualification-clause"
)

// Statuses.
const (
	StatusUnconfirmed = "unconfirmed"
	StatusConfirmed   = "confirmed"
	StatusError       = "error"
)

// Requirement is one structured condition extracted from a tender document.
type Requirement struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"companyId"`
	ProjectID      string    `json:"projectId"`
	DocumentID     string    `json:"documentId"`
	Version        string    `json:"version"`
	Seq            int       `json:"seq"`
	Category       string    `json:"category"`
	ParameterName  string    `json:"parameterName"`
	RequiredValue  string    `json:"requiredValue"`
	ExtractedValue string    `json:"extractedValue"`
	Operator       Operator  `json:"operator"`
	Status         string    `json:"status"`
	Confidence     float64   `json:"confidence"`
	SourceText     string    `json:"sourceText,omitempty"`
	ReviewedBy     string    `json:"reviewedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ScoringItem is one line of the tender's scoring table.
type ScoringItem struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"companyId"`
	ProjectID  string    `json:"projectId"`
	DocumentID string    `json:"documentId"`
	Version    string    `json:"version"`
	Seq        int       `json:"seq"`
	Name       string    `json:"name"`
	Points     float64   `json:"points"`
	SourceText string    `json:"sourceText,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Result is the output of one extraction run, in document order.
type Result struct {
	Requirements []Requirement `json:"requirements"`
	ScoringItems []ScoringItem `json:"scoringItems"`
}

// ListFilter narrows a project requirement listing.
type ListFilter struct {
	Category string
	Status   string
}

func validCategory(c string) bool {
	switch c {
	case CategoryTechnical, CategoryQualification, CategoryDisqualification:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case StatusUnconfirmed, StatusConfirmed, StatusError:
		return true
	}
	return false
}
