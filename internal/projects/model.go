package projects

import "time"

// Project statuses. Sealed means the bid package is finalized.
const (
	StatusParsing   = "parsing"
	StatusDrafting  = "drafting"
	StatusReviewing = "reviewing"
	StatusSealed    = "sealed"
)

// Project is one tender response tracked by a company.
type Project struct {
	ID            string     `json:"id"`
	CompanyID     string     `json:"companyId"`
	Name          string     `json:"name"`
	Purchaser     string     `json:"purchaser"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	OwnerID       string     `json:"ownerId"`
	RFPDocumentID string     `json:"rfpDocumentId,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	SealedAt      *time.Time `json:"sealedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Sealed reports whether the bid package is finalized.
func (p Project) Sealed() bool { return p.Status == StatusSealed }

// ListFilter narrows List results.
type ListFilter struct {
	Status string
	Query  string
	Limit  int
	Offset int
}

func validStatus(s string) bool {
	switch s {
	case StatusParsing, StatusDrafting, StatusReviewing, StatusSealed:
		return true
	}
	return false
}

// statusRank orders the workflow so automatic advances never move backwards.
func statusRank(s string) int {
	switch s {
	case StatusParsing:
		return 0
	case StatusDrafting:
		return 1
	case StatusReviewing:
		return 2
	case StatusSealed:
		return 3
	}
	return -1
}
