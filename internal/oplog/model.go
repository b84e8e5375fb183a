package oplog

import "time"

// Operation types recorded besides the verbs taken from routes.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpLogin  = "login"
)

// Entry is one audited write.
type Entry struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"companyId"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName,omitempty"`
	OperationType string    `json:"operationType"`
	ResourceType  string    `json:"resourceType"`
	ResourceID    string    `json:"resourceId,omitempty"`
	Content       string    `json:"content,omitempty"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ListFilter narrows a log listing.
type ListFilter struct {
	UserID        string
	OperationType string
	ResourceType  string
	Since         time.Time
	Until         time.Time
	Limit         int
	Offset        int
}

func (f ListFilter) match(e Entry) bool {
	switch {
	case f.UserID != "" && e.UserID != f.UserID:
		return false
	case f.OperationType != "" && e.OperationType != f.OperationType:
		return false
	case f.ResourceType != "" && e.ResourceType != f.ResourceType:
		return false
	case !f.Since.IsZero() && e.CreatedAt.Before(f.Since):
		return false
	case !f.Until.IsZero() && !e.CreatedAt.Before(f.Until):
		return false
	}
	return true
}
