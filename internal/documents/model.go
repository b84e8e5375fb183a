package documents

import "time"

// Document kinds.
const (
	KindRFP = "rfp"
	KindBid = "bid"
)

// Document is an uploaded tender (rfp) or bid file attached to a project.
type Document struct {
	ID               string     `json:"id"`
	CompanyID        string     `json:"companyId"`
	ProjectID        string     `json:"projectId"`
	Kind             string     `json:"kind"`
	FileName         string     `json:"fileName"`
	MimeType         string     `json:"mimeType"`
	SizeBytes        int64      `json:"sizeBytes"`
	StorageProvider  string     `json:"-"`
	StorageKey       string     `json:"-"`
	ExtractedTextKey string     `json:"-"`
	LayoutKey        string     `json:"-"`
	ExtractedAt      *time.Time `json:"extractedAt,omitempty"`
	UploadedBy       string     `json:"uploadedBy"`
	CreatedAt        time.Time  `json:"createdAt"`
}
