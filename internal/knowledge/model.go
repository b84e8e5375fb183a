package knowledge

import "time"

// Chunk is one reusable passage of bid-writing knowledge: a company profile
// paragraph, an after-sales commitment, a standard response to a clause.
type Chunk struct {
	ID        string            `json:"id"`
	CompanyID string            `json:"companyId"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Category  string            `json:"category"`
	Tags      []string          `json:"tags"`
	Metadata  map[string]string `json:"metadata"`
	CreatedBy string            `json:"createdBy,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ListFilter narrows List results. Query matches title and content; Tag
// must be one of the chunk's tags.
type ListFilter struct {
	Category string
	Tag      string
	Query    string
	Limit    int
	Offset   int
}
