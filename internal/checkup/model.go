package checkup

import "time"

// Check result statuses.
const (
	StatusPassed  = "passed"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Overall record statuses.
const (
	OverallSuccess = "success"
	OverallWarning = "warning"
	OverallError   = "error"
)

// Record lifecycle states.
const (
	StateCreated   = "created"
	StateRunning   = "running"
	StateCompleted = "completed"
)

// Categories.
const (
	CategoryBusiness   = "商务部分"
	CategoryTechnical  = "技术部分"
	CategoryCompliance = "合规性"
	CategoryFormat     = "格式检查"
	CategoryResponse   = "响应性"
)

// Result is the outcome of one check.
type Result struct {
	Category    string `json:"category"`
	CheckItem   string `json:"checkItem"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// Totals counts results by status.
type Totals struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// Record is one checkup run over a bid document. It is immutable once
// completed; a recheck writes a new record pointing back at this one.
type Record struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"companyId"`
	ProjectID    string     `json:"projectId"`
	DocumentID   string     `json:"documentId"`
	FileName     string     `json:"fileName"`
	ProductModel string     `json:"productModel,omitempty"`
	State        string     `json:"state"`
	Status       string     `json:"status,omitempty"`
	Totals       Totals     `json:"totals"`
	Progress     int        `json:"progress"`
	Results      []Result   `json:"results"`
	PreviousID   string     `json:"previousId,omitempty"`
	CreatedBy    string     `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Aggregate derives totals, overall status and progress from results.
// Progress is passed*100/total rounded down; an empty run is 0%.
func Aggregate(results []Result) (Totals, string, int) {
	t := Totals{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			t.Passed++
		case StatusWarning:
			t.Warnings++
		default:
			t.Errors++
		}
	}
	status := OverallSuccess
	switch {
	case t.Errors > 0:
		status = OverallError
	case t.Warnings > 0:
		status = OverallWarning
	}
	progress := 0
	if t.Total > 0 {
		progress = t.Passed * 100 / t.Total
	}
	return t, status, progress
}

// ListFilter narrows history listings.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
