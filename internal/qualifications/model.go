package qualifications

import (
	"sort"
	"time"
)

// Statuses computed from the expiry date.
const (
	StatusValid    = "valid"
	StatusExpiring = "expiring"
	StatusExpired  = "expired"
)

// ExpiringWindowDays is the last day count still reported as expiring.
const ExpiringWindowDays = 365

// Qualification is a certificate or license in the company catalog.
type Qualification struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"companyId"`
	Name          string    `json:"name"`
	ProductModel  string    `json:"productModel"`
	LicenseNumber string    `json:"licenseNumber"`
	Issuer        string    `json:"issuer"`
	IssueDate     Date      `json:"issueDate"`
	ExpiryDate    Date      `json:"expiryDate"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Evaluated is a qualification with its status as of one day.
type Evaluated struct {
	Qualification
	Status       string `json:"status"`
	DaysToExpiry int    `json:"daysToExpiry"`
}

// Evaluate computes status and days to expiry at calendar-day granularity
// in loc. The expiry day itself counts as 0 days left.
func Evaluate(q Qualification, now time.Time, loc *time.Location) Evaluated {
	days := DateOf(now, loc).DaysUntil(q.ExpiryDate)
	status := StatusValid
	switch {
	case days < 0:
		status = StatusExpired
	case days <= ExpiringWindowDays:
		status = StatusExpiring
	}
	return Evaluated{Qualification: q, Status: status, DaysToExpiry: days}
}

// EvaluateAll evaluates qs ordered by days to expiry, soonest first.
func EvaluateAll(qs []Qualification, now time.Time, loc *time.Location) []Evaluated {
	out := make([]Evaluated, 0, len(qs))
	for _, q := range qs {
		out = append(out, Evaluate(q, now, loc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysToExpiry != out[j].DaysToExpiry {
			return out[i].DaysToExpiry < out[j].DaysToExpiry
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// BelowThreshold returns the qualifications with fewer than days left,
// expired ones included.
func BelowThreshold(qs []Qualification, now time.Time, loc *time.Location, days int) []Evaluated {
	out := make([]Evaluated, 0)
	for _, ev := range EvaluateAll(qs, now, loc) {
		if ev.DaysToExpiry < days {
			out = append(out, ev)
		}
	}
	return out
}

// FilterByStatus keeps evaluations with the given status.
func FilterByStatus(evs []Evaluated, status string) []Evaluated {
	out := make([]Evaluated, 0, len(evs))
	for _, ev := range evs {
		if ev.Status == status {
			out = append(out, ev)
		}
	}
	return out
}

// Stats counts evaluations by status.
type Stats struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
}

func StatsOf(evs []Evaluated) Stats {
	s := Stats{Total: len(evs)}
	for _, ev := range evs {
		switch ev.Status {
		case StatusValid:
			s.Valid++
		case StatusExpiring:
			s.Expiring++
		case StatusExpired:
			s.Expired++
		}
	}
	return s
}

// ListFilter narrows a catalog listing.
type ListFilter struct {
	ProductModel string
	Query        string
}
