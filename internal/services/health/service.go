package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports process and dependency health.
type Service struct {
	DB      Pinger
	Started time.Time
	Timeout time.Duration
}

// NewService constructs a health service. db may be nil when running on
// in-memory repositories.
func NewService(db Pinger) *Service {
	return &Service{DB: db, Started: time.Now(), Timeout: 2 * time.Second}
}

// Report is the health payload.
type Report struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Status pings the database when one is configured.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Database: "memory", Uptime: time.Since(s.Started).Truncate(time.Second).String()}
	if s.DB == nil {
		return r
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(pctx); err != nil {
		r.OK = false
		r.Database = "unreachable"
		return r
	}
	r.Database = "ok"
	return r
}
