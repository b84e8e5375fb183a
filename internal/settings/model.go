package settings

import (
	"net/mail"
	"strings"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
)

// Settings is the process-wide runtime configuration edited in the back office.
type Settings struct {
	Company     Company     `json:"company"`
	Performance Performance `json:"performance"`
	Email       Email       `json:"email"`
	Compliance  Compliance  `json:"compliance"`
	System      System      `json:"system"`
	UpdatedBy   string      `json:"updatedBy,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt,omitempty"`
}

type Company struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Performance overrides the environment configuration at startup.
// Zero values keep the environment setting.
type Performance struct {
	MaxConcurrentTasks       int `json:"maxConcurrentTasks"`
	ExtractionTimeoutSeconds int `json:"extractionTimeoutSeconds"`
}

type Email struct {
	Enabled    bool     `json:"enabled"`
	SMTPHost   string   `json:"smtpHost"`
	SMTPPort   int      `json:"smtpPort"`
	Username   string   `json:"username"`
	Password   string   `json:"password,omitempty"`
	From       string   `json:"from"`
	FromName   string   `json:"fromName"`
	Recipients []string `json:"recipients"`
}

type Compliance struct {
	// CompetitorNames are flagged when they appear in a bid document.
	CompetitorNames []string `json:"competitorNames"`
	// AlertThresholdDays limits expiry alerts to qualifications with fewer
	// days left.
	AlertThresholdDays int `json:"alertThresholdDays"`
}

type System struct {
	MaintenanceMode  bool `json:"maintenanceMode"`
	LogRetentionDays int  `json:"logRetentionDays"`
}

// Defaults returns the settings used before anything is saved.
func Defaults() Settings {
	return Settings{
		Company:     Company{Name: "医中标"},
		Performance: Performance{},
		Email:       Email{SMTPPort: 587, Recipients: []string{}},
		Compliance: Compliance{
			CompetitorNames:    []string{},
			AlertThresholdDays: 366,
		},
		System: System{LogRetentionDays: 180},
	}
}

const passwordMask = "******"

// Redacted hides the SMTP password.
func (s Settings) Redacted() Settings {
	if s.Email.Password != "" {
		s.Email.Password = passwordMask
	}
	return s
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func invalid(msg string) error {
	return apperr.Validation("validation_error", msg)
}

// normalize trims fields and checks ranges.
func (s Settings) normalize() (Settings, error) {
	s.Company.Name = strings.TrimSpace(s.Company.Name)
	s.Email.SMTPHost = strings.TrimSpace(s.Email.SMTPHost)
	s.Email.From = strings.TrimSpace(s.Email.From)
	s.Email.Recipients = cleanList(s.Email.Recipients)
	s.Compliance.CompetitorNames = cleanList(s.Compliance.CompetitorNames)

	if s.Performance.MaxConcurrentTasks < 0 || s.Performance.MaxConcurrentTasks > 64 {
		return s, invalid("performance.maxConcurrentTasks must be between 0 and 64")
	}
	if s.Performance.ExtractionTimeoutSeconds < 0 || s.Performance.ExtractionTimeoutSeconds > 3600 {
		return s, invalid("performance.extractionTimeoutSeconds must be between 0 and 3600")
	}
	if s.Compliance.AlertThresholdDays < 1 || s.Compliance.AlertThresholdDays > 3650 {
		return s, invalid("compliance.alertThresholdDays must be between 1 and 3650")
	}
	if s.System.LogRetentionDays < 0 {
		return s, invalid("system.logRetentionDays must not be negative")
	}
	if s.Email.SMTPPort < 0 || s.Email.SMTPPort > 65535 {
		return s, invalid("email.smtpPort is out of range")
	}
	for _, addr := range append([]string{s.Email.From}, s.Email.Recipients...) {
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			return s, invalid("invalid email address " + addr)
		}
	}
	if s.Email.Enabled && (s.Email.SMTPHost == "" || s.Email.From == "" || len(s.Email.Recipients) == 0) {
		return s, invalid("email.smtpHost, email.from and email.recipients are required when email is enabled")
	}
	return s, nil
}
