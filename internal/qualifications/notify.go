package qualifications

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/domodwyer/mailyak/v3"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Alert lists the qualifications of one tenant that need attention.
type Alert struct {
	CompanyID string
	ScannedAt time.Time
	Items     []Evaluated
}

// Notifier delivers expiry alerts.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// LogNotifier writes one structured log line per alerted qualification.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, alert Alert) error {
	for _, ev := range alert.Items {
		telemetry.Warn("qualification.alert", map[string]any{
			"company_id":       alert.CompanyID,
			"qualification_id": ev.ID,
			"name":             ev.Name,
			"product_model":    ev.ProductModel,
			"status":           ev.Status,
			"days_to_expiry":   ev.DaysToExpiry,
			"expiry_date":      ev.ExpiryDate.String(),
		})
	}
	return nil
}

// MailConfig is the SMTP account alerts are sent from.
type MailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	Recipients []string
}

// MailNotifier emails a digest of the alert when Config reports mail as
// enabled. It is a no-op otherwise.
type MailNotifier struct {
	Config func(ctx context.Context) (MailConfig, bool)
	// Send defaults to delivering through mailyak.
	Send func(cfg MailConfig, subject, body string) error
}

func (n MailNotifier) Notify(ctx context.Context, alert Alert) error {
	if len(alert.Items) == 0 || n.Config == nil {
		return nil
	}
	cfg, ok := n.Config(ctx)
	if !ok || cfg.Host == "" || len(cfg.Recipients) == 0 {
		return nil
	}
	send := n.Send
	if send == nil {
		send = sendMail
	}
	subject, body := digest(alert)
	if err := send(cfg, subject, body); err != nil {
		return fmt.Errorf("send expiry mail: %w", err)
	}
	telemetry.Info("qualification.alert_mailed", map[string]any{
		"company_id": alert.CompanyID,
		"recipients": len(cfg.Recipients),
		"items":      len(alert.Items),
	})
	return nil
}

func digest(alert Alert) (string, string) {
	stats := StatsOf(alert.Items)
	subject := fmt.Sprintf("资质到期提醒：%d 项即将到期，%d 项已过期", stats.Expiring, stats.Expired)
	var b strings.Builder
	fmt.Fprintf(&b, "扫描时间：%s\n\n", alert.ScannedAt.Format("2006-01-02 15:04"))
	for _, ev := range alert.Items {
		state := fmt.Sprintf("剩余 %d 天", ev.DaysToExpiry)
		if ev.Status == StatusExpired {
			state = fmt.Sprintf("已过期 %d 天", -ev.DaysToExpiry)
		}
		fmt.Fprintf(&b, "- %s（%s）有效期至 %s，%s\n", ev.Name, ev.LicenseNumber, ev.ExpiryDate, state)
	}
	return subject, b.String()
}

func sendMail(cfg MailConfig, subject, body string) error {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	mail := mailyak.New(net.JoinHostPort(cfg.Host, strconv.Itoa(port)), auth)
	mail.To(cfg.Recipients...)
	mail.From(cfg.From)
	if cfg.FromName != "" {
		mail.FromName(cfg.FromName)
	}
	mail.Subject(subject)
	mail.Plain().Set(body)
	return mail.Send()
}

// Notifiers fans an alert out to several notifiers. Every notifier runs;
// the first error is returned.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, alert Alert) error {
	var first error
	for _, n := range ns {
		if err := n.Notify(ctx, alert); err != nil && first == nil {
			first = err
		}
	}
	return first
}
