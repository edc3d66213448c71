package alerts

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/wonny/stockpilot/pkg/config"
)

// mailSender is satisfied by *gomail.Dialer
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer emails a trigger to the address stored on the alert.
// Alerts without an email are skipped.
type Mailer struct {
	sender mailSender
	from   string
}

// NewMailer creates a Mailer over SMTP
func NewMailer(cfg config.AlertsConfig) *Mailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = 10 * time.Second
	return &Mailer{sender: dialer, from: cfg.MailFrom}
}

// Notify sends one plain-text email
func (m *Mailer) Notify(ctx context.Context, t Trigger) error {
	if t.Alert.Email == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", t.Alert.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Price alert: %s %s $%.2f", t.Alert.Symbol, t.Alert.Direction, t.Alert.TargetPrice))
	msg.SetBody("text/plain", fmt.Sprintf(
		"%s is at $%.2f (target %s $%.2f).\nTriggered: %s\n",
		t.Alert.Symbol, t.Price, t.Alert.Direction, t.Alert.TargetPrice,
		t.At.UTC().Format("02 Jan 2006 15:04 MST"),
	))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send alert email to %s: %w", t.Alert.Email, err)
	}
	return nil
}
