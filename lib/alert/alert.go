// Package alert emails the maintainers when a scraper stops matching the
// page it was written against.
package alert

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"covid19-scrapers/lib/drift"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("covid19.lib.alert")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp       SmtpConfig `json:"smtp"`
	Recipients []string   `json:"recipients"`
}

type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

func sendMail(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

type Mailer struct {
	config Config
	send   sendFunc
}

func NewMailer(config Config) Mailer {
	return Mailer{
		config: config,
		send:   sendMail,
	}
}

// Enabled is false when there is no smtp server or nobody to tell.
func (m Mailer) Enabled() bool {
	return m.config.Smtp.Server != "" && len(m.config.Recipients) > 0
}

// DriftMessage builds the alert for a run of county that failed at with
// err.
func (m Mailer) DriftMessage(county string, err error, at time.Time) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("COVID-19 Scrapers <%s>", m.config.Smtp.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = fmt.Sprintf("[%s] dashboard structure changed", county)

	var detail string
	var driftErr *drift.Error
	if errors.As(err, &driftErr) {
		detail = fmt.Sprintf("Assumption: %s\n\n%s", driftErr.Context, driftErr.Detail)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "The %s scraper failed at %s because the page no longer has the structure it expects.\n\n", county, at.Format(time.RFC1123))
	fmt.Fprintf(&body, "%s\n", err)
	if detail != "" {
		fmt.Fprintf(&body, "\n%s\n", detail)
	}
	body.WriteString("\nNo document was produced for this run. The scraper needs to be updated before it can run again.\n")
	mail.Text = []byte(body.String())

	return mail
}

// NotifyDrift emails the recipients about err if it is structural drift,
// any other error or a disabled mailer is ignored.
func (m Mailer) NotifyDrift(ctx context.Context, county string, err error) error {
	if !m.Enabled() || !drift.Is(err) {
		return nil
	}

	ctx, span := tracer.Start(ctx, "NotifyDrift")
	defer span.End()
	span.SetAttributes(
		attribute.String("county", county),
		attribute.Int("recipients", len(m.config.Recipients)),
	)

	mail := m.DriftMessage(county, err, time.Now())
	addr := fmt.Sprintf("%s:%d", m.config.Smtp.Server, m.config.Smtp.Port)

	sendErr := m.send(mail, addr, smtp.PlainAuth("", m.config.Smtp.EmailAddress, m.config.Smtp.Password, m.config.Smtp.Server))
	if sendErr != nil && strings.Contains(sendErr.Error(), "server doesn't support AUTH") {
		sendErr = m.send(mail, addr, nil)
	}
	if sendErr != nil {
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send drift alert: %w", sendErr)
	}
	return nil
}
