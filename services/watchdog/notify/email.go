package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"gradewatch/services/watchdog"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// Email delivers change events over SMTP, for people who would rather
// not run a Discord server for a single course.
type Email struct {
	config     SmtpConfig
	recipients []string
}

func NewEmail(config SmtpConfig, recipients []string) *Email {
	return &Email{
		config:     config,
		recipients: recipients,
	}
}

func (e *Email) Notify(ctx context.Context, event watchdog.ChangeEvent, target watchdog.WatchTarget) error {
	_, span := tracer.Start(ctx, "EmailNotify")
	defer span.End()

	previous := event.Previous
	if !event.HasPrevious {
		previous = "(první záznam)"
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Gradewatch <%s>", e.config.EmailAddress)
	mail.To = e.recipients
	mail.Subject = fmt.Sprintf("Změna hodnocení: %s", event.StudentID)

	body := fmt.Sprintf(`Byla zaznamenána změna hodnocení.

Student:  %s
Pole:     %s
Původně:  %s
Nově:     %s
Čas:      %s`,
		event.StudentID,
		event.Field,
		previous,
		event.New,
		event.DetectedAt.Format("02.01.2006 15:04:05"),
	)
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", e.config.EmailAddress, e.config.Password, e.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	return nil
}
