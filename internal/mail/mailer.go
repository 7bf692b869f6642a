package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"stockpilot/internal/config"
)

// Mailer sends transactional email.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, username, code string) error
}

// Sender delivers a composed message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpMailer struct {
	sender Sender
	from   string
}

// New returns an SMTP mailer when SMTP is configured and a log-only mailer otherwise.
func New(cfg *config.Config, log *zap.Logger) Mailer {
	if !cfg.MailEnabled() {
		return NewLogMailer(log)
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	return NewSMTPMailer(dialer, cfg.MailFrom)
}

// NewSMTPMailer sends mail through sender with the given From address.
func NewSMTPMailer(sender Sender, from string) Mailer {
	return &smtpMailer{sender: sender, from: from}
}

func (m *smtpMailer) SendVerificationCode(ctx context.Context, to, username, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.sender.DialAndSend(verificationMessage(m.from, to, username, code)); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

func verificationMessage(from, to, username, code string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your email")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour verification code is %s.\n", username, code))
	return msg
}

type logMailer struct {
	log *zap.Logger
}

// NewLogMailer logs messages instead of sending them. Used when SMTP is not configured.
func NewLogMailer(log *zap.Logger) Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &logMailer{log: log}
}

func (m *logMailer) SendVerificationCode(_ context.Context, to, username, code string) error {
	m.log.Info("verification code issued",
		zap.String("to", to),
		zap.String("username", username),
		zap.String("code", code),
	)
	return nil
}
