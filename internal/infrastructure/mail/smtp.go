package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/photomark/pricing-service/internal/config"
	"go.uber.org/zap"
)

// SMTPSender delivers notification emails. Callers treat delivery as
// best-effort; errors are returned for logging, never for control flow.
type SMTPSender struct {
	config config.EmailConfig
	logger *zap.Logger
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg config.EmailConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		config: cfg,
		logger: logger,
	}
}

// Send delivers a multipart email with both HTML and plain-text bodies.
func (m *SMTPSender) Send(ctx context.Context, to, subject, html, text string) error {
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	from := m.config.From
	if m.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From)
	}

	boundary := "pricing_mail_boundary"

	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": fmt.Sprintf("multipart/alternative; boundary=\"%s\"", boundary),
	}
	if m.config.ReplyTo != "" {
		headers["Reply-To"] = m.config.ReplyTo
	}

	var message string
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n"

	message += fmt.Sprintf("--%s\r\n", boundary)
	message += "Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n"
	message += text + "\r\n\r\n"

	message += fmt.Sprintf("--%s\r\n", boundary)
	message += "Content-Type: text/html; charset=\"utf-8\"\r\n\r\n"
	message += html + "\r\n\r\n"

	message += fmt.Sprintf("--%s--", boundary)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(message)); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject))

	return nil
}
