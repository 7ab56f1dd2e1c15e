// -----------------------------------------------------------------------
// Mailer Service - delivers the weekly report over SMTP
// -----------------------------------------------------------------------

package mailer

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/common"
	"github.com/ternarybob/cryptoweekly/internal/interfaces"
)

// Service sends report emails using the configured SMTP account.
type Service struct {
	cfg    common.SMTPConfig
	logger arbor.ILogger
}

// NewService creates a mailer service from static SMTP configuration.
func NewService(cfg common.SMTPConfig, logger arbor.ILogger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// IsConfigured checks if SMTP is configured with minimum required settings.
func (s *Service) IsConfigured() bool {
	return s.cfg.IsConfigured()
}

// Send delivers a plain text email with the given attachments to the
// configured recipient.
func (s *Service) Send(ctx context.Context, subject, textBody string, attachments []interfaces.Attachment) error {
	if !s.cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(s.cfg, subject, textBody, attachments)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	var err error
	if s.cfg.UseTLS {
		// TLS connection (Gmail, etc.)
		err = s.sendWithTLS(addr, auth, s.cfg.From, s.cfg.To, msg)
	} else {
		// Plain SMTP
		err = smtp.SendMail(addr, auth, s.cfg.From, []string{s.cfg.To}, []byte(msg))
	}
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info().
			Str("to", s.cfg.To).
			Str("subject", subject).
			Int("attachments", len(attachments)).
			Msg("Report email sent")
	}
	return nil
}

// buildMessage assembles the full MIME message. With attachments the message
// is multipart/mixed; without, a bare text/plain body.
func buildMessage(cfg common.SMTPConfig, subject, textBody string, attachments []interfaces.Attachment) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", cfg.FromName, cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", cfg.To))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))

	if len(attachments) == 0 {
		msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(textBody)
		return msg.String()
	}

	boundary := generateBoundary()
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", boundary))
	msg.WriteString("\r\n")

	// Text body part - base64 keeps long lines within RFC 5322 limits
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks(textBody))
	msg.WriteString("\r\n")

	for _, att := range attachments {
		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		msg.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", contentType, att.Filename))
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename))
		msg.WriteString("\r\n")
		msg.WriteString(encodeBase64WithLineBreaks(string(att.Content)))
		msg.WriteString("\r\n")
	}

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return msg.String()
}

// sendWithTLS sends email using TLS connection (required for Gmail)
func (s *Service) sendWithTLS(addr string, auth smtp.Auth, from, to, msg string) error {
	host := strings.Split(addr, ":")[0]

	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: host,
	})
	if err != nil {
		// Fallback to STARTTLS if direct TLS fails
		return s.sendWithSTARTTLS(addr, auth, from, to, msg)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	return transmit(client, auth, from, to, msg)
}

// sendWithSTARTTLS sends email using STARTTLS upgrade
func (s *Service) sendWithSTARTTLS(addr string, auth smtp.Auth, from, to, msg string) error {
	host := strings.Split(addr, ":")[0]

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName: host,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	return transmit(client, auth, from, to, msg)
}

func transmit(client *smtp.Client, auth smtp.Auth, from, to, msg string) error {
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set mail recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// generateBoundary creates a unique MIME boundary string using crypto/rand
// to avoid collisions with content.
func generateBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "cryptoweekly_boundary_fallback"
	}
	return fmt.Sprintf("cryptoweekly_%x", b)
}

// encodeBase64WithLineBreaks encodes content as base64 with 76-char line
// breaks per RFC 2045 for MIME content.
func encodeBase64WithLineBreaks(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	var result strings.Builder
	const lineLen = 76

	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		result.WriteString(encoded[i:end])
		if end < len(encoded) {
			result.WriteString("\r\n")
		}
	}

	return result.String()
}
