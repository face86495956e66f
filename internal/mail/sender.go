// Package mail delivers vendor-bill files to the Odoo ingestion alias as
// blank emails carrying a single attachment.
package mail

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/enerlind-render/odoo-agent/internal/infrastructure/config"
)

// Sender sends one file per email over SMTP.
type Sender struct {
	cfg config.SMTPConfig
}

// NewSender creates a sender from config.
func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Send delivers data as the only attachment of an otherwise empty email.
// subjectMode overrides the configured subject mode when non-empty
// ("blank" or "filename").
func (s *Sender) Send(to, filename string, data []byte, subjectMode string) error {
	if s.cfg.Host == "" || s.cfg.From == "" || to == "" {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM or empty recipient)")
	}

	msg := BuildMessage(s.cfg.From, to, s.subject(filename, subjectMode), filename, data)
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	switch s.cfg.Security {
	case "ssl":
		return s.sendImplicitTLS(addr, auth, to, msg)
	case "starttls":
		return s.sendStartTLS(addr, auth, to, msg)
	default:
		return s.sendPlain(addr, auth, to, msg)
	}
}

func (s *Sender) subject(filename, override string) string {
	mode := s.cfg.SubjectMode
	if override != "" {
		mode = override
	}
	if mode == "filename" {
		return filename
	}
	return ""
}

func (s *Sender) sendImplicitTLS(addr string, auth smtp.Auth, to string, msg []byte) error {
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 30 * time.Second}, "tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return fmt.Errorf("smtp connect: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	return s.deliver(client, auth, to, msg)
}

func (s *Sender) sendStartTLS(addr string, auth smtp.Auth, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp connect: %w", err)
	}
	if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
		client.Close()
		return fmt.Errorf("smtp starttls: %w", err)
	}
	return s.deliver(client, auth, to, msg)
}

func (s *Sender) sendPlain(addr string, auth smtp.Auth, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp connect: %w", err)
	}
	return s.deliver(client, auth, to, msg)
}

func (s *Sender) deliver(client *smtp.Client, auth smtp.Auth, to string, msg []byte) error {
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

// BuildMessage renders a multipart/mixed message with an empty text body
// and one base64 attachment.
func BuildMessage(from, to, subject, filename string, data []byte) []byte {
	const boundary = "odoo-agent-attachment"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", boundary)
	fmt.Fprintf(&buf, "\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: application/octet-stream\r\n")
	fmt.Fprintf(&buf, "Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", filename)
	fmt.Fprintf(&buf, "\r\n")

	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
