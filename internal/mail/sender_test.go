package mail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerlind-render/odoo-agent/internal/infrastructure/config"
)

func TestBuildMessage(t *testing.T) {
	data := []byte("%PDF-1.4 fake invoice body")

	msg := string(BuildMessage("agent@acme.example", "bills@acme.example", "factura.pdf", "factura.pdf", data))

	assert.Contains(t, msg, "From: agent@acme.example\r\n")
	assert.Contains(t, msg, "To: bills@acme.example\r\n")
	assert.Contains(t, msg, "Subject: factura.pdf\r\n")
	assert.Contains(t, msg, "multipart/mixed")
	assert.Contains(t, msg, `filename="factura.pdf"`)
	assert.Contains(t, msg, "Content-Transfer-Encoding: base64")

	// The attachment payload must round-trip through the base64 block.
	encoded := base64.StdEncoding.EncodeToString(data)
	assert.Contains(t, strings.ReplaceAll(msg, "\r\n", ""), encoded)
}

func TestBuildMessageWrapsBase64(t *testing.T) {
	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i % 251)
	}

	msg := string(BuildMessage("a@x.example", "b@x.example", "s", "f.bin", data))

	// RFC 2045 keeps encoded lines at 76 chars.
	inBody := false
	for _, line := range strings.Split(msg, "\r\n") {
		if strings.HasPrefix(line, "Content-Transfer-Encoding: base64") {
			inBody = true
			continue
		}
		if inBody && strings.HasPrefix(line, "--") {
			break
		}
		if inBody && line != "" {
			assert.LessOrEqual(t, len(line), 76)
		}
	}
}

func TestSubjectModes(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		override   string
		want       string
	}{
		{"blank by default", "", "", ""},
		{"blank mode", "blank", "", ""},
		{"filename mode", "filename", "", "factura.pdf"},
		{"override wins", "blank", "filename", "factura.pdf"},
		{"override to blank", "filename", "blank", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSender(config.SMTPConfig{SubjectMode: tt.configured})
			assert.Equal(t, tt.want, s.subject("factura.pdf", tt.override))
		})
	}
}

func TestSendRequiresConfiguration(t *testing.T) {
	s := NewSender(config.SMTPConfig{})

	err := s.Send("bills@acme.example", "f.pdf", []byte("x"), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp not configured")
}

func TestSendRequiresRecipient(t *testing.T) {
	s := NewSender(config.SMTPConfig{Host: "smtp.acme.example", Port: 465, From: "agent@acme.example"})

	err := s.Send("", "f.pdf", []byte("x"), "")

	assert.Error(t, err)
}
