package clients

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Uploaded files arrive in three disguises: real binary content, a base64
// string pasted into the form field, or an OpenAI file id. ResolveUpload
// normalizes all three to raw bytes.

var (
	fileIDRe = regexp.MustCompile(`^file[_-][A-Za-z0-9]+$`)
	b64Re    = regexp.MustCompile(`^[A-Za-z0-9+/=\s]+$`)
)

// FileDownloader is satisfied by *OpenAIFiles.
type FileDownloader interface {
	Download(fileID string) ([]byte, string, error)
}

// ResolveUpload returns the real file bytes plus the effective filename.
// fallbackName is the multipart filename, used unless a download supplies
// a better one.
func ResolveUpload(raw []byte, fallbackName string, files FileDownloader) ([]byte, string, error) {
	if text, ok := asText(raw); ok {
		s := strings.Trim(strings.TrimSpace(text), `"'`)

		if fileIDRe.MatchString(s) {
			if files == nil {
				return nil, "", fmt.Errorf("got file id %q but no files client is configured", s)
			}
			data, name, err := files.Download(s)
			if err != nil {
				return nil, "", err
			}
			if name == "" {
				name = s + ".bin"
			}
			return data, name, nil
		}

		if looksLikeBase64(s) {
			if data, err := DecodeBase64Forgiving(s); err == nil {
				return data, defaultName(fallbackName), nil
			}
		}
	}

	return raw, defaultName(fallbackName), nil
}

// DecodeBase64Forgiving decodes base64 content that may carry a data-URI
// prefix, stray whitespace, missing padding, or URL-safe alphabet.
func DecodeBase64Forgiving(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if idx := strings.Index(s, "base64,"); idx >= 0 {
		s = s[idx+len("base64,"):]
	}
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, fmt.Errorf("empty base64 payload")
	}
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}

	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload")
	}
	return data, nil
}

func asText(raw []byte) (string, bool) {
	if !utf8.Valid(raw) {
		return "", false
	}
	s := string(raw)
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// looksLikeBase64 guards against treating short plain-text files as base64.
func looksLikeBase64(s string) bool {
	if strings.Contains(s, "base64,") {
		return true
	}
	return len(s) > 120 && b64Re.MatchString(s)
}

func defaultName(name string) string {
	if name == "" {
		return "attachment"
	}
	return name
}
