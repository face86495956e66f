// Package clients holds outbound HTTP clients that are not Odoo itself.
package clients

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// OpenAIFiles downloads file contents from the OpenAI files API. Upstream
// orchestrators sometimes hand the bridge a `file_...` id instead of the
// actual bytes; this client turns the id back into bytes.
type OpenAIFiles struct {
	apiKey     string
	baseURL    string
	httpClient *retryablehttp.Client
}

var contentDispositionRe = regexp.MustCompile(`filename\*?=(?:UTF-8'')?"?([^";]+)"?`)

// NewOpenAIFiles creates a files client. Transient download failures are
// retried at the transport level.
func NewOpenAIFiles(apiKey string) *OpenAIFiles {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 60 * time.Second
	client.Logger = nil

	return &OpenAIFiles{
		apiKey:     apiKey,
		baseURL:    "https://api.openai.com/v1",
		httpClient: client,
	}
}

// SetBaseURL overrides the API endpoint (used in tests).
func (c *OpenAIFiles) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// Download fetches the content of a file id, returning the bytes and the
// filename advertised by the Content-Disposition header (may be empty).
func (c *OpenAIFiles) Download(fileID string) ([]byte, string, error) {
	if c.apiKey == "" {
		return nil, "", fmt.Errorf("OPENAI_API_KEY is not configured")
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, fmt.Sprintf("%s/files/%s/content", c.baseURL, fileID), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("openai: reading %s: %w", fileID, err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, "", fmt.Errorf("openai: downloading %s failed (HTTP %d): %s", fileID, resp.StatusCode, snippet)
	}

	filename := ""
	if m := contentDispositionRe.FindStringSubmatch(resp.Header.Get("Content-Disposition")); m != nil {
		filename = m[1]
	}
	return body, filename, nil
}
