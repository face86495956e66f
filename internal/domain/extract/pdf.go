package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// TextFromPDF pulls the plain text out of a PDF upload. Scanned or
// image-only documents yield no text; that is reported as an error so the
// caller can tell the orchestrator the file needs OCR upstream.
func TextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	text := buf.String()
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return text, nil
}
