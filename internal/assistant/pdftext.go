package assistant

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// maxPDFTextBytes caps the extracted text inlined into the prompt.
const maxPDFTextBytes = 32 << 10

// extractPDFText decodes a base64 PDF and returns its plain text. Extraction
// is best-effort: schedules that are pure scans yield no text, which is fine
// because the raw document still travels with the prompt.
func extractPDFText(dataBase64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(dataBase64)
	if err != nil {
		return "", fmt.Errorf("decoding pdf payload: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	textReader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	text, err := io.ReadAll(io.LimitReader(textReader, maxPDFTextBytes))
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return string(text), nil
}
