package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text extracts plain text from uploaded file bytes using the media type as
// a hint. PDFs go through the pdf reader; everything else is treated as
// plain text.
func Text(r io.Reader, mimeType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload failed: %w", err)
	}
	if len(b) == 0 {
		return "", nil
	}

	if strings.Contains(mimeType, "pdf") {
		return pdfText(b)
	}
	return string(b), nil
}

func pdfText(b []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}
