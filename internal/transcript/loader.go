// Package transcript extracts plain text from uploaded lecture material.
// Supported formats: plain text, PDF, and SRT subtitle files. The rest
// of the pipeline only ever sees the returned text.
package transcript

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"studyrag/internal/domain"
)

var (
	srtCueRe   = regexp.MustCompile(`\d+\s*\n\d{2}:\d{2}:\d{2},\d{3}\s-->\s\d{2}:\d{2}:\d{2},\d{3}`)
	blankLines = regexp.MustCompile(`\n{2,}`)
)

// Extract returns the plain text of the named file content along with a
// content-type tag. The format is chosen by file extension; unknown
// extensions fail with domain.ErrUnsupportedFormat.
func Extract(name string, data []byte) (text, contentType string, err error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		text, err = loadText(data)
		return text, "text/plain", err
	case ".pdf":
		text, err = loadPDF(data)
		return text, "application/pdf", err
	case ".srt":
		text, err = loadSRT(data)
		return text, "application/x-subrip", err
	default:
		return "", "", fmt.Errorf("%s: %w", name, domain.ErrUnsupportedFormat)
	}
}

// ExtractFile reads and extracts a file from disk.
func ExtractFile(path string) (text, contentType string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return Extract(path, data)
}

func loadText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8: %w", domain.ErrUnreadableContent)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", domain.ErrUnreadableContent
	}
	return text, nil
}

func loadPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", domain.ErrUnreadableContent)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", domain.ErrUnreadableContent)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", domain.ErrUnreadableContent)
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", domain.ErrUnreadableContent
	}
	return text, nil
}

func loadSRT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8: %w", domain.ErrUnreadableContent)
	}
	// Strip cue indexes and timestamp lines, then collapse the blank
	// lines they leave behind.
	content := srtCueRe.ReplaceAllString(string(data), "")
	content = blankLines.ReplaceAllString(content, "\n")
	text := strings.TrimSpace(content)
	if text == "" {
		return "", domain.ErrUnreadableContent
	}
	return text, nil
}
