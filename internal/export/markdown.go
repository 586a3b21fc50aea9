// Package export writes generated study notes to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"studyrag/internal/domain"
)

// Markdown writes notes to a .md file named after the document title,
// in dir. It returns the path of the written file. Empty notes are
// refused rather than producing an empty file.
func Markdown(dir, title, notes string) (string, error) {
	if strings.TrimSpace(notes) == "" {
		return "", fmt.Errorf("export notes: %w", domain.ErrMissingContext)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, stem(title)+".md")
	if err := os.WriteFile(path, []byte(notes), 0o644); err != nil {
		return "", fmt.Errorf("write notes: %w", err)
	}
	return path, nil
}

// stem strips the extension and replaces path-hostile characters so any
// document title yields a usable file name.
func stem(title string) string {
	base := strings.TrimSuffix(filepath.Base(title), filepath.Ext(title))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, base)
	if base == "" || base == "." {
		return "notes"
	}
	return base
}
