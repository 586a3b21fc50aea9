package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/domain"
)

func TestMarkdownWritesNotes(t *testing.T) {
	dir := t.TempDir()

	path, err := Markdown(dir, "lecture1.txt", "# Notes\n\n- point")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lecture1.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n\n- point", string(data))
}

func TestMarkdownSanitizesTitle(t *testing.T) {
	dir := t.TempDir()

	path, err := Markdown(dir, `week 3: "intro"/recap.pdf`, "notes")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "recap.md"), path)
}

func TestMarkdownRefusesEmptyNotes(t *testing.T) {
	_, err := Markdown(t.TempDir(), "lecture1.txt", "   \n")
	assert.ErrorIs(t, err, domain.ErrMissingContext)
}
