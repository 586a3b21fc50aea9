package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/domain"
)

func TestExtractText(t *testing.T) {
	text, contentType, err := Extract("lecture.txt", []byte("Machine learning basics.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Machine learning basics.", text)
	assert.Equal(t, "text/plain", contentType)
}

func TestExtractTextInvalidUTF8(t *testing.T) {
	_, _, err := Extract("lecture.txt", []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, domain.ErrUnreadableContent)
}

func TestExtractSRTStripsCues(t *testing.T) {
	srt := "1\n00:00:01,000 --> 00:00:04,000\nWelcome to the lecture.\n\n" +
		"2\n00:00:04,500 --> 00:00:08,000\nToday we cover regression.\n"
	text, contentType, err := Extract("lecture.srt", []byte(srt))
	require.NoError(t, err)
	assert.Equal(t, "application/x-subrip", contentType)
	assert.Contains(t, text, "Welcome to the lecture.")
	assert.Contains(t, text, "Today we cover regression.")
	assert.NotContains(t, text, "-->")
	assert.NotContains(t, text, "00:00:01")
}

func TestExtractEmptySRT(t *testing.T) {
	srt := "1\n00:00:01,000 --> 00:00:04,000\n\n"
	_, _, err := Extract("empty.srt", []byte(srt))
	assert.ErrorIs(t, err, domain.ErrUnreadableContent)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	_, _, err := Extract("slides.pptx", []byte("whatever"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractBrokenPDF(t *testing.T) {
	_, _, err := Extract("lecture.pdf", []byte("not a pdf at all"))
	assert.ErrorIs(t, err, domain.ErrUnreadableContent)
}
