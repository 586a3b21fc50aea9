package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/chunker"
	"studyrag/internal/domain"
	"studyrag/internal/embedding/hashing"
	"studyrag/internal/index"
	"studyrag/internal/index/flat"
	"studyrag/internal/store"
)

const lectureText = "The sky is blue because molecules in the air scatter blue light " +
	"from the sun more than they scatter red light. This effect is called Rayleigh scattering."

type mockGenerator struct {
	reply string
	err   error

	calls [][]domain.ChatMessage
	temps []float64
}

func (g *mockGenerator) Complete(_ context.Context, messages []domain.ChatMessage, temperature float64) (string, error) {
	g.calls = append(g.calls, messages)
	g.temps = append(g.temps, temperature)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestService(t *testing.T, cfg Config, gen *mockGenerator) *Service {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "studyrag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	backend, err := flat.NewBackend(t.TempDir())
	require.NoError(t, err)
	idx := index.NewManager(backend, hashing.NewEmbedder(0))

	ch, err := chunker.NewTokenChunker(chunker.DefaultSize, chunker.DefaultOverlap)
	require.NoError(t, err)

	return New(st, idx, ch, gen, cfg)
}

func newSession(t *testing.T, svc *Service) domain.Session {
	t.Helper()
	ctx := context.Background()
	doc, err := svc.UploadDocument(ctx, "alice", "lecture1.txt", "text/plain", lectureText)
	require.NoError(t, err)
	sess, err := svc.CreateSession(ctx, "alice", doc.ID)
	require.NoError(t, err)
	return sess
}

func TestGenerateNotesEndToEnd(t *testing.T) {
	gen := &mockGenerator{reply: "# Sky Notes"}
	svc := newTestService(t, DefaultConfig(), gen)
	ctx := context.Background()
	sess := newSession(t, svc)

	require.NoError(t, svc.SelectFormat(ctx, sess.ID, domain.FormatChoice{Key: "detailed"}))

	notes, err := svc.GenerateNotes(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Sky Notes", notes)

	// The retrieved lecture content must reach the model inside the
	// filled template, as a single user message.
	require.Len(t, gen.calls, 1)
	require.Len(t, gen.calls[0], 1)
	assert.Equal(t, domain.RoleUser, gen.calls[0][0].Role)
	assert.Contains(t, gen.calls[0][0].Content, "sky is blue")
	assert.Contains(t, gen.calls[0][0].Content, "hierarchical headings")
	assert.InDelta(t, 0.7, gen.temps[0], 1e-9)

	// The result is stored on the session.
	stored, err := svc.Notes(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Sky Notes", stored)
}

func TestGenerateNotesRequiresFormat(t *testing.T) {
	gen := &mockGenerator{reply: "unused"}
	svc := newTestService(t, DefaultConfig(), gen)
	sess := newSession(t, svc)

	_, err := svc.GenerateNotes(context.Background(), sess.ID)
	assert.ErrorIs(t, err, domain.ErrFormatNotSelected)
	assert.Empty(t, gen.calls)
}

func TestGenerateNotesCustomTemplate(t *testing.T) {
	gen := &mockGenerator{reply: "notes"}
	svc := newTestService(t, DefaultConfig(), gen)
	ctx := context.Background()
	sess := newSession(t, svc)

	require.NoError(t, svc.SelectFormat(ctx, sess.ID, domain.FormatChoice{
		Key:    "custom",
		Custom: "Summarize everything as haiku.",
	}))
	_, err := svc.GenerateNotes(ctx, sess.ID)
	require.NoError(t, err)

	// Custom text without a placeholder is used as the instruction and
	// the retrieved content is appended after it.
	require.Len(t, gen.calls, 1)
	p := gen.calls[0][0].Content
	assert.True(t, strings.HasPrefix(p, "Summarize everything as haiku."))
	assert.Contains(t, p, "Lecture content:")
	assert.Contains(t, p, "Rayleigh scattering")
}

func TestSelectFormatRejectsBadChoices(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), &mockGenerator{})
	ctx := context.Background()
	sess := newSession(t, svc)

	assert.Error(t, svc.SelectFormat(ctx, sess.ID, domain.FormatChoice{Key: "interpretive-dance"}))
	assert.ErrorIs(t,
		svc.SelectFormat(ctx, sess.ID, domain.FormatChoice{Key: "custom"}),
		domain.ErrCustomTemplateRequired)
	assert.ErrorIs(t,
		svc.SelectFormat(ctx, "missing-session", domain.FormatChoice{Key: "detailed"}),
		domain.ErrSessionNotFound)
}

func TestChatAppendsBothTurns(t *testing.T) {
	gen := &mockGenerator{reply: "because of Rayleigh scattering"}
	svc := newTestService(t, DefaultConfig(), gen)
	ctx := context.Background()
	sess := newSession(t, svc)

	first, err := svc.Chat(ctx, sess.ID, "Why is the sky blue?")
	require.NoError(t, err)
	second, err := svc.Chat(ctx, sess.ID, "What scatters the light?")
	require.NoError(t, err)

	history, err := svc.History(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "Why is the sky blue?", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, first, history[1].Content)
	assert.Equal(t, "What scatters the light?", history[2].Content)
	assert.Equal(t, second, history[3].Content)

	// The second call replays the first exchange ahead of the new question.
	require.Len(t, gen.calls, 2)
	msgs := gen.calls[1]
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, "Why is the sky blue?", msgs[len(msgs)-3].Content)
	assert.Equal(t, first, msgs[len(msgs)-2].Content)
	assert.Equal(t, "What scatters the light?", msgs[len(msgs)-1].Content)
}

func TestChatInContextGroundsAnswer(t *testing.T) {
	gen := &mockGenerator{reply: "grounded answer"}
	svc := newTestService(t, DefaultConfig(), gen)
	ctx := context.Background()
	sess := newSession(t, svc)

	answer, err := svc.Chat(ctx, sess.ID, "Why does the sky scatter blue light?")
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
	assert.False(t, strings.HasPrefix(answer, "⚠️"))

	require.Len(t, gen.calls, 1)
	msgs := gen.calls[0]
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "sky is blue")
}

func TestChatOutOfContextFallsBack(t *testing.T) {
	// Threshold 0 classifies anything short of an exact match as out of
	// context, forcing the general-knowledge branch.
	cfg := DefaultConfig()
	cfg.Threshold = 0
	gen := &mockGenerator{reply: "general answer"}
	svc := newTestService(t, cfg, gen)
	ctx := context.Background()
	sess := newSession(t, svc)

	answer, err := svc.Chat(ctx, sess.ID, "Who won the 1970 chess championship?")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer, "⚠️ Note:"))
	assert.Contains(t, answer, "general answer")

	// No retrieved context reaches the model on this branch.
	require.Len(t, gen.calls, 1)
	for _, m := range gen.calls[0] {
		assert.NotContains(t, m.Content, "Context:\n")
	}

	// The disclaimed answer is what gets persisted.
	history, err := svc.History(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, answer, history[1].Content)
}

func TestChatFailedGenerationAppendsNothing(t *testing.T) {
	gen := &mockGenerator{err: domain.ErrGenerationUnavailable}
	svc := newTestService(t, DefaultConfig(), gen)
	ctx := context.Background()
	sess := newSession(t, svc)

	_, err := svc.Chat(ctx, sess.ID, "Why is the sky blue?")
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)

	history, err := svc.History(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatUnknownSession(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), &mockGenerator{})
	_, err := svc.Chat(context.Background(), "missing-session", "hello")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCreateSessionRequiresDocument(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), &mockGenerator{})
	_, err := svc.CreateSession(context.Background(), "alice", "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDeleteDocumentRemovesIndex(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), &mockGenerator{reply: "x"})
	ctx := context.Background()
	sess := newSession(t, svc)

	require.NoError(t, svc.DeleteDocument(ctx, "alice", sess.DocumentID))

	_, err := svc.CreateSession(ctx, "alice", sess.DocumentID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	// The existing session's retrieval now fails: the index is gone.
	_, err = svc.Chat(ctx, sess.ID, "Why is the sky blue?")
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestChatErrorPassthrough(t *testing.T) {
	wrapped := errors.New("model overloaded")
	gen := &mockGenerator{err: wrapped}
	svc := newTestService(t, DefaultConfig(), gen)
	ctx := context.Background()
	sess := newSession(t, svc)

	_, err := svc.Chat(ctx, sess.ID, "hello there sky")
	assert.ErrorIs(t, err, wrapped)
}
