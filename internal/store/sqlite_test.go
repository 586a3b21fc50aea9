package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/domain"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "studyrag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDocument(owner string) domain.Document {
	id := uuid.New().String()
	return domain.Document{
		ID:           id,
		Owner:        owner,
		Title:        "lecture1.txt",
		ContentType:  "text/plain",
		Content:      "The sky is blue. Water boils at 100C.",
		IndexKey:     owner + "_" + id,
		ChunkSize:    1000,
		ChunkOverlap: 200,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := sampleDocument("alice")
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.Document(ctx, "alice", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, doc.ChunkSize, got.ChunkSize)
	assert.Equal(t, doc.IndexKey, got.IndexKey)

	// Wrong owner must not see the document.
	_, err = s.Document(ctx, "mallory", doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentsListsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := sampleDocument("alice")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleDocument("alice")
	require.NoError(t, s.SaveDocument(ctx, older))
	require.NoError(t, s.SaveDocument(ctx, newer))
	require.NoError(t, s.SaveDocument(ctx, sampleDocument("bob")))

	docs, err := s.Documents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, newer.ID, docs[0].ID)
	assert.Equal(t, older.ID, docs[1].ID)
}

func TestDeleteDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := sampleDocument("alice")
	require.NoError(t, s.SaveDocument(ctx, doc))
	require.NoError(t, s.DeleteDocument(ctx, "alice", doc.ID))

	_, err := s.Document(ctx, "alice", doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	err = s.DeleteDocument(ctx, "alice", doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestSessionRoundTripAndNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := domain.Session{
		ID:         uuid.New().String(),
		Owner:      "alice",
		DocumentID: uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.SaveSession(ctx, sess))

	got, err := s.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)

	require.NoError(t, s.SaveSessionNotes(ctx, sess.ID, "# Notes"))
	got, err = s.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Notes", got.Notes)

	_, err = s.Session(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, s.SaveSessionNotes(ctx, "nope", "x"), domain.ErrSessionNotFound)
}

func TestHistoryPreservesInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sessionID := uuid.New().String()

	// Identical timestamps: rowid ordering must keep arrival order.
	ts := time.Now().UTC()
	turns := []string{"q1", "a1", "q2", "a2"}
	for i, content := range turns {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		require.NoError(t, s.AppendMessage(ctx, domain.Message{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Role:      role,
			Content:   content,
			Timestamp: ts,
		}))
	}

	history, err := s.History(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, content := range turns {
		assert.Equal(t, content, history[i].Content)
	}

	empty, err := s.History(ctx, "other-session")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFormatChoiceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sessionID := uuid.New().String()

	_, err := s.FormatChoice(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrFormatNotSelected)

	require.NoError(t, s.SaveFormatChoice(ctx, sessionID, domain.FormatChoice{Key: "flashcards"}))
	choice, err := s.FormatChoice(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "flashcards", choice.Key)

	// Re-selection replaces the previous choice.
	require.NoError(t, s.SaveFormatChoice(ctx, sessionID, domain.FormatChoice{Key: "custom", Custom: "Use limericks. {context}"}))
	choice, err = s.FormatChoice(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "custom", choice.Key)
	assert.Contains(t, choice.Custom, "limericks")
}
