// Package service orchestrates the study-notes flows: document upload
// and indexing, format selection, one-shot note generation, and the
// grounded chat loop with out-of-context fallback.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyrag/internal/domain"
	"studyrag/internal/format"
	"studyrag/internal/index"
	"studyrag/internal/prompt"
)

// notesQuery is the fixed retrieval query for note generation.
const notesQuery = "Generate structured lecture notes."

// outOfContextNotice prefixes answers generated from general knowledge
// when the question falls outside the uploaded document.
const outOfContextNotice = "⚠️ Note: This question is outside the scope of the uploaded document. The answer below is generated using general knowledge.\n\n"

// Config tunes retrieval and generation.
type Config struct {
	NotesTopK        int
	ChatTopK         int
	Threshold        float64
	NotesTemperature float64
	ChatTemperature  float64
}

// DefaultConfig returns the standard retrieval and generation settings.
func DefaultConfig() Config {
	return Config{
		NotesTopK:        5,
		ChatTopK:         3,
		Threshold:        1.0,
		NotesTemperature: 0.7,
		ChatTemperature:  0.7,
	}
}

// Service wires the store, index manager, chunker and generator into
// the user-facing operations.
type Service struct {
	store     domain.Store
	index     *index.Manager
	chunker   domain.Chunker
	generator domain.Generator
	cfg       Config
}

// New assembles a service.
func New(store domain.Store, idx *index.Manager, chunker domain.Chunker, generator domain.Generator, cfg Config) *Service {
	return &Service{
		store:     store,
		index:     idx,
		chunker:   chunker,
		generator: generator,
		cfg:       cfg,
	}
}

// UploadDocument chunks and indexes extracted transcript text and
// persists the document record. The index is built before the record is
// saved so a stored document always has a searchable index.
func (s *Service) UploadDocument(ctx context.Context, owner, title, contentType, content string) (domain.Document, error) {
	chunks, err := s.chunker.Split(content)
	if err != nil {
		return domain.Document{}, fmt.Errorf("split document: %w", err)
	}

	id := uuid.New().String()
	if err := s.index.Build(ctx, owner, id, chunks); err != nil {
		return domain.Document{}, err
	}

	cc := s.chunker.Config()
	doc := domain.Document{
		ID:           id,
		Owner:        owner,
		Title:        title,
		ContentType:  contentType,
		Content:      content,
		IndexKey:     index.Key(owner, id),
		ChunkSize:    cc.Size,
		ChunkOverlap: cc.Overlap,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// Documents lists the owner's uploaded documents, newest first.
func (s *Service) Documents(ctx context.Context, owner string) ([]domain.Document, error) {
	return s.store.Documents(ctx, owner)
}

// DeleteDocument removes the document record and its index.
func (s *Service) DeleteDocument(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteDocument(ctx, owner, id); err != nil {
		return err
	}
	return s.index.Delete(ctx, owner, id)
}

// CreateSession opens a study session against one of the owner's
// documents.
func (s *Service) CreateSession(ctx context.Context, owner, documentID string) (domain.Session, error) {
	if _, err := s.store.Document(ctx, owner, documentID); err != nil {
		return domain.Session{}, err
	}
	sess := domain.Session{
		ID:         uuid.New().String(),
		Owner:      owner,
		DocumentID: documentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// SelectFormat records the session's note-style choice after validating
// it against the catalog.
func (s *Service) SelectFormat(ctx context.Context, sessionID string, choice domain.FormatChoice) error {
	if _, err := s.store.Session(ctx, sessionID); err != nil {
		return err
	}
	if err := format.Validate(choice); err != nil {
		return err
	}
	return s.store.SaveFormatChoice(ctx, sessionID, choice)
}

// GenerateNotes retrieves the most relevant lecture content for the
// session's document, fills the selected format template, and runs the
// generator. The result is stored on the session for later export and
// as background for general chat.
func (s *Service) GenerateNotes(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return "", err
	}
	choice, err := s.store.FormatChoice(ctx, sessionID)
	if err != nil {
		return "", err
	}
	template, err := format.Resolve(choice)
	if err != nil {
		return "", err
	}

	results, err := s.index.Search(ctx, sess.Owner, sess.DocumentID, notesQuery, s.cfg.NotesTopK)
	if err != nil {
		return "", err
	}
	p, err := prompt.ForNotes(template, joinChunks(results))
	if err != nil {
		return "", err
	}

	notes, err := s.generator.Complete(ctx, []domain.ChatMessage{{Role: domain.RoleUser, Content: p}}, s.cfg.NotesTemperature)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveSessionNotes(ctx, sessionID, notes); err != nil {
		return "", err
	}
	return notes, nil
}

// Chat answers a follow-up question in the session. Questions the
// document can ground are answered from retrieved context; questions it
// cannot are answered from general knowledge and prefixed with a
// notice. Both the question and the answer are appended to the session
// history, but only after generation succeeds.
func (s *Service) Chat(ctx context.Context, sessionID, question string) (string, error) {
	sess, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return "", err
	}
	results, err := s.index.Search(ctx, sess.Owner, sess.DocumentID, question, s.cfg.ChatTopK)
	if err != nil {
		return "", err
	}
	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		return "", err
	}

	outOfContext := index.OutOfContext(results, s.cfg.Threshold)
	var messages []domain.ChatMessage
	if outOfContext {
		messages = prompt.ForGeneralChat(sess.Notes, history, question)
	} else {
		messages = prompt.ForChat(joinChunks(results), history, question)
	}

	answer, err := s.generator.Complete(ctx, messages, s.cfg.ChatTemperature)
	if err != nil {
		return "", err
	}
	if outOfContext {
		answer = outOfContextNotice + answer
	}

	now := time.Now().UTC()
	if err := s.appendTurn(ctx, sessionID, domain.RoleUser, question, now); err != nil {
		return "", err
	}
	if err := s.appendTurn(ctx, sessionID, domain.RoleAssistant, answer, now); err != nil {
		return "", err
	}
	return answer, nil
}

// History returns the session's persisted conversation in order.
func (s *Service) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if _, err := s.store.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, sessionID)
}

// Notes returns the session's most recently generated notes.
func (s *Service) Notes(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return sess.Notes, nil
}

func (s *Service) appendTurn(ctx context.Context, sessionID, role, content string, ts time.Time) error {
	return s.store.AppendMessage(ctx, domain.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: ts,
	})
}

func joinChunks(results []domain.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Text
	}
	return strings.Join(parts, "\n\n")
}
