package domain

import (
	"context"
	"time"
)

// ChunkConfig holds the chunking parameters used to build a document index.
// Both values are in token units.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// Document represents one uploaded transcript. It is immutable after
// creation; its index is rebuilt wholesale, never updated in place.
type Document struct {
	ID           string    `db:"id"`
	Owner        string    `db:"owner"`
	Title        string    `db:"title"`
	ContentType  string    `db:"content_type"`
	Content      string    `db:"content"`
	IndexKey     string    `db:"index_key"`
	ChunkSize    int       `db:"chunk_size"`
	ChunkOverlap int       `db:"chunk_overlap"`
	CreatedAt    time.Time `db:"created_at"`
}

// Session binds one owner to one document for a note-generation/chat
// interaction. Notes holds the most recently generated study notes for
// the session, if any.
type Session struct {
	ID         string    `db:"id"`
	Owner      string    `db:"owner"`
	DocumentID string    `db:"document_id"`
	Notes      string    `db:"notes"`
	CreatedAt  time.Time `db:"created_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one persisted turn of a session's conversation.
// Messages are append-only and ordered by timestamp.
type Message struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
}

// ChatMessage is one entry of an assembled prompt, not yet persisted.
type ChatMessage struct {
	Role    string
	Content string
}

// FormatChoice is a session's note-style selection: either the key of a
// catalog entry, or the custom key plus caller-supplied template text.
type FormatChoice struct {
	Key    string `db:"format_key"`
	Custom string `db:"custom_template"`
}

// SearchResult is a retrieved chunk with its distance to the query.
// Lower scores are more similar.
type SearchResult struct {
	Text  string
	Score float64
}

// Chunker splits raw transcript text into overlapping token-bounded
// segments suitable for embedding. Config exposes the parameters so
// they can be recorded with the document whose index they built.
type Chunker interface {
	Split(text string) ([]string, error)
	Config() ChunkConfig
}

// Embedder converts free text into a numeric vector representation.
// Implementations are read-only after construction and safe for
// concurrent use.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator invokes a language model with an assembled prompt and
// returns its text completion. Temperature is in [0,1].
type Generator interface {
	Complete(ctx context.Context, messages []ChatMessage, temperature float64) (string, error)
}

// Store persists documents, sessions, conversation history and format
// selections. Lookup misses return the matching sentinel error.
type Store interface {
	SaveDocument(ctx context.Context, doc Document) error
	Document(ctx context.Context, owner, id string) (Document, error)
	Documents(ctx context.Context, owner string) ([]Document, error)
	DeleteDocument(ctx context.Context, owner, id string) error

	SaveSession(ctx context.Context, s Session) error
	Session(ctx context.Context, id string) (Session, error)
	SaveSessionNotes(ctx context.Context, id, notes string) error

	AppendMessage(ctx context.Context, m Message) error
	History(ctx context.Context, sessionID string) ([]Message, error)

	SaveFormatChoice(ctx context.Context, sessionID string, choice FormatChoice) error
	FormatChoice(ctx context.Context, sessionID string) (FormatChoice, error)
}
