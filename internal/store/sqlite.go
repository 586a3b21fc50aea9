// Package store persists documents, sessions, conversation history and
// format selections in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"studyrag/internal/domain"
)

// SQLite implements domain.Store over a single SQLite database file.
type SQLite struct {
	db *sqlx.DB
}

// Ensure the interface stays satisfied.
var _ domain.Store = (*SQLite)(nil)

// Open connects to the database at path and initializes the schema.
func Open(path string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			title TEXT NOT NULL,
			content_type TEXT NOT NULL,
			content TEXT NOT NULL,
			index_key TEXT NOT NULL,
			chunk_size INTEGER NOT NULL,
			chunk_overlap INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			document_id TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			FOREIGN KEY(document_id) REFERENCES documents(id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS format_selections (
			session_id TEXT PRIMARY KEY,
			format_key TEXT NOT NULL,
			custom_template TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveDocument inserts a new document record.
func (s *SQLite) SaveDocument(ctx context.Context, doc domain.Document) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO documents (id, owner, title, content_type, content, index_key, chunk_size, chunk_overlap, created_at)
		VALUES (:id, :owner, :title, :content_type, :content, :index_key, :chunk_size, :chunk_overlap, :created_at)`, doc)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Document looks up one document by owner and id.
func (s *SQLite) Document(ctx context.Context, owner, id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.GetContext(ctx, &doc,
		`SELECT * FROM documents WHERE id = ? AND owner = ?`, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("select document: %w", err)
	}
	return doc, nil
}

// Documents lists all documents of an owner, newest first.
func (s *SQLite) Documents(ctx context.Context, owner string) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE owner = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document record.
func (s *SQLite) DeleteDocument(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	return nil
}

// SaveSession inserts a new session record.
func (s *SQLite) SaveSession(ctx context.Context, sess domain.Session) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (id, owner, document_id, notes, created_at)
		VALUES (:id, :owner, :document_id, :notes, :created_at)`, sess)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Session looks up a session by id.
func (s *SQLite) Session(ctx context.Context, id string) (domain.Session, error) {
	var sess domain.Session
	err := s.db.GetContext(ctx, &sess, `SELECT * FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("select session: %w", err)
	}
	return sess, nil
}

// SaveSessionNotes stores the most recently generated notes on a session.
func (s *SQLite) SaveSessionNotes(ctx context.Context, id, notes string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("update session notes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return nil
}

// AppendMessage persists one conversation turn.
func (s *SQLite) AppendMessage(ctx context.Context, m domain.Message) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, timestamp)
		VALUES (:id, :session_id, :role, :content, :timestamp)`, m)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// History returns all messages of a session in chronological insertion
// order. The rowid tiebreak keeps same-timestamp appends in arrival order.
func (s *SQLite) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := s.db.SelectContext(ctx, &messages,
		`SELECT id, session_id, role, content, timestamp FROM messages
		 WHERE session_id = ? ORDER BY timestamp ASC, rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return messages, nil
}

// SaveFormatChoice stores or replaces a session's note-style selection.
func (s *SQLite) SaveFormatChoice(ctx context.Context, sessionID string, choice domain.FormatChoice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO format_selections (session_id, format_key, custom_template)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET format_key = excluded.format_key, custom_template = excluded.custom_template`,
		sessionID, choice.Key, choice.Custom)
	if err != nil {
		return fmt.Errorf("save format selection: %w", err)
	}
	return nil
}

// FormatChoice returns a session's selection, or ErrFormatNotSelected.
func (s *SQLite) FormatChoice(ctx context.Context, sessionID string) (domain.FormatChoice, error) {
	var choice domain.FormatChoice
	err := s.db.GetContext(ctx, &choice,
		`SELECT format_key, custom_template FROM format_selections WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FormatChoice{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrFormatNotSelected)
	}
	if err != nil {
		return domain.FormatChoice{}, fmt.Errorf("select format selection: %w", err)
	}
	return choice, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
