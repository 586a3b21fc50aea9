package index

import (
	"context"
	"fmt"
	"sync"

	"studyrag/internal/domain"
)

// Backend persists one vector index per document key and answers
// similarity searches against it. Scores returned by Search are
// distances: lower means more similar, sorted ascending.
type Backend interface {
	Build(ctx context.Context, key string, chunks []string, vectors [][]float64) error
	Search(ctx context.Context, key string, vector []float64, k int) ([]domain.SearchResult, error)
	Delete(ctx context.Context, key string) error
}

// Manager embeds chunks with the process-wide embedder and delegates
// persistence and retrieval to a backend. Builds for the same document
// key are serialized to avoid partial-write corruption; searches run
// concurrently.
type Manager struct {
	backend  Backend
	embedder domain.Embedder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates an index manager over the given backend and embedder.
func NewManager(backend Backend, embedder domain.Embedder) *Manager {
	return &Manager{
		backend:  backend,
		embedder: embedder,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Key derives the persistence key for a document.
func Key(owner, documentID string) string {
	return owner + "_" + documentID
}

// Build embeds every chunk and persists the index for (owner, documentID),
// replacing any previous index wholesale.
func (m *Manager) Build(ctx context.Context, owner, documentID string, chunks []string) error {
	key := Key(owner, documentID)
	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	vectors := make([][]float64, len(chunks))
	for i, chunk := range chunks {
		vec, err := m.embedder.Embed(ctx, chunk)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", i, err)
		}
		vectors[i] = vec
	}
	if err := m.backend.Build(ctx, key, chunks, vectors); err != nil {
		return fmt.Errorf("build index %s: %w", key, err)
	}
	return nil
}

// Search embeds the query and returns up to k chunks from the document's
// index, most similar first. Fails with domain.ErrIndexNotFound if no
// index was built for the document.
func (m *Manager) Search(ctx context.Context, owner, documentID, query string, k int) ([]domain.SearchResult, error) {
	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return m.backend.Search(ctx, Key(owner, documentID), vec, k)
}

// Delete removes the persisted index for (owner, documentID), if any.
func (m *Manager) Delete(ctx context.Context, owner, documentID string) error {
	key := Key(owner, documentID)
	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()
	return m.backend.Delete(ctx, key)
}

func (m *Manager) keyLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// OutOfContext reports whether a query should be answered from general
// knowledge instead of the document: true when retrieval found nothing,
// or when the best match is farther than the threshold. A top score
// exactly at the threshold still counts as in-context.
func OutOfContext(results []domain.SearchResult, threshold float64) bool {
	if len(results) == 0 {
		return true
	}
	return results[0].Score > threshold
}
