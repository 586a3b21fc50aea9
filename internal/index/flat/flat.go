package flat

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"studyrag/internal/domain"
)

// Backend is a file-backed brute-force vector index. Each document key
// maps to one gob-encoded artifact on disk holding chunk texts and their
// L2-normalized vectors. Search is an exhaustive cosine-distance scan,
// which is plenty for single-transcript indexes.
type Backend struct {
	dir string
}

// artifact is the on-disk index representation.
type artifact struct {
	Dimension int
	Chunks    []string
	Vectors   [][]float64
}

// NewBackend creates the index directory if needed and returns a backend
// rooted there.
func NewBackend(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &Backend{dir: dir}, nil
}

// Build writes the index for key, replacing any existing artifact. The
// write goes through a temp file and rename so a crash never leaves a
// half-written index behind.
func (b *Backend) Build(_ context.Context, key string, chunks []string, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	art := artifact{Chunks: chunks, Vectors: make([][]float64, len(vectors))}
	for i, v := range vectors {
		if art.Dimension == 0 {
			art.Dimension = len(v)
		}
		if len(v) != art.Dimension {
			return errors.New("vector dimension mismatch")
		}
		art.Vectors[i] = normalize(v)
	}

	tmp, err := os.CreateTemp(b.dir, key+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := gob.NewEncoder(tmp).Encode(&art); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(key))
}

// Search loads the index for key and returns up to k results sorted by
// cosine distance ascending. An empty index yields an empty result.
func (b *Backend) Search(_ context.Context, key string, vector []float64, k int) ([]domain.SearchResult, error) {
	art, err := b.load(key)
	if err != nil {
		return nil, err
	}
	if len(art.Chunks) == 0 {
		return nil, nil
	}
	q := normalize(vector)
	results := make([]domain.SearchResult, len(art.Chunks))
	for i := range art.Chunks {
		results[i] = domain.SearchResult{
			Text:  art.Chunks[i],
			Score: 1.0 - dot(art.Vectors[i], q),
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Delete removes the artifact for key. Deleting a missing index is not
// an error.
func (b *Backend) Delete(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (b *Backend) load(key string) (*artifact, error) {
	f, err := os.Open(b.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("index %s: %w", key, domain.ErrIndexNotFound)
		}
		return nil, err
	}
	defer f.Close()
	var art artifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, fmt.Errorf("index %s corrupt: %w", key, domain.ErrIndexNotFound)
	}
	return &art, nil
}

func (b *Backend) path(key string) string {
	return filepath.Join(b.dir, key+".idx")
}

func normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
