package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"studyrag/internal/domain"
)

// Backend is a minimal REST client to Qdrant keeping one collection per
// document key. Qdrant scores cosine searches as similarities (higher is
// closer), so results are inverted to the pipeline's distance convention
// before returning.
type Backend struct {
	url       string
	apiKey    string
	dimension int
	client    *http.Client
}

// Config contains connection details for a Qdrant instance. Dimension
// is the embedder's vector size; it is only consulted when a document
// produced no chunks and the size cannot be read off the vectors.
type Config struct {
	URL       string
	APIKey    string
	Dimension int
	Timeout   time.Duration
}

// NewBackend creates a Qdrant-backed index store.
func NewBackend(cfg Config) *Backend {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Backend{
		url:       cfg.URL,
		apiKey:    cfg.APIKey,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
	}
}

// Build recreates the collection for key and upserts all chunk vectors.
func (b *Backend) Build(ctx context.Context, key string, chunks []string, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	size := b.dimension
	if len(vectors) > 0 {
		size = len(vectors[0])
	}
	if size == 0 {
		return errors.New("unknown vector size for empty qdrant collection")
	}
	// Wholesale rebuild: drop any previous collection first.
	if err := b.Delete(ctx, key); err != nil {
		return err
	}
	create := map[string]any{
		"vectors": map[string]any{
			"size":     size,
			"distance": "Cosine",
		},
	}
	if err := b.putJSON(ctx, fmt.Sprintf("%s/collections/%s", b.url, key), create); err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}
	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		points[i] = map[string]any{
			"id":     i,
			"vector": vectors[i],
			"payload": map[string]any{
				"text": chunks[i],
			},
		}
	}
	body := map[string]any{"points": points}
	return b.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", b.url, key), body)
}

// Search queries the collection for key. A missing collection maps to
// domain.ErrIndexNotFound.
func (b *Backend) Search(ctx context.Context, key string, vector []float64, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := b.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", b.url, key), req, &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, fmt.Errorf("index %s: %w", key, domain.ErrIndexNotFound)
		}
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		text, _ := r.Payload["text"].(string)
		results = append(results, domain.SearchResult{
			Text:  text,
			Score: 1.0 - r.Score,
		})
	}
	return results, nil
}

// Delete drops the collection for key. Missing collections are ignored.
func (b *Backend) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", b.url, key), nil)
	if err != nil {
		return err
	}
	b.auth(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return &statusError{code: resp.StatusCode, op: "DELETE " + req.URL.Path}
	}
	return nil
}

type statusError struct {
	code int
	op   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s failed: status %d", e.op, e.code)
}

func (b *Backend) auth(req *http.Request) {
	if b.apiKey != "" {
		req.Header.Set("api-key", b.apiKey)
	}
}

func (b *Backend) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	b.auth(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, op: "PUT " + req.URL.Path}
	}
	return nil
}

func (b *Backend) postJSON(ctx context.Context, url string, body, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	b.auth(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, op: "POST " + req.URL.Path}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
