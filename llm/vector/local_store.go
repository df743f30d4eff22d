package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docsage/llm"
)

// memoryEntry is one persisted (chunk, embedding) pair.
type memoryEntry struct {
	Chunk  llm.Chunk `json:"chunk"`
	Vector []float64 `json:"vector"`
}

// LocalStore is a persistent VectorMemory backed by a JSON snapshot under
// a fixed on-disk location. Similarity is brute-force cosine over
// normalized vectors. Writes take the exclusive lock and flush to disk;
// queries run concurrently under the read lock.
type LocalStore struct {
	mu           sync.RWMutex
	path         string
	embeddingSvc *EmbeddingService
	entries      []memoryEntry
}

// NewLocalStore opens (or creates) the collection file at
// <dir>/<collection>.json and loads any existing entries.
func NewLocalStore(dir, collection string, embeddingSvc *EmbeddingService) (*LocalStore, error) {
	if embeddingSvc == nil {
		return nil, fmt.Errorf("embedding service is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}

	s := &LocalStore{
		path:         filepath.Join(dir, collection+".json"),
		embeddingSvc: embeddingSvc,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load collection %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("decode collection %s: %w", s.path, err)
	}
	return nil
}

// flush writes the snapshot atomically. Callers hold the write lock.
func (s *LocalStore) flush() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Add stores one chunk.
func (s *LocalStore) Add(ctx context.Context, chunk llm.Chunk) error {
	return s.AddBatch(ctx, []llm.Chunk{chunk})
}

// AddBatch embeds and persists multiple chunks in insertion order.
func (s *LocalStore) AddBatch(ctx context.Context, chunks []llm.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embeddingSvc.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	now := time.Now().Format(time.RFC3339)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt == "" {
			c.CreatedAt = now
		}
		s.entries = append(s.entries, memoryEntry{
			Chunk:  c,
			Vector: Normalize(vectors[i]),
		})
	}
	return s.flush()
}

// Query runs a brute-force similarity scan. Results are sorted by score
// descending; a stable sort keeps earlier-inserted entries ahead on ties.
func (s *LocalStore) Query(ctx context.Context, text string, topK int, scoreThreshold float64) ([]llm.SearchResult, error) {
	if text == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	queryVec, err := s.embeddingSvc.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	Normalize(queryVec)

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]llm.SearchResult, 0, topK)
	for _, e := range s.entries {
		score := CosineScore(dot(e.Vector, queryVec))
		if score < scoreThreshold {
			continue
		}
		results = append(results, llm.SearchResult{Chunk: e.Chunk, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of stored entries.
func (s *LocalStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// Clear removes all entries and truncates the snapshot.
func (s *LocalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return s.flush()
}

// Close flushes the snapshot.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// Path returns the on-disk snapshot location.
func (s *LocalStore) Path() string { return s.path }

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
