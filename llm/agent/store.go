package agent

import (
	"context"
	"encoding/json"
	"sync"

	"docsage/llm"
)

// ConversationStore holds the turn history of one conversation.
// The history is append-only; turns are never edited once recorded.
type ConversationStore interface {
	// Add appends one turn.
	Add(ctx context.Context, turn llm.Turn) error
	// List returns the full history in order.
	List(ctx context.Context) ([]llm.Turn, error)
	// Clear drops the history.
	Clear(ctx context.Context) error
}

// MemoryStore is an in-memory ConversationStore.
type MemoryStore struct {
	mu    sync.RWMutex
	turns []llm.Turn
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends a turn to the history.
func (s *MemoryStore) Add(ctx context.Context, turn llm.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return nil
}

// List returns a copy of the history so callers cannot mutate it.
func (s *MemoryStore) List(ctx context.Context) ([]llm.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]llm.Turn, len(s.turns))
	copy(result, s.turns)
	return result, nil
}

// Clear drops all turns.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	return nil
}

// Snapshot serializes the history as JSON, for export or debugging.
func (s *MemoryStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.turns)
}

// Restore replaces the history with a previously snapshotted one.
func (s *MemoryStore) Restore(data []byte) error {
	var turns []llm.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = turns
	return nil
}
