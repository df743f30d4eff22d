package vector

import (
	"context"

	"docsage/llm"
)

// VectorMemory persists chunks as embeddings and answers similarity
// queries. Repeated Add calls create distinct entries: there is no
// content dedup, and a full re-index goes through Clear.
//
// A memory is bound to one embedding function for its lifetime. Swapping
// the embedder without Clear silently invalidates similarity semantics;
// this is a documented hazard, not something the store detects.
type VectorMemory interface {
	// Add stores one chunk, computing and persisting its embedding.
	Add(ctx context.Context, chunk llm.Chunk) error

	// AddBatch stores multiple chunks in a single operation.
	AddBatch(ctx context.Context, chunks []llm.Chunk) error

	// Query embeds the text with the memory's embedding function and
	// returns up to topK entries with score >= scoreThreshold, sorted by
	// score descending; equal scores rank earlier-inserted entries first.
	Query(ctx context.Context, text string, topK int, scoreThreshold float64) ([]llm.SearchResult, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)

	// Clear removes all entries. Used for full re-indexing.
	Clear(ctx context.Context) error

	// Close flushes and releases resources.
	Close() error
}
