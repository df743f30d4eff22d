package rag

import (
	"context"
	"fmt"

	"docsage/llm"
	"docsage/llm/vector"
)

// Retriever binds a vector memory to query-time parameters. It returns
// the memory's ranking unchanged; re-ranking is a deliberate non-feature
// and the natural extension point.
type Retriever struct {
	memory         vector.VectorMemory
	topK           int
	scoreThreshold float64
}

// NewRetriever creates a retriever with fixed top-k and score threshold.
func NewRetriever(memory vector.VectorMemory, topK int, scoreThreshold float64) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		memory:         memory,
		topK:           topK,
		scoreThreshold: scoreThreshold,
	}
}

// Retrieve returns the ranked chunks relevant to the query. An empty
// result is a valid outcome, not an error; the prompt contract handles
// it downstream.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]llm.SearchResult, error) {
	results, err := r.memory.Query(ctx, query, r.topK, r.scoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("retrieve %q: %w", query, err)
	}
	return results, nil
}
