package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsage/llm/parser"
	"docsage/llm/vector"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testIndexer(mem *fakeMemory) *Indexer {
	return NewIndexer(
		parser.DefaultRegistry(),
		mem,
		vector.SplitConfig{ChunkSize: 1500, ChunkOverlap: 20, MinChunkSize: 1},
		"",
		2,
	)
}

func TestIndexSourcesFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	good1 := writeFile(t, dir, "one.txt", "first document body")
	missing := filepath.Join(dir, "does-not-exist.txt")
	good2 := writeFile(t, dir, "two.txt", "second document body")

	mem := &fakeMemory{}
	report := testIndexer(mem).IndexSources(context.Background(), []string{good1, missing, good2})

	// One bad source never stops the others.
	assert.ElementsMatch(t, []string{good1, good2}, report.Indexed)
	assert.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures, missing)
	assert.Equal(t, 2, report.TotalChunks)
	assert.Len(t, mem.allBatches(), 2)
}

func TestIndexSourcesChunkMetadata(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "doc.txt", "alpha beta gamma delta")

	mem := &fakeMemory{}
	report := testIndexer(mem).IndexSources(context.Background(), []string{src})
	require.Empty(t, report.Failures)

	batches := mem.allBatches()
	require.Len(t, batches, 1)
	for i, c := range batches[0] {
		assert.Equal(t, src, c.Source)
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, src, c.Metadata["source"])
	}
}

func TestIndexSourcesOneBatchPerDocument(t *testing.T) {
	dir := t.TempDir()
	// Long enough to produce several chunks from one source.
	body := letters(4000)
	src := writeFile(t, dir, "long.md", body)

	mem := &fakeMemory{}
	report := testIndexer(mem).IndexSources(context.Background(), []string{src})
	require.Empty(t, report.Failures)

	batches := mem.allBatches()
	require.Len(t, batches, 1)
	assert.Greater(t, len(batches[0]), 1)
	assert.Equal(t, report.TotalChunks, len(batches[0]))
}

func TestIndexSourcesUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "binary.bin", "not indexable")

	mem := &fakeMemory{}
	report := testIndexer(mem).IndexSources(context.Background(), []string{src})

	require.Contains(t, report.Failures, src)
	assert.ErrorIs(t, report.Failures[src], parser.ErrUnsupportedFormat)
	assert.Empty(t, mem.allBatches())
}

func TestIndexSourcesEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "empty.txt", "   \n  ")

	mem := &fakeMemory{}
	report := testIndexer(mem).IndexSources(context.Background(), []string{src})

	assert.Contains(t, report.Failures, src)
	assert.Zero(t, report.TotalChunks)
}

func TestExpandSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "c.md", "c")

	sources, bad := ExpandSources([]string{
		filepath.Join(dir, "*.txt"),
		"https://example.com/page",
		filepath.Join(dir, "c.md"),
	})
	require.Empty(t, bad)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		"https://example.com/page",
		filepath.Join(dir, "c.md"),
	}, sources)
}

func TestExpandSourcesNoMatch(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*.pdf")

	sources, bad := ExpandSources([]string{pattern})
	assert.Empty(t, sources)
	assert.Contains(t, bad, pattern)
}

// letters builds deterministic non-whitespace content of length n.
func letters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + (i*7)%26)
	}
	return string(b)
}
