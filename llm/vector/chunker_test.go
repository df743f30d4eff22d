package vector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// letters builds deterministic non-whitespace content of length n.
func letters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + (i*7)%26)
	}
	return string(b)
}

func TestSplitFixed(t *testing.T) {
	text := letters(95)

	chunks, err := SplitFixed(text, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 10)

	for i, c := range chunks[:9] {
		assert.Len(t, c, 10, "chunk %d", i)
	}
	assert.Len(t, chunks[9], 5)

	// Windows advance by exactly the chunk size, so the concatenation
	// reproduces the input.
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitFixedDeterministic(t *testing.T) {
	text := letters(5000)
	a, err := SplitFixed(text, 333)
	require.NoError(t, err)
	b, err := SplitFixed(text, 333)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSplitFixedEdgeCases(t *testing.T) {
	chunks, err := SplitFixed("", 100)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = SplitFixed("hello", 0)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = SplitFixed("hello", -3)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	chunks, err = SplitFixed("short", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, chunks)
}

func TestSplitMarkdownOversizedBlock(t *testing.T) {
	text := letters(18000)
	cfg := SplitConfig{ChunkSize: 1500, ChunkOverlap: 20, MinChunkSize: 1}

	chunks, err := SplitMarkdown(text, cfg)
	require.NoError(t, err)

	// Stride is size minus overlap, 1480 chars per step.
	require.Len(t, chunks, 13)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), cfg.ChunkSize, "chunk %d", i)
	}

	// Consecutive chunks share the overlap region.
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-cfg.ChunkOverlap:]
		head := chunks[i+1][:cfg.ChunkOverlap]
		assert.Equal(t, tail, head, "overlap between %d and %d", i, i+1)
	}
}

func TestSplitMarkdownPacksBlocks(t *testing.T) {
	text := "# Title\n\nFirst paragraph.\n\nSecond paragraph.\n\nThird paragraph."
	cfg := SplitConfig{ChunkSize: 1500, ChunkOverlap: 20, MinChunkSize: 1}

	chunks, err := SplitMarkdown(text, cfg)
	require.NoError(t, err)

	// Everything fits one chunk; block order is preserved.
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "# Title")
	assert.Less(t, strings.Index(chunks[0], "First"), strings.Index(chunks[0], "Second"))
	assert.Less(t, strings.Index(chunks[0], "Second"), strings.Index(chunks[0], "Third"))
}

func TestSplitMarkdownHeadingStaysWithBody(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(letters(90))
	sb.WriteString("\n\n# Section\n\n")
	sb.WriteString(letters(80))
	cfg := SplitConfig{ChunkSize: 100, ChunkOverlap: 0, MinChunkSize: 1}

	chunks, err := SplitMarkdown(sb.String(), cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The heading opens the chunk holding its body rather than closing
	// the previous one.
	assert.True(t, strings.HasPrefix(chunks[1], "# Section"), "got %q", chunks[1])
}

func TestSplitMarkdownDeterministic(t *testing.T) {
	text := "# A\n\n" + letters(4000) + "\n\n## B\n\n" + letters(300)
	cfg := SplitConfig{ChunkSize: 500, ChunkOverlap: 50, MinChunkSize: 1}

	a, err := SplitMarkdown(text, cfg)
	require.NoError(t, err)
	b, err := SplitMarkdown(text, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSplitMarkdownInvalidConfig(t *testing.T) {
	_, err := SplitMarkdown("text", SplitConfig{ChunkSize: 0})
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = SplitMarkdown("text", SplitConfig{ChunkSize: 10, ChunkOverlap: 10})
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	chunks, err := SplitMarkdown("   \n\n  ", SplitConfig{ChunkSize: 10})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitMarkdownMinChunkSize(t *testing.T) {
	text := "ok\n\n" + letters(50)
	cfg := SplitConfig{ChunkSize: 20, ChunkOverlap: 0, MinChunkSize: 5}

	chunks, err := SplitMarkdown(text, cfg)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.NotEqual(t, "ok", c)
	}
}
