package vector

import (
	"errors"
	"strings"
)

// ErrInvalidChunkSize rejects non-positive chunk sizes and overlaps that
// meet or exceed the chunk size. Fatal for the requested operation.
var ErrInvalidChunkSize = errors.New("invalid chunk size")

// SplitConfig configures how documents are split into chunks
type SplitConfig struct {
	ChunkSize    int // Maximum chunk size in characters
	ChunkOverlap int // Overlap between consecutive chunks
	MinChunkSize int // Minimum chunk size to keep
}

// SplitFixed slides a window of size over the text with no overlap.
// The window advances by exactly size each step, so concatenating the
// chunks reproduces the input; the final chunk may be shorter. Each chunk
// is trimmed of surrounding whitespace. Boundaries can land mid-word;
// tune the size if that matters for your corpus.
func SplitFixed(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if text == "" {
		return []string{}, nil
	}

	chunks := make([]string, 0, len(text)/size+1)
	for i := 0; i < len(text); i += size {
		end := i + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, strings.TrimSpace(text[i:end]))
	}
	return chunks, nil
}

// SplitMarkdown splits markdown along block boundaries where possible,
// packing whole blocks into chunks up to ChunkSize. Blocks that are
// themselves oversized fall back to a sliding character window with
// ChunkOverlap carried between consecutive chunks. Deterministic: the
// same input and config always yield the same chunk sequence.
func SplitMarkdown(text string, cfg SplitConfig) ([]string, error) {
	if cfg.ChunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, ErrInvalidChunkSize
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = 1
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		content := strings.TrimSpace(current.String())
		if len(content) >= cfg.MinChunkSize {
			chunks = append(chunks, content)
		}
		current.Reset()
	}

	for _, block := range splitBlocks(text) {
		if len(block) > cfg.ChunkSize {
			// Oversized block: emit what we have, then window through it.
			flush()
			sub, err := slideSplit(block, cfg.ChunkSize, cfg.ChunkOverlap)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, sub...)
			continue
		}

		// +2 accounts for the blank line re-joining blocks.
		if current.Len() > 0 && current.Len()+2+len(block) > cfg.ChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	flush()

	return chunks, nil
}

// splitBlocks breaks markdown into block-level units: paragraphs separated
// by blank lines, with headings and list items kept on their own.
func splitBlocks(text string) []string {
	paragraphs := strings.Split(text, "\n\n")

	var blocks []string
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Pull leading heading lines out of a paragraph so a heading
		// stays attached to the chunk holding its body, not a previous
		// one.
		lines := strings.Split(para, "\n")
		var body []string
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				if len(body) > 0 {
					blocks = append(blocks, strings.Join(body, "\n"))
					body = body[:0]
				}
				blocks = append(blocks, strings.TrimSpace(line))
				continue
			}
			body = append(body, line)
		}
		if len(body) > 0 {
			blocks = append(blocks, strings.Join(body, "\n"))
		}
	}
	return blocks
}

// slideSplit windows through text with a stride of size-overlap, so each
// chunk repeats the last overlap characters of its predecessor.
func slideSplit(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ErrInvalidChunkSize
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}
		chunks = append(chunks, strings.TrimSpace(text[start:end]))
		start = end - overlap
	}
	return chunks, nil
}
