package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// MarkdownParser handles markdown files. The body is kept as markdown so
// the markdown-aware chunker can respect block boundaries; only YAML
// frontmatter is stripped.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse reads and parses markdown from the reader
func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown: %w", err)
	}
	return p.parse(string(data), ""), nil
}

// ParseFile reads and parses a markdown file
func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &FetchError{Source: filePath, Err: err}
	}
	return p.parse(string(data), filePath), nil
}

func (p *MarkdownParser) parse(content, filePath string) *Document {
	metadata := extractFrontmatter(content)
	body := removeFrontmatter(content)

	title := ExtractTitle(body, filePath)
	if fmTitle, ok := metadata["title"].(string); ok && fmTitle != "" {
		title = fmTitle
	}

	metadata["size"] = len(content)

	return &Document{
		Content:  body,
		Title:    title,
		Metadata: metadata,
	}
}

// extractFrontmatter parses simple key: value pairs from YAML frontmatter
func extractFrontmatter(content string) map[string]any {
	metadata := make(map[string]any)
	if !hasFrontmatter(content) {
		return metadata
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "---" {
			break
		}
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
			metadata[key] = value
		}
	}
	return metadata
}

// removeFrontmatter removes YAML frontmatter from content
func removeFrontmatter(content string) string {
	if !hasFrontmatter(content) {
		return content
	}
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}

func hasFrontmatter(content string) bool {
	lines := strings.Split(content, "\n")
	return len(lines) >= 2 && strings.TrimSpace(lines[0]) == "---"
}

// FileType returns the file type this parser handles
func (p *MarkdownParser) FileType() FileType {
	return FileTypeMD
}
