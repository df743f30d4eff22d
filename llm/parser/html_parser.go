package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser strips markup from HTML files, leaving whitespace-collapsed
// plain text.
type HTMLParser struct{}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Parse reads and parses HTML from the reader
func (p *HTMLParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML: %w", err)
	}
	return p.parse(string(data), ""), nil
}

// ParseFile reads and parses an HTML file
func (p *HTMLParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &FetchError{Source: filePath, Err: err}
	}
	return p.parse(string(data), filePath), nil
}

func (p *HTMLParser) parse(content, filePath string) *Document {
	text, title := StripHTML(content)
	if title == "" {
		title = ExtractTitle(text, filePath)
	}

	return &Document{
		Content: text,
		Title:   title,
		Metadata: map[string]any{
			"raw_size": len(content),
		},
	}
}

// StripHTML tokenizes markup and returns the visible text with all
// whitespace collapsed to single spaces, plus the document title if one
// was present. Script and style bodies are dropped.
func StripHTML(content string) (text, title string) {
	tz := html.NewTokenizer(strings.NewReader(content))

	var sb strings.Builder
	var skipDepth int
	var inTitle bool

	for {
		tt := tz.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " "), strings.TrimSpace(title)
		case html.StartTagToken:
			name, _ := tz.TagName()
			switch string(name) {
			case "script", "style", "noscript":
				skipDepth++
			case "title":
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			switch string(name) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			case "title":
				inTitle = false
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			t := string(tz.Text())
			if inTitle {
				title += t
				continue
			}
			sb.WriteString(t)
			sb.WriteByte(' ')
		}
	}
}

// FileType returns the file type this parser handles
func (p *HTMLParser) FileType() FileType {
	return FileTypeHTML
}
