package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageSeparator joins pages in the extracted content. Page boundaries stay
// derivable from Content alone, and the Pages slice carries them
// explicitly for the image locator.
const PageSeparator = "\n\n---\n\n"

// PDFParser extracts per-page text from PDF files.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse reads and parses a PDF from the reader. The whole stream is
// buffered first; the PDF format needs random access.
func (p *PDFParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to load PDF: %w", err)
	}

	return p.extract(ctx, reader, "")
}

// ParseFile reads and parses a PDF file
func (p *PDFParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return nil, &FetchError{Source: filePath, Err: err}
	}
	defer f.Close()

	return p.extract(ctx, reader, filePath)
}

func (p *PDFParser) extract(ctx context.Context, reader *pdf.Reader, filePath string) (*Document, error) {
	numPages := reader.NumPage()

	var pages []PageText
	var parts []string

	for i := 1; i <= numPages; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}

		text = normalizePageText(text)
		pages = append(pages, PageText{Number: i, Text: text})
		parts = append(parts, text)
	}

	content := strings.Join(parts, PageSeparator)

	return &Document{
		Content: content,
		Title:   ExtractTitle(content, filePath),
		Pages:   pages,
		Metadata: map[string]any{
			"page_count": numPages,
		},
	}, nil
}

// normalizePageText tidies raw extractor output: single newlines between
// runs of text, collapsed spaces, trimmed edges.
func normalizePageText(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// FileType returns the file type this parser handles
func (p *PDFParser) FileType() FileType {
	return FileTypePDF
}
