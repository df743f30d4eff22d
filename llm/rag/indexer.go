package rag

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"docsage/llm"
	"docsage/llm/parser"
	"docsage/llm/vector"
)

// headProbe is how many leading characters of a chunk are matched back
// into the document when attributing it to a page.
const headProbe = 48

// IndexReport summarizes one indexing run. Per-source failures never
// abort the run; they are collected here instead.
type IndexReport struct {
	TotalChunks int
	Indexed     []string
	Failures    map[string]error
}

// Indexer extracts sources, splits them into chunks, and writes the
// result into a vector memory.
type Indexer struct {
	registry    *parser.Registry
	memory      vector.VectorMemory
	split       vector.SplitConfig
	imageDir    string
	concurrency int
}

// NewIndexer wires an indexer. imageDir locates pre-extracted page
// images for PDFs; empty means alongside the PDF. concurrency bounds
// parallel source processing and defaults to 4.
func NewIndexer(registry *parser.Registry, memory vector.VectorMemory, split vector.SplitConfig, imageDir string, concurrency int) *Indexer {
	if registry == nil {
		registry = parser.DefaultRegistry()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Indexer{
		registry:    registry,
		memory:      memory,
		split:       split,
		imageDir:    imageDir,
		concurrency: concurrency,
	}
}

// ExpandSources resolves glob patterns to concrete file paths. URLs and
// paths without glob metacharacters pass through unchanged. A pattern
// matching nothing is reported as an error entry so the caller can warn.
func ExpandSources(patterns []string) ([]string, map[string]error) {
	var sources []string
	bad := make(map[string]error)

	for _, p := range patterns {
		if parser.IsURL(p) || !strings.ContainsAny(p, "*?[{") {
			sources = append(sources, p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			bad[p] = fmt.Errorf("bad pattern: %w", err)
			continue
		}
		if len(matches) == 0 {
			bad[p] = fmt.Errorf("no files match pattern")
			continue
		}
		sort.Strings(matches)
		sources = append(sources, matches...)
	}
	return sources, bad
}

// IndexSources processes each source independently and reports the
// aggregate outcome. One bad source never stops the others.
func (ix *Indexer) IndexSources(ctx context.Context, sources []string) IndexReport {
	report := IndexReport{Failures: make(map[string]error)}

	type outcome struct {
		source string
		chunks int
		err    error
	}

	sem := make(chan struct{}, ix.concurrency)
	results := make(chan outcome, len(sources))
	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			n, err := ix.indexOne(ctx, src)
			results <- outcome{source: src, chunks: n, err: err}
		}(src)
	}
	wg.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			log.Printf("index %s: %v", r.source, r.err)
			report.Failures[r.source] = r.err
			continue
		}
		report.TotalChunks += r.chunks
		report.Indexed = append(report.Indexed, r.source)
	}
	sort.Strings(report.Indexed)
	return report
}

// indexOne extracts a single source and writes its chunks in one batch.
func (ix *Indexer) indexOne(ctx context.Context, source string) (int, error) {
	doc, err := ix.registry.Extract(ctx, source)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return 0, fmt.Errorf("no extractable text")
	}

	chunks, err := ix.splitDocument(source, doc)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := ix.memory.AddBatch(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(chunks), nil
}

// splitDocument chooses a splitter by file type. Structured formats keep
// block boundaries and overlap; plain text and web pages use fixed
// windows.
func (ix *Indexer) splitDocument(source string, doc *parser.Document) ([]llm.Chunk, error) {
	ft := parser.FileTypeFromExt(strings.TrimPrefix(filepath.Ext(source), "."))

	var texts []string
	var err error
	switch ft {
	case parser.FileTypePDF, parser.FileTypeMD:
		texts, err = vector.SplitMarkdown(doc.Content, ix.split)
	default:
		texts, err = vector.SplitFixed(doc.Content, ix.split.ChunkSize)
	}
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	var pages *pageLocator
	var images parser.ImageIndex
	if ft == parser.FileTypePDF && len(doc.Pages) > 0 {
		pages = newPageLocator(doc)
		images, _ = parser.LocateImages(source, ix.imageDir)
	}

	chunks := make([]llm.Chunk, 0, len(texts))
	for i, text := range texts {
		if ix.split.MinChunkSize > 0 && len(text) < ix.split.MinChunkSize {
			continue
		}
		c := llm.Chunk{
			Content:    text,
			Source:     source,
			ChunkIndex: i,
			Metadata:   map[string]any{"source": source},
		}
		if doc.Title != "" {
			c.Metadata["title"] = doc.Title
		}
		if pages != nil {
			c.PageNum = pages.pageOf(text)
			if c.PageNum > 0 && images != nil {
				c.ImagePaths = images.ForPage(c.PageNum)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// pageLocator attributes chunks back to source pages by matching a
// chunk's head into the page-joined document from a moving offset.
// Chunks straddling a page break get the page they start on.
type pageLocator struct {
	content string
	starts  []int
	numbers []int
	cursor  int
}

func newPageLocator(doc *parser.Document) *pageLocator {
	loc := &pageLocator{content: doc.Content}
	offset := 0
	for i, p := range doc.Pages {
		loc.starts = append(loc.starts, offset)
		loc.numbers = append(loc.numbers, p.Number)
		offset += len(p.Text)
		if i < len(doc.Pages)-1 {
			offset += len(parser.PageSeparator)
		}
	}
	return loc
}

func (loc *pageLocator) pageOf(chunk string) int {
	head := chunk
	if len(head) > headProbe {
		head = head[:headProbe]
	}
	if head == "" {
		return 0
	}

	pos := strings.Index(loc.content[loc.cursor:], head)
	if pos < 0 {
		// Splitters trim chunk edges, so retry from the top before
		// giving up on attribution.
		pos = strings.Index(loc.content, head)
		if pos < 0 {
			return 0
		}
		loc.cursor = 0
	}
	abs := loc.cursor + pos
	loc.cursor = abs

	page := 0
	for i, start := range loc.starts {
		if start > abs {
			break
		}
		page = loc.numbers[i]
	}
	return page
}
