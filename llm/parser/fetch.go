package parser

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const (
	// defaultFetchTimeout bounds one HTTP fetch
	defaultFetchTimeout = 30 * time.Second
	// maxFetchSize is the maximum response size (5MB)
	maxFetchSize = int64(5 * 1024 * 1024)
)

// Fetcher retrieves remote sources over HTTP and normalizes them. HTML
// responses are converted to markdown so the markdown-aware chunker can
// split along block boundaries; everything else is treated as plain text.
type Fetcher struct {
	client    *http.Client
	converter *md.Converter
}

// NewFetcher creates a fetcher with the given timeout; zero means the
// default.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		converter: md.NewConverter("", true, nil),
	}
}

// Fetch retrieves one URL. Transport failures and non-2xx statuses return
// a *FetchError carrying the locator.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Source: url, Err: err}
	}
	req.Header.Set("User-Agent", "docsage-fetch/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Source: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, &FetchError{Source: url, Err: err}
	}

	content := string(body)
	contentType := resp.Header.Get("Content-Type")

	if strings.Contains(contentType, "text/html") || looksLikeHTML(content) {
		return f.normalizeHTML(content, url)
	}

	return &Document{
		Content:  content,
		Title:    ExtractTitle(content, url),
		Metadata: map[string]any{"url": url, "content_type": contentType},
	}, nil
}

// normalizeHTML converts an HTML payload to markdown, keeping headings and
// lists that the chunker can split on.
func (f *Fetcher) normalizeHTML(content, url string) (*Document, error) {
	title := ""
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	markdown, err := f.converter.ConvertString(content)
	if err != nil {
		// Fall back to bare tag stripping when conversion fails.
		text, strippedTitle := StripHTML(content)
		if title == "" {
			title = strippedTitle
		}
		markdown = text
	}
	markdown = strings.TrimSpace(markdown)

	if title == "" {
		title = ExtractTitle(markdown, url)
	}

	return &Document{
		Content:  markdown,
		Title:    title,
		Metadata: map[string]any{"url": url},
	}, nil
}

func looksLikeHTML(content string) bool {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = strings.ToLower(head)
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
