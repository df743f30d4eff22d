package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUnsupportedFormat(t *testing.T) {
	reg := DefaultRegistry()
	_, err := reg.Extract(context.Background(), "archive.zip")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain body"), 0o644))

	doc, err := DefaultRegistry().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "plain body", doc.Content)
}

func TestParseFileMissingIsFetchError(t *testing.T) {
	_, err := NewTxtParser().ParseFile(context.Background(), "/no/such/file.txt")
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "/no/such/file.txt", ferr.Source)
}

func TestFileTypeFromExt(t *testing.T) {
	assert.Equal(t, FileTypePDF, FileTypeFromExt("pdf"))
	assert.Equal(t, FileTypeMD, FileTypeFromExt("markdown"))
	assert.Equal(t, FileTypeHTML, FileTypeFromExt("htm"))
	assert.Equal(t, FileTypeTXT, FileTypeFromExt("TXT"))
	assert.Equal(t, FileTypeUnknown, FileTypeFromExt("docx"))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/doc"))
	assert.True(t, IsURL("http://example.com"))
	assert.False(t, IsURL("docs/manual.pdf"))
	assert.False(t, IsURL("ftp://example.com"))
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Getting Started", ExtractTitle("# Getting Started\n\nbody", "x.md"))
	assert.Equal(t, "First line", ExtractTitle("First line\nsecond", "x.txt"))
	assert.Equal(t, "fallback.md", ExtractTitle("", "docs/fallback.md"))
}

func TestStripHTML(t *testing.T) {
	content := `<html><head>
		<title>  Page Title </title>
		<style>body { color: red }</style>
		<script>alert("hidden")</script>
	</head><body>
		<h1>Heading</h1>
		<p>First   paragraph
		with    odd	spacing.</p>
	</body></html>`

	text, title := StripHTML(content)
	assert.Equal(t, "Page Title", title)
	assert.Equal(t, "Heading First paragraph with odd spacing.", text)
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color: red")
}

func TestMarkdownFrontmatter(t *testing.T) {
	content := "---\ntitle: \"My Doc\"\nauthor: someone\n---\n\n# Body Heading\n\ntext"

	doc, err := NewMarkdownParser().Parse(context.Background(), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "My Doc", doc.Title)
	assert.Equal(t, "someone", doc.Metadata["author"])
	assert.NotContains(t, doc.Content, "author:")
	assert.Contains(t, doc.Content, "# Body Heading")
}

func TestMarkdownWithoutFrontmatter(t *testing.T) {
	doc, err := NewMarkdownParser().Parse(context.Background(), strings.NewReader("# Top\n\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "Top", doc.Title)
	assert.Equal(t, "# Top\n\nbody", doc.Content)
}

func TestLocateImages(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "manual.pdf")

	for _, name := range []string{
		"manual-page-1.png",
		"manual-page-2-1.png",
		"manual-page-2-2.jpg",
		"manual-page-x.png",
		"other-page-1.png",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644))
	}

	index, err := LocateImages(pdfPath, "")
	require.NoError(t, err)

	assert.Len(t, index.ForPage(1), 1)
	assert.Len(t, index.ForPage(2), 2)
	assert.Nil(t, index.ForPage(3))
}
