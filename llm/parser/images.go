package parser

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ImageIndex maps a page number to the ordered image assets extracted for
// that page.
type ImageIndex map[int][]string

// LocateImages finds page images extracted alongside a PDF and groups
// them by page number. Assets follow the `<stem>-page-<n>[-...].<ext>`
// naming used by PDF image extractors; imageDir defaults to the PDF's own
// directory when empty.
func LocateImages(pdfPath, imageDir string) (ImageIndex, error) {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	if imageDir == "" {
		imageDir = filepath.Dir(pdfPath)
	}

	pattern := filepath.Join(imageDir, stem+"-page-*.{png,jpg,jpeg}")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	index := make(ImageIndex)
	prefix := stem + "-page-"
	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), filepath.Ext(match))
		rest := strings.TrimPrefix(name, prefix)

		// Page number is the leading digit run; anything after a dash is
		// an image ordinal within the page.
		digits := rest
		if i := strings.IndexByte(rest, '-'); i >= 0 {
			digits = rest[:i]
		}
		page, err := strconv.Atoi(digits)
		if err != nil || page <= 0 {
			continue
		}
		index[page] = append(index[page], match)
	}

	return index, nil
}

// ForPage returns the image paths for one page, nil when none exist.
func (ix ImageIndex) ForPage(page int) []string {
	return ix[page]
}
