// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls text and metadata out of PDF files. Extraction is
// best-effort: malformed-but-openable PDFs degrade to empty results
// instead of failing, because identification downstream copes with
// missing fields.
package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pdiddy/paper-vault/pkg/types"
)

// Metadata is the embedded document information dictionary of a PDF.
type Metadata struct {
	Title     string
	Author    string
	Subject   string
	Keywords  string
	Creator   string
	Producer  string
	PageCount int
}

// Verify checks that the PDF is structurally sound and returns its page
// count. This is the one extraction step that fails hard: a file pdfcpu
// cannot validate has no business in the vault.
func Verify(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, &types.NotFoundError{Kind: "file", Name: path}
		}
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := api.ValidateFile(path, nil); err != nil {
		return 0, fmt.Errorf("validating %s: %w", path, err)
	}
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages in %s: %w", path, err)
	}
	if count == 0 {
		return 0, fmt.Errorf("%s has 0 pages", path)
	}
	return count, nil
}

// ReadMetadata reads the Info dictionary. Missing entries come back empty;
// only an unopenable file is an error.
func ReadMetadata(path string) (meta Metadata, err error) {
	// The underlying parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading metadata from %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	meta.PageCount = r.NumPage()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return meta, nil
	}
	meta.Title = infoString(info, "Title")
	meta.Author = infoString(info, "Author")
	meta.Subject = infoString(info, "Subject")
	meta.Keywords = infoString(info, "Keywords")
	meta.Creator = infoString(info, "Creator")
	meta.Producer = infoString(info, "Producer")
	return meta, nil
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// ReadPages extracts the text of every page, in order, 1-indexed by
// position. A page whose extraction fails contributes an empty string so
// page numbering stays aligned with the physical document.
func ReadPages(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting text from %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		pages = append(pages, pageText(r, i))
	}
	return pages, nil
}

func pageText(r *pdf.Reader, n int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	p := r.Page(n)
	if p.V.IsNull() {
		return ""
	}
	fonts := make(map[string]*pdf.Font)
	text, err := p.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return text
}

// FirstPage returns the text of page 1, or "" when the document has no
// extractable text.
func FirstPage(path string) string {
	pages, err := ReadPages(path)
	if err != nil || len(pages) == 0 {
		return ""
	}
	return pages[0]
}
