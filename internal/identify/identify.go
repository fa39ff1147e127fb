// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identify extracts a DOI, title, and author hints from a PDF
// without touching the network. Identification is best-effort: a PDF with
// no identifying information yields a Result with empty fields, never an
// error, as long as the file opens.
package identify

import (
	"strings"

	"github.com/pdiddy/paper-vault/internal/extract"
)

// firstPageLimit truncates the stored first-page text for transport.
const firstPageLimit = 2000

// DOISource records where a DOI was found.
type DOISource string

const (
	SourceMetadata DOISource = "metadata"
	SourceText     DOISource = "text"
	SourceNone     DOISource = ""
)

// Result is the outcome of identifying one PDF. It is produced once per
// ingest attempt and never persisted; only derived fields reach the
// catalog.
type Result struct {
	// DOI is the best DOI found, cleaned of trailing punctuation.
	DOI string

	// MetadataDOI and TextDOI record the DOI found in each location,
	// so the verification gate can detect disagreement.
	MetadataDOI string
	TextDOI     string

	// DOISource says where DOI came from.
	DOISource DOISource

	// TitleFromPDF is the display title: document metadata unless
	// generic, else a first-page heuristic.
	TitleFromPDF string

	// AuthorsFromPDF is the raw author string from document metadata.
	AuthorsFromPDF string

	// Metadata is the raw Info dictionary.
	Metadata extract.Metadata

	// FirstPageText is the (truncated) text of page 1.
	FirstPageText string
}

// PDF identifies a PDF on disk. Fails only when the file cannot be
// opened at all.
func PDF(path string) (Result, error) {
	meta, err := extract.ReadMetadata(path)
	if err != nil {
		return Result{}, err
	}
	firstPage := extract.FirstPage(path)
	return FromParts(meta, firstPage), nil
}

// FromParts identifies a document from already-extracted metadata and
// first-page text. Pure; split out so the gate tests can build fixtures
// without PDF files.
func FromParts(meta extract.Metadata, firstPage string) Result {
	r := Result{Metadata: meta, AuthorsFromPDF: meta.Author}

	// DOI from metadata subject first; prefixed forms only, to avoid
	// mistaking arbitrary numerics for a bare DOI.
	if meta.Subject != "" {
		if doi := matchPrefixedDOI(meta.Subject); doi != "" {
			r.MetadataDOI = doi
			r.DOI = doi
			r.DOISource = SourceMetadata
		}
	}

	if doi := FromText(firstPage); doi != "" {
		r.TextDOI = doi
		if r.DOI == "" {
			r.DOI = doi
			r.DOISource = SourceText
		}
	}

	title := meta.Title
	if title == "" || isGenericTitle(title) {
		title = titleFromText(firstPage)
	}
	r.TitleFromPDF = title

	if len(firstPage) > firstPageLimit {
		firstPage = firstPage[:firstPageLimit]
	}
	r.FirstPageText = firstPage

	return r
}

// genericTitlePrefixes mark auto-generated metadata titles that say
// nothing about the document.
var genericTitlePrefixes = []string{
	"microsoft word",
	"untitled",
	"document",
	"powerpoint",
}

func isGenericTitle(title string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	for _, p := range genericTitlePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// titleFromText guesses the title from first-page text: the first of the
// leading ten non-empty lines that is at least 10 characters, does not
// start with a digit, is not a short all-caps running header, and does
// not look like an author or affiliation line.
func titleFromText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	checked := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		checked++
		if checked > 10 {
			break
		}
		if len(line) < 10 {
			continue
		}
		if line[0] >= '0' && line[0] <= '9' {
			continue
		}
		if len(line) < 50 && line == strings.ToUpper(line) && line != strings.ToLower(line) {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(line, "@") || strings.Contains(lower, "university") {
			continue
		}
		return line
	}
	return ""
}

// SurnameFromAuthor extracts the first author's surname from a raw author
// string. Handles "Surname, Given", "Given Surname", and multi-author
// strings separated by " and " or ";".
func SurnameFromAuthor(author string) string {
	first := author
	if idx := strings.Index(first, " and "); idx >= 0 {
		first = first[:idx]
	}
	if idx := strings.Index(first, ";"); idx >= 0 {
		first = first[:idx]
	}
	first = strings.TrimSpace(first)

	if idx := strings.Index(first, ","); idx >= 0 {
		return strings.TrimSpace(first[:idx])
	}
	fields := strings.Fields(first)
	if len(fields) > 0 {
		return fields[len(fields)-1]
	}
	return strings.TrimSpace(author)
}
