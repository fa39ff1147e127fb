// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"unicode"

	"github.com/pdiddy/paper-vault/pkg/types"
)

// Quality thresholds on the printable-character ratio of extracted text.
const (
	goodQualityRatio    = 0.90
	partialQualityRatio = 0.50
)

// Metrics summarizes the extracted text of a document.
type Metrics struct {
	PageCount      int
	TotalChars     int
	CharsPerPage   float64
	PrintableRatio float64
	Quality        types.TextQuality
}

// ComputeMetrics derives text metrics from page texts. A document with no
// extractable text (scanned images) scores QualityNone.
func ComputeMetrics(pages []string) Metrics {
	m := Metrics{PageCount: len(pages)}

	total := 0
	printable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if isGarbageRune(r) {
				continue
			}
			if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
				printable++
			}
		}
	}
	m.TotalChars = total
	if m.PageCount > 0 {
		m.CharsPerPage = float64(total) / float64(m.PageCount)
	}
	if total == 0 {
		m.PrintableRatio = 0
		m.Quality = types.QualityNone
		return m
	}
	m.PrintableRatio = float64(printable) / float64(total)

	switch {
	case m.PrintableRatio >= goodQualityRatio:
		m.Quality = types.QualityGood
	case m.PrintableRatio >= partialQualityRatio:
		m.Quality = types.QualityPartial
	default:
		m.Quality = types.QualityNone
	}
	return m
}

// isGarbageRune flags characters that signal broken font decoding:
// Private Use Area glyphs, the replacement character, and control
// characters other than whitespace.
func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}
