// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slug derives human-readable bib keys from author, year, and title.
//
// Key format: {surname}{year}{titleslug}, where the title slug is one or
// two distinctive words, e.g. "desilva2007molecularlogic".
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/paper-vault/pkg/types"
)

// maxSlugWords is the number of short title words joined into the slug.
const maxSlugWords = 2

// longWordLen is the length at which a single title word is distinctive
// enough to stand alone.
const longWordLen = 8

// foldASCII decomposes diacritics and drops combining marks, so
// "Müller" folds to "Muller".
var foldASCII = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func fold(s string) string {
	out, _, err := transform.String(foldASCII, s)
	if err != nil {
		return s
	}
	return out
}

// FromTitle extracts one or two distinctive lowercase words from a paper
// title. The first long word (>= 8 chars) is used alone; otherwise the
// first two meaningful words are joined. Stopwords and words under three
// characters are dropped. Returns "" when nothing meaningful survives.
func FromTitle(title string) string {
	words := alphaWords(fold(title))

	var meaningful []string
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		meaningful = append(meaningful, w)
	}
	if len(meaningful) == 0 {
		return ""
	}
	if len(meaningful[0]) >= longWordLen {
		return meaningful[0]
	}
	if len(meaningful) > maxSlugWords {
		meaningful = meaningful[:maxSlugWords]
	}
	return strings.Join(meaningful, "")
}

// alphaWords returns the lowercase ASCII-alphabetic runs of length >= 3.
func alphaWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() >= 3 {
			words = append(words, cur.String())
		}
		cur.Reset()
	}
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// MakeKey builds a bib key from the first author's surname, year, and title.
// The surname is diacritic-folded, stripped of non-letters, and lowercased;
// the title contributes a one-or-two-word slug. Deterministic.
func MakeKey(surname string, year int, title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(fold(surname)) {
		if r >= 'a' && r <= 'z' {
			sb.WriteRune(r)
		}
	}
	yearStr := "XXXX"
	if year > 0 {
		yearStr = strconv.Itoa(year)
	}
	return sb.String() + yearStr + FromTitle(title)
}

// Assign picks a collision-free key: the base itself if free, otherwise
// base+"a" through base+"z" in order. Returns KeyExhaustedError after 26
// collisions: that many clashes on one author+year+title triple is a
// data anomaly, not something to absorb with two-letter suffixes.
func Assign(base string, taken map[string]struct{}) (string, error) {
	if _, ok := taken[base]; !ok {
		return base, nil
	}
	for c := 'a'; c <= 'z'; c++ {
		candidate := base + string(c)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
	return "", &types.KeyExhaustedError{Base: base}
}
