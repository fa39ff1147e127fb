// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identify

import (
	"regexp"
	"strings"
)

// Prefixed DOI: "doi:10.x/...", "doi 10.x/...", or a doi.org URL. The
// prefix makes a match trustworthy enough to accept anywhere in the text.
var prefixedDOI = regexp.MustCompile(
	`(?i)(?:doi[:\s]\s*|https?://(?:dx\.)?doi\.org/)(10\.\d{4,9}/[^\s,;"'}\]]+)`)

// Bare DOI with no prefix. Only consulted as a fallback, since arbitrary
// numeric strings can pattern-match.
var bareDOI = regexp.MustCompile(`\b(10\.\d{4,9}/[^\s,;"'}\]]+)`)

// FromText extracts a DOI from arbitrary text, trying prefixed forms
// before bare ones. Returns "" when nothing matches.
func FromText(text string) string {
	if doi := matchPrefixedDOI(text); doi != "" {
		return doi
	}
	if m := bareDOI.FindStringSubmatch(text); m != nil {
		return cleanDOI(m[1])
	}
	return ""
}

func matchPrefixedDOI(text string) string {
	if m := prefixedDOI.FindStringSubmatch(text); m != nil {
		return cleanDOI(m[1])
	}
	return ""
}

// cleanDOI strips trailing punctuation the regex sweeps in from the
// enclosing sentence: ". , ; ) ]" and whitespace.
func cleanDOI(doi string) string {
	return strings.TrimSpace(strings.TrimRight(doi, ".,;)]"))
}
