// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// TokenSetSimilarity compares two titles insensitively to word order,
// casing, punctuation, and duplicated words. Each string is reduced to
// its sorted set of lowercase word tokens; the result is 1 minus the
// normalized edit distance between the joined token sets, in [0, 1].
func TokenSetSimilarity(a, b string) float64 {
	na := normalizeTokens(a)
	nb := normalizeTokens(b)
	if na == "" && nb == "" {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(na, nb)
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}

// normalizeTokens lowercases, strips non-alphanumerics, deduplicates,
// and sorts the words of s, returning them space-joined.
func normalizeTokens(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]struct{}, len(words))
	uniq := words[:0]
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		uniq = append(uniq, w)
	}
	sort.Strings(uniq)
	return strings.Join(uniq, " ")
}
