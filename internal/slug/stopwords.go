// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package slug

// stopwords are words too common to distinguish one paper title from
// another: English articles, prepositions, conjunctions, plus academic
// filler that appears in half the titles in any field.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// Articles, conjunctions, prepositions, pronouns.
		"the", "and", "for", "with", "from", "into", "onto", "over",
		"under", "between", "among", "through", "during", "via",
		"within", "without", "toward", "towards", "upon", "about",
		"their", "its", "our", "your", "this", "that", "these",
		"those", "can", "may", "will", "not", "are", "was", "were",
		"has", "have", "had", "been", "being", "does", "how", "what",
		"when", "where", "which", "who", "why", "all", "any", "some",
		"new", "using", "use", "used", "based",
		// Academic filler.
		"advances", "analysis", "approach", "applied", "comparative",
		"comprehensive", "computational", "efficient", "experimental",
		"general", "highly", "improved", "investigation", "method",
		"methods", "overview", "preliminary", "proposed", "review",
		"study", "systematic", "theoretical",
	} {
		stopwords[w] = struct{}{}
	}
}
