// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits page text into overlapping windows at sentence
// boundaries. Pure functions, no I/O.
package chunk

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxChars is the target character budget per chunk.
	DefaultMaxChars = 500

	// DefaultOverlap is the approximate character overlap carried from
	// one chunk into the next so no idea is lost at a boundary.
	DefaultOverlap = 100
)

// sentenceEnd matches sentence-terminating punctuation followed by
// whitespace. Go's regexp has no lookbehind, so the terminator is kept in
// the preceding sentence by splitting after it.
var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// Options configures the fixed-window chunker. The zero value selects the
// defaults.
type Options struct {
	MaxChars int
	Overlap  int
}

func (o Options) withDefaults() Options {
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.Overlap < 0 {
		o.Overlap = DefaultOverlap
	}
	if o.MaxChars > 0 && o.Overlap == 0 {
		o.Overlap = DefaultOverlap
	}
	return o
}

// Text splits text into overlapping chunks at sentence boundaries.
// Sentences are greedily packed into windows up to the character budget;
// when a window closes, trailing sentences that fit the overlap budget
// seed the next window. A single sentence longer than the budget is
// emitted verbatim as its own chunk. No two consecutive chunks are
// identical. Empty or whitespace-only input yields nil.
func Text(text string, opts Options) []string {
	opts = opts.withDefaults()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	// Repetitive source text plus overlap seeding can reproduce the
	// previous window verbatim; emit suppresses those.
	emit := func(c string) {
		if len(chunks) == 0 || chunks[len(chunks)-1] != c {
			chunks = append(chunks, c)
		}
	}

	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		// An oversized sentence becomes its own chunk rather than
		// being split mid-thought.
		if len(sentence) > opts.MaxChars && len(current) == 0 {
			emit(sentence)
			continue
		}

		if currentLen+len(sentence) > opts.MaxChars && len(current) > 0 {
			emit(strings.Join(current, " "))
			current, currentLen = rewindForOverlap(current, opts.Overlap)
		}

		if currentLen > 0 {
			currentLen++ // joining space
		}
		current = append(current, sentence)
		currentLen += len(sentence)
	}

	if len(current) > 0 {
		emit(strings.Join(current, " "))
	}

	return chunks
}

// splitSentences breaks text at sentence-ending punctuation, keeping the
// terminator with its sentence and trimming whitespace.
func splitSentences(text string) []string {
	var sentences []string
	prev := 0
	for _, loc := range sentenceEnd.FindAllStringSubmatchIndex(text, -1) {
		// loc[3] is the end of the punctuation group; the whitespace
		// between sentences is dropped.
		if s := strings.TrimSpace(text[prev:loc[3]]); s != "" {
			sentences = append(sentences, s)
		}
		prev = loc[1]
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// rewindForOverlap keeps trailing sentences of a closed window that fit
// within the overlap budget, to seed the next window.
func rewindForOverlap(sentences []string, overlap int) ([]string, int) {
	var kept []string
	total := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		added := len(sentences[i])
		if total > 0 {
			added++ // joining space
		}
		if total+added > overlap {
			break
		}
		kept = append([]string{sentences[i]}, kept...)
		total += added
	}
	return kept, total
}
