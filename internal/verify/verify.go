// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify decides whether an identified PDF may enter the vault
// automatically. Every gate is evaluated (none short-circuit) so the
// caller can report the full picture; admission requires all of them.
package verify

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paper-vault/internal/extract"
	"github.com/pdiddy/paper-vault/internal/identify"
	"github.com/pdiddy/paper-vault/pkg/types"
)

// titleMatchThreshold is the minimum token-set similarity between the
// externally supplied title and the one found in the PDF.
const titleMatchThreshold = 0.60

// minFirstPageChars is the least first-page text that counts as
// extractable. Below it the document is effectively a scan.
const minFirstPageChars = 50

// Gate names one verification check.
type Gate string

const (
	GateDOIPresent      Gate = "doi_present"
	GateDOIAgreement    Gate = "doi_agreement"
	GateTitleMatch      Gate = "title_match"
	GateTextExtractable Gate = "text_extractable"
	GateTextQuality     Gate = "text_quality"
)

// GateResult is the outcome of one gate.
type GateResult struct {
	Gate   Gate
	Passed bool
	Detail string
}

// Decision is the combined verdict over all gates. Accept is true only
// when every gate passed.
type Decision struct {
	Accept bool
	Gates  []GateResult
}

// Failed returns the gates that did not pass, in evaluation order.
func (d Decision) Failed() []GateResult {
	var out []GateResult
	for _, g := range d.Gates {
		if !g.Passed {
			out = append(out, g)
		}
	}
	return out
}

// Evaluate runs every gate against an identification result and text
// metrics. externalTitle and externalDOI come from the operator or an
// import manifest and may be empty.
func Evaluate(res identify.Result, metrics extract.Metrics, externalTitle, externalDOI string) Decision {
	d := Decision{}

	ok, detail := doiPresent(res, externalDOI)
	d.add(GateDOIPresent, ok, detail)
	ok, detail = doiAgreement(res, externalDOI)
	d.add(GateDOIAgreement, ok, detail)
	ok, detail = titleMatch(res, externalTitle)
	d.add(GateTitleMatch, ok, detail)
	ok, detail = textExtractable(res)
	d.add(GateTextExtractable, ok, detail)
	ok, detail = textQuality(metrics)
	d.add(GateTextQuality, ok, detail)

	d.Accept = true
	for _, g := range d.Gates {
		if !g.Passed {
			d.Accept = false
			break
		}
	}
	return d
}

func (d *Decision) add(gate Gate, passed bool, detail string) {
	d.Gates = append(d.Gates, GateResult{Gate: gate, Passed: passed, Detail: detail})
}

func doiPresent(res identify.Result, externalDOI string) (bool, string) {
	switch {
	case res.DOI != "":
		return true, fmt.Sprintf("DOI %s from %s", res.DOI, res.DOISource)
	case externalDOI != "":
		return true, "DOI supplied externally"
	default:
		return false, "no DOI in metadata or first-page text"
	}
}

// doiAgreement fails when two sources name different DOIs. Sources that
// are silent do not count against agreement.
func doiAgreement(res identify.Result, externalDOI string) (bool, string) {
	found := []string{}
	for _, doi := range []string{res.MetadataDOI, res.TextDOI, externalDOI} {
		if doi != "" {
			found = append(found, strings.ToLower(doi))
		}
	}
	for i := 1; i < len(found); i++ {
		if found[i] != found[0] {
			return false, fmt.Sprintf("conflicting DOIs: %s vs %s", found[0], found[i])
		}
	}
	return true, "no conflicting DOIs"
}

func titleMatch(res identify.Result, externalTitle string) (bool, string) {
	if externalTitle == "" {
		return true, "no external title to compare"
	}
	if res.TitleFromPDF == "" {
		return false, "no title found in PDF to compare against"
	}
	sim := TokenSetSimilarity(externalTitle, res.TitleFromPDF)
	if sim < titleMatchThreshold {
		return false, fmt.Sprintf("title similarity %.2f below %.2f", sim, titleMatchThreshold)
	}
	return true, fmt.Sprintf("title similarity %.2f", sim)
}

func textExtractable(res identify.Result) (bool, string) {
	n := len(strings.TrimSpace(res.FirstPageText))
	if n < minFirstPageChars {
		return false, fmt.Sprintf("first page yields %d chars, need %d", n, minFirstPageChars)
	}
	return true, fmt.Sprintf("first page yields %d chars", n)
}

func textQuality(metrics extract.Metrics) (bool, string) {
	if metrics.Quality == types.QualityNone {
		return false, fmt.Sprintf("printable ratio %.2f, text unusable", metrics.PrintableRatio)
	}
	return true, fmt.Sprintf("text quality %s", metrics.Quality)
}
