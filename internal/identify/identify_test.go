// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identify

import (
	"testing"

	"github.com/pdiddy/paper-vault/internal/extract"
)

func TestFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"doi prefix", "doi:10.1021/acs.nanolett.7b01234", "10.1021/acs.nanolett.7b01234"},
		{"doi prefix spaced", "DOI: 10.1038/s41586-024-07487-w", "10.1038/s41586-024-07487-w"},
		{"doi.org url", "available at https://doi.org/10.1145/3297858.3304013 online", "10.1145/3297858.3304013"},
		{"dx.doi.org url", "http://dx.doi.org/10.1063/1.5019306", "10.1063/1.5019306"},
		{"bare doi", "cite as 10.1103/PhysRevB.99.041301", "10.1103/PhysRevB.99.041301"},
		{"trailing period stripped", "see doi:10.1021/ja01234a005. More text", "10.1021/ja01234a005"},
		{"trailing paren stripped", "(doi 10.1002/anie.200901234)", "10.1002/anie.200901234"},
		{"no doi", "a page about numbers like 3.14159/2", ""},
		{"registrant too short", "10.12/abc is not a DOI", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromText(tt.text); got != tt.want {
				t.Errorf("FromText(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFromParts_DOIPriority(t *testing.T) {
	t.Run("metadata subject wins", func(t *testing.T) {
		r := FromParts(
			extract.Metadata{Subject: "doi:10.1000/meta"},
			"text mentions doi:10.1000/text too",
		)
		if r.DOI != "10.1000/meta" || r.DOISource != SourceMetadata {
			t.Errorf("DOI = %q source = %q, want metadata DOI", r.DOI, r.DOISource)
		}
		if r.TextDOI != "10.1000/text" {
			t.Errorf("TextDOI = %q, want recorded text DOI", r.TextDOI)
		}
	})

	t.Run("falls back to text", func(t *testing.T) {
		r := FromParts(extract.Metadata{}, "see doi:10.1000/text")
		if r.DOI != "10.1000/text" || r.DOISource != SourceText {
			t.Errorf("DOI = %q source = %q, want text DOI", r.DOI, r.DOISource)
		}
	})

	t.Run("bare number in subject ignored", func(t *testing.T) {
		r := FromParts(extract.Metadata{Subject: "10.1000/bare-in-subject"}, "")
		if r.MetadataDOI != "" {
			t.Errorf("MetadataDOI = %q, want bare subject match rejected", r.MetadataDOI)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		r := FromParts(extract.Metadata{}, "no identifiers here")
		if r.DOI != "" || r.DOISource != SourceNone {
			t.Errorf("DOI = %q source = %q, want empty", r.DOI, r.DOISource)
		}
	})
}

func TestFromParts_Title(t *testing.T) {
	firstPage := "3\nPHYSICAL REVIEW LETTERS\nScaling Quantum Interference in Molecular Junctions\nA. Author, B. Author\nalice@example.edu\nDepartment of Physics, Example University\n"

	tests := []struct {
		name string
		meta extract.Metadata
		want string
	}{
		{"metadata title preferred", extract.Metadata{Title: "A Real Title"}, "A Real Title"},
		{"generic word title falls through", extract.Metadata{Title: "Microsoft Word - paper_v3.docx"},
			"Scaling Quantum Interference in Molecular Junctions"},
		{"untitled falls through", extract.Metadata{Title: "Untitled"},
			"Scaling Quantum Interference in Molecular Junctions"},
		{"empty falls through", extract.Metadata{},
			"Scaling Quantum Interference in Molecular Junctions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromParts(tt.meta, firstPage)
			if r.TitleFromPDF != tt.want {
				t.Errorf("TitleFromPDF = %q, want %q", r.TitleFromPDF, tt.want)
			}
		})
	}
}

func TestTitleFromText_Filters(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"skips short lines", "short\nA Title Long Enough To Count\n", "A Title Long Enough To Count"},
		{"skips digit lines", "42 is the page number\nA Title Long Enough To Count\n", "A Title Long Enough To Count"},
		{"skips allcaps header", "RUNNING HEADER TEXT\nA Title Long Enough To Count\n", "A Title Long Enough To Count"},
		{"skips email lines", "contact author@lab.org today\nA Title Long Enough To Count\n", "A Title Long Enough To Count"},
		{"skips affiliation", "Great University of Somewhere\nA Title Long Enough To Count\n", "A Title Long Enough To Count"},
		{"gives up past ten lines", "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nThe Title Appears Too Late Here\n", ""},
		{"empty text", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleFromText(tt.text); got != tt.want {
				t.Errorf("titleFromText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSurnameFromAuthor(t *testing.T) {
	tests := []struct {
		name   string
		author string
		want   string
	}{
		{"surname comma given", "Xu, Yang", "Xu"},
		{"given surname", "Yang Xu", "Xu"},
		{"and separated", "Xu, Yang and Guo, Xuefeng", "Xu"},
		{"semicolon separated", "Xu, Y.; Guo, X.", "Xu"},
		{"single name", "Aristotle", "Aristotle"},
		{"three part name", "Ana de Silva", "Silva"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SurnameFromAuthor(tt.author); got != tt.want {
				t.Errorf("SurnameFromAuthor(%q) = %q, want %q", tt.author, got, tt.want)
			}
		})
	}
}
