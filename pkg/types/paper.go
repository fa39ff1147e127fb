// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TextQuality classifies how usable the extracted text of a paper is.
type TextQuality string

const (
	QualityGood    TextQuality = "good"
	QualityPartial TextQuality = "partial"
	QualityNone    TextQuality = "none"
)

// PaperStatus indicates how a paper entered the vault.
type PaperStatus string

const (
	// StatusVerified means the paper passed every verification gate.
	StatusVerified PaperStatus = "verified"

	// StatusProvisional means the paper was admitted by an operator
	// without full verification.
	StatusProvisional PaperStatus = "provisional"
)

// PaperMeta is one catalog row. ContentHash is the primary, immutable
// identity; Key is the external-facing slug and changes only via an
// explicit rename.
type PaperMeta struct {
	// ContentHash is the hex SHA-256 of the source PDF bytes.
	ContentHash string `json:"content_hash" yaml:"content_hash"`

	// Key is the human-readable slug (e.g. "xu2022scaling"), unique
	// across the catalog and safe as a filename.
	Key string `json:"key" yaml:"key"`

	// DOI is the verified DOI, empty when unknown. Unique when present.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Title is the best resolved title across all sources.
	Title string `json:"title" yaml:"title"`

	// FirstAuthor is the first author's surname.
	FirstAuthor string `json:"first_author" yaml:"first_author"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Journal is the venue name as supplied by the caller, empty when
	// unknown. Recorded for reporting; never verified.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// PageCount is the number of physical pages in the PDF.
	PageCount int `json:"page_count" yaml:"page_count"`

	// TextQuality classifies the extracted text: good, partial, or none.
	TextQuality TextQuality `json:"text_quality" yaml:"text_quality"`

	// VaultPath is the vault-relative path of the stored archive.
	VaultPath string `json:"vault_path" yaml:"vault_path"`

	// Status records how the paper was admitted: verified or provisional.
	Status PaperStatus `json:"status" yaml:"status"`

	// IngestedAt is the time of the accepting ingest.
	IngestedAt time.Time `json:"ingested_at" yaml:"ingested_at"`
}
