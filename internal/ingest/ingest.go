// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest coordinates admission of a candidate PDF into the
// vault: hash, identify, verify, assign a key, persist PDF + archive,
// upsert the catalog, and hand the archive to valorization. Each step
// is a hard boundary; a failure never leaves a half-written vault
// entry.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/paper-vault/internal/archive"
	"github.com/pdiddy/paper-vault/internal/catalog"
	"github.com/pdiddy/paper-vault/internal/checksum"
	"github.com/pdiddy/paper-vault/internal/extract"
	"github.com/pdiddy/paper-vault/internal/identify"
	"github.com/pdiddy/paper-vault/internal/slug"
	"github.com/pdiddy/paper-vault/internal/vault"
	"github.com/pdiddy/paper-vault/internal/verify"
	"github.com/pdiddy/paper-vault/pkg/types"
)

// Status is the overall outcome of one ingest attempt.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusDuplicate Status = "duplicate"
)

// ExternalMeta carries pre-fetched metadata supplied by the caller
// (typically from a CrossRef lookup done elsewhere). All fields are
// optional; the gate treats absent fields as "nothing to check".
type ExternalMeta struct {
	DOI         string
	Title       string
	FirstAuthor string
	Year        int
	Journal     string
}

// Result is returned to the caller for every ingest attempt, including
// rejections and duplicates.
type Result struct {
	Status      Status
	Key         string
	ContentHash string
	Message     string
	Meta        *types.PaperMeta
	Decision    *verify.Decision
}

// Enqueuer hands accepted archives to the valorization worker.
type Enqueuer interface {
	// Enqueue submits an archive path; returns false when the queue is
	// full. Never blocks.
	Enqueue(path string) bool
}

// Extractor is the PDF reading surface the pipeline needs. The real
// implementation is PDFExtractor; tests substitute fixtures.
type Extractor interface {
	Verify(path string) (pageCount int, err error)
	ReadMetadata(path string) (extract.Metadata, error)
	ReadPages(path string) ([]string, error)
}

// PDFExtractor reads real PDF files via the extract package.
type PDFExtractor struct{}

func (PDFExtractor) Verify(path string) (int, error) { return extract.Verify(path) }

func (PDFExtractor) ReadMetadata(path string) (extract.Metadata, error) {
	return extract.ReadMetadata(path)
}

func (PDFExtractor) ReadPages(path string) ([]string, error) { return extract.ReadPages(path) }

// Pipeline wires the ingest collaborators together. Out receives
// progress lines; Queue may be nil when valorization is disabled, and
// a nil Extract defaults to PDFExtractor.
type Pipeline struct {
	Layout  vault.Layout
	Catalog *catalog.Store
	Queue   Enqueuer
	Extract Extractor
	Out     io.Writer
}

// Ingest admits one PDF. The error return covers infrastructure
// failures only (unreadable file, catalog down); verification
// rejections and duplicates are normal Results.
func (p *Pipeline) Ingest(ctx context.Context, pdfPath string, ext ExternalMeta) (Result, error) {
	out := p.Out
	if out == nil {
		out = io.Discard
	}

	// Hash first: duplicate detection must not depend on extraction
	// or the network.
	hash, err := checksum.File(pdfPath)
	if err != nil {
		return Result{}, fmt.Errorf("hashing %s: %w", pdfPath, err)
	}

	if existing, err := p.Catalog.GetByHash(ctx, hash); err == nil {
		return Result{
			Status:      StatusDuplicate,
			Key:         existing.Key,
			ContentHash: hash,
			Message:     fmt.Sprintf("already in vault as %q", existing.Key),
			Meta:        &existing,
		}, nil
	} else if _, ok := asNotFound(err); !ok {
		return Result{}, fmt.Errorf("checking catalog for duplicate: %w", err)
	}

	if err := types.Cancelled(ctx, "ingest"); err != nil {
		return Result{}, err
	}

	ex := p.Extract
	if ex == nil {
		ex = PDFExtractor{}
	}
	pageCount, err := ex.Verify(pdfPath)
	if err != nil {
		return Result{}, fmt.Errorf("validating PDF: %w", err)
	}
	meta, err := ex.ReadMetadata(pdfPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading PDF metadata: %w", err)
	}
	pages, err := ex.ReadPages(pdfPath)
	if err != nil {
		return Result{}, fmt.Errorf("extracting page text: %w", err)
	}

	firstPage := ""
	if len(pages) > 0 {
		firstPage = pages[0]
	}
	res := identify.FromParts(meta, firstPage)
	metrics := extract.ComputeMetrics(pages)

	decision := verify.Evaluate(res, metrics, ext.Title, ext.DOI)
	if !decision.Accept {
		msg := "verification failed:"
		for _, g := range decision.Failed() {
			msg += fmt.Sprintf(" [%s: %s]", g.Gate, g.Detail)
		}
		return Result{
			Status:      StatusRejected,
			ContentHash: hash,
			Message:     msg,
			Decision:    &decision,
		}, nil
	}

	// A known DOI with different bytes is a re-export or a supplement,
	// not a new paper. Catch it before anything lands in the vault.
	doi := res.DOI
	if doi == "" {
		doi = ext.DOI
	}
	if doi != "" {
		if existing, err := p.Catalog.GetByDOI(ctx, doi); err == nil {
			return Result{
				Status:      StatusDuplicate,
				Key:         existing.Key,
				ContentHash: hash,
				Message:     fmt.Sprintf("DOI %s already in vault as %q", doi, existing.Key),
				Meta:        &existing,
				Decision:    &decision,
			}, nil
		} else if _, ok := asNotFound(err); !ok {
			return Result{}, fmt.Errorf("checking catalog for DOI: %w", err)
		}
	}

	key, err := p.assignKey(ctx, res, ext)
	if err != nil {
		return Result{}, err
	}

	title := ext.Title
	if title == "" {
		title = res.TitleFromPDF
	}

	paper := types.PaperMeta{
		ContentHash: hash,
		Key:         key,
		DOI:         doi,
		Title:       title,
		FirstAuthor: firstAuthor(res, ext),
		Year:        ext.Year,
		Journal:     ext.Journal,
		PageCount:   pageCount,
		TextQuality: metrics.Quality,
		VaultPath:   filepath.Join(vault.ArchiveDir, vault.Shard(key), key+".pva"),
		Status:      types.StatusVerified,
		IngestedAt:  time.Now().UTC(),
	}

	archivePath, err := p.persist(pdfPath, key, hash, pages)
	if err != nil {
		return Result{}, err
	}

	if err := p.Catalog.Upsert(ctx, paper); err != nil {
		// The vault must not keep files the catalog does not know about.
		os.Remove(p.Layout.PDFPath(key))
		os.Remove(archivePath)
		return Result{}, fmt.Errorf("recording paper in catalog: %w", err)
	}

	if p.Queue != nil {
		if !p.Queue.Enqueue(archivePath) {
			fmt.Fprintf(out, "valorize queue full, %s deferred to next scan\n", key)
		}
	}

	fmt.Fprintf(out, "accepted %s (%d pages, quality %s)\n", key, pageCount, metrics.Quality)
	return Result{
		Status:      StatusAccepted,
		Key:         key,
		ContentHash: hash,
		Message:     fmt.Sprintf("ingested as %q", key),
		Meta:        &paper,
		Decision:    &decision,
	}, nil
}

// assignKey derives the base slug and picks the first free collision
// suffix against the full catalog key set.
func (p *Pipeline) assignKey(ctx context.Context, res identify.Result, ext ExternalMeta) (string, error) {
	surname := ext.FirstAuthor
	if surname == "" {
		surname = identify.SurnameFromAuthor(res.AuthorsFromPDF)
	}
	title := ext.Title
	if title == "" {
		title = res.TitleFromPDF
	}

	base := slug.MakeKey(surname, ext.Year, title)
	taken, err := p.Catalog.AllKeys(ctx)
	if err != nil {
		return "", fmt.Errorf("listing catalog keys: %w", err)
	}
	key, err := slug.Assign(base, taken)
	if err != nil {
		return "", err
	}
	if err := vault.ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// persist copies the PDF into the vault and writes the pages-only
// archive beside it. Both land or neither does.
func (p *Pipeline) persist(pdfPath, key, hash string, pages []string) (string, error) {
	vaultPDF := p.Layout.PDFPath(key)
	archivePath := p.Layout.ArchivePath(key)
	for _, path := range []string{vaultPDF, archivePath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("creating shard directory: %w", err)
		}
	}

	if err := copyFile(pdfPath, vaultPDF); err != nil {
		os.Remove(vaultPDF)
		return "", fmt.Errorf("copying PDF into vault: %w", err)
	}

	a := &archive.Archive{
		Meta: archive.Meta{
			ContentHash: hash,
			Key:         key,
			CreatedAt:   time.Now().UTC(),
		},
		Pages: pages,
	}
	if err := archive.Write(archivePath, a); err != nil {
		os.Remove(vaultPDF)
		os.Remove(archivePath)
		return "", fmt.Errorf("writing archive: %w", err)
	}
	return archivePath, nil
}

// copyFile streams src to a temp file next to dst, then renames.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".pdf-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, dst)
}

func firstAuthor(res identify.Result, ext ExternalMeta) string {
	if ext.FirstAuthor != "" {
		return ext.FirstAuthor
	}
	return identify.SurnameFromAuthor(res.AuthorsFromPDF)
}

func asNotFound(err error) (*types.NotFoundError, bool) {
	var notFound *types.NotFoundError
	if errors.As(err, &notFound) {
		return notFound, true
	}
	return nil, false
}
