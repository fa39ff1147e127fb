// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/paper-vault/internal/archive"
	"github.com/pdiddy/paper-vault/internal/catalog"
	"github.com/pdiddy/paper-vault/internal/extract"
	"github.com/pdiddy/paper-vault/internal/vault"
	"github.com/pdiddy/paper-vault/pkg/types"
)

// fakeExtractor serves canned extraction results: a two-page paper with
// a DOI on the first page.
type fakeExtractor struct {
	meta  extract.Metadata
	pages []string
	err   error
}

func (f *fakeExtractor) Verify(string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.pages), nil
}

func (f *fakeExtractor) ReadMetadata(string) (extract.Metadata, error) {
	return f.meta, f.err
}

func (f *fakeExtractor) ReadPages(string) ([]string, error) {
	return f.pages, f.err
}

func goodExtractor() *fakeExtractor {
	firstPage := "Scaling Quantum Interference in Molecular Junctions\n" +
		"doi:10.1021/acs.nanolett.7b01234\n" +
		strings.Repeat("Readable body text follows here. ", 20)
	return &fakeExtractor{
		meta: extract.Metadata{
			Title:  "Scaling Quantum Interference in Molecular Junctions",
			Author: "Xu, Yang and Guo, Xuefeng",
		},
		pages: []string{firstPage, strings.Repeat("More readable text. ", 30)},
	}
}

type recordingQueue struct {
	paths []string
	full  bool
}

func (q *recordingQueue) Enqueue(path string) bool {
	if q.full {
		return false
	}
	q.paths = append(q.paths, path)
	return true
}

// testSetup builds a pipeline over a temp vault with a fake extractor
// and a recording queue, plus a source PDF file to ingest.
func testSetup(t *testing.T) (*Pipeline, *recordingQueue, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "vault")
	layout := vault.NewLayout(root)
	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	store, err := catalog.NewStore(layout.CatalogPath())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	queue := &recordingQueue{}
	p := &Pipeline{
		Layout:  layout,
		Catalog: store,
		Queue:   queue,
		Extract: goodExtractor(),
		Out:     &bytes.Buffer{},
	}

	pdfPath := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.7 fake body"), 0o644); err != nil {
		t.Fatalf("writing source pdf: %v", err)
	}
	return p, queue, pdfPath
}

func TestIngestAccepted(t *testing.T) {
	p, queue, pdfPath := testSetup(t)
	ctx := context.Background()

	res, err := p.Ingest(ctx, pdfPath, ExternalMeta{Year: 2022, Journal: "Nano Letters"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Status != StatusAccepted {
		t.Fatalf("Status = %s (%s), want accepted", res.Status, res.Message)
	}
	if res.Key != "xu2022scalingquantum" {
		t.Errorf("Key = %q, want xu2022scalingquantum", res.Key)
	}
	if res.Meta == nil || res.Meta.DOI != "10.1021/acs.nanolett.7b01234" {
		t.Errorf("Meta = %+v, want text DOI recorded", res.Meta)
	}

	// PDF and archive both landed in their shards.
	if _, err := os.Stat(p.Layout.PDFPath(res.Key)); err != nil {
		t.Errorf("vault PDF missing: %v", err)
	}
	a, err := archive.Read(p.Layout.ArchivePath(res.Key))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(a.Pages) != 2 || a.Meta.Key != res.Key || a.Meta.ContentHash != res.ContentHash {
		t.Errorf("archive = %+v", a.Meta)
	}
	if a.Valorized() {
		t.Error("fresh archive should not carry chunks")
	}

	// Catalog row present and enqueue happened.
	row, err := p.Catalog.GetByKey(ctx, res.Key)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if row.Status != types.StatusVerified || row.PageCount != 2 {
		t.Errorf("catalog row = %+v", row)
	}
	if row.Journal != "Nano Letters" {
		t.Errorf("Journal = %q, want supplied venue recorded", row.Journal)
	}
	if len(queue.paths) != 1 || queue.paths[0] != p.Layout.ArchivePath(res.Key) {
		t.Errorf("enqueued = %v", queue.paths)
	}
}

func TestIngestDuplicate(t *testing.T) {
	p, queue, pdfPath := testSetup(t)
	ctx := context.Background()

	first, err := p.Ingest(ctx, pdfPath, ExternalMeta{Year: 2022})
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	// Same bytes again: duplicate, no extraction, no new enqueue.
	p.Extract = &fakeExtractor{err: os.ErrInvalid} // would fail if touched
	second, err := p.Ingest(ctx, pdfPath, ExternalMeta{})
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.Status != StatusDuplicate {
		t.Fatalf("Status = %s, want duplicate", second.Status)
	}
	if second.Key != first.Key {
		t.Errorf("duplicate names key %q, want %q", second.Key, first.Key)
	}
	if !strings.Contains(second.Message, first.Key) {
		t.Errorf("Message = %q, want existing key named", second.Message)
	}
	if len(queue.paths) != 1 {
		t.Errorf("duplicate must not enqueue; queue = %v", queue.paths)
	}
}

func TestIngestRejectedWritesNothing(t *testing.T) {
	p, queue, pdfPath := testSetup(t)

	// Strip all DOIs: gate must reject.
	ex := goodExtractor()
	ex.pages[0] = "Scaling Quantum Interference in Molecular Junctions\n" +
		strings.Repeat("Readable body text follows here. ", 20)
	p.Extract = ex

	res, err := p.Ingest(context.Background(), pdfPath, ExternalMeta{})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Status != StatusRejected {
		t.Fatalf("Status = %s, want rejected", res.Status)
	}
	if res.Decision == nil || len(res.Decision.Failed()) == 0 {
		t.Error("rejection must carry the failed gates")
	}
	if !strings.Contains(res.Message, "doi_present") {
		t.Errorf("Message = %q, want failed gate named", res.Message)
	}

	// Nothing persisted anywhere.
	papers, err := p.Catalog.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("catalog has %d rows after rejection", len(papers))
	}
	for _, dir := range []string{vault.PDFDir, vault.ArchiveDir} {
		entries, _ := os.ReadDir(filepath.Join(p.Layout.Root, dir))
		if len(entries) != 0 {
			t.Errorf("%s not empty after rejection", dir)
		}
	}
	if len(queue.paths) != 0 {
		t.Errorf("rejection enqueued %v", queue.paths)
	}
}

// A re-exported PDF has different bytes but the same DOI. It must come
// back as a duplicate naming the existing key, with nothing new written
// to the vault.
func TestIngestDuplicateDOI(t *testing.T) {
	p, queue, pdfPath := testSetup(t)
	ctx := context.Background()

	first, err := p.Ingest(ctx, pdfPath, ExternalMeta{Year: 2022})
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	other := filepath.Join(t.TempDir(), "reexport.pdf")
	if err := os.WriteFile(other, []byte("%PDF-1.7 re-exported bytes"), 0o644); err != nil {
		t.Fatalf("writing second pdf: %v", err)
	}
	second, err := p.Ingest(ctx, other, ExternalMeta{Year: 2022})
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.Status != StatusDuplicate {
		t.Fatalf("Status = %s (%s), want duplicate", second.Status, second.Message)
	}
	if second.Key != first.Key {
		t.Errorf("duplicate names key %q, want %q", second.Key, first.Key)
	}
	if !strings.Contains(second.Message, first.Key) {
		t.Errorf("Message = %q, want existing key named", second.Message)
	}

	// Only the first paper's files and row exist.
	papers, err := p.Catalog.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(papers) != 1 {
		t.Errorf("catalog has %d rows, want 1", len(papers))
	}
	if _, err := os.Stat(p.Layout.PDFPath(first.Key + "a")); err == nil {
		t.Error("duplicate left a PDF in the vault")
	}
	if len(queue.paths) != 1 {
		t.Errorf("duplicate enqueued; queue = %v", queue.paths)
	}
}

func TestIngestKeyCollision(t *testing.T) {
	p, _, pdfPath := testSetup(t)
	ctx := context.Background()

	first, err := p.Ingest(ctx, pdfPath, ExternalMeta{Year: 2022})
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	// Different bytes and a different DOI, but the same
	// author/year/title: collision suffix.
	other := filepath.Join(t.TempDir(), "other.pdf")
	if err := os.WriteFile(other, []byte("%PDF-1.7 different bytes"), 0o644); err != nil {
		t.Fatalf("writing second pdf: %v", err)
	}
	ex := goodExtractor()
	ex.pages[0] = strings.Replace(ex.pages[0],
		"doi:10.1021/acs.nanolett.7b01234", "doi:10.1021/acs.nanolett.8b05678", 1)
	p.Extract = ex
	second, err := p.Ingest(ctx, other, ExternalMeta{Year: 2022})
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.Status != StatusAccepted {
		t.Fatalf("Status = %s (%s), want accepted", second.Status, second.Message)
	}
	if second.Key != first.Key+"a" {
		t.Errorf("collision key = %q, want %q", second.Key, first.Key+"a")
	}
}

func TestIngestMissingFile(t *testing.T) {
	p, _, _ := testSetup(t)

	_, err := p.Ingest(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"), ExternalMeta{})
	if err == nil {
		t.Fatal("Ingest of a missing file succeeded")
	}
}

func TestIngestExternalTitlePreferred(t *testing.T) {
	p, _, pdfPath := testSetup(t)

	res, err := p.Ingest(context.Background(), pdfPath, ExternalMeta{
		Title: "Scaling quantum interference in molecular junctions",
		Year:  2022,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Status != StatusAccepted {
		t.Fatalf("Status = %s (%s)", res.Status, res.Message)
	}
	if res.Meta.Title != "Scaling quantum interference in molecular junctions" {
		t.Errorf("Title = %q, want external title", res.Meta.Title)
	}
}

func TestReconcileRestoresLostRows(t *testing.T) {
	p, _, pdfPath := testSetup(t)
	ctx := context.Background()

	res, err := p.Ingest(ctx, pdfPath, ExternalMeta{Year: 2022})
	if err != nil || res.Status != StatusAccepted {
		t.Fatalf("Ingest: %v (%+v)", err, res)
	}

	// Simulate a lost catalog row.
	if err := p.Catalog.Delete(ctx, res.ContentHash); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var out bytes.Buffer
	summary, err := p.Reconcile(ctx, &out)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if summary.Scanned != 1 || summary.Restored != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}

	row, err := p.Catalog.GetByHash(ctx, res.ContentHash)
	if err != nil {
		t.Fatalf("GetByHash after reconcile: %v", err)
	}
	if row.Status != types.StatusProvisional || row.Key != res.Key {
		t.Errorf("restored row = %+v", row)
	}

	// A second sweep finds everything known.
	summary, err = p.Reconcile(ctx, nil)
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if summary.Known != 1 || summary.Restored != 0 {
		t.Errorf("second summary = %+v", summary)
	}
}
