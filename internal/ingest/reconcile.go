// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/paper-vault/internal/archive"
	"github.com/pdiddy/paper-vault/internal/extract"
	"github.com/pdiddy/paper-vault/internal/vault"
	"github.com/pdiddy/paper-vault/pkg/types"
)

// ReconcileSummary holds counts from a reconciliation sweep.
type ReconcileSummary struct {
	Scanned  int
	Known    int
	Restored int
	Failed   int
}

// Total returns the number of archives visited.
func (s ReconcileSummary) Total() int {
	return s.Scanned
}

// Reconcile walks every archive in the vault and restores catalog rows
// for archives the catalog has lost (a crash between persist and
// upsert, or a rebuilt database). Restored rows are marked provisional:
// the verification evidence is gone, only the archive's own metadata
// remains.
func (p *Pipeline) Reconcile(ctx context.Context, w io.Writer) (ReconcileSummary, error) {
	if w == nil {
		w = io.Discard
	}
	archiveRoot := filepath.Join(p.Layout.Root, vault.ArchiveDir)

	var summary ReconcileSummary
	if _, err := os.Stat(archiveRoot); os.IsNotExist(err) {
		fmt.Fprintln(w, "no archives in vault")
		return summary, nil
	}
	err := filepath.WalkDir(archiveRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".pva") {
			return nil
		}
		if cerr := types.Cancelled(ctx, "reconcile"); cerr != nil {
			return cerr
		}
		summary.Scanned++

		a, err := archive.Read(path)
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", filepath.Base(path), err)
			summary.Failed++
			return nil
		}

		if _, err := p.Catalog.GetByHash(ctx, a.Meta.ContentHash); err == nil {
			summary.Known++
			return nil
		} else if _, ok := asNotFound(err); !ok {
			return fmt.Errorf("checking catalog: %w", err)
		}

		metrics := extract.ComputeMetrics(a.Pages)
		row := types.PaperMeta{
			ContentHash: a.Meta.ContentHash,
			Key:         a.Meta.Key,
			PageCount:   len(a.Pages),
			TextQuality: metrics.Quality,
			VaultPath:   filepath.Join(vault.ArchiveDir, vault.Shard(a.Meta.Key), a.Meta.Key+".pva"),
			Status:      types.StatusProvisional,
			IngestedAt:  time.Now().UTC(),
		}
		if err := p.Catalog.Upsert(ctx, row); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", a.Meta.Key, err)
			summary.Failed++
			return nil
		}
		fmt.Fprintf(w, "restored %s\n", a.Meta.Key)
		summary.Restored++
		return nil
	})
	if err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "\nscanned: %d, known: %d, restored: %d, failed: %d\n",
		summary.Scanned, summary.Known, summary.Restored, summary.Failed)
	return summary, nil
}
