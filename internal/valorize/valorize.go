// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package valorize runs the background half of ingestion: chunk a
// committed archive's pages, embed the chunks, rewrite the archive with
// the chunk group, and index the chunks for search. One worker
// goroutine consumes an in-process FIFO queue, so writes to any single
// archive are naturally serialized. Everything it does is derived from
// archive contents, so losing the queue only delays indexing.
package valorize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/paper-vault/internal/archive"
	"github.com/pdiddy/paper-vault/internal/chunk"
	"github.com/pdiddy/paper-vault/internal/vault"
	"github.com/pdiddy/paper-vault/pkg/types"
)

const (
	defaultQueueSize       = 256
	defaultShutdownTimeout = 30 * time.Second

	// scanLockFile guards ScanVault across processes.
	scanLockFile = "scan.lock"

	// shutdownSentinel terminates the worker loop. Archive paths are
	// never empty, so the empty string is unambiguous.
	shutdownSentinel = ""
)

// Embedder turns chunk texts into vectors. Implemented by embed.Client.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Indexer receives the chunk group for search. Implemented by
// semindex.Index. Indexing failures are logged, not fatal: the archive
// is the durable source of truth.
type Indexer interface {
	UpsertChunks(ctx context.Context, key, contentHash string, g *archive.ChunkGroup) error
}

// Service owns the valorization queue and worker.
type Service struct {
	layout   vault.Layout
	embedder Embedder
	indexer  Indexer
	chunking chunk.Options
	out      io.Writer

	queue     chan string
	startOnce sync.Once
	done      chan struct{}
}

// NewService builds a Service. indexer may be nil to skip search
// indexing; out receives worker progress lines (nil means discard).
// The worker goroutine starts lazily on the first Enqueue.
func NewService(cfg types.ValorizeConfig, layout vault.Layout, embedder Embedder, indexer Indexer, out io.Writer) *Service {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if out == nil {
		out = io.Discard
	}
	return &Service{
		layout:   layout,
		embedder: embedder,
		indexer:  indexer,
		chunking: chunk.Options{MaxChars: cfg.Chunking.MaxChars, Overlap: cfg.Chunking.Overlap},
		out:      out,
		queue:    make(chan string, queueSize),
		done:     make(chan struct{}),
	}
}

// Enqueue submits an archive path for valorization. Non-blocking: a
// full queue drops the item and returns false; the next vault scan
// picks it up again.
func (s *Service) Enqueue(path string) bool {
	s.startOnce.Do(func() { go s.run() })
	select {
	case s.queue <- path:
		return true
	default:
		fmt.Fprintf(s.out, "valorize queue full, dropping %s\n", filepath.Base(path))
		return false
	}
}

// Pending reports the approximate queue depth.
func (s *Service) Pending() int {
	return len(s.queue)
}

// Shutdown pushes the termination sentinel and waits up to timeout for
// the worker to drain the queue and exit. Returns an error when the
// worker does not finish in time. A Service whose worker never started
// shuts down immediately.
func (s *Service) Shutdown(timeout time.Duration) error {
	started := true
	s.startOnce.Do(func() { started = false })
	if !started {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	deadline := time.After(timeout)
	select {
	case s.queue <- shutdownSentinel:
	case <-deadline:
		return fmt.Errorf("valorize queue did not accept shutdown within %s", timeout)
	}

	select {
	case <-s.done:
		return nil
	case <-deadline:
		return fmt.Errorf("valorize worker did not drain within %s", timeout)
	}
}

// run is the single consumer loop. One bad archive is logged and
// skipped; it never stops the worker.
func (s *Service) run() {
	defer close(s.done)
	for path := range s.queue {
		if path == shutdownSentinel {
			return
		}
		did, err := s.ProcessOne(context.Background(), path)
		switch {
		case err != nil:
			fmt.Fprintf(s.out, "valorize failed %s: %v\n", filepath.Base(path), err)
		case did:
			fmt.Fprintf(s.out, "valorized %s\n", filepath.Base(path))
		}
	}
}

// ProcessOne valorizes a single archive. Returns (false, nil) when the
// archive already carries a well-formed chunk group or has no
// chunkable text. The archive is only rewritten after every chunk has
// an embedding; a failure at any point leaves it in its prior state.
func (s *Service) ProcessOne(ctx context.Context, path string) (bool, error) {
	a, err := archive.Read(path)
	if err != nil {
		return false, err
	}
	if a.Valorized() {
		return false, nil
	}

	var texts []string
	var pages []int32
	for i, page := range a.Pages {
		if err := types.Cancelled(ctx, "chunking"); err != nil {
			return false, err
		}
		for _, c := range chunk.Text(page, s.chunking) {
			texts = append(texts, c)
			pages = append(pages, int32(i+1))
		}
	}
	if len(texts) == 0 {
		return false, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return false, err
	}

	group := &archive.ChunkGroup{Texts: texts, Embeddings: vectors, Pages: pages}
	if err := archive.ReplaceChunks(path, group, s.embedder.Model()); err != nil {
		return false, err
	}

	if s.indexer != nil {
		if err := s.indexer.UpsertChunks(ctx, a.Meta.Key, a.Meta.ContentHash, group); err != nil {
			fmt.Fprintf(s.out, "index update failed for %s: %v (archive is valorized; reindex later)\n",
				a.Meta.Key, err)
		}
	}
	return true, nil
}

// ScanVault walks the vault's archives and enqueues every one lacking a
// chunk group. A non-blocking lock lets concurrent processes skip the
// scan instead of duplicating it. Returns the number of archives
// enqueued.
func (s *Service) ScanVault(ctx context.Context) (int, error) {
	lock := vault.NewFileLock(filepath.Join(s.layout.Root, scanLockFile))
	if err := lock.Acquire(0); err != nil {
		var timeout *types.LockTimeoutError
		if errors.As(err, &timeout) {
			fmt.Fprintf(s.out, "vault scan already running elsewhere, skipping\n")
			return 0, nil
		}
		return 0, err
	}
	defer lock.Release()

	archiveRoot := filepath.Join(s.layout.Root, vault.ArchiveDir)
	enqueued := 0
	err := filepath.WalkDir(archiveRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".pva") {
			return nil
		}
		if cerr := types.Cancelled(ctx, "vault scan"); cerr != nil {
			return cerr
		}

		a, err := archive.Read(path)
		if err != nil {
			fmt.Fprintf(s.out, "scan skipping %s: %v\n", filepath.Base(path), err)
			return nil
		}
		if a.Valorized() {
			return nil
		}
		if s.Enqueue(path) {
			enqueued++
		}
		return nil
	})
	if err != nil {
		return enqueued, err
	}

	fmt.Fprintf(s.out, "vault scan enqueued %d archive(s)\n", enqueued)
	return enqueued, nil
}
