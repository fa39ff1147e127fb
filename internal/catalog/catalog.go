// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists the authoritative index of vault papers: one
// row per content hash, unique on key, unique on DOI when present. All
// writes are transactional so concurrent ingest processes never observe
// a partial upsert.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-vault/pkg/types"
)

// Store manages the catalog SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the catalog database at dbPath, creating
// the schema when absent.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			content_hash TEXT PRIMARY KEY,
			key TEXT NOT NULL,
			doi TEXT,
			title TEXT,
			first_author TEXT,
			year INTEGER,
			journal TEXT,
			page_count INTEGER,
			text_quality TEXT,
			vault_path TEXT,
			status TEXT NOT NULL,
			ingested_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_key ON papers(key)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi) WHERE doi IS NOT NULL AND doi != ''`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Upsert inserts or fully replaces the row for meta.ContentHash. A key
// or DOI already owned by a different content hash fails with
// DuplicateKeyError or DuplicateDOIError before anything is written.
func (s *Store) Upsert(ctx context.Context, meta types.PaperMeta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx,
		`SELECT content_hash FROM papers WHERE key = ?`, meta.Key,
	).Scan(&owner)
	if err == nil && owner != meta.ContentHash {
		return &types.DuplicateKeyError{Key: meta.Key}
	}
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("checking key ownership: %w", err)
	}

	if meta.DOI != "" {
		var existingKey string
		err = tx.QueryRowContext(ctx,
			`SELECT content_hash, key FROM papers WHERE doi = ?`, meta.DOI,
		).Scan(&owner, &existingKey)
		if err == nil && owner != meta.ContentHash {
			return &types.DuplicateDOIError{DOI: meta.DOI, ExistingKey: existingKey}
		}
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("checking DOI ownership: %w", err)
		}
	}

	ingestedAt := meta.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (content_hash, key, doi, title, first_author, year,
			journal, page_count, text_quality, vault_path, status, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
			key=excluded.key, doi=excluded.doi, title=excluded.title,
			first_author=excluded.first_author, year=excluded.year,
			journal=excluded.journal, page_count=excluded.page_count,
			text_quality=excluded.text_quality, vault_path=excluded.vault_path,
			status=excluded.status, ingested_at=excluded.ingested_at`,
		meta.ContentHash, meta.Key, nullable(meta.DOI), meta.Title,
		meta.FirstAuthor, meta.Year, meta.Journal, meta.PageCount,
		string(meta.TextQuality), meta.VaultPath, string(meta.Status),
		ingestedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}

	return tx.Commit()
}

// GetByHash returns the row for a content hash, or a NotFoundError.
func (s *Store) GetByHash(ctx context.Context, hash string) (types.PaperMeta, error) {
	return s.getWhere(ctx, "content_hash = ?", hash, "paper", hash)
}

// GetByKey returns the row for a key, or a NotFoundError.
func (s *Store) GetByKey(ctx context.Context, key string) (types.PaperMeta, error) {
	return s.getWhere(ctx, "key = ?", key, "key", key)
}

// GetByDOI returns the row for a DOI, or a NotFoundError.
func (s *Store) GetByDOI(ctx context.Context, doi string) (types.PaperMeta, error) {
	return s.getWhere(ctx, "doi = ?", doi, "doi", doi)
}

const paperColumns = `content_hash, key, COALESCE(doi, ''), title, first_author,
	year, COALESCE(journal, ''), page_count, text_quality, vault_path, status, ingested_at`

func (s *Store) getWhere(ctx context.Context, where string, arg any, kind, name string) (types.PaperMeta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE `+where, arg)
	meta, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return types.PaperMeta{}, &types.NotFoundError{Kind: kind, Name: name}
	}
	if err != nil {
		return types.PaperMeta{}, fmt.Errorf("querying paper by %s: %w", kind, err)
	}
	return meta, nil
}

// AllKeys returns every key in the catalog, for collision checks during
// key assignment.
func (s *Store) AllKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM papers`)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

// List returns every row ordered by key.
func (s *Store) List(ctx context.Context) ([]types.PaperMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paperColumns+` FROM papers ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.PaperMeta
	for rows.Next() {
		meta, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, meta)
	}
	return papers, rows.Err()
}

// Delete removes the row for a content hash. Missing rows fail with a
// NotFoundError.
func (s *Store) Delete(ctx context.Context, hash string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE content_hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("deleting paper: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return &types.NotFoundError{Kind: "paper", Name: hash}
	}
	return nil
}

// Stats summarizes the catalog for the CLI.
type Stats struct {
	Total       int
	Verified    int
	Provisional int
	WithDOI     int
	ByQuality   map[types.TextQuality]int
}

// Stats computes aggregate counts over the catalog.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByQuality: make(map[types.TextQuality]int)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, text_quality, COALESCE(doi, '') != '' FROM papers`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, quality string
		var hasDOI bool
		if err := rows.Scan(&status, &quality, &hasDOI); err != nil {
			return Stats{}, fmt.Errorf("scanning stats row: %w", err)
		}
		stats.Total++
		switch types.PaperStatus(status) {
		case types.StatusVerified:
			stats.Verified++
		case types.StatusProvisional:
			stats.Provisional++
		}
		if hasDOI {
			stats.WithDOI++
		}
		stats.ByQuality[types.TextQuality(quality)]++
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (types.PaperMeta, error) {
	var meta types.PaperMeta
	var quality, status, ingestedAt string
	err := row.Scan(&meta.ContentHash, &meta.Key, &meta.DOI, &meta.Title,
		&meta.FirstAuthor, &meta.Year, &meta.Journal, &meta.PageCount,
		&quality, &meta.VaultPath, &status, &ingestedAt)
	if err != nil {
		return types.PaperMeta{}, err
	}
	meta.TextQuality = types.TextQuality(quality)
	meta.Status = types.PaperStatus(status)
	if t, err := time.Parse(time.RFC3339, ingestedAt); err == nil {
		meta.IngestedAt = t
	}
	return meta, nil
}

// nullable maps "" to NULL so the partial unique index on doi only
// covers real values.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
