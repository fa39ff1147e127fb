// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package semindex maintains the searchable chunk index: one row per
// (paper key, chunk index) with the chunk's text, page, and embedding
// vector. The archive is the source of truth; this index is derived and
// can be rebuilt from archives at any time.
package semindex

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-vault/internal/archive"
)

// Index manages the semantic index SQLite database.
type Index struct {
	db *sql.DB
}

// NewIndex opens or creates the index database at dbPath.
func NewIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			key TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content_hash TEXT NOT NULL,
			text TEXT NOT NULL,
			page INTEGER NOT NULL,
			embedding BLOB NOT NULL,
			PRIMARY KEY (key, chunk_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_hash ON chunks(content_hash)`,
	}
	for _, stmt := range statements {
		if _, err := idx.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// UpsertChunks replaces every indexed chunk for key with the archive's
// chunk group, in one transaction.
func (idx *Index) UpsertChunks(ctx context.Context, key, contentHash string, g *archive.ChunkGroup) error {
	if err := g.Validate(); err != nil {
		return err
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting stale chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (key, chunk_index, content_hash, text, page, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, text := range g.Texts {
		_, err := stmt.ExecContext(ctx, key, i, contentHash, text, g.Pages[i], encodeVector(g.Embeddings[i]))
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// DeleteKey removes every chunk indexed for key.
func (idx *Index) DeleteKey(ctx context.Context, key string) error {
	if _, err := idx.db.ExecContext(ctx, `DELETE FROM chunks WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", key, err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := idx.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Hit is one search result.
type Hit struct {
	Key        string
	ChunkIndex int
	Text       string
	Page       int32
	Score      float64
}

// Search scans every indexed chunk and returns the limit best by cosine
// similarity to the query vector. Brute force; the corpus is one
// person's paper collection, not a web index.
func (idx *Index) Search(ctx context.Context, query []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := idx.db.QueryContext(ctx,
		`SELECT key, chunk_index, text, page, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var blob []byte
		if err := rows.Scan(&h.Key, &h.ChunkIndex, &h.Text, &h.Page, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s/%d: %w", h.Key, h.ChunkIndex, err)
		}
		h.Score = cosine(query, vec)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// cosine returns the cosine similarity of two vectors, 0 when lengths
// differ or either is all-zero.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// encodeVector packs a vector as little-endian float32 bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob of %d bytes is not float32-aligned", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}
