// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive reads and writes the per-paper vault container: a
// single binary file holding the paper's page texts, and after
// valorization its chunk texts, embeddings, and chunk-to-page map.
// Every write goes to a temp file renamed over the target, so a reader
// opening an archive mid-write never observes a torn state.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FormatVersion is the current container version, stored in the header.
const FormatVersion = 1

// Meta is the archive's own record of identity and provenance. The
// catalog is authoritative; this copy makes archives self-describing
// for reconciliation sweeps.
type Meta struct {
	ContentHash    string    `json:"content_hash"`
	Key            string    `json:"key"`
	CreatedAt      time.Time `json:"created_at"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	EmbeddingDim   int       `json:"embedding_dim,omitempty"`
}

// ChunkGroup is the valorization output: parallel slices where entry i
// is one chunk's text, embedding vector, and originating page number.
type ChunkGroup struct {
	Texts      []string
	Embeddings [][]float32
	Pages      []int32
}

// Validate checks the parallel-slice invariant and that every embedding
// row has the same dimension.
func (g *ChunkGroup) Validate() error {
	if len(g.Texts) != len(g.Embeddings) || len(g.Texts) != len(g.Pages) {
		return fmt.Errorf("inconsistent chunk group: %d texts, %d embeddings, %d pages",
			len(g.Texts), len(g.Embeddings), len(g.Pages))
	}
	if len(g.Embeddings) == 0 {
		return nil
	}
	dim := len(g.Embeddings[0])
	for i, row := range g.Embeddings {
		if len(row) != dim {
			return fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(row), dim)
		}
	}
	return nil
}

// Dim returns the embedding dimension, 0 when the group is empty.
func (g *ChunkGroup) Dim() int {
	if len(g.Embeddings) == 0 {
		return 0
	}
	return len(g.Embeddings[0])
}

// Archive is one paper's container. Chunks is nil until valorization.
type Archive struct {
	Meta   Meta
	Pages  []string
	Chunks *ChunkGroup
}

// Valorized reports whether the archive carries a well-formed,
// non-empty chunk group.
func (a *Archive) Valorized() bool {
	return a.Chunks != nil && len(a.Chunks.Texts) > 0 && a.Chunks.Validate() == nil
}

// Write serializes the archive to path atomically. The chunk group, if
// present, is validated first; nothing is written on a validation
// failure.
func Write(path string, a *Archive) error {
	if a.Chunks != nil {
		if err := a.Chunks.Validate(); err != nil {
			return err
		}
	}

	data, err := encode(a)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pva-*")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp archive: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing archive: %w", err)
	}
	return nil
}

// ReplaceChunks reads the archive at path, swaps in the chunk group and
// embedding provenance, and writes the whole file back atomically.
func ReplaceChunks(path string, g *ChunkGroup, model string) error {
	if err := g.Validate(); err != nil {
		return err
	}
	a, err := Read(path)
	if err != nil {
		return err
	}
	a.Chunks = g
	a.Meta.EmbeddingModel = model
	a.Meta.EmbeddingDim = g.Dim()
	return Write(path, a)
}

func encode(a *Archive) ([]byte, error) {
	metaJSON, err := json.Marshal(a.Meta)
	if err != nil {
		return nil, fmt.Errorf("encoding archive meta: %w", err)
	}

	w := newSectionWriter()
	w.magic()
	w.u32(FormatVersion)
	w.bytes(metaJSON)
	w.u32(uint32(len(a.Pages)))
	for _, page := range a.Pages {
		w.bytes([]byte(page))
	}

	if a.Chunks == nil || len(a.Chunks.Texts) == 0 {
		w.u8(0)
		return w.buf.Bytes(), nil
	}

	g := a.Chunks
	w.u8(1)
	w.u32(uint32(len(g.Texts)))
	for _, text := range g.Texts {
		w.bytes([]byte(text))
	}
	w.u32(uint32(g.Dim()))
	for _, row := range g.Embeddings {
		for _, v := range row {
			w.f32(v)
		}
	}
	for _, page := range g.Pages {
		w.i32(page)
	}
	return w.buf.Bytes(), nil
}
