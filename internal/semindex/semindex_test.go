// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semindex

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/pdiddy/paper-vault/internal/archive"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(filepath.Join(t.TempDir(), "semindex.db"))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func testGroup() *archive.ChunkGroup {
	return &archive.ChunkGroup{
		Texts:      []string{"alpha chunk", "beta chunk", "gamma chunk"},
		Embeddings: [][]float32{{1, 0, 0}, {0, 1, 0}, {0.7, 0.7, 0}},
		Pages:      []int32{1, 2, 2},
	}
}

func TestUpsertAndSearch(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	if err := idx.UpsertChunks(ctx, "xu2022scaling", "hash1", testGroup()); err != nil {
		t.Fatalf("UpsertChunks: %v", err)
	}

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Text != "alpha chunk" || hits[0].ChunkIndex != 0 {
		t.Errorf("best hit = %+v, want alpha chunk", hits[0])
	}
	if math.Abs(hits[0].Score-1) > 1e-6 {
		t.Errorf("best score = %f, want 1", hits[0].Score)
	}
	if hits[1].Text != "gamma chunk" || hits[1].Page != 2 {
		t.Errorf("second hit = %+v, want gamma chunk page 2", hits[1])
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	if err := idx.UpsertChunks(ctx, "key1", "hash1", testGroup()); err != nil {
		t.Fatalf("first UpsertChunks: %v", err)
	}

	smaller := &archive.ChunkGroup{
		Texts:      []string{"replacement"},
		Embeddings: [][]float32{{0, 0, 1}},
		Pages:      []int32{5},
	}
	if err := idx.UpsertChunks(ctx, "key1", "hash1", smaller); err != nil {
		t.Fatalf("second UpsertChunks: %v", err)
	}

	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d after replacement, want 1", n)
	}
}

func TestUpsertRejectsInconsistentGroup(t *testing.T) {
	idx := testIndex(t)
	g := testGroup()
	g.Pages = g.Pages[:1]
	if err := idx.UpsertChunks(context.Background(), "key1", "hash1", g); err == nil {
		t.Fatal("UpsertChunks accepted an inconsistent group")
	}
}

func TestDeleteKey(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	if err := idx.UpsertChunks(ctx, "key1", "hash1", testGroup()); err != nil {
		t.Fatalf("UpsertChunks: %v", err)
	}
	if err := idx.DeleteKey(ctx, "key1"); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d after delete, want 0", n)
	}
	// Deleting an absent key is a no-op.
	if err := idx.DeleteKey(ctx, "key1"); err != nil {
		t.Errorf("second DeleteKey: %v", err)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := testIndex(t)
	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty index", len(hits))
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("cosine = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestVectorRoundTrip(t *testing.T) {
	want := []float32{0.1, -2.5, 0, float32(math.Pi)}
	got, err := decodeVector(encodeVector(want))
	if err != nil {
		t.Fatalf("decodeVector: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d floats, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %f, want %f", i, got[i], want[i])
		}
	}

	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("decodeVector accepted a misaligned blob")
	}
}
