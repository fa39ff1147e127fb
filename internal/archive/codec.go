// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pdiddy/paper-vault/pkg/types"
)

// File layout, all integers little-endian:
//
//	magic "PVA1"
//	u32 format version
//	u32 metaLen, metaLen bytes of JSON (Meta)
//	u32 pageCount, then per page: u32 len + bytes
//	u8  hasChunks
//	if hasChunks:
//	  u32 chunkCount, then per chunk: u32 len + bytes
//	  u32 dim, chunkCount*dim float32 (row-major)
//	  chunkCount int32 page numbers

var magic = [4]byte{'P', 'V', 'A', '1'}

// maxSectionLen caps any one length-prefixed section so a corrupt
// header cannot drive an absurd allocation.
const maxSectionLen = 256 << 20

// ErrCorrupt reports an archive whose bytes do not parse as a valid
// container. Wrapped with position detail.
var ErrCorrupt = errors.New("corrupt archive")

type sectionWriter struct {
	buf bytes.Buffer
}

func newSectionWriter() *sectionWriter {
	return &sectionWriter{}
}

func (w *sectionWriter) magic() { w.buf.Write(magic[:]) }

func (w *sectionWriter) u8(v uint8) { w.buf.WriteByte(v) }

func (w *sectionWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *sectionWriter) i32(v int32) { w.u32(uint32(v)) }

func (w *sectionWriter) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *sectionWriter) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

type sectionReader struct {
	r io.Reader
}

func (r *sectionReader) u8() (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *sectionReader) u32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *sectionReader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

func (r *sectionReader) bytes() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxSectionLen {
		return nil, fmt.Errorf("%w: section of %d bytes", ErrCorrupt, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Read parses the archive at path. Missing files fail with a
// NotFoundError; unparseable bytes fail with an error wrapping
// ErrCorrupt.
func Read(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &types.NotFoundError{Kind: "archive", Name: path}
		}
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	a, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}
	return a, nil
}

func decode(rd io.Reader) (*Archive, error) {
	r := &sectionReader{r: rd}

	var got [4]byte
	if _, err := io.ReadFull(rd, got[:]); err != nil {
		return nil, fmt.Errorf("%w: missing magic", ErrCorrupt)
	}
	if got != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, got[:])
	}

	version, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: missing version", ErrCorrupt)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}

	metaJSON, err := r.bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated meta", ErrCorrupt)
	}
	a := &Archive{}
	if err := json.Unmarshal(metaJSON, &a.Meta); err != nil {
		return nil, fmt.Errorf("%w: meta does not parse: %v", ErrCorrupt, err)
	}

	pageCount, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated page count", ErrCorrupt)
	}
	a.Pages = make([]string, 0, pageCount)
	for i := uint32(0); i < pageCount; i++ {
		page, err := r.bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated page %d", ErrCorrupt, i+1)
		}
		a.Pages = append(a.Pages, string(page))
	}

	hasChunks, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated chunk flag", ErrCorrupt)
	}
	if hasChunks == 0 {
		return a, nil
	}

	g := &ChunkGroup{}
	chunkCount, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated chunk count", ErrCorrupt)
	}
	g.Texts = make([]string, 0, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		text, err := r.bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated chunk %d", ErrCorrupt, i)
		}
		g.Texts = append(g.Texts, string(text))
	}

	dim, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated embedding dimension", ErrCorrupt)
	}
	if uint64(chunkCount)*uint64(dim) > maxSectionLen {
		return nil, fmt.Errorf("%w: embedding matrix %dx%d too large", ErrCorrupt, chunkCount, dim)
	}
	g.Embeddings = make([][]float32, 0, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		row := make([]float32, dim)
		for j := uint32(0); j < dim; j++ {
			v, err := r.f32()
			if err != nil {
				return nil, fmt.Errorf("%w: truncated embedding row %d", ErrCorrupt, i)
			}
			row[j] = v
		}
		g.Embeddings = append(g.Embeddings, row)
	}

	g.Pages = make([]int32, 0, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		v, err := r.u32()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated page map", ErrCorrupt)
		}
		g.Pages = append(g.Pages, int32(v))
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	a.Chunks = g
	return a, nil
}
