// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vault knows the on-disk layout of a paper vault and guards
// every path it hands out against unsafe keys. The layout is flat and
// sharded by the first character of the key:
//
//	<root>/catalog.db
//	<root>/pdf/<shard>/<key>.pdf
//	<root>/archive/<shard>/<key>.pva
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-vault/pkg/types"
)

const (
	// CatalogFile is the catalog database name at the vault root.
	CatalogFile = "catalog.db"

	// SemIndexFile is the semantic index database name at the vault root.
	SemIndexFile = "semindex.db"

	// PDFDir and ArchiveDir are the top-level content directories.
	PDFDir     = "pdf"
	ArchiveDir = "archive"

	// maxKeyLen bounds keys so sharded paths stay well under
	// filesystem name limits.
	maxKeyLen = 100
)

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_\-.]*$`)

// Layout resolves paths inside one vault root.
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root. The directory need not
// exist yet; EnsureDirs creates it.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// EnsureDirs creates the vault root and its content directories.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.Root, filepath.Join(l.Root, PDFDir), filepath.Join(l.Root, ArchiveDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating vault directory: %w", err)
		}
	}
	return nil
}

// CatalogPath is the catalog database file.
func (l Layout) CatalogPath() string {
	return filepath.Join(l.Root, CatalogFile)
}

// SemIndexPath is the semantic index database file.
func (l Layout) SemIndexPath() string {
	return filepath.Join(l.Root, SemIndexFile)
}

// PDFPath is where the source PDF for key lives. The key must already
// be validated.
func (l Layout) PDFPath(key string) string {
	return filepath.Join(l.Root, PDFDir, Shard(key), key+".pdf")
}

// ArchivePath is where the archive container for key lives.
func (l Layout) ArchivePath(key string) string {
	return filepath.Join(l.Root, ArchiveDir, Shard(key), key+".pva")
}

// Shard returns the single-character shard directory for a key: its
// first character lowercased, or "_" for anything outside a-z0-9.
func Shard(key string) string {
	if key == "" {
		return "_"
	}
	c := strings.ToLower(key[:1])
	if (c[0] >= 'a' && c[0] <= 'z') || (c[0] >= '0' && c[0] <= '9') {
		return c
	}
	return "_"
}

// ValidateKey rejects keys that could escape the vault or break
// filenames. Valid keys start alphanumeric and contain only
// alphanumerics, underscore, hyphen, and dot.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return &types.UnsafeInputError{Field: "key", Value: key, Reason: "empty"}
	case len(key) > maxKeyLen:
		return &types.UnsafeInputError{Field: "key", Value: key, Reason: fmt.Sprintf("longer than %d characters", maxKeyLen)}
	case strings.ContainsRune(key, 0):
		return &types.UnsafeInputError{Field: "key", Value: key, Reason: "contains null byte"}
	case strings.Contains(key, ".."):
		return &types.UnsafeInputError{Field: "key", Value: key, Reason: "contains .."}
	case strings.ContainsAny(key, "/\\"):
		return &types.UnsafeInputError{Field: "key", Value: key, Reason: "contains path separator"}
	case !keyPattern.MatchString(key):
		return &types.UnsafeInputError{Field: "key", Value: key, Reason: "contains disallowed characters"}
	}
	return nil
}

// ValidateRelativePath rejects vault-relative paths that point outside
// the vault root.
func ValidateRelativePath(rel string) error {
	switch {
	case rel == "":
		return &types.UnsafeInputError{Field: "path", Value: rel, Reason: "empty"}
	case strings.ContainsRune(rel, 0):
		return &types.UnsafeInputError{Field: "path", Value: rel, Reason: "contains null byte"}
	case filepath.IsAbs(rel):
		return &types.UnsafeInputError{Field: "path", Value: rel, Reason: "absolute path"}
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return &types.UnsafeInputError{Field: "path", Value: rel, Reason: "escapes vault root"}
	}
	return nil
}
