// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checksum computes SHA-256 digests for content-addressed identity
// and duplicate detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/paper-vault/pkg/types"
)

// blockSize is the streaming read size. 64 KiB bounds memory for
// arbitrarily large PDFs.
const blockSize = 64 * 1024

// File computes the hex SHA-256 digest of a file, streaming it in 64 KiB
// blocks. Returns NotFoundError if the path does not exist and
// IsADirectoryError if it names a directory.
func File(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &types.NotFoundError{Kind: "file", Name: path}
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", &types.IsADirectoryError{Path: path}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes computes the hex SHA-256 digest of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
