// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"context"
	"fmt"
	"time"
)

// NotFoundError reports a missing file, key, or catalog row. It is surfaced
// to the caller as-is and never retried.
type NotFoundError struct {
	Kind string // "file", "key", "paper", "archive"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// IsADirectoryError reports that a file operation was given a directory.
type IsADirectoryError struct {
	Path string
}

func (e *IsADirectoryError) Error() string {
	return fmt.Sprintf("%s is a directory, expected a file", e.Path)
}

// UnsafeInputError reports a key or path that failed validation. Unsafe
// inputs are rejected before any filesystem or catalog operation and are
// never silently sanitized.
type UnsafeInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *UnsafeInputError) Error() string {
	return fmt.Sprintf("rejected unsafe %s=%q: %s. "+
		"Keys must be alphanumeric with optional hyphens, underscores, and dots; "+
		"paths must be relative and must not contain '..'", e.Field, e.Value, e.Reason)
}

// DuplicateKeyError reports a key that already belongs to a different
// content hash in the catalog.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("key %q already belongs to a different paper in the catalog; "+
		"rename the existing entry or choose another key", e.Key)
}

// DuplicateDOIError reports a DOI that already belongs to a different
// content hash in the catalog.
type DuplicateDOIError struct {
	DOI         string
	ExistingKey string
}

func (e *DuplicateDOIError) Error() string {
	if e.ExistingKey != "" {
		return fmt.Sprintf("DOI %q is already in the vault as %q; "+
			"supplement PDFs often carry the parent paper's DOI; verify before re-ingesting",
			e.DOI, e.ExistingKey)
	}
	return fmt.Sprintf("DOI %q is already in the vault", e.DOI)
}

// KeyExhaustedError reports that a base slug collided with all 26
// single-letter suffixes. This is a data anomaly requiring operator
// intervention, not something to paper over with longer suffixes.
type KeyExhaustedError struct {
	Base string
}

func (e *KeyExhaustedError) Error() string {
	return fmt.Sprintf("all keys %s, %sa..%sz are taken; "+
		"26 collisions on one author+year+title slug needs manual cleanup",
		e.Base, e.Base, e.Base)
}

// LockTimeoutError reports that the vault lock stayed held past the
// acquisition deadline. Another process is working on the vault.
type LockTimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("could not acquire lock on %s within %s; "+
		"another process holds the vault", e.Path, e.Timeout)
}

// ServiceUnavailableError reports a collaborator service (embedding
// endpoint, catalog backend) that could not be reached after retries.
// Transient: valorization leaves the archive untouched for a later pass.
type ServiceUnavailableError struct {
	Service string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s unreachable: %v. The service may be down; try again later", e.Service, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// CancelledError reports cooperative cancellation observed at a checkpoint.
// Work completed before the checkpoint is committed; nothing after it ran.
type CancelledError struct {
	Op  string
	Err error
}

func (e *CancelledError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("cancelled during %s", e.Op)
	}
	return "cancelled"
}

func (e *CancelledError) Unwrap() error { return e.Err }

// Cancelled wraps a context error into a CancelledError if the context is
// done, otherwise returns nil. Call at loop and batch boundaries.
func Cancelled(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return &CancelledError{Op: op, Err: ctx.Err()}
	default:
		return nil
	}
}
