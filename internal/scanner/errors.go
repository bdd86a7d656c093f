package scanner

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel errors for invalid arguments
var (
	ErrInvalidLimit     = errors.New("limit must be >= 0")
	ErrCutoffOutOfRange = errors.New("age window is too large to compute a cutoff time")
)

// TraversalError is returned when a directory walk cannot proceed.
// It aborts the whole operation.
type TraversalError struct {
	Root string
	Path string
	Err  error
}

// Error implements the error interface
func (e *TraversalError) Error() string {
	if e.Path == "" || e.Path == e.Root {
		return fmt.Sprintf("traverse %s: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("traverse %s: at %s: %v", e.Root, e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}

// SkipReason categorizes why a single file was left out of a result
type SkipReason int

const (
	SkipMetadata SkipReason = iota
	SkipModTime
	SkipHash
	SkipRead
)

// String returns a human-readable skip reason
func (r SkipReason) String() string {
	switch r {
	case SkipMetadata:
		return "Metadata unreadable"
	case SkipModTime:
		return "Modification time unreadable"
	case SkipHash:
		return "Hashing failed"
	case SkipRead:
		return "Content unreadable"
	default:
		return "Unspecified"
	}
}

// Skipped records one entry that was dropped while the scan continued
type Skipped struct {
	Path   string
	Reason SkipReason
	Err    error
}

// Error implements the error interface so diagnostics can be logged or joined
func (s Skipped) Error() string {
	if s.Err == nil {
		return fmt.Sprintf("%s: %s", s.Path, s.Reason)
	}
	return fmt.Sprintf("%s: %s (%v)", s.Path, s.Reason, s.Err)
}

// IsPermission reports whether the entry was dropped for lack of access
func (s Skipped) IsPermission() bool {
	return os.IsPermission(s.Err) || errors.Is(s.Err, os.ErrPermission)
}
