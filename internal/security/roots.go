package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RootValidator decides whether a directory is a sensible scan root.
// Kernel pseudo filesystems expose endless or blocking files and are refused.
type RootValidator struct {
	virtualPaths []string
}

// NewRootValidator creates a RootValidator with the default virtual paths
func NewRootValidator() *RootValidator {
	return &RootValidator{
		virtualPaths: []string{
			"/proc",
			"/sys",
			"/dev",
			"/run",
		},
	}
}

// ValidateRoot checks a scan root before any traversal starts
func (rv *RootValidator) ValidateRoot(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("scan root must not be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("scan root contains a NUL byte: %q", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve scan root: %w", err)
	}
	if rv.IsVirtualPath(abs) {
		return fmt.Errorf("refusing to scan virtual filesystem: %s", abs)
	}
	return nil
}

// IsVirtualPath reports whether path is, or is under, a virtual path
func (rv *RootValidator) IsVirtualPath(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	for _, v := range rv.virtualPaths {
		if clean == v || strings.HasPrefix(clean, v+"/") {
			return true
		}
	}
	return false
}

// AddVirtualPath adds a custom path to refuse
func (rv *RootValidator) AddVirtualPath(path string) {
	rv.virtualPaths = append(rv.virtualPaths, filepath.ToSlash(filepath.Clean(path)))
}
