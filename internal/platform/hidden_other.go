//go:build !windows

package platform

import (
	"path/filepath"
	"strings"
)

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
