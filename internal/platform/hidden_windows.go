//go:build windows

package platform

import (
	"strings"

	"golang.org/x/sys/windows"
)

func isHidden(path string) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}

	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		// Fall back to the name when the attributes are unreadable
		return hasDotPrefix(path)
	}

	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}

func hasDotPrefix(path string) bool {
	i := strings.LastIndexAny(path, `\/`)
	return strings.HasPrefix(path[i+1:], ".")
}
