package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/diskscout/internal/platform"
)

// FileRecord represents a regular file found during a directory walk
type FileRecord struct {
	Path      string    `json:"path" yaml:"path"`
	Name      string    `json:"name" yaml:"name"`
	Extension string    `json:"extension,omitempty" yaml:"extension,omitempty"` // without the leading dot
	Size      uint64    `json:"size" yaml:"size"`
	ModTime   time.Time `json:"modified" yaml:"modified"`
}

// NewFileRecord builds a record from a walked path and its lstat info
func NewFileRecord(path string, info os.FileInfo) (FileRecord, error) {
	if info == nil {
		return FileRecord{}, fmt.Errorf("no metadata for %s", path)
	}
	if info.Size() < 0 {
		return FileRecord{}, fmt.Errorf("negative size %d for %s", info.Size(), path)
	}

	name := filepath.Base(path)
	return FileRecord{
		Path:      path,
		Name:      name,
		Extension: extensionOf(name),
		Size:      uint64(info.Size()),
		ModTime:   info.ModTime(),
	}, nil
}

// HasExtension reports whether the file name carries an extension
func (r FileRecord) HasExtension() bool {
	return r.Extension != ""
}

// IsHidden reports whether the file is hidden on the current platform
func (r FileRecord) IsHidden() bool {
	return platform.IsHidden(r.Path)
}

// extensionOf mirrors the usual "stem.ext" rule: dotfiles like ".bashrc" and
// names ending in a dot have no extension.
func extensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

// ScanResult represents the result of a scan operation
type ScanResult struct {
	Files     []FileRecord
	TotalSize uint64
	Skipped   []Skipped
}

func (r *ScanResult) add(rec FileRecord) {
	r.Files = append(r.Files, rec)
	r.TotalSize += rec.Size
}

// TotalCount returns the number of files in the result
func (r *ScanResult) TotalCount() int {
	return len(r.Files)
}

// HiddenCount returns the number of hidden files in the result
func (r *ScanResult) HiddenCount() int {
	n := 0
	for _, f := range r.Files {
		if f.IsHidden() {
			n++
		}
	}
	return n
}

// GroupByExtension groups results by lower-cased extension ("" for none)
func (r *ScanResult) GroupByExtension() map[string]*ScanResult {
	grouped := make(map[string]*ScanResult)

	for _, file := range r.Files {
		ext := strings.ToLower(file.Extension)
		if _, ok := grouped[ext]; !ok {
			grouped[ext] = &ScanResult{}
		}
		grouped[ext].add(file)
	}

	return grouped
}

// ProgressCallback is called during scanning to report progress
type ProgressCallback func(currentPath string, filesFound int, totalSize uint64)
