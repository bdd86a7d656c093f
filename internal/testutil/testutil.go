// Package testutil provides test helpers and fixtures for diskscout tests.
// Fixtures live either on an in-memory afero filesystem or under t.TempDir().
package testutil

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// File signatures used across classifier and scanner tests
var (
	JPEGHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}
	PNGHeader  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	PDFHeader  = []byte("%PDF-1.")
	GZIPHeader = []byte{0x1F, 0x8B, 0x08, 0x00}
	// EPUBHeader is a zip local header whose first entry is the stored
	// "mimetype" file
	EPUBHeader = append(append([]byte("PK\x03\x04"), make([]byte, 26)...), "mimetypeapplication/epub+zip"...)
)

// StandardTreeSize is the total byte count written by PopulateStandardTree
const StandardTreeSize = 100 + 2000 + 5000 + 1500 + 1500 + 1000

// TestFixture holds a filesystem and the root directory tests scan
type TestFixture struct {
	T       *testing.T
	Fs      afero.Fs
	RootDir string
}

// NewFixture creates a fixture on the real filesystem under t.TempDir()
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()

	return &TestFixture{
		T:       t,
		Fs:      afero.NewOsFs(),
		RootDir: t.TempDir(),
	}
}

// NewMemFixture creates a fixture on an in-memory filesystem
func NewMemFixture(t *testing.T) *TestFixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	root := filepath.FromSlash("/scan")
	if err := fs.MkdirAll(root, 0755); err != nil {
		t.Fatalf("failed to create root %s: %v", root, err)
	}

	return &TestFixture{T: t, Fs: fs, RootDir: root}
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// Path returns the absolute path of relPath inside the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, filepath.FromSlash(relPath))
}

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := f.Path(relPath)
	dir := filepath.Dir(fullPath)

	if err := f.Fs.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := afero.WriteFile(f.Fs, fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFilled creates a file of size bytes all set to fill
func (f *TestFixture) CreateFilled(relPath string, size int, fill byte) string {
	f.T.Helper()
	return f.CreateFile(relPath, bytes.Repeat([]byte{fill}, size))
}

// CreateFileWithAge creates a file and sets its modification time to the past
func (f *TestFixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	oldTime := time.Now().Add(-age)

	if err := f.Fs.Chtimes(fullPath, oldTime, oldTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateRandomFile creates a file with random content
func (f *TestFixture) CreateRandomFile(relPath string, size int) string {
	f.T.Helper()
	content := make([]byte, size)
	rand.Read(content)
	return f.CreateFile(relPath, content)
}

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := f.Path(relPath)
	if err := f.Fs.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateSymlink creates a symbolic link on the real filesystem
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	linker, ok := f.Fs.(afero.Linker)
	if !ok {
		f.T.Skip("filesystem does not support symlinks")
	}

	fullLinkPath := f.Path(linkPath)
	if err := linker.SymlinkIfPossible(target, fullLinkPath); err != nil {
		f.T.Skipf("symlinks unavailable: %v", err)
	}

	return fullLinkPath
}

// =============================================================================
// Standard Tree
// =============================================================================

// PopulateStandardTree writes five files at the root (sizes 100, 2000, 5000,
// 1500 and 1500, all filled with 'A') and one 1000-byte file of 'B' in a
// subdirectory. The two 1500-byte files are byte-identical.
func (f *TestFixture) PopulateStandardTree() {
	f.T.Helper()

	f.CreateFilled("small.txt", 100, 'A')
	f.CreateFilled("medium.txt", 2000, 'A')
	f.CreateFilled("large.txt", 5000, 'A')
	f.CreateFilled("test_file.dat", 1500, 'A')
	f.CreateFilled("another_test.dat", 1500, 'A')
	f.CreateFilled("subdir/subfile.txt", 1000, 'B')
}

// =============================================================================
// Failing Filesystem
// =============================================================================

// FailingFs wraps a filesystem and fails Open for selected paths, which lets
// tests exercise read failures after a successful walk.
type FailingFs struct {
	afero.Fs
	FailOpen map[string]error
}

// NewFailingFs wraps fs with no failures configured
func NewFailingFs(fs afero.Fs) *FailingFs {
	return &FailingFs{Fs: fs, FailOpen: make(map[string]error)}
}

// Open implements afero.Fs
func (f *FailingFs) Open(name string) (afero.File, error) {
	if err, ok := f.FailOpen[name]; ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return f.Fs.Open(name)
}
