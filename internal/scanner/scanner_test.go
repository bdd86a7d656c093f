package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fenilsonani/diskscout/internal/testutil"
)

func newTestScanner(t *testing.T, f *testutil.TestFixture) *Scanner {
	t.Helper()
	return New(f.Fs, zaptest.NewLogger(t), Options{})
}

func paths(files []FileRecord) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

// =============================================================================
// FileRecord Tests
// =============================================================================

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "photo.jpg", "jpg"},
		{"upper case kept", "PHOTO.JPG", "JPG"},
		{"double extension", "archive.tar.gz", "gz"},
		{"no extension", "README", ""},
		{"dotfile", ".bashrc", ""},
		{"dotfile with extension", ".config.yaml", "yaml"},
		{"trailing dot", "weird.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extensionOf(tt.input))
		})
	}
}

func TestNewFileRecord(t *testing.T) {
	f := testutil.NewMemFixture(t)
	path := f.CreateFilled("docs/report.PDF", 42, 'x')

	info, err := f.Fs.Stat(path)
	require.NoError(t, err)

	rec, err := NewFileRecord(path, info)
	require.NoError(t, err)
	assert.Equal(t, path, rec.Path)
	assert.Equal(t, "report.PDF", rec.Name)
	assert.Equal(t, "PDF", rec.Extension)
	assert.True(t, rec.HasExtension())
	assert.Equal(t, uint64(42), rec.Size)
	assert.False(t, rec.ModTime.IsZero())

	_, err = NewFileRecord(path, nil)
	assert.Error(t, err)
}

func TestSkippedIsPermission(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"permission sentinel", os.ErrPermission, true},
		{"wrapped path error", &os.PathError{Op: "open", Path: "/x", Err: os.ErrPermission}, true},
		{"not found", os.ErrNotExist, false},
		{"no error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Skipped{Path: "/x", Reason: SkipRead, Err: tt.err}
			assert.Equal(t, tt.expected, s.IsPermission())
		})
	}
}

func TestHiddenCount(t *testing.T) {
	result := &ScanResult{Files: []FileRecord{
		{Path: filepath.FromSlash("/scan/.env"), Name: ".env"},
		{Path: filepath.FromSlash("/scan/notes.txt"), Name: "notes.txt"},
		{Path: filepath.FromSlash("/scan/.git/config"), Name: "config"},
	}}

	assert.True(t, result.Files[0].IsHidden())
	assert.False(t, result.Files[1].IsHidden())
	assert.Equal(t, 1, result.HiddenCount())
}

// =============================================================================
// Listing Tests
// =============================================================================

func TestListFiles(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	s := newTestScanner(t, f)

	result, err := s.ListFiles(f.RootDir)
	require.NoError(t, err)

	// 5 files at the root and 1 in the subdirectory; directories excluded
	assert.Equal(t, 6, result.TotalCount())
	assert.Equal(t, uint64(testutil.StandardTreeSize), result.TotalSize)
	assert.Empty(t, result.Skipped)
	assert.Contains(t, paths(result.Files), f.Path("subdir/subfile.txt"))
	assert.NotContains(t, paths(result.Files), f.Path("subdir"))
}

func TestListFilesWalkOrderIsLexical(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	s := newTestScanner(t, f)

	result, err := s.ListFiles(f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		f.Path("another_test.dat"),
		f.Path("large.txt"),
		f.Path("medium.txt"),
		f.Path("small.txt"),
		f.Path("subdir/subfile.txt"),
		f.Path("test_file.dat"),
	}, paths(result.Files))
}

func TestListFilesMissingRoot(t *testing.T) {
	f := testutil.NewMemFixture(t)
	s := newTestScanner(t, f)

	result, err := s.ListFiles(f.Path("does-not-exist"))
	require.Error(t, err)
	assert.Nil(t, result)

	var terr *TraversalError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, f.Path("does-not-exist"), terr.Root)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestListFilesSkipsSymlinks(t *testing.T) {
	f := testutil.NewFixture(t)
	target := f.CreateFilled("real.bin", 10, 'r')
	f.CreateSymlink(target, "link.bin")
	s := newTestScanner(t, f)

	result, err := s.ListFiles(f.RootDir)
	require.NoError(t, err)
	assert.Equal(t, []string{target}, paths(result.Files))
}

func TestListFilesUnreadableSubdirAborts(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any directory")
	}

	f := testutil.NewFixture(t)
	f.CreateFilled("ok.txt", 10, 'a')
	locked := f.CreateDir("locked")
	f.CreateFilled("locked/inner.txt", 10, 'a')
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	s := newTestScanner(t, f)
	_, err := s.ListFiles(f.RootDir)

	var terr *TraversalError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, locked, terr.Path)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestFindByPattern(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	f.CreateFilled("TEST_upper.dat", 10, 'x')
	s := newTestScanner(t, f)

	result, err := s.FindByPattern(f.RootDir, "test")
	require.NoError(t, err)

	// Case-sensitive: TEST_upper.dat does not match
	assert.Equal(t, 2, result.TotalCount())
	for _, file := range result.Files {
		assert.Contains(t, file.Name, "test")
	}

	all, err := s.ListFiles(f.RootDir)
	require.NoError(t, err)
	assert.Subset(t, paths(all.Files), paths(result.Files))
}

func TestFindByPatternMatchesBaseNameOnly(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.CreateFilled("subdir/plain.txt", 10, 'x')
	s := newTestScanner(t, f)

	result, err := s.FindByPattern(f.RootDir, "subdir")
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestFindRecentlyModified(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	f.CreateFileWithAge("old.log", []byte("old"), 10*24*time.Hour)
	s := newTestScanner(t, f)

	result, err := s.FindRecentlyModified(f.RootDir, 1)
	require.NoError(t, err)

	// All standard files are fresh; old.log is ten days old
	assert.Equal(t, 6, result.TotalCount())
	assert.NotContains(t, paths(result.Files), f.Path("old.log"))

	result, err = s.FindRecentlyModified(f.RootDir, 30)
	require.NoError(t, err)
	assert.Equal(t, 7, result.TotalCount())
}

func TestFindRecentlyModifiedCutoffIsInclusive(t *testing.T) {
	f := testutil.NewMemFixture(t)
	path := f.CreateFile("edge.txt", []byte("edge"))

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-2 * 24 * time.Hour)
	require.NoError(t, f.Fs.Chtimes(path, cutoff, cutoff))

	s := newTestScanner(t, f)
	s.now = func() time.Time { return now }

	result, err := s.FindRecentlyModified(f.RootDir, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths(result.Files))
}

func TestFindRecentlyModifiedSkipsMissingModTime(t *testing.T) {
	f := testutil.NewMemFixture(t)
	path := f.CreateFile("timeless.txt", []byte("?"))
	require.NoError(t, f.Fs.Chtimes(path, time.Time{}, time.Time{}))
	s := newTestScanner(t, f)

	result, err := s.FindRecentlyModified(f.RootDir, 1)
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SkipModTime, result.Skipped[0].Reason)
	assert.Equal(t, path, result.Skipped[0].Path)
}

func TestFindRecentlyModifiedOutOfRange(t *testing.T) {
	f := testutil.NewMemFixture(t)
	s := newTestScanner(t, f)

	_, err := s.FindRecentlyModified(f.RootDir, maxAgeDays+1)
	assert.ErrorIs(t, err, ErrCutoffOutOfRange)
}

func TestFindLargest(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	s := newTestScanner(t, f)

	result, err := s.FindLargest(f.RootDir, 3)
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalCount())

	assert.Equal(t, uint64(5000), result.Files[0].Size)
	assert.Equal(t, uint64(2000), result.Files[1].Size)
	assert.Equal(t, uint64(1500), result.Files[2].Size)
	// Ties keep walk order: another_test.dat is walked before test_file.dat
	assert.Equal(t, "another_test.dat", result.Files[2].Name)
}

func TestFindLargestLimits(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	s := newTestScanner(t, f)

	tests := []struct {
		name     string
		limit    int
		expected int
	}{
		{"zero", 0, 0},
		{"one", 1, 1},
		{"exact", 6, 6},
		{"larger than tree", 100, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.FindLargest(f.RootDir, tt.limit)
			require.NoError(t, err)
			assert.Len(t, result.Files, tt.expected)
			for i := 1; i < len(result.Files); i++ {
				assert.GreaterOrEqual(t, result.Files[i-1].Size, result.Files[i].Size)
			}
		})
	}

	_, err := s.FindLargest(f.RootDir, -1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestDirectorySizeMatchesListing(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	f.CreateRandomFile("nested/deeper/random.bin", 777)
	s := newTestScanner(t, f)

	size, err := s.DirectorySize(f.RootDir)
	require.NoError(t, err)
	assert.Equal(t, uint64(testutil.StandardTreeSize+777), size)

	all, err := s.ListFiles(f.RootDir)
	require.NoError(t, err)

	var sum uint64
	for _, file := range all.Files {
		sum += file.Size
	}
	assert.Equal(t, sum, size)
}

func TestDirectorySizeMissingRoot(t *testing.T) {
	f := testutil.NewMemFixture(t)
	s := newTestScanner(t, f)

	_, err := s.DirectorySize(f.Path("nope"))
	var terr *TraversalError
	assert.ErrorAs(t, err, &terr)
}

func TestProgressCallback(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	s := newTestScanner(t, f)

	var calls int
	var lastTotal uint64
	s.SetProgressCallback(func(currentPath string, filesFound int, totalSize uint64) {
		calls++
		assert.Equal(t, calls, filesFound)
		assert.True(t, strings.HasPrefix(currentPath, f.RootDir))
		lastTotal = totalSize
	})

	_, err := s.ListFiles(f.RootDir)
	require.NoError(t, err)
	assert.Equal(t, 6, calls)
	assert.Equal(t, uint64(testutil.StandardTreeSize), lastTotal)
}

func TestGroupByExtension(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.PopulateStandardTree()
	f.CreateFilled("UPPER.TXT", 5, 'u')
	f.CreateFilled("Makefile", 5, 'm')
	s := newTestScanner(t, f)

	result, err := s.ListFiles(f.RootDir)
	require.NoError(t, err)

	grouped := result.GroupByExtension()
	require.Contains(t, grouped, "txt")
	assert.Equal(t, 5, grouped["txt"].TotalCount())
	assert.Equal(t, 2, grouped["dat"].TotalCount())
	assert.Equal(t, 1, grouped[""].TotalCount())
}

func TestRealFilesystemRoundTrip(t *testing.T) {
	f := testutil.NewFixture(t)
	f.PopulateStandardTree()
	s := newTestScanner(t, f)

	files, err := s.ListFiles(f.RootDir)
	require.NoError(t, err)
	assert.Equal(t, 6, files.TotalCount())

	size, err := s.DirectorySize(f.RootDir)
	require.NoError(t, err)
	assert.Equal(t, uint64(11100), size)

	dups, err := s.FindDuplicates(f.RootDir)
	require.NoError(t, err)
	require.Len(t, dups.Groups, 1)
	assert.ElementsMatch(t,
		[]string{filepath.Join(f.RootDir, "test_file.dat"), filepath.Join(f.RootDir, "another_test.dat")},
		paths(dups.Groups[0].Files))
}
