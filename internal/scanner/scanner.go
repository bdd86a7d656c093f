package scanner

import (
	"errors"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/fenilsonani/diskscout/pkg/utils"
)

// maxAgeDays is the largest day window whose duration fits in time.Duration
const maxAgeDays = uint64(math.MaxInt64 / int64(24*time.Hour))

// Options tunes the scanner
type Options struct {
	// HashAlgorithm is the whole-file digest used to confirm duplicates
	HashAlgorithm utils.HashAlgorithm
	// PrefixCheckBytes enables an xxhash pre-filter over the first N bytes
	// of same-sized files before full hashing. Zero disables it.
	PrefixCheckBytes int64
}

// Scanner walks directory trees and produces file records.
// A Scanner holds no state between calls; each operation runs to completion
// on the calling goroutine.
type Scanner struct {
	fs       afero.Fs
	logger   *zap.Logger
	opts     Options
	progress ProgressCallback
	now      func() time.Time
}

// New creates a new Scanner over the given filesystem
func New(fs afero.Fs, logger *zap.Logger, opts Options) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.HashAlgorithm == "" {
		opts.HashAlgorithm = utils.HashBLAKE3
	}

	return &Scanner{
		fs:     fs,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// SetProgressCallback sets a callback invoked for every file record produced
func (s *Scanner) SetProgressCallback(cb ProgressCallback) {
	s.progress = cb
}

// ListFiles returns every regular file under root
func (s *Scanner) ListFiles(root string) (*ScanResult, error) {
	return s.collect(root, func(FileRecord) bool { return true })
}

// FindByPattern returns files whose base name contains pattern (case-sensitive)
func (s *Scanner) FindByPattern(root, pattern string) (*ScanResult, error) {
	return s.collect(root, func(rec FileRecord) bool {
		return strings.Contains(rec.Name, pattern)
	})
}

// FindRecentlyModified returns files modified within the last days days
func (s *Scanner) FindRecentlyModified(root string, days uint64) (*ScanResult, error) {
	if days > maxAgeDays {
		return nil, ErrCutoffOutOfRange
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	result := &ScanResult{}
	skipped, err := s.walk(root, func(rec FileRecord) {
		if rec.ModTime.IsZero() {
			result.Skipped = append(result.Skipped, Skipped{
				Path:   rec.Path,
				Reason: SkipModTime,
				Err:    errors.New("modification time not available"),
			})
			return
		}
		if !rec.ModTime.Before(cutoff) {
			result.add(rec)
		}
	})
	if err != nil {
		return nil, err
	}

	result.Skipped = append(skipped, result.Skipped...)
	return result, nil
}

// FindLargest returns at most limit files, largest first.
// Files of equal size keep their walk order.
func (s *Scanner) FindLargest(root string, limit int) (*ScanResult, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	all, err := s.ListFiles(root)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all.Files, func(i, j int) bool {
		return all.Files[i].Size > all.Files[j].Size
	})

	result := &ScanResult{Skipped: all.Skipped}
	for i := 0; i < len(all.Files) && i < limit; i++ {
		result.add(all.Files[i])
	}
	return result, nil
}

// DirectorySize returns the total size in bytes of all regular files under root
func (s *Scanner) DirectorySize(root string) (uint64, error) {
	var total uint64
	if _, err := s.walk(root, func(rec FileRecord) {
		total += rec.Size
	}); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Scanner) collect(root string, keep func(FileRecord) bool) (*ScanResult, error) {
	result := &ScanResult{}
	skipped, err := s.walk(root, func(rec FileRecord) {
		if keep(rec) {
			result.add(rec)
		}
	})
	if err != nil {
		return nil, err
	}

	result.Skipped = skipped
	return result, nil
}

// walk visits every regular file under root in lexical order. Any traversal
// error aborts the walk; entries whose metadata cannot be turned into a
// record are skipped and reported.
func (s *Scanner) walk(root string, visit func(FileRecord)) ([]Skipped, error) {
	var skipped []Skipped
	var found int
	var totalSize uint64

	err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return &TraversalError{Root: root, Path: path, Err: err}
		}

		// Directories, symlinks and special files produce no records
		if !info.Mode().IsRegular() {
			return nil
		}

		rec, err := NewFileRecord(path, info)
		if err != nil {
			s.logger.Debug("Skipping entry", zap.String("path", path), zap.Error(err))
			skipped = append(skipped, Skipped{Path: path, Reason: SkipMetadata, Err: err})
			return nil
		}

		found++
		totalSize += rec.Size
		if s.progress != nil {
			s.progress(path, found, totalSize)
		}

		visit(rec)
		return nil
	})
	if err != nil {
		var terr *TraversalError
		if errors.As(err, &terr) {
			s.logger.Warn("Traversal failed", zap.String("root", root), zap.String("path", terr.Path), zap.Error(terr.Err))
			return nil, terr
		}
		return nil, &TraversalError{Root: root, Err: err}
	}

	return skipped, nil
}
