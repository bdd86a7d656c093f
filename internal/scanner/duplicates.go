package scanner

import (
	"sort"

	"go.uber.org/zap"

	"github.com/fenilsonani/diskscout/pkg/utils"
)

// DuplicateGroup is a set of at least two files with identical size and content hash
type DuplicateGroup struct {
	Size  uint64       `json:"size" yaml:"size"`
	Hash  string       `json:"hash" yaml:"hash"`
	Files []FileRecord `json:"files" yaml:"files"`
}

// WastedBytes is the space held by every copy but one
func (g DuplicateGroup) WastedBytes() uint64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * uint64(len(g.Files)-1)
}

// DuplicateResult represents the result of a duplicate scan
type DuplicateResult struct {
	Groups      []DuplicateGroup
	Skipped     []Skipped
	FilesHashed int
}

// WastedBytes sums the reclaimable space over all groups
func (r *DuplicateResult) WastedBytes() uint64 {
	var total uint64
	for _, g := range r.Groups {
		total += g.WastedBytes()
	}
	return total
}

type contentKey struct {
	size uint64
	hash string
}

// FindDuplicates finds groups of files with identical content under root.
//
// Files are first bucketed by exact size; only buckets with two or more
// members are hashed, since files of different size cannot be equal. Empty
// files are never considered. A file that fails to hash is skipped and never
// placed in a group.
func (s *Scanner) FindDuplicates(root string) (*DuplicateResult, error) {
	result := &DuplicateResult{}

	// Map of size to files with that size
	bySize := make(map[uint64][]FileRecord)
	skipped, err := s.walk(root, func(rec FileRecord) {
		if rec.Size == 0 {
			return
		}
		bySize[rec.Size] = append(bySize[rec.Size], rec)
	})
	if err != nil {
		return nil, err
	}
	result.Skipped = skipped

	candidates := sizeBucketsToCandidates(bySize)
	if s.opts.PrefixCheckBytes > 0 {
		candidates = s.filterByPrefix(candidates, result)
	}

	groups := make(map[contentKey][]FileRecord)
	var order []contentKey
	for _, bucket := range candidates {
		for _, rec := range bucket {
			hash, err := utils.HashFile(s.fs, rec.Path, s.opts.HashAlgorithm)
			if err != nil {
				s.logger.Warn("Failed to hash file", zap.String("path", rec.Path), zap.Error(err))
				result.Skipped = append(result.Skipped, Skipped{Path: rec.Path, Reason: SkipHash, Err: err})
				continue
			}
			result.FilesHashed++

			key := contentKey{size: rec.Size, hash: hash}
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], rec)
		}
	}

	for _, key := range order {
		files := groups[key]
		if len(files) < 2 {
			continue
		}
		result.Groups = append(result.Groups, DuplicateGroup{
			Size:  key.size,
			Hash:  key.hash,
			Files: files,
		})
	}

	// Largest groups first so the most reclaimable space is reported on top
	sort.SliceStable(result.Groups, func(i, j int) bool {
		if result.Groups[i].Size != result.Groups[j].Size {
			return result.Groups[i].Size > result.Groups[j].Size
		}
		return result.Groups[i].Hash < result.Groups[j].Hash
	})

	s.logger.Debug("Duplicate scan complete",
		zap.String("root", root),
		zap.Int("hashed", result.FilesHashed),
		zap.Int("groups", len(result.Groups)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// sizeBucketsToCandidates drops buckets that cannot hold a duplicate and
// returns the rest ordered by size so hashing order is deterministic.
func sizeBucketsToCandidates(bySize map[uint64][]FileRecord) [][]FileRecord {
	sizes := make([]uint64, 0, len(bySize))
	for size, files := range bySize {
		if len(files) < 2 {
			continue
		}
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	candidates := make([][]FileRecord, 0, len(sizes))
	for _, size := range sizes {
		candidates = append(candidates, bySize[size])
	}
	return candidates
}

// filterByPrefix splits each size bucket by a hash of the leading bytes and
// drops the resulting singletons. It only ever removes candidates.
func (s *Scanner) filterByPrefix(candidates [][]FileRecord, result *DuplicateResult) [][]FileRecord {
	var filtered [][]FileRecord

	for _, bucket := range candidates {
		byPrefix := make(map[uint64][]FileRecord)
		var order []uint64

		for _, rec := range bucket {
			sum, err := utils.HashPrefix(s.fs, rec.Path, s.opts.PrefixCheckBytes)
			if err != nil {
				s.logger.Warn("Failed to read file prefix", zap.String("path", rec.Path), zap.Error(err))
				result.Skipped = append(result.Skipped, Skipped{Path: rec.Path, Reason: SkipRead, Err: err})
				continue
			}
			if _, ok := byPrefix[sum]; !ok {
				order = append(order, sum)
			}
			byPrefix[sum] = append(byPrefix[sum], rec)
		}

		for _, sum := range order {
			if len(byPrefix[sum]) >= 2 {
				filtered = append(filtered, byPrefix[sum])
			}
		}
	}

	return filtered
}
