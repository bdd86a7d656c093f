package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// HashAlgorithm names a whole-file content digest
type HashAlgorithm string

const (
	HashBLAKE3 HashAlgorithm = "blake3"
	HashSHA256 HashAlgorithm = "sha256"
)

// Valid reports whether the algorithm is supported
func (a HashAlgorithm) Valid() bool {
	return a == HashBLAKE3 || a == HashSHA256
}

func (a HashAlgorithm) newHash() (hash.Hash, error) {
	switch a {
	case HashBLAKE3, "":
		return blake3.New(), nil
	case HashSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", a)
	}
}

// HashFile computes the hex-encoded digest of a whole file
func HashFile(fs afero.Fs, path string, algo HashAlgorithm) (string, error) {
	h, err := algo.newHash()
	if err != nil {
		return "", err
	}

	file, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashPrefix computes an xxhash64 of the first n bytes of a file.
// It is only a cheap pre-filter and must never be used to confirm equality.
func HashPrefix(fs afero.Fs, path string, n int64) (uint64, error) {
	file, err := fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	d := xxhash.New()
	if _, err := io.CopyN(d, file, n); err != nil && err != io.EOF {
		return 0, err
	}

	return d.Sum64(), nil
}
