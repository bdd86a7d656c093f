package classifier

import (
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/h2non/filetype"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/fenilsonani/diskscout/internal/scanner"
)

// headerSize is how many leading bytes are read for signature sniffing
const headerSize = 8192

// Detection is the outcome of sniffing one file.
// MIME is empty when no signature was recognised.
type Detection struct {
	Category Category
	MIME     string
}

// Known reports whether a content type was determined
func (d Detection) Known() bool {
	return d.MIME != ""
}

// Validation is the result of checking a file's extension against its content
type Validation struct {
	Matches bool
	MIME    string
}

// Mismatch is a file whose extension disagrees with its detected content
type Mismatch struct {
	File scanner.FileRecord `json:"file" yaml:"file"`
	MIME string             `json:"detected_mime" yaml:"detected_mime"`
}

// Identification groups records by content category
type Identification struct {
	ByCategory map[Category][]scanner.FileRecord
	Skipped    []scanner.Skipped
}

// Count returns the number of identified records across all categories
func (id *Identification) Count() int {
	n := 0
	for _, files := range id.ByCategory {
		n += len(files)
	}
	return n
}

// Options configures a Classifier
type Options struct {
	// ExtraExtensions adds accepted extensions per MIME type
	ExtraExtensions map[string][]string
	// Signatures are checked before the built-in matchers
	Signatures []Signature
}

// Classifier sniffs file content and compares it to file extensions.
// It does not cache detections between calls.
type Classifier struct {
	fs         afero.Fs
	logger     *zap.Logger
	extensions extensionTable
	signatures []Signature
}

// New creates a Classifier reading files from fs
func New(fs afero.Fs, logger *zap.Logger, opts Options) *Classifier {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Classifier{
		fs:         fs,
		logger:     logger,
		extensions: newExtensionTable(opts.ExtraExtensions, opts.Signatures),
		signatures: opts.Signatures,
	}
}

// Detect reads the header of path and infers its content type.
// An error means the file could not be read at all; an unrecognised
// signature is not an error and yields the Unknown category.
func (c *Classifier) Detect(path string) (Detection, error) {
	head, err := c.readHeader(path)
	if err != nil {
		return Detection{Category: Unknown}, err
	}
	return c.detectBytes(head), nil
}

func (c *Classifier) readHeader(path string) ([]byte, error) {
	file, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, headerSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

func (c *Classifier) detectBytes(head []byte) Detection {
	if len(head) == 0 {
		return Detection{Category: Unknown}
	}

	for _, sig := range c.signatures {
		if sig.match(head) {
			return Detection{Category: Custom, MIME: sig.MIME}
		}
	}

	// E-books are zip containers; the zip matcher must not claim them first
	tree := mimetype.Detect(head)
	if mime, ok := lineage(tree, bookMIMEs); ok {
		return Detection{Category: Book, MIME: mime}
	}

	kind, err := filetype.Match(head)
	if err == nil && kind != filetype.Unknown {
		return Detection{Category: categoryOf(kind), MIME: kind.MIME.Value}
	}

	if mime, ok := lineage(tree, textMIMEs); ok {
		return Detection{Category: Text, MIME: mime}
	}

	return Detection{Category: Unknown}
}

// ValidateExtension checks whether rec's extension agrees with its content.
//
// Undetectable or unreadable content gets the benefit of the doubt. A file
// with detectable content but no extension never matches. Otherwise the
// detected MIME type is looked up in the extension table, and types the
// table does not know are assumed to match.
func (c *Classifier) ValidateExtension(rec scanner.FileRecord) Validation {
	det, err := c.Detect(rec.Path)
	if err != nil {
		c.logger.Debug("Cannot read file for validation", zap.String("path", rec.Path), zap.Error(err))
		return Validation{Matches: true}
	}
	if !det.Known() {
		return Validation{Matches: true}
	}

	if !rec.HasExtension() {
		return Validation{Matches: false, MIME: det.MIME}
	}

	return Validation{Matches: c.extensions.accepts(det.MIME, rec.Extension), MIME: det.MIME}
}

// IdentifyFiles classifies every record by content category. Records whose
// type cannot be determined go under Unknown; unreadable records are
// reported in Skipped. It never aborts.
func (c *Classifier) IdentifyFiles(records []scanner.FileRecord) *Identification {
	id := &Identification{ByCategory: make(map[Category][]scanner.FileRecord)}

	for _, rec := range records {
		det, err := c.Detect(rec.Path)
		if err != nil {
			c.logger.Warn("Error identifying file", zap.String("path", rec.Path), zap.Error(err))
			id.Skipped = append(id.Skipped, scanner.Skipped{Path: rec.Path, Reason: scanner.SkipRead, Err: err})
			continue
		}
		if !det.Known() {
			c.logger.Debug("Could not identify file", zap.String("path", rec.Path))
		}
		id.ByCategory[det.Category] = append(id.ByCategory[det.Category], rec)
	}

	return id
}

// FindMismatchedExtensions returns the records whose extension disagrees
// with their detected content, in input order.
func (c *Classifier) FindMismatchedExtensions(records []scanner.FileRecord) []Mismatch {
	var mismatched []Mismatch

	for _, rec := range records {
		v := c.ValidateExtension(rec)
		if !v.Matches && v.MIME != "" {
			mismatched = append(mismatched, Mismatch{File: rec, MIME: v.MIME})
		}
	}

	return mismatched
}
