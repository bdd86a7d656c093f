package classifier

import "strings"

// defaultExtensions maps a detected MIME type to the extensions that are
// accepted for it. MIME types missing from the table are never reported as
// mismatches. Some formats appear under both of the MIME spellings the
// sniffer may emit.
var defaultExtensions = map[string][]string{
	// Images
	"image/jpeg": {"jpg", "jpeg"},
	"image/png":  {"png"},
	"image/gif":  {"gif"},
	"image/webp": {"webp"},
	"image/bmp":  {"bmp"},

	// Audio
	"audio/mpeg":   {"mp3"},
	"audio/wav":    {"wav"},
	"audio/x-wav":  {"wav"},
	"audio/ogg":    {"ogg"},
	"audio/flac":   {"flac"},
	"audio/x-flac": {"flac"},

	// Video
	"video/mp4":        {"mp4"},
	"video/x-matroska": {"mkv"},
	"video/webm":       {"webm"},
	"video/quicktime":  {"mov"},
	"video/x-msvideo":  {"avi"},

	// Documents
	"application/pdf":    {"pdf"},
	"application/msword": {"doc"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {"docx"},
	"application/vnd.ms-excel": {"xls"},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {"xlsx"},

	// Archives
	"application/zip":              {"zip"},
	"application/x-rar-compressed": {"rar"},
	"application/vnd.rar":          {"rar"},
	"application/gzip":             {"gz", "gzip"},
	"application/x-7z-compressed":  {"7z"},
}

// extensionTable is a MIME to accepted-extension lookup
type extensionTable map[string]map[string]bool

// newExtensionTable merges the defaults, configured extras and the
// extensions declared by custom signatures
func newExtensionTable(extra map[string][]string, signatures []Signature) extensionTable {
	table := make(extensionTable, len(defaultExtensions)+len(extra)+len(signatures))
	for _, src := range []map[string][]string{defaultExtensions, extra} {
		for mime, exts := range src {
			table.add(mime, exts...)
		}
	}
	for _, sig := range signatures {
		if sig.Extension != "" {
			table.add(sig.MIME, sig.Extension)
		}
	}
	return table
}

func (t extensionTable) add(mime string, exts ...string) {
	set, ok := t[mime]
	if !ok {
		set = make(map[string]bool, len(exts))
		t[mime] = set
	}
	for _, ext := range exts {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
}

// accepts reports whether ext is valid for mime. MIME types without an
// entry accept any extension.
func (t extensionTable) accepts(mime, ext string) bool {
	set, known := t[mime]
	if !known {
		return true
	}
	return set[strings.ToLower(ext)]
}
