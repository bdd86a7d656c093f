package classifier

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
)

// Category is the content family a file belongs to, derived from its signature
type Category string

const (
	Application Category = "Application"
	Archive     Category = "Archive"
	Audio       Category = "Audio"
	Book        Category = "Book"
	Document    Category = "Document"
	Font        Category = "Font"
	Image       Category = "Image"
	Text        Category = "Text"
	Video       Category = "Video"
	Custom      Category = "Custom"
	Unknown     Category = "Unknown"
)

// Categories lists every category in display order
var Categories = []Category{
	Application, Archive, Audio, Book, Document, Font, Image, Text, Video, Custom, Unknown,
}

// bookMIMEs are archive-shaped formats that are really e-books
var bookMIMEs = []string{"application/epub+zip"}

// textMIMEs are the plain-text formats that carry a recognisable signature
var textMIMEs = []string{"text/html", "text/xml", "text/x-shellscript"}

// lineage walks a mimetype detection up through its parents and returns the
// first of wanted it meets. Parameters such as charset are ignored.
func lineage(detected *mimetype.MIME, wanted []string) (string, bool) {
	for m := detected; m != nil; m = m.Parent() {
		for _, w := range wanted {
			if m.Is(w) {
				return w, true
			}
		}
	}
	return "", false
}

// categoryOf maps a sniffed type to its category using the matcher
// family that recognised it.
func categoryOf(kind types.Type) Category {

	families := []struct {
		category Category
		set      matchers.Map
	}{
		{Image, matchers.Image},
		{Video, matchers.Video},
		{Audio, matchers.Audio},
		{Font, matchers.Font},
		{Document, matchers.Document},
		{Application, matchers.Application},
		{Archive, matchers.Archive},
	}
	for _, family := range families {
		if _, ok := family.set[kind]; ok {
			return family.category
		}
	}

	return Unknown
}
