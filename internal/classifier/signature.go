package classifier

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Signature is a user-defined magic number. Files whose header carries Magic
// at Offset are reported with MIME under the Custom category.
type Signature struct {
	MIME      string
	Extension string
	Offset    int
	Magic     []byte
}

// ParseSignature builds a Signature from a hex-encoded magic string such as "CAFEBABE"
func ParseSignature(mime, extension, magicHex string, offset int) (Signature, error) {
	magic, err := hex.DecodeString(strings.ReplaceAll(magicHex, " ", ""))
	if err != nil {
		return Signature{}, fmt.Errorf("invalid magic %q: %w", magicHex, err)
	}
	if len(magic) == 0 {
		return Signature{}, fmt.Errorf("empty magic for %s", mime)
	}
	if offset < 0 {
		return Signature{}, fmt.Errorf("negative offset %d for %s", offset, mime)
	}
	if mime == "" {
		return Signature{}, fmt.Errorf("signature %q has no MIME type", magicHex)
	}

	return Signature{
		MIME:      mime,
		Extension: strings.ToLower(strings.TrimPrefix(extension, ".")),
		Offset:    offset,
		Magic:     magic,
	}, nil
}

func (s Signature) match(head []byte) bool {
	end := s.Offset + len(s.Magic)
	return end <= len(head) && bytes.Equal(head[s.Offset:end], s.Magic)
}
