package file

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// charsets maps the supported declared encodings to decoders. UTF-8 goes
// through the BOM-stripping variant so files saved by spreadsheet tools
// parse cleanly. Windows-874 covers the TIS-620 rosters common with Thai
// registration systems.
var charsets = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8BOM,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"windows-874":  charmap.Windows874,
	"tis-620":      charmap.Windows874,
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
}

// DecodeReader wraps r so reads yield UTF-8 regardless of the declared
// source charset. Unknown charset names are rejected up front.
func DecodeReader(r io.Reader, name string) (io.Reader, error) {
	enc, ok := charsets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc.NewDecoder().Reader(r), nil
}
