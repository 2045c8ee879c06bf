package csvparser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const bom = "\ufeff"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encoding names accepted in configuration.
const (
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "latin1"
	EncodingUTF8Sig     = "utf-8-sig"
	EncodingUTF8        = "utf-8"
)

// DefaultEncodings is the order used for legacy CSV folder exports: the
// Windows code page first, UTF-8 variants after.
var DefaultEncodings = []string{EncodingWindows1252, EncodingUTF8Sig, EncodingUTF8}

// legacyCharmaps maps accepted names of single-byte encodings to their
// decoders. UTF-8 names are handled separately.
var legacyCharmaps = map[string]encoding.Encoding{
	EncodingWindows1252: charmap.Windows1252,
	"cp1252":            charmap.Windows1252,
	EncodingLatin1:      charmap.ISO8859_1,
	"iso-8859-1":        charmap.ISO8859_1,
	"latin-1":           charmap.ISO8859_1,
	"iso-8859-15":       charmap.ISO8859_15,
}

// KnownEncoding reports whether name is an accepted encoding name.
func KnownEncoding(name string) bool {
	name = normalizeName(name)
	if name == EncodingUTF8 || name == EncodingUTF8Sig || name == "utf8" {
		return true
	}
	_, ok := legacyCharmaps[name]
	return ok
}

// Decode converts raw bytes to a string using the first encoding in names
// that decodes without error. A leading UTF-8 byte order mark always selects
// utf-8-sig. Input holding non-ASCII bytes that form valid UTF-8 is read as
// utf-8 when names allows it, since single-byte code pages accept any input.
// The returned name is the encoding that succeeded.
func Decode(raw []byte, names []string) (string, string, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		if s, err := decodeAs(raw, EncodingUTF8Sig); err == nil {
			return s, EncodingUTF8Sig, nil
		}
	}
	if len(names) == 0 {
		names = []string{EncodingUTF8}
	}
	if allowsUTF8(names) && !isASCII(raw) && utf8.Valid(raw) {
		return string(raw), EncodingUTF8, nil
	}

	var lastErr error
	for _, name := range names {
		s, err := decodeAs(raw, name)
		if err == nil {
			return s, normalizeName(name), nil
		}
		lastErr = err
	}
	return "", "", fmt.Errorf("no encoding in %v could decode the input: %w", names, lastErr)
}

func allowsUTF8(names []string) bool {
	for _, name := range names {
		switch normalizeName(name) {
		case EncodingUTF8, EncodingUTF8Sig, "utf8":
			return true
		}
	}
	return false
}

func isASCII(raw []byte) bool {
	for _, b := range raw {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func decodeAs(raw []byte, name string) (string, error) {
	switch n := normalizeName(name); n {
	case EncodingUTF8Sig, EncodingUTF8, "utf8":
		text := bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(text) {
			return "", fmt.Errorf("invalid %s byte sequence", n)
		}
		return string(text), nil
	default:
		enc, ok := legacyCharmaps[n]
		if !ok {
			return "", fmt.Errorf("unknown encoding %q", name)
		}
		out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
		if err != nil {
			return "", fmt.Errorf("failed to decode as %s: %w", n, err)
		}
		return strings.TrimPrefix(string(out), bom), nil
	}
}

func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(n, "_", "-")
}
