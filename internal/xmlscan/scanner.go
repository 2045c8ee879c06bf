// =============================================================================
// Clinic Template Migrator - XML Tag Scanner
// =============================================================================
//
// Legacy XML dumps are not parsed as documents. They are treated as a flat
// stream of repeated, same-named elements: every <TAG>...</TAG> occurrence of
// a known table tag becomes one record whose keys are the element's immediate
// <CHILD>value</CHILD> pairs.
//
// The stream is read in chunks, so the whole file never has to be held in
// memory. Only the current partial element is buffered.
//
// LIMITATIONS:
//   - Attributes are ignored. Only bare <TAG> openings match.
//   - A table element nested inside another element of the same tag is not
//     recognised. Child values that contain markup are kept as raw text.
//
// =============================================================================

package xmlscan

import (
	"bytes"
	"html"
	"io"
	"strings"

	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

const (
	chunkSize = 1 << 20

	// elementKeyLen and fieldKeyLen bound the raw prefix used to drop
	// repeated elements and repeated child tags.
	elementKeyLen = 100
	fieldKeyLen   = 50
)

// =============================================================================
// ELEMENT STREAMING
// =============================================================================

// Each calls fn for every <tag>...</tag> element in r, in document order.
// Tag names match case-insensitively. element is the full raw element and
// inner its body. An error from fn stops the scan and is returned.
func Each(r io.Reader, tag string, fn func(element, inner string) error) error {
	open := []byte("<" + strings.ToLower(tag) + ">")
	closing := []byte("</" + strings.ToLower(tag) + ">")

	var buf, lower []byte
	chunk := make([]byte, chunkSize)

	for eof := false; !eof; {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			lower = append(lower, asciiLower(chunk[:n])...)
		}
		if err == io.EOF {
			eof = true
		} else if err != nil {
			return err
		}

		consumed := 0
		for {
			i := bytes.Index(lower[consumed:], open)
			if i < 0 {
				// Keep enough bytes for an opening tag split across chunks.
				if tail := len(open) - 1; len(lower)-consumed > tail {
					consumed = len(lower) - tail
				}
				break
			}
			start := consumed + i
			bodyStart := start + len(open)
			j := bytes.Index(lower[bodyStart:], closing)
			if j < 0 {
				consumed = start
				break
			}
			bodyEnd := bodyStart + j
			end := bodyEnd + len(closing)
			if err := fn(string(buf[start:end]), string(buf[bodyStart:bodyEnd])); err != nil {
				return err
			}
			consumed = end
		}

		buf = buf[:copy(buf, buf[consumed:])]
		lower = lower[:copy(lower, lower[consumed:])]
	}
	return nil
}

// ExtractRecords returns one record per <tag> element in r. Elements whose
// raw prefix was already seen, and elements without child fields, are
// skipped.
func ExtractRecords(r io.Reader, tag string) ([]types.Record, error) {
	var records []types.Record
	seen := make(map[string]struct{})

	err := Each(r, tag, func(element, inner string) error {
		key := prefix(element, elementKeyLen)
		if _, dup := seen[key]; dup {
			return nil
		}
		seen[key] = struct{}{}

		if rec := Fields(inner); len(rec) > 0 {
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// =============================================================================
// CHILD FIELDS
// =============================================================================

// Fields decodes the immediate <NAME>value</NAME> children of an element
// body. Values are trimmed and entity-decoded; CDATA sections are unwrapped.
// A later child with the same name overwrites an earlier one, except for
// exact repeats of the same raw child which are ignored.
func Fields(inner string) types.Record {
	rec := types.Record{}
	seen := make(map[string]struct{})
	lower := string(asciiLower([]byte(inner)))

	pos := 0
	for {
		i := strings.IndexByte(inner[pos:], '<')
		if i < 0 {
			break
		}
		start := pos + i
		nameEnd := start + 1
		for nameEnd < len(inner) && isNameByte(inner[nameEnd], nameEnd == start+1) {
			nameEnd++
		}
		if nameEnd == start+1 || nameEnd >= len(inner) || inner[nameEnd] != '>' {
			pos = start + 1
			continue
		}

		name := inner[start+1 : nameEnd]
		closing := "</" + strings.ToLower(name) + ">"
		j := strings.Index(lower[nameEnd+1:], closing)
		if j < 0 {
			pos = start + 1
			continue
		}
		valueEnd := nameEnd + 1 + j
		end := valueEnd + len(closing)

		key := prefix(inner[start:end], fieldKeyLen)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			rec[name] = decodeValue(inner[nameEnd+1 : valueEnd])
		}
		pos = end
	}
	return rec
}

func decodeValue(raw string) string {
	v := strings.TrimSpace(raw)
	if strings.HasPrefix(v, "<![CDATA[") && strings.HasSuffix(v, "]]>") {
		return strings.TrimSpace(v[len("<![CDATA[") : len(v)-len("]]>")])
	}
	return strings.TrimSpace(html.UnescapeString(v))
}

// =============================================================================
// HELPERS
// =============================================================================

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

// asciiLower lower-cases ASCII letters only, so byte offsets are preserved.
func asciiLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

func prefix(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
