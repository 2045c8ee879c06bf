// =============================================================================
// Clinic Template Migrator - Generic Export Reader
// =============================================================================
//
// Generic exports arrive in whatever shape the clinic happened to produce:
// JSON documents, CSV (comma or semicolon), gzip-compressed text, loosely
// tagged XML, or free-form text.
//
// FORMAT DETECTION:
//   1. gzip magic bytes (0x1f 0x8b)
//   2. file extension (.json, .csv, .xml, .txt)
//   3. anything else is read as text
//
// PARSE CHAIN:
//   Every strategy falls through to the next on failure:
//     content starting with { or [ -> JSON -> structured text
//     anything else               -> CSV  -> structured text
//   Structured text tries JSON per line, then delimiter splitting, then
//   key=value pairs. When everything fails the result is empty, never an
//   error; only an unreadable input file is reported.
//
// =============================================================================

package clinni

import (
	"bytes"
	stdgzip "compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	kgzip "github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/csvparser"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
	"github.com/ginjaninja78/clinic-template-migrator/internal/xmlscan"
)

// Format is the detected container format of an input file.
type Format string

const (
	FormatGzip Format = "gz"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatText Format = "txt"
)

// xmlRootTags are tried in order; the first one yielding records wins.
var xmlRootTags = []string{"PACIENTE", "CLIENTE", "CITA", "BONO", "HISTORIAL", "CONSULTA"}

var textSplitPattern = regexp.MustCompile(`[,;]`)

// DetectFormat decides how to read a file from its leading bytes and name.
func DetectFormat(path string, head []byte) Format {
	if len(head) >= 2 && head[0] == 0x1f && head[1] == 0x8b {
		return FormatGzip
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".xml":
		return FormatXML
	case ".gz":
		return FormatGzip
	}
	return FormatText
}

// Read parses the file at path into either a JSON value or a list of flat
// records, ready for classification. A nil result means nothing could be
// parsed.
func Read(path string, log zerolog.Logger) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	format := DetectFormat(path, data)
	log.Info().Str("path", path).Str("format", string(format)).Int("bytes", len(data)).Msg("reading generic export")

	switch format {
	case FormatGzip:
		plain, err := gunzip(data)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("could not decompress input")
			return nil, nil
		}
		inner := DetectFormat(strings.TrimSuffix(path, filepath.Ext(path)), plain)
		if inner == FormatXML {
			return parseXML(plain, log), nil
		}
		return parseContent(text(plain), inner == FormatCSV, log), nil
	case FormatXML:
		return parseXML(data, log), nil
	default:
		return parseContent(text(data), format == FormatCSV, log), nil
	}
}

// =============================================================================
// DECOMPRESSION
// =============================================================================

// gunzip inflates data, retrying with the standard library implementation
// when the first decoder rejects the stream.
func gunzip(data []byte) ([]byte, error) {
	out, err := inflate(func(r io.Reader) (io.ReadCloser, error) { return kgzip.NewReader(r) }, data)
	if err == nil {
		return out, nil
	}
	out, fallbackErr := inflate(func(r io.Reader) (io.ReadCloser, error) { return stdgzip.NewReader(r) }, data)
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	return out, nil
}

func inflate(open func(io.Reader) (io.ReadCloser, error), data []byte) ([]byte, error) {
	zr, err := open(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate gzip stream: %w", err)
	}
	return out, nil
}

// =============================================================================
// PARSE CHAIN
// =============================================================================

func text(b []byte) string {
	s := strings.ToValidUTF8(string(b), "\ufffd")
	return strings.TrimPrefix(s, "\ufeff")
}

// parseContent runs the parse chain. When isCSV is set the content is read
// as CSV whatever its column count; otherwise CSV is only accepted with two
// or more columns.
func parseContent(content string, isCSV bool, log zerolog.Logger) any {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	if isCSV {
		if recs, ok := parseCSV(trimmed, 1); ok {
			return recs
		}
		log.Debug().Msg("CSV input did not parse, trying structured text")
		return parseText(trimmed)
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		v, err := decodeJSON(trimmed)
		if err == nil {
			return v
		}
		log.Debug().Err(err).Msg("content is not a single JSON document, trying structured text")
		return parseText(trimmed)
	}

	if recs, ok := parseCSV(trimmed, 2); ok {
		return recs
	}
	log.Debug().Msg("content is not delimited, trying structured text")
	return parseText(trimmed)
}

// decodeJSON decodes exactly one JSON value. Numbers keep their source
// spelling.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// parseCSV succeeds when the content splits into at least minColumns columns.
func parseCSV(content string, minColumns int) ([]types.Record, bool) {
	data, err := csvparser.ParseString(content, 0)
	if err != nil || data.ColumnCount < minColumns {
		return nil, false
	}
	recs := make([]types.Record, 0, len(data.Rows))
	for _, row := range data.Rows {
		recs = append(recs, types.FromStrings(row))
	}
	return recs, true
}

// parseText applies the structured-text heuristics.
func parseText(content string) []types.Record {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	var recs []types.Record

	switch {
	case anyLine(lines, func(l string) bool { return strings.HasPrefix(l, "{") }):
		for _, line := range lines {
			v, err := decodeJSON(line)
			if err != nil {
				continue
			}
			if rec, ok := types.AsRecord(v); ok {
				recs = append(recs, rec)
			}
		}

	case anyLine(lines, func(l string) bool { return strings.ContainsAny(l, ",;") }):
		header := splitFields(lines[0])
		for _, line := range lines[1:] {
			values := splitFields(line)
			rec := make(types.Record, len(header))
			for i, h := range header {
				if h == "" {
					continue
				}
				if i < len(values) {
					rec[h] = values[i]
				} else {
					rec[h] = ""
				}
			}
			recs = append(recs, rec)
		}

	default:
		for _, line := range lines {
			key, value, ok := strings.Cut(line, "=")
			if key = strings.TrimSpace(key); !ok || key == "" {
				continue
			}
			recs = append(recs, types.Record{key: strings.TrimSpace(value)})
		}
	}
	return recs
}

func splitFields(line string) []string {
	parts := textSplitPattern.Split(line, -1)
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"'`)
	}
	return parts
}

func anyLine(lines []string, pred func(string) bool) bool {
	for _, l := range lines {
		if pred(l) {
			return true
		}
	}
	return false
}

// parseXML extracts records of the first known root tag present.
func parseXML(data []byte, log zerolog.Logger) []types.Record {
	for _, tag := range xmlRootTags {
		recs, err := xmlscan.ExtractRecords(bytes.NewReader(data), tag)
		if err != nil {
			log.Warn().Err(err).Str("tag", tag).Msg("failed to scan XML")
			return nil
		}
		if len(recs) > 0 {
			log.Debug().Str("tag", tag).Int("records", len(recs)).Msg("extracted XML records")
			return recs
		}
	}
	return nil
}
