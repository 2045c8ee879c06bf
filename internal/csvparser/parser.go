// =============================================================================
// Clinic Template Migrator - CSV Parser Module
// =============================================================================
//
// This module parses the tabular inputs of two source families:
//   - generic exports that happen to be CSV (comma or semicolon separated,
//     sometimes gzip-compressed upstream)
//   - CSV folder backups written by a legacy Windows application, usually in
//     windows-1252 rather than UTF-8
//
// FEATURES:
//   - Delimiter detection from the first line (';' wins over ',')
//   - Encoding fallback chain (see encoding.go)
//   - BOM and whitespace stripped from header names
//   - Lenient quoting and ragged rows; missing cells become ""
//
// CUSTOMIZATION:
//   - Add encodings to the lookup table in encoding.go
//   - Pass an explicit Delimiter in Settings to skip detection
//
// =============================================================================

package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmpty is returned when the input has no header row.
var ErrEmpty = errors.New("CSV input is empty")

// =============================================================================
// SETTINGS AND RESULT
// =============================================================================

// Settings controls how a CSV input is decoded and split.
type Settings struct {
	// Delimiter is the field separator. Zero means detect from the first line.
	Delimiter rune

	// Encodings are tried in order until one decodes cleanly.
	// Empty means UTF-8 only.
	Encodings []string
}

// CSVData represents one parsed CSV input.
type CSVData struct {
	// Headers contains the cleaned column headers in file order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	// A header repeated in the file keeps the value of its last column.
	Rows []map[string]string

	// SourceFile is the path the data came from, if any.
	SourceFile string

	// Encoding is the encoding that decoded the file.
	Encoding string

	// Delimiter is the separator actually used.
	Delimiter rune

	// RowCount is the number of non-empty data rows.
	RowCount int

	// ColumnCount is the number of header columns.
	ColumnCount int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads and decodes a CSV file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding preferences.
//
// RETURNS:
//   - The parsed data, with Encoding set to the encoding that succeeded.
//   - An error if the file cannot be read, no encoding decodes it, or it
//     has no header row.
func Parse(filePath string, settings Settings) (*CSVData, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content, used, err := Decode(raw, settings.Encodings)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filePath, err)
	}

	data, err := ParseString(content, settings.Delimiter)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	data.Encoding = used
	return data, nil
}

// ParseString parses already decoded CSV text. A zero delimiter is detected
// from the first line.
func ParseString(content string, delimiter rune) (*CSVData, error) {
	content = strings.TrimPrefix(content, bom)
	if delimiter == 0 {
		delimiter = DetectDelimiter(firstLine(content))
	}
	return ParseReader(strings.NewReader(content), delimiter)
}

// ParseReader parses CSV text from r with the given delimiter.
func ParseReader(r io.Reader, delimiter rune) (*CSVData, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, delimiter)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	// Leading blank lines are not headers.
	for len(allRows) > 0 && isRowEmpty(allRows[0]) {
		allRows = allRows[1:]
	}
	if len(allRows) == 0 {
		return nil, ErrEmpty
	}

	headers := cleanHeaders(allRows[0])
	rows := extractDataRows(allRows[1:], headers)

	return &CSVData{
		Headers:     headers,
		Rows:        rows,
		Delimiter:   delimiter,
		RowCount:    len(rows),
		ColumnCount: len(headers),
	}, nil
}

// DetectDelimiter returns ';' when the line contains one and ',' otherwise.
func DetectDelimiter(line string) rune {
	if strings.Contains(line, ";") {
		return ';'
	}
	return ','
}

// =============================================================================
// HELPERS
// =============================================================================

// configureReader makes the reader tolerant of the sloppy quoting and ragged
// rows legacy exports contain.
func configureReader(reader *csv.Reader, delimiter rune) {
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false
}

func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// cleanHeaders trims whitespace, quotes and byte order marks from header
// names. Blank headers become Column_N.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.ReplaceAll(header, bom, "")
		header = strings.Trim(strings.TrimSpace(header), `"'`)
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows converts rows to header -> value maps, skipping blank rows.
// Cells beyond the header are dropped; missing cells become "".
func extractDataRows(allRows [][]string, headers []string) []map[string]string {
	dataRows := make([]map[string]string, 0, len(allRows))

	for _, row := range allRows {
		if isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				rowMap[header] = strings.TrimSpace(row[colIndex])
			} else {
				rowMap[header] = ""
			}
		}

		dataRows = append(dataRows, rowMap)
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// QUERY HELPERS
// =============================================================================

// FindColumn returns the first header matching one of candidates,
// compared case-insensitively. ok is false when none match.
func FindColumn(headers []string, candidates ...string) (string, bool) {
	for _, c := range candidates {
		for _, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), c) {
				return h, true
			}
		}
	}
	return "", false
}

// GetColumnByHeader returns all values of one column.
func GetColumnByHeader(data *CSVData, header string) []string {
	values := make([]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		values = append(values, row[header])
	}
	return values
}
