package templates

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/xlsxparser"
)

// ErrNoHeaders is returned when a template has no columns even after the
// built-in fallback.
var ErrNoHeaders = errors.New("template resolved to zero columns")

// Headers resolves the output columns of t. See Resolve.
func (t Template) Headers(dir string, log zerolog.Logger) ([]string, error) {
	return Resolve(dir, t.OverrideFile, t.Fallback, log)
}

// Resolve returns the ordered output columns for a template.
//
// The override file dir/filename is read first: its first line, split as
// CSV, with BOM, whitespace and quotes stripped from each name. When it is
// missing, a workbook with the same stem and an .xlsx extension is tried.
// If neither yields a non-empty column list the fallback is returned and a
// warning is logged. An empty dir means no override directory is configured;
// the fallback is then used and logged at debug level.
//
// The returned slice is always a copy.
func Resolve(dir, filename string, fallback []string, log zerolog.Logger) ([]string, error) {
	useFallback := func() ([]string, error) {
		if len(fallback) == 0 {
			return nil, fmt.Errorf("%s: %w", filename, ErrNoHeaders)
		}
		return append([]string(nil), fallback...), nil
	}

	if dir == "" {
		log.Debug().Str("template", filename).Msg("no templates directory configured, using built-in header")
		return useFallback()
	}

	path := filepath.Join(dir, filename)
	headers, err := readCSVHeaderLine(path)
	if errors.Is(err, os.ErrNotExist) {
		xlsxPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
		if _, statErr := os.Stat(xlsxPath); statErr == nil {
			path = xlsxPath
			headers, err = xlsxparser.ReadHeaderRow(xlsxPath)
		}
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn().Str("template", filename).Str("path", path).Msg("template override not found, using built-in header")
		return useFallback()
	case err != nil:
		log.Warn().Err(err).Str("template", filename).Str("path", path).Msg("template override unreadable, using built-in header")
		return useFallback()
	case len(headers) == 0:
		log.Warn().Str("template", filename).Str("path", path).Msg("template override has no column names, using built-in header")
		return useFallback()
	}

	log.Debug().Str("template", filename).Str("path", path).Int("columns", len(headers)).Msg("using template override")
	return headers, nil
}

// readCSVHeaderLine parses only the first record of a CSV file.
func readCSVHeaderLine(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	if lead, _ := buffered.Peek(3); bytes.Equal(lead, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = buffered.Discard(3)
	}

	reader := csv.NewReader(buffered)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header line: %w", err)
	}

	headers := make([]string, 0, len(record))
	for _, name := range record {
		name = strings.ReplaceAll(name, "\ufeff", "")
		name = strings.Trim(strings.TrimSpace(name), `"'`)
		if name = strings.TrimSpace(name); name != "" {
			headers = append(headers, name)
		}
	}
	return headers, nil
}
