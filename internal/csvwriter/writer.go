// =============================================================================
// Clinic Template Migrator - CSV Writer
// =============================================================================
//
// Writes one destination template file. The destination platform detects
// the encoding from a UTF-8 byte order mark, so every file starts with one,
// followed by the header record and one record per row.
//
// Rows are projected onto the header: values are emitted in header order,
// keys the header does not name are dropped, and header columns missing from
// a row are written as "". Every record therefore has exactly len(headers)
// fields.
//
// =============================================================================

package csvwriter

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

// BOM is the UTF-8 byte order mark written at the start of every file.
const BOM = "\ufeff"

// ErrNoHeaders is returned when asked to write a file without columns.
var ErrNoHeaders = errors.New("cannot write CSV without headers")

// Write creates path (and its parent directories), replacing any existing
// file, and writes headers and rows. It returns the number of data rows.
func Write(path string, headers []string, rows []types.Row) (int, error) {
	if len(headers) == 0 {
		return 0, ErrNoHeaders
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	n, err := Encode(file, headers, rows)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	return n, err
}

// Encode writes the BOM, header and rows to w.
func Encode(w io.Writer, headers []string, rows []types.Row) (int, error) {
	buffered := bufio.NewWriter(w)
	if _, err := buffered.WriteString(BOM); err != nil {
		return 0, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(buffered)
	writer.UseCRLF = true

	if err := writer.Write(headers); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(headers))
	for i, row := range rows {
		for col, h := range headers {
			record[col] = row[h]
		}
		if err := writer.Write(record); err != nil {
			return i, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return len(rows), fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return len(rows), fmt.Errorf("failed to flush output: %w", err)
	}
	return len(rows), nil
}
