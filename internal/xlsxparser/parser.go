// =============================================================================
// Clinic Template Migrator - XLSX Header Templates
// =============================================================================
//
// Operators sometimes receive destination templates as spreadsheets rather
// than CSV. This module reads the header row out of such a workbook so it can
// stand in for a CSV header override, and writes header-only workbooks for
// "templates init".
//
// TEMPLATE STRUCTURE:
//   The first sheet's first non-empty row holds the output column names,
//   left to right. Everything below it is ignored.
//
//   | Column A | Column B  | Column C | ... |
//   |----------|-----------|----------|-----|
//   | Nombre   | Apellidos | CIF/NIF  | ... |
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadHeaderRow returns the column names from the first non-empty row of
// the first sheet. Blank cells are dropped.
//
// PARAMETERS:
//   - templatePath: The path to the XLSX file.
//
// RETURNS:
//   - The ordered column names (possibly empty).
//   - An error if the workbook cannot be opened or has no sheets.
func ReadHeaderRow(templatePath string) ([]string, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("template file has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		headers := make([]string, 0, len(row))
		for _, cell := range row {
			cell = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
			if cell != "" {
				headers = append(headers, cell)
			}
		}
		return headers, nil
	}
	return nil, nil
}

// WriteHeaderWorkbook writes a workbook whose only content is headers in the
// first row of a sheet named sheetName. The header row is bold and frozen.
func WriteHeaderWorkbook(path, sheetName string, headers []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Plantilla"
	}
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return fmt.Errorf("failed to address header row: %w", err)
		}
		if err := f.SetCellStyle(sheetName, "A1", last, style); err != nil {
			return fmt.Errorf("failed to style header row: %w", err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
