package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteThenReadHeaderRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plantilla_bonos.xlsx")
	headers := []string{"Teléfono", "Nombre Cliente", "Nombre Bono"}

	require.NoError(t, WriteHeaderWorkbook(path, "plantilla_bonos", headers))

	got, err := ReadHeaderRow(path)
	require.NoError(t, err)
	assert.Equal(t, headers, got)
}

func TestReadHeaderRowSkipsLeadingBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A3", " Nombre "))
	require.NoError(t, f.SetCellValue(sheet, "C3", "Email"))
	require.NoError(t, f.SetCellValue(sheet, "A4", "ignored"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := ReadHeaderRow(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nombre", "Email"}, got)
}

func TestReadHeaderRowMissingFile(t *testing.T) {
	_, err := ReadHeaderRow(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
