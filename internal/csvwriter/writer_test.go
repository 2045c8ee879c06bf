package csvwriter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

func TestWriteCreatesDirectoriesAndProjectsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "bonuses_x.csv")
	headers := []string{"Teléfono", "Nombre Cliente", "Precio Total"}
	rows := []types.Row{
		{"Nombre Cliente": "Luis", "Precio Total": "100", "client_name": "not in header"},
		{},
		{"Teléfono": "600, ext 2"},
	}

	n, err := Write(path, headers, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, []byte(BOM)))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, headers, records[0])
	assert.Equal(t, []string{"", "Luis", "100"}, records[1])
	assert.Equal(t, []string{"", "", ""}, records[2])
	assert.Equal(t, []string{"600, ext 2", "", ""}, records[3])
	for _, rec := range records {
		assert.Len(t, rec, len(headers))
	}
}

func TestWriteOverwritesAndHandlesZeroRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	n, err := Write(path, []string{"A", "B"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, BOM+"A,B\r\n", string(raw))
}

func TestWriteWithoutHeaders(t *testing.T) {
	_, err := Write(filepath.Join(t.TempDir(), "a.csv"), nil, nil)
	assert.ErrorIs(t, err, ErrNoHeaders)
}
