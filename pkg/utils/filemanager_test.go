package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverInputsFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xml"))
	touch(t, filepath.Join(dir, "a.XML"))
	touch(t, filepath.Join(dir, "nested", "c.xml"))
	touch(t, filepath.Join(dir, "notes.txt"))

	got, err := DiscoverInputs(dir, false, []string{".xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.XML"),
		filepath.Join(dir, "b.xml"),
		filepath.Join(dir, "nested", "c.xml"),
	}, got)

	single, err := DiscoverInputs(filepath.Join(dir, "notes.txt"), false, []string{".xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, single)

	_, err = DiscoverInputs(filepath.Join(dir, "nested"), false, []string{".json"})
	assert.Error(t, err)
}

func TestDiscoverInputsFolders(t *testing.T) {
	testCases := []struct {
		name    string
		files   []string
		want    []string
		wantErr bool
	}{
		{name: "folder itself", files: []string{"clientes.csv"}, want: []string{"."}},
		{name: "subfolders", files: []string{"BK1/clientes.csv", "BK2/CLIENTES.CSV", "empty/readme.txt"}, want: []string{"BK1", "BK2"}},
		{name: "nothing", files: []string{"readme.txt"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tc.files {
				touch(t, filepath.Join(dir, f))
			}

			got, err := DiscoverInputs(dir, true, nil)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := make([]string, len(tc.want))
			for i, w := range tc.want {
				want[i] = filepath.Join(dir, w)
			}
			assert.Equal(t, want, got)
		})
	}

	file := filepath.Join(t.TempDir(), "clientes.csv")
	touch(t, file)
	_, err := DiscoverInputs(file, true, nil)
	assert.Error(t, err)
}

func TestGenerateOutputFileName(t *testing.T) {
	testCases := []struct {
		name   string
		format string
		params map[string]string
		want   string
	}{
		{name: "default", format: "{template}_{suffix}.csv", params: map[string]string{"template": "bonuses", "suffix": "export"}, want: "bonuses_export.csv"},
		{name: "extension added", format: "{template}", params: map[string]string{"template": "citas"}, want: "citas.csv"},
		{name: "fixed stamp", format: "{suffix}/{template}_{timestamp}.csv", params: map[string]string{"template": "bonos", "suffix": "BKPROGRAM1", "timestamp": "20240307_101500"}, want: "BKPROGRAM1/bonos_20240307_101500.csv"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GenerateOutputFileName(tc.format, tc.params))
		})
	}

	withID := GenerateOutputFileName("{uuid}.csv", nil)
	assert.Len(t, strings.TrimSuffix(withID, ".csv"), 36)
	assert.Regexp(t, `^\d{8}\.csv$`, GenerateOutputFileName("{date}", nil))
}

func TestWriteSummaryAndErrorLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)

	summary := ProcessingSummary{
		RunID:            "run-1",
		Source:           "clinni",
		StartTime:        start,
		EndTime:          start.Add(2 * time.Second),
		TotalInputs:      2,
		SuccessfulInputs: 1,
		FailedInputs:     1,
		TotalRows:        3,
		Inputs: []InputSummary{
			{
				Input:   "a.json",
				Counts:  types.Counts{Patients: 2, Appointments: 1},
				Outputs: []OutputSummary{{Template: "clients_and_bonuses", Path: "out/clients_and_bonuses_a.csv", Rows: 2}},
			},
			{Input: "b.json", Error: "no data generated"},
		},
	}

	path, err := WriteSummaryLog(summary, dir, start.Format(StampLayout))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "migration_summary_20240307_100000.txt"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "Run ID:     run-1")
	assert.Contains(t, text, "patients=2 bonuses=0 appointments=1 history=0")
	assert.Contains(t, text, "out/clients_and_bonuses_a.csv")
	assert.Contains(t, text, "Error: no data generated")

	none, err := WriteErrorLog(nil, dir, "x")
	require.NoError(t, err)
	assert.Empty(t, none)

	logPath, err := WriteErrorLog([]ErrorLogEntry{
		{Timestamp: start, Input: "b.json", Stage: "data", Message: "no data generated"},
	}, dir, "20240307_100000")
	require.NoError(t, err)
	body, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Total Errors: 1")
	assert.Contains(t, string(body), "Stage:     data")
	assert.True(t, FileExists(logPath))
	assert.False(t, FileExists(filepath.Join(dir, "missing.txt")))
}
