package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/clinic-template-migrator/internal/config"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/xlsxparser"
)

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")
	cfg.TemplatesDir = t.TempDir()
	return cfg
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogFormat = config.LogFormatJSON
	cfg.LogLevel = "warn"

	log := newLogger(cfg, false, &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("table", "Bonos.csv").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"table":"Bonos.csv"`)

	assert.Equal(t, zerolog.DebugLevel, newLogger(cfg, true, &buf).GetLevel())

	buf.Reset()
	cfg.LogFormat = config.LogFormatConsole
	console := newLogger(cfg, false, &buf)
	console.Error().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestRunProcess(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"pacientes":[{"dni":"1","nombre":"Ana"}]}`), 0o644))

	var out bytes.Buffer
	err := runProcess(&out, cfg, processFlags{source: "clinni", inputs: []string{input}})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "clients_and_bonuses_export.csv"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "appointments_export.csv"))
	summaries, err := filepath.Glob(filepath.Join(cfg.OutputDir, "migration_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
	errorLogs, err := filepath.Glob(filepath.Join(cfg.OutputDir, "error_log_*.txt"))
	require.NoError(t, err)
	assert.Empty(t, errorLogs)
	assert.Contains(t, out.String(), "Successful: 1")
}

func TestRunProcessFailures(t *testing.T) {
	cfg := testConfig(t)
	empty := filepath.Join(t.TempDir(), "vacio.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"pacientes":[]}`), 0o644))

	testCases := []struct {
		name  string
		flags processFlags
	}{
		{name: "unknown source", flags: processFlags{source: "access", inputs: []string{empty}}},
		{name: "no inputs", flags: processFlags{source: "clinni"}},
		{name: "missing input", flags: processFlags{source: "clinni", inputs: []string{filepath.Join(t.TempDir(), "none.json")}}},
		{name: "unknown template", flags: processFlags{source: "clinni", inputs: []string{empty}, only: []string{"facturas"}}},
		{name: "no data", flags: processFlags{source: "clinni", inputs: []string{empty}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, runProcess(&out, cfg, tc.flags))
		})
	}

	errorLogs, err := filepath.Glob(filepath.Join(cfg.OutputDir, "error_log_*.txt"))
	require.NoError(t, err)
	assert.NotEmpty(t, errorLogs)
}

func TestRunProcessDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"pacientes":[{"dni":"1","nombre":"Ana"}]}`), 0o644))

	var out bytes.Buffer
	require.NoError(t, runProcess(&out, cfg, processFlags{source: "clinni", inputs: []string{input}, dryRun: true}))
	assert.NoDirExists(t, cfg.OutputDir)
	assert.Contains(t, out.String(), "(dry run)")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestProcessFlagsStartFreshOnEveryRun(t *testing.T) {
	input := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"pacientes":[{"dni":"1","nombre":"Ana"}]}`), 0o644))
	outputDir := filepath.Join(t.TempDir(), "output")

	out, err := execute(t, "process", "--source", "clinni", "--input", input, "--output", outputDir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "(dry run)")
	assert.NoDirExists(t, outputDir)

	out, err = execute(t, "process", "--source", "clinni", "--input", input, "--output", outputDir)
	require.NoError(t, err)
	assert.NotContains(t, out, "(dry run)")
	assert.FileExists(t, filepath.Join(outputDir, "clients_and_bonuses_export.csv"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Clinic Template Migrator")
	assert.Contains(t, out, "Version:")
}

func TestTemplatesInitAndList(t *testing.T) {
	testCases := []struct {
		format string
		check  func(t *testing.T, dir string)
	}{
		{format: "csv", check: func(t *testing.T, dir string) {
			assert.FileExists(t, filepath.Join(dir, "plantilla-citas.csv"))
		}},
		{format: "xlsx", check: func(t *testing.T, dir string) {
			headers, err := xlsxparser.ReadHeaderRow(filepath.Join(dir, "plantilla_bonos.xlsx"))
			require.NoError(t, err)
			bonuses, _ := templates.Lookup("bonuses")
			assert.Equal(t, bonuses.Fallback, headers)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			dir := t.TempDir()
			var out bytes.Buffer
			require.NoError(t, runTemplatesInit(&out, templatesInitFlags{dir: dir, format: tc.format}))
			tc.check(t, dir)

			assert.Error(t, runTemplatesInit(&out, templatesInitFlags{dir: dir, format: tc.format}))
			assert.NoError(t, runTemplatesInit(&out, templatesInitFlags{dir: dir, format: tc.format, force: true}))

			out.Reset()
			require.NoError(t, runTemplatesList(&out, dir))
			assert.Contains(t, out.String(), "89 columns, override matches built-in")
		})
	}

	assert.Error(t, runTemplatesInit(&bytes.Buffer{}, templatesInitFlags{dir: t.TempDir(), format: "ods"}))
}

func TestRunVerify(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"pacientes":[{"dni":"1","nombre":"Ana"}]}`), 0o644))
	require.NoError(t, runProcess(&bytes.Buffer{}, cfg, processFlags{source: "clinni", inputs: []string{input}}))

	good := filepath.Join(cfg.OutputDir, "clients_and_bonuses_export.csv")
	var out bytes.Buffer
	require.NoError(t, runVerify(&out, cfg, verifyFlags{}, []string{good}))
	assert.Contains(t, out.String(), "✓")

	bad := filepath.Join(t.TempDir(), "citas_manual.csv")
	require.NoError(t, os.WriteFile(bad, []byte("date,status\n07/03/2024\n"), 0o644))
	out.Reset()
	assert.Error(t, runVerify(&out, cfg, verifyFlags{}, []string{bad}))
	assert.Contains(t, out.String(), "✗")

	assert.Error(t, runVerify(&out, cfg, verifyFlags{template: "facturas"}, []string{good}))
	assert.Error(t, runVerify(&out, cfg, verifyFlags{}, []string{filepath.Join(t.TempDir(), "report.csv")}))
	assert.Error(t, runVerify(&out, cfg, verifyFlags{template: "bonuses"}, []string{good}))
}

func TestTemplateForFile(t *testing.T) {
	testCases := []struct {
		file   string
		want   templates.Name
		wantOK bool
	}{
		{file: "out/appointments_export.csv", want: templates.Appointments, wantOK: true},
		{file: "citas_BKPROGRAM1.csv", want: templates.Appointments, wantOK: true},
		{file: "clientes_y_bonos_x.csv", want: templates.ClientsAndBonuses, wantOK: true},
		{file: "bonos_x.csv", want: templates.Bonuses, wantOK: true},
		{file: "historial_completa.csv", want: templates.HistoryFull, wantOK: true},
		{file: "agenda_x.csv", want: templates.Appointments, wantOK: true},
		{file: "bonosx.csv"},
	}

	for _, tc := range testCases {
		t.Run(tc.file, func(t *testing.T) {
			got, ok := templateForFile(tc.file, map[string]string{"appointments": "Agenda"})
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got.Name)
			}
		})
	}
}
