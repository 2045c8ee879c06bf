package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	require.NoError(t, err)

	assert.Equal(t, "./templates", cfg.TemplatesDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, LogFormatConsole, cfg.LogFormat)
	assert.Equal(t, DefaultOutputFormat, cfg.OutputFormat)
	assert.Equal(t, []string{"windows-1252", "utf-8-sig", "utf-8"}, cfg.CSVFolder.Encodings)
	assert.False(t, cfg.ContinueOnError)
	assert.True(t, cfg.Verify())
	assert.True(t, cfg.Summary())
}

func TestLoadMainConfigMissingRequired(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	assert.Error(t, err)
}

func TestLoadMainConfigFile(t *testing.T) {
	path := writeConfig(t, `
templates_dir: /srv/plantillas
output_dir: /srv/salida
log_level: debug
log_format: json
continue_on_error: true
verify_output: false
output_format: "{suffix}/{template}.csv"
output_names:
  appointments: citas
csv_folder:
  encodings: [utf-8]
`)

	cfg, err := LoadMainConfig(path, false)
	require.NoError(t, err)

	assert.Equal(t, "/srv/plantillas", cfg.TemplatesDir)
	assert.Equal(t, "/srv/salida", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.True(t, cfg.ContinueOnError)
	assert.False(t, cfg.Verify())
	assert.True(t, cfg.Summary())
	assert.Equal(t, "{suffix}/{template}.csv", cfg.OutputFormat)
	assert.Equal(t, map[string]string{"appointments": "citas"}, cfg.OutputNames)
	assert.Equal(t, []string{"utf-8"}, cfg.CSVFolder.Encodings)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "output_dir: from-file\nlog_level: warn\n")
	t.Setenv(EnvOutputDir, "from-env")
	t.Setenv(EnvLogLevel, " ")

	cfg, err := LoadMainConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidateMainConfig(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad level", content: "log_level: loud\n", wantErr: "log_level"},
		{name: "bad format", content: "log_format: xml\n", wantErr: "log_format"},
		{name: "bad encoding", content: "csv_folder:\n  encodings: [ebcdic]\n", wantErr: "ebcdic"},
		{name: "empty pattern", content: "output_format: \".csv\"\n", wantErr: "output_format"},
		{name: "unknown template", content: "output_names:\n  invoices: facturas\n", wantErr: "invoices"},
		{name: "bad yaml", content: "log_level: [\n", wantErr: "parse"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadMainConfig(writeConfig(t, tc.content), false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(EnvTemplatesDir+"=/from/dotenv\n"), 0o644))
	t.Setenv(EnvTemplatesDir, "")
	require.NoError(t, os.Unsetenv(EnvTemplatesDir))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env"), envPath))
	assert.Equal(t, "/from/dotenv", os.Getenv(EnvTemplatesDir))
}
