// =============================================================================
// Clinic Template Migrator - Configuration Module
// =============================================================================
//
// This module loads the main application configuration.
//
// SOURCES (later wins):
//   1. Built-in defaults
//   2. config.yaml (optional when it is the default path)
//   3. .env file and MIGRATOR_* environment variables
//   4. Command line flags (applied by the cmd package)
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/clinic-template-migrator/internal/csvparser"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
)

// Environment variables that override the YAML file.
const (
	EnvTemplatesDir = "MIGRATOR_TEMPLATES_DIR"
	EnvOutputDir    = "MIGRATOR_OUTPUT_DIR"
	EnvLogLevel     = "MIGRATOR_LOG_LEVEL"
	EnvLogFormat    = "MIGRATOR_LOG_FORMAT"
)

// Log output formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// DefaultOutputFormat names output files after the template and input.
const DefaultOutputFormat = "{template}_{suffix}.csv"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// TemplatesDir holds optional header override files, one per template
	// (plantilla_clientes_y_bonos.csv, plantilla-citas.csv, ...).
	// Default: "./templates"
	TemplatesDir string `yaml:"templates_dir"`

	// OutputDir is where generated CSV files, the run summary and the error
	// log are written. It is created when missing.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects human readable ("console") or JSON lines ("json").
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat defines the output file names.
	// Placeholders:
	//   {template}  - Template name (see OutputNames)
	//   {suffix}    - Sanitized input name or CSV folder code
	//   {date}      - Current date (YYYYMMDD)
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - A random UUID
	//
	// CUSTOMIZATION: Example "{suffix}/{template}.csv" groups outputs per input.
	// Default: "{template}_{suffix}.csv"
	OutputFormat string `yaml:"output_format"`

	// OutputNames replaces {template} for individual templates.
	//
	// CUSTOMIZATION: Use the destination platform's Spanish names:
	//   output_names:
	//     clients_and_bonuses: clientes_y_bonos
	//     appointments: citas
	OutputNames map[string]string `yaml:"output_names,omitempty"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// ContinueOnError keeps generating the remaining templates of an input
	// after one fails. When false the first failure aborts that input.
	// Default: false
	ContinueOnError bool `yaml:"continue_on_error"`

	// VerifyOutput re-reads every written file and checks it against its
	// header. Default: true
	VerifyOutput *bool `yaml:"verify_output,omitempty"`

	// WriteSummary writes migration_summary_<ts>.txt and, on failures,
	// error_log_<ts>.txt into OutputDir. Default: true
	WriteSummary *bool `yaml:"write_summary,omitempty"`

	// CSVFolder holds settings for CSV folder backups.
	CSVFolder CSVFolderSettings `yaml:"csv_folder"`
}

// CSVFolderSettings contains settings for reading CSV folder backups.
type CSVFolderSettings struct {
	// Encodings are tried in order until one decodes the file.
	// Default: ["windows-1252", "utf-8-sig", "utf-8"]
	Encodings []string `yaml:"encodings"`
}

// Verify reports whether written files are verified.
func (c *MainConfig) Verify() bool {
	return c.VerifyOutput == nil || *c.VerifyOutput
}

// Summary reports whether run summaries are written.
func (c *MainConfig) Summary() bool {
	return c.WriteSummary == nil || *c.WriteSummary
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is present.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration from a YAML file and applies
// the environment overlay.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//   - optional: When true a missing file is not an error and defaults apply.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or fails validation.
func LoadMainConfig(configPath string, optional bool) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&config, os.LookupEnv)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// applyEnv overlays MIGRATOR_* variables.
func applyEnv(config *MainConfig, lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&config.TemplatesDir, EnvTemplatesDir)
	set(&config.OutputDir, EnvOutputDir)
	set(&config.LogLevel, EnvLogLevel)
	set(&config.LogFormat, EnvLogFormat)
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.TemplatesDir == "" {
		config.TemplatesDir = "./templates"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = LogFormatConsole
	}
	if config.OutputFormat == "" {
		config.OutputFormat = DefaultOutputFormat
	}
	if len(config.CSVFolder.Encodings) == 0 {
		config.CSVFolder.Encodings = append([]string(nil), csvparser.DefaultEncodings...)
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	var errs []error

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", config.LogLevel))
	}

	switch strings.ToLower(config.LogFormat) {
	case LogFormatConsole, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log_format %q is not one of console, json", config.LogFormat))
	}

	for _, enc := range config.CSVFolder.Encodings {
		if !csvparser.KnownEncoding(enc) {
			errs = append(errs, fmt.Errorf("csv_folder.encodings: unknown encoding %q", enc))
		}
	}

	if strings.TrimSpace(strings.TrimSuffix(config.OutputFormat, ".csv")) == "" {
		errs = append(errs, errors.New("output_format must name a file"))
	}

	for name := range config.OutputNames {
		if _, ok := templates.Lookup(name); !ok {
			errs = append(errs, fmt.Errorf("output_names: unknown template %q", name))
		}
	}

	return errors.Join(errs...)
}
