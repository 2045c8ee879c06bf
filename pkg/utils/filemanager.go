// =============================================================================
// Clinic Template Migrator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the migrator, including:
//   - Input discovery (export files or CSV backup folders)
//   - Output file naming
//   - Run summary and error log generation
//
// Inputs are never moved or modified. Exports are handed over by the clinic
// and stay where they were found.
//
// CUSTOMIZATION:
//   - Add placeholders to GenerateOutputFileName
//   - Extend the summary with per-template totals
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

// Timestamp layouts used in file names and log bodies.
const (
	StampLayout   = "20060102_150405"
	dateLayout    = "20060102"
	displayLayout = "2006-01-02 15:04:05"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// INPUT DISCOVERY
// =============================================================================

// DiscoverInputs expands one --input argument into the inputs to process.
//
// PARAMETERS:
//   - path: A file or directory given by the operator.
//   - folderInputs: True when each input is itself a folder of CSV files.
//   - extensions: Accepted file extensions for file inputs (e.g. ".json").
//     Empty means every regular file.
//
// RETURNS:
//   - The inputs, sorted.
//   - An error if path does not exist or contains nothing usable.
//
// RULES:
//   - File inputs: a file is returned as is; a directory is walked
//     recursively and files with a matching extension are returned.
//   - Folder inputs: a directory holding CSV files is one input; otherwise
//     each direct subdirectory holding CSV files is an input.
func DiscoverInputs(path string, folderInputs bool, extensions []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access input %s: %w", path, err)
	}

	if folderInputs {
		if !info.IsDir() {
			return nil, fmt.Errorf("input %s must be a directory", path)
		}
		return discoverFolders(path)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}
	return discoverFiles(path, extensions)
}

func discoverFiles(dir string, extensions []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if hasExtension(path, extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk input directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no input files with extensions %v in %s", extensions, dir)
	}
	slices.Sort(files)
	return files, nil
}

func discoverFolders(dir string) ([]string, error) {
	if holdsCSV(dir) {
		return []string{dir}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var folders []string
	for _, e := range entries {
		sub := filepath.Join(dir, e.Name())
		if e.IsDir() && holdsCSV(sub) {
			folders = append(folders, sub)
		}
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("no CSV files found in %s or its subfolders", dir)
	}
	return folders, nil
}

func holdsCSV(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			return true
		}
	}
	return false
}

func hasExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, want := range extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {template}  - Template name
//     {suffix}    - Input suffix
//   - params: Placeholder values. Entries here take precedence over the
//     generated {uuid}, {timestamp} and {date}.
//
// RETURNS:
//   - The generated file name, always ending in .csv.
//
// EXAMPLE:
//
//	format: "{template}_{suffix}.csv"
//	params: {"template": "bonuses", "suffix": "export_2024"}
//	output: "bonuses_export_2024.csv"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format(StampLayout),
		"{date}":      now.Format(dateLayout),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".csv") {
		result += ".csv"
	}
	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp time.Time
	Input     string

	// Template is empty when the input failed before generation.
	Template string

	// Stage is where the failure happened: load, headers, write, verify, data.
	Stage   string
	Message string
}

// WriteErrorLog writes error entries to error_log_<stamp>.txt in outputDir.
// Nothing is written when there are no entries.
//
// RETURNS:
//   - The path to the error log file, or "" when nothing was written.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir, stamp string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", stamp))
	err := writeText(logPath, func(w *bufio.Writer) {
		fmt.Fprintf(w, "Clinic Template Migrator - Error Log\n"+
			"Generated: %s\n"+
			"Total Errors: %d\n"+
			"%s\n\n",
			time.Now().Format(displayLayout), len(entries), rule)

		for i, entry := range entries {
			fmt.Fprintf(w, "Error #%d\n", i+1)
			fmt.Fprintf(w, "  Timestamp: %s\n", entry.Timestamp.Format(displayLayout))
			fmt.Fprintf(w, "  Input:     %s\n", entry.Input)
			if entry.Template != "" {
				fmt.Fprintf(w, "  Template:  %s\n", entry.Template)
			}
			fmt.Fprintf(w, "  Stage:     %s\n", entry.Stage)
			fmt.Fprintf(w, "  Message:   %s\n\n", entry.Message)
		}

		fmt.Fprintf(w, "%s\nEnd of Error Log\n", rule)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a migration run.
type ProcessingSummary struct {
	RunID     string
	Source    string
	DryRun    bool
	StartTime time.Time
	EndTime   time.Time

	TotalInputs      int
	SuccessfulInputs int
	FailedInputs     int
	TotalRows        int

	Inputs []InputSummary
}

// InputSummary describes one processed input.
type InputSummary struct {
	Input   string
	Counts  types.Counts
	Outputs []OutputSummary

	// Error is empty on success.
	Error       string
	ProcessTime time.Duration
}

// OutputSummary describes one generated template file.
type OutputSummary struct {
	Template string

	// Path is empty on a dry run.
	Path string
	Rows int
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// WriteSummaryLog writes migration_summary_<stamp>.txt to outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir, stamp string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("migration_summary_%s.txt", stamp))

	err := writeText(summaryPath, func(w *bufio.Writer) {
		fmt.Fprintf(w, "Clinic Template Migrator - Migration Summary\n"+
			"%s\n\n"+
			"Run Information:\n"+
			"  Run ID:     %s\n"+
			"  Source:     %s\n"+
			"  Dry Run:    %t\n"+
			"  Start Time: %s\n"+
			"  End Time:   %s\n"+
			"  Duration:   %s\n\n"+
			"Statistics:\n"+
			"  Total Inputs: %d\n"+
			"  Successful:   %d\n"+
			"  Failed:       %d\n"+
			"  Total Rows:   %d\n\n",
			rule,
			summary.RunID,
			summary.Source,
			summary.DryRun,
			summary.StartTime.Format(displayLayout),
			summary.EndTime.Format(displayLayout),
			summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond),
			summary.TotalInputs,
			summary.SuccessfulInputs,
			summary.FailedInputs,
			summary.TotalRows)

		for _, in := range summary.Inputs {
			fmt.Fprintf(w, "Input: %s\n%s\n", in.Input, thinRule)
			fmt.Fprintf(w, "  Entities: patients=%d bonuses=%d appointments=%d history=%d\n",
				in.Counts.Patients, in.Counts.Bonuses, in.Counts.Appointments, in.Counts.History)
			for _, out := range in.Outputs {
				target := out.Path
				if target == "" {
					target = "(not written)"
				}
				fmt.Fprintf(w, "  %-20s %6d rows  %s\n", out.Template, out.Rows, target)
			}
			if in.Error != "" {
				fmt.Fprintf(w, "  Error: %s\n", in.Error)
			}
			fmt.Fprintf(w, "  Process Time: %s\n\n", in.ProcessTime.Round(time.Millisecond))
		}

		fmt.Fprintf(w, "%s\nEnd of Summary\n", rule)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

const (
	rule     = "================================================================================"
	thinRule = "--------------------------------------------------------------------------------"
)

// writeText creates path and fills it through a buffered writer.
func writeText(path string, fill func(w *bufio.Writer)) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	fill(w)
	return errors.Join(w.Flush(), file.Close())
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
