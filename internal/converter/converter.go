// =============================================================================
// Clinic Template Migrator - Converter Module
// =============================================================================
//
// This module contains the per-input migration pipeline. It orchestrates the
// processing of one export, from reading the source to writing the five
// destination template files.
//
// CONVERSION PIPELINE:
//   1. Read the input with the selected source reader and classify entities
//   2. Ensure the output directory exists
//   3. For every selected template:
//      a. Resolve the header (override file or built-in)
//      b. Generate rows from the loaded entities
//      c. Write the CSV file
//      d. Verify the written file against its header
//   4. Report "no data generated" when every template came out empty
//
// CONCURRENCY:
//   Inputs are processed one after another, and templates of one input run
//   sequentially against the same loaded dataset. A Converter holds no
//   mutable state between inputs.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/config"
	"github.com/ginjaninja78/clinic-template-migrator/internal/csvwriter"
	"github.com/ginjaninja78/clinic-template-migrator/internal/format"
	"github.com/ginjaninja78/clinic-template-migrator/internal/sources"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
	"github.com/ginjaninja78/clinic-template-migrator/internal/validation"
	"github.com/ginjaninja78/clinic-template-migrator/pkg/utils"
)

// ErrNoData is returned when an input produced no rows in any template.
var ErrNoData = errors.New("no data generated")

// Failure stages.
const (
	StageLoad    = "load"
	StageHeaders = "headers"
	StageWrite   = "write"
	StageVerify  = "verify"
	StageData    = "data"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a migration run.
type Options struct {
	// Source selects the reader and generator set.
	Source sources.Kind

	// OutputDir receives the generated files.
	OutputDir string

	// TemplatesDir holds optional header override files. Empty means the
	// built-in headers are used.
	TemplatesDir string

	// Only restricts generation to the named templates. Empty means all.
	Only []string

	// OutputFormat is the file name pattern, see utils.GenerateOutputFileName.
	OutputFormat string

	// OutputNames replaces {template} for individual templates.
	OutputNames map[string]string

	// ContinueOnError keeps generating the remaining templates of an input
	// after one fails.
	ContinueOnError bool

	// Verify re-reads every written file.
	Verify bool

	// DryRun reads and generates but writes nothing.
	DryRun bool

	// Encodings are tried in order for CSV folder files.
	Encodings []string
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Output describes one generated template.
type Output struct {
	Template templates.Name

	// Path is empty on a dry run.
	Path    string
	Rows    int
	Columns int

	Coverage Coverage
}

// Failure is one failed step of an input.
type Failure struct {
	// Template is empty when the failure is not tied to one template.
	Template templates.Name
	Stage    string
	Err      error
}

func (f *Failure) Error() string {
	if f.Template != "" {
		return fmt.Sprintf("%s: %v", f.Template, f.Err)
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Result represents the outcome of processing a single input.
type Result struct {
	// Input is the processed file or folder.
	Input string

	// Suffix is the sanitized input name used in output file names.
	Suffix string

	Counts  types.Counts
	Outputs []Output

	// Success is true when no step failed.
	Success bool

	// Error joins every failure, or is nil.
	Error    error
	Failures []*Failure

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsGenerated is the number of data rows across all templates.
	RowsGenerated int

	TemplatesWritten int
	TemplatesFailed  int

	ProcessingTime time.Duration
}

func (r *Result) fail(template templates.Name, stage string, err error) {
	r.Failures = append(r.Failures, &Failure{Template: template, Stage: stage, Err: err})
	if template != "" {
		r.Stats.TemplatesFailed++
	}
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the migration pipeline for one source system.
type Converter struct {
	opts     Options
	selected []templates.Template
	names    map[templates.Name]string
	started  time.Time
	log      zerolog.Logger
}

// New creates a Converter.
//
// PARAMETERS:
//   - opts: The run options.
//   - log: The logger used for every input.
//
// RETURNS:
//   - A new Converter.
//   - An error if the source, the template selection, the output names or
//     the output pattern is invalid.
func New(opts Options, log zerolog.Logger) (*Converter, error) {
	if _, err := sources.ParseKind(string(opts.Source)); err != nil {
		return nil, err
	}

	selected, err := templates.Select(opts.Only)
	if err != nil {
		return nil, fmt.Errorf("failed to select templates: %w", err)
	}

	names := make(map[templates.Name]string, len(opts.OutputNames))
	for key, value := range opts.OutputNames {
		t, ok := templates.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("unknown template %q in output names", key)
		}
		names[t.Name] = value
	}

	if opts.OutputFormat == "" {
		opts.OutputFormat = config.DefaultOutputFormat
	}
	if len(selected) > 1 && !strings.Contains(opts.OutputFormat, "{template}") {
		return nil, fmt.Errorf("output format %q must contain {template} when several templates are generated", opts.OutputFormat)
	}

	return &Converter{
		opts:     opts,
		selected: selected,
		names:    names,
		started:  time.Now(),
		log:      log,
	}, nil
}

// Stamp is the run timestamp used in file names.
func (c *Converter) Stamp() string {
	return c.started.Format(utils.StampLayout)
}

// Started is the time the converter was created.
func (c *Converter) Started() time.Time {
	return c.started
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// RunAll processes inputs sequentially.
func (c *Converter) RunAll(inputs []string) []Result {
	results := make([]Result, 0, len(inputs))
	for i, input := range inputs {
		c.log.Info().Int("n", i+1).Int("of", len(inputs)).Str("input", input).Msg("processing input")
		results = append(results, c.Run(input))
	}
	return results
}

// Run executes the pipeline for one input.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
//
// PROCESSING STEPS:
//  1. Load and classify the input
//  2. Ensure the output directory exists
//  3. Generate, write and verify each selected template
//  4. Flag inputs that produced no rows or hold no patients
func (c *Converter) Run(input string) (result Result) {
	startTime := time.Now()
	log := c.log.With().Str("input", filepath.Base(input)).Logger()

	result = Result{Input: input, Suffix: c.suffix(input)}
	defer func() {
		result.Success = len(result.Failures) == 0
		errs := make([]error, len(result.Failures))
		for i, f := range result.Failures {
			errs[i] = f
		}
		result.Error = errors.Join(errs...)
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1: LOAD INPUT
	// =========================================================================

	ds, err := sources.Open(c.opts.Source, input, sources.Options{Encodings: c.opts.Encodings}, log)
	if err != nil {
		result.fail("", StageLoad, fmt.Errorf("failed to load input: %w", err))
		log.Error().Err(err).Msg("failed to load input")
		return result
	}

	result.Counts = ds.Counts()
	log.Info().
		Int("patients", result.Counts.Patients).
		Int("bonuses", result.Counts.Bonuses).
		Int("appointments", result.Counts.Appointments).
		Int("history", result.Counts.History).
		Msg("input loaded")

	// =========================================================================
	// STEP 2: PREPARE OUTPUT DIRECTORY
	// =========================================================================

	if !c.opts.DryRun {
		if err := utils.EnsureDir(c.opts.OutputDir); err != nil {
			result.fail("", StageWrite, err)
			log.Error().Err(err).Msg("output directory unavailable")
			return result
		}
	}

	// =========================================================================
	// STEP 3: GENERATE TEMPLATES
	// =========================================================================

	for _, t := range c.selected {
		tlog := log.With().Str("template", string(t.Name)).Logger()

		out, stage, err := c.generate(ds, t, result.Suffix, tlog)
		if err != nil {
			result.fail(t.Name, stage, err)
			tlog.Error().Err(err).Str("stage", stage).Msg("template failed")
			if !c.opts.ContinueOnError {
				tlog.Warn().Msg("skipping remaining templates for this input")
				break
			}
			continue
		}

		result.Outputs = append(result.Outputs, out)
		result.Stats.RowsGenerated += out.Rows
		if out.Path != "" {
			result.Stats.TemplatesWritten++
		}
	}

	// =========================================================================
	// STEP 4: EMPTY RESULT CHECK
	// =========================================================================

	if len(result.Failures) == 0 {
		switch {
		case result.Stats.RowsGenerated == 0:
			result.fail("", StageData, ErrNoData)
			log.Warn().Msg("input produced no rows")
		case result.Counts.Patients == 0:
			result.fail("", StageData, fmt.Errorf("%w: input has no patients", ErrNoData))
			log.Warn().Int("rows", result.Stats.RowsGenerated).Msg("input has no patients")
		}
	}

	return result
}

// generate produces one template. On failure it also names the stage.
func (c *Converter) generate(ds sources.Dataset, t templates.Template, suffix string, log zerolog.Logger) (Output, string, error) {
	headers, err := t.Headers(c.opts.TemplatesDir, log)
	if err != nil {
		return Output{}, StageHeaders, fmt.Errorf("failed to resolve headers: %w", err)
	}

	rows := ds.Generate(t.Name)
	coverage := Measure(rows, headers)
	out := Output{Template: t.Name, Rows: len(rows), Columns: len(headers), Coverage: coverage}

	log.Debug().
		Int("rows", len(rows)).
		Int("columns", len(headers)).
		Int("filled_columns", coverage.FilledColumns()).
		Strs("unmapped", coverage.Unmapped).
		Msg("rows generated")

	if c.opts.DryRun {
		log.Info().Int("rows", len(rows)).Int("filled_columns", coverage.FilledColumns()).Int("columns", len(headers)).Msg("dry run, not written")
		return out, "", nil
	}

	path := c.outputPath(t, suffix)
	n, err := csvwriter.Write(path, headers, rows)
	if err != nil {
		return out, StageWrite, fmt.Errorf("failed to write %s: %w", path, err)
	}
	out.Path, out.Rows = path, n

	if c.opts.Verify {
		vr, err := validation.ValidateFile(path, headers, validation.ValidationOptions{})
		if err != nil {
			return out, StageVerify, fmt.Errorf("failed to verify output: %w", err)
		}
		if err := vr.Err(); err != nil {
			return out, StageVerify, fmt.Errorf("output verification failed: %w", err)
		}
		if vr.WarningCount > 0 {
			log.Warn().Int("warnings", vr.WarningCount).Str("path", path).Msg("output verified with warnings")
		}
	}

	log.Info().Str("path", path).Int("rows", n).Msg("template written")
	return out, "", nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// suffix derives the output suffix from the input path.
func (c *Converter) suffix(input string) string {
	if sources.Info(c.opts.Source).InputIsDir {
		return format.FolderSuffix(input)
	}
	return format.SanitizeFilename(input)
}

// outputPath builds the output file path of one template.
func (c *Converter) outputPath(t templates.Template, suffix string) string {
	name, ok := c.names[t.Name]
	if !ok {
		name = string(t.Name)
	}
	stamp := c.Stamp()

	fileName := utils.GenerateOutputFileName(c.opts.OutputFormat, map[string]string{
		"template":  name,
		"suffix":    suffix,
		"timestamp": stamp,
		"date":      stamp[:8],
	})
	return filepath.Join(c.opts.OutputDir, fileName)
}

// =============================================================================
// RUN REPORTING
// =============================================================================

// Summarize folds results into a run summary.
func (c *Converter) Summarize(runID string, results []Result, end time.Time) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		RunID:       runID,
		Source:      string(c.opts.Source),
		DryRun:      c.opts.DryRun,
		StartTime:   c.started,
		EndTime:     end,
		TotalInputs: len(results),
	}

	for _, r := range results {
		in := utils.InputSummary{
			Input:       r.Input,
			Counts:      r.Counts,
			ProcessTime: r.Stats.ProcessingTime,
		}
		for _, out := range r.Outputs {
			in.Outputs = append(in.Outputs, utils.OutputSummary{Template: string(out.Template), Path: out.Path, Rows: out.Rows})
		}
		if r.Success {
			summary.SuccessfulInputs++
		} else {
			summary.FailedInputs++
			in.Error = r.Error.Error()
		}
		summary.TotalRows += r.Stats.RowsGenerated
		summary.Inputs = append(summary.Inputs, in)
	}
	return summary
}

// ErrorEntries lists every failure for the error log.
func ErrorEntries(results []Result, at time.Time) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, r := range results {
		for _, f := range r.Failures {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: at,
				Input:     r.Input,
				Template:  string(f.Template),
				Stage:     f.Stage,
				Message:   f.Err.Error(),
			})
		}
	}
	return entries
}
