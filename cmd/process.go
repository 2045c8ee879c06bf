// =============================================================================
// Clinic Template Migrator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which migrates one or more
// exports of a single source system into the destination templates.
//
// COMMAND USAGE:
//   migrator process --source <clinni|dricloud|mnprogram> --input <path> [flags]
//
// FLAGS:
//   --source            : Source system (required)
//   --input             : Export file, folder of exports or CSV backup folder (repeatable)
//   --output            : Output directory (overrides output_dir)
//   --templates         : Header override directory (overrides templates_dir)
//   --only              : Generate only the named templates (repeatable)
//   --dry-run           : Read and generate without writing anything
//   --continue-on-error : Keep generating the remaining templates after a failure
//
// PROCESSING PIPELINE:
//   1. Resolve the source system and discover inputs
//   2. For each input, sequentially:
//      a. Read and classify the export
//      b. Generate, write and verify each template
//   3. Print the results and write the run summary and error log
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/clinic-template-migrator/internal/config"
	"github.com/ginjaninja78/clinic-template-migrator/internal/converter"
	"github.com/ginjaninja78/clinic-template-migrator/internal/sources"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processFlags holds the process command flags.
type processFlags struct {
	source          string
	inputs          []string
	output          string
	templates       string
	only            []string
	dryRun          bool
	continueOnError bool
}

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// newProcessCmd builds the 'process' command with its own flag state.
func newProcessCmd() *cobra.Command {
	var opts processFlags

	processCmd := &cobra.Command{
		Use:   "process [input...]",
		Short: "Migrate exports into the destination CSV templates",
		Long: `The process command reads each input with the reader of the selected source
system and writes the five destination templates for it.

Inputs are processed one after another. A failing input does not stop the
others; the command exits with an error when any input failed.

For every input:
  - Output files are named after the template and the input
  - Each written file is re-read and checked against its header
  - An input that yields no rows at all is reported as "no data generated"

After the run a migration summary, and an error log when something failed,
are written to the output directory.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			flags := opts
			flags.inputs = append(append([]string(nil), flags.inputs...), args...)
			return runProcess(cmd.OutOrStdout(), mainConfig, flags)
		},
	}

	flags := processCmd.Flags()
	flags.StringVar(&opts.source, "source", "", "Source system: clinni, dricloud or mnprogram")
	flags.StringArrayVar(&opts.inputs, "input", nil, "Input file or directory (repeatable)")
	flags.StringVar(&opts.output, "output", "", "Output directory (overrides output_dir)")
	flags.StringVar(&opts.templates, "templates", "", "Header override directory (overrides templates_dir)")
	flags.StringArrayVar(&opts.only, "only", nil, fmt.Sprintf("Generate only these templates (repeatable): %v", templates.Names()))
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Read and generate without writing output files")
	flags.BoolVar(&opts.continueOnError, "continue-on-error", false, "Keep generating remaining templates after a template fails")

	_ = processCmd.MarkFlagRequired("source")
	return processCmd
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates a migration run.
func runProcess(out io.Writer, cfg *config.MainConfig, flags processFlags) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: RESOLVE SOURCE AND INPUTS
	// =========================================================================

	kind, err := sources.ParseKind(flags.source)
	if err != nil {
		return err
	}
	if len(flags.inputs) == 0 {
		return errors.New("at least one --input is required")
	}

	info := sources.Info(kind)
	var inputs []string
	for _, in := range flags.inputs {
		found, err := utils.DiscoverInputs(in, info.InputIsDir, info.Extensions)
		if err != nil {
			return fmt.Errorf("failed to discover inputs: %w", err)
		}
		inputs = append(inputs, found...)
	}

	outputDir := firstSet(flags.output, cfg.OutputDir)
	templatesDir := firstSet(flags.templates, cfg.TemplatesDir)

	logger.Info().
		Str("source", info.Name).
		Int("inputs", len(inputs)).
		Str("output", outputDir).
		Str("templates", templatesDir).
		Bool("dry_run", flags.dryRun).
		Msg("starting migration")

	// =========================================================================
	// STEP 2: PROCESS INPUTS
	// =========================================================================

	conv, err := converter.New(converter.Options{
		Source:          kind,
		OutputDir:       outputDir,
		TemplatesDir:    templatesDir,
		Only:            flags.only,
		OutputFormat:    cfg.OutputFormat,
		OutputNames:     cfg.OutputNames,
		ContinueOnError: flags.continueOnError || cfg.ContinueOnError,
		Verify:          cfg.Verify(),
		DryRun:          flags.dryRun,
		Encodings:       cfg.CSVFolder.Encodings,
	}, logger)
	if err != nil {
		return err
	}

	results := conv.RunAll(inputs)

	// =========================================================================
	// STEP 3: REPORT
	// =========================================================================

	summary := conv.Summarize(utils.NewRunID(), results, time.Now())

	fmt.Fprintf(out, "=== Clinic Template Migrator (%s) ===\n", info.Name)
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(out, "  ✓ %s\n", filepath.Base(r.Input))
		} else {
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(r.Input), r.Error)
		}
		for _, o := range r.Outputs {
			target := o.Path
			if target == "" {
				target = "(dry run)"
			}
			fmt.Fprintf(out, "      %-20s %6d rows  %s\n", o.Template, o.Rows, target)
		}
	}

	if cfg.Summary() && !flags.dryRun {
		stamp := conv.Stamp()
		if err := utils.EnsureDir(outputDir); err != nil {
			logger.Warn().Err(err).Msg("output directory unavailable for run logs")
		} else if path, err := utils.WriteSummaryLog(summary, outputDir, stamp); err != nil {
			logger.Warn().Err(err).Msg("failed to write migration summary")
		} else {
			fmt.Fprintf(out, "Summary:   %s\n", path)
		}
		if path, err := utils.WriteErrorLog(converter.ErrorEntries(results, time.Now()), outputDir, stamp); err != nil {
			logger.Warn().Err(err).Msg("failed to write error log")
		} else if path != "" {
			fmt.Fprintf(out, "Error log: %s\n", path)
		}
	}

	fmt.Fprintf(out, "Inputs: %d  Successful: %d  Failed: %d  Rows: %d  Time: %s\n",
		summary.TotalInputs, summary.SuccessfulInputs, summary.FailedInputs, summary.TotalRows,
		time.Since(startTime).Round(time.Millisecond))

	if summary.FailedInputs > 0 {
		return fmt.Errorf("%d of %d inputs failed", summary.FailedInputs, summary.TotalInputs)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// firstSet returns flag when it was given, else the configured value.
func firstSet(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}
