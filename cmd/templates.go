// =============================================================================
// Clinic Template Migrator - Templates Command
// =============================================================================
//
// COMMAND USAGE:
//   migrator templates init --dir ./templates [--format csv|xlsx] [--force]
//   migrator templates list
//
// 'init' writes one header override file per template, pre-filled with the
// built-in header, so operators can reorder or rename columns by editing a
// file instead of the code. 'list' shows each template, its override file
// and the header the migrator would use right now.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/clinic-template-migrator/internal/csvwriter"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/xlsxparser"
	"github.com/ginjaninja78/clinic-template-migrator/pkg/utils"
)

// Override file formats.
const (
	overrideCSV  = "csv"
	overrideXLSX = "xlsx"
)

type templatesInitFlags struct {
	dir    string
	format string
	force  bool
}

// newTemplatesCmd builds the 'templates' command and its subcommands.
func newTemplatesCmd() *cobra.Command {
	var initOpts templatesInitFlags

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage header override files",
	}

	templatesInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Write header override files from the built-in headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := initOpts
			flags.dir = firstSet(flags.dir, mainConfig.TemplatesDir)
			return runTemplatesInit(cmd.OutOrStdout(), flags)
		},
	}

	templatesListCmd := &cobra.Command{
		Use:   "list",
		Short: "Show templates and the headers in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplatesList(cmd.OutOrStdout(), mainConfig.TemplatesDir)
		},
	}

	flags := templatesInitCmd.Flags()
	flags.StringVar(&initOpts.dir, "dir", "", "Directory to write to (defaults to templates_dir)")
	flags.StringVar(&initOpts.format, "format", overrideCSV, "Override file format: csv or xlsx")
	flags.BoolVar(&initOpts.force, "force", false, "Overwrite existing override files")

	templatesCmd.AddCommand(templatesInitCmd, templatesListCmd)
	return templatesCmd
}

// runTemplatesInit writes the override files.
//
// RETURNS:
//   - An error for an unknown format, an existing file without --force, or
//     a write failure.
func runTemplatesInit(out io.Writer, flags templatesInitFlags) error {
	format := strings.ToLower(strings.TrimSpace(flags.format))
	if format != overrideCSV && format != overrideXLSX {
		return fmt.Errorf("unknown format %q (expected csv or xlsx)", flags.format)
	}
	if err := utils.EnsureDir(flags.dir); err != nil {
		return err
	}

	for _, t := range templates.All {
		path := overridePath(flags.dir, t, format)
		if utils.FileExists(path) && !flags.force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		var err error
		if format == overrideXLSX {
			err = xlsxparser.WriteHeaderWorkbook(path, t.LegacyName, t.Fallback)
		} else {
			_, err = csvwriter.Write(path, t.Fallback, nil)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		logger.Debug().Str("template", string(t.Name)).Str("path", path).Msg("override written")
		fmt.Fprintf(out, "  %-20s %3d columns  %s\n", t.Name, len(t.Fallback), path)
	}
	return nil
}

// runTemplatesList prints each template with the header currently in effect.
func runTemplatesList(out io.Writer, dir string) error {
	for _, t := range templates.All {
		headers, err := t.Headers(dir, logger)
		if err != nil {
			return err
		}

		source := "built-in"
		if utils.FileExists(overridePath(dir, t, overrideCSV)) || utils.FileExists(overridePath(dir, t, overrideXLSX)) {
			source = "from override"
			if slices.Equal(headers, t.Fallback) {
				source = "override matches built-in"
			}
		}
		fmt.Fprintf(out, "%s (%s)\n", t.Name, t.LegacyName)
		fmt.Fprintf(out, "  override file: %s\n", filepath.Join(dir, t.OverrideFile))
		fmt.Fprintf(out, "  header:        %d columns, %s\n", len(headers), source)
	}
	return nil
}

// overridePath is the file init writes for t. Workbooks share the stem of
// the CSV override name.
func overridePath(dir string, t templates.Template, format string) string {
	name := t.OverrideFile
	if format == overrideXLSX {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".xlsx"
	}
	return filepath.Join(dir, name)
}
