// =============================================================================
// Clinic Template Migrator - Verify Command
// =============================================================================
//
// COMMAND USAGE:
//   migrator verify [--template <name>] FILE...
//
// Checks already generated files before they are handed to the destination
// platform: UTF-8 BOM, header equal to the template header in effect, and
// every record as wide as the header. Without --template the template is
// taken from the file name prefix (appointments_x.csv, citas_x.csv, ...).
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/clinic-template-migrator/internal/config"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/validation"
)

type verifyFlags struct {
	template  string
	templates string
	maxErrors int
}

// newVerifyCmd builds the 'verify' command with its own flag state.
func newVerifyCmd() *cobra.Command {
	var opts verifyFlags

	verifyCmd := &cobra.Command{
		Use:   "verify FILE...",
		Short: "Check generated files against their template header",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.OutOrStdout(), mainConfig, opts, args)
		},
	}

	flags := verifyCmd.Flags()
	flags.StringVar(&opts.template, "template", "", "Template of every file (default: from the file name)")
	flags.StringVar(&opts.templates, "templates", "", "Header override directory (overrides templates_dir)")
	flags.IntVar(&opts.maxErrors, "max-errors", 20, "Stop reporting row errors per file after this many")
	return verifyCmd
}

// runVerify validates each file and prints the findings.
//
// RETURNS:
//   - An error when a template cannot be determined or any file is invalid.
func runVerify(out io.Writer, cfg *config.MainConfig, flags verifyFlags, files []string) error {
	templatesDir := firstSet(flags.templates, cfg.TemplatesDir)

	var fixed *templates.Template
	if flags.template != "" {
		t, ok := templates.Lookup(flags.template)
		if !ok {
			return fmt.Errorf("unknown template %q (expected one of %v)", flags.template, templates.Names())
		}
		fixed = &t
	}

	invalid := 0
	for _, file := range files {
		var t templates.Template
		ok := true
		if fixed != nil {
			t = *fixed
		} else {
			t, ok = templateForFile(file, cfg.OutputNames)
		}
		if !ok {
			return fmt.Errorf("cannot tell the template of %s (use --template)", file)
		}

		headers, err := t.Headers(templatesDir, logger)
		if err != nil {
			return err
		}

		result, err := validation.ValidateFile(file, headers, validation.ValidationOptions{MaxErrors: flags.maxErrors})
		if err != nil {
			return err
		}

		if result.IsValid {
			fmt.Fprintf(out, "  ✓ %s (%s, %d rows, %d warnings)\n", file, t.Name, result.RowsValidated, result.WarningCount)
		} else {
			invalid++
			fmt.Fprintf(out, "  ✗ %s (%s, %d errors)\n", file, t.Name, result.ErrorCount)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(out, "      %s\n", e.Error())
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d files failed verification", invalid, len(files))
	}
	return nil
}

// templateForFile matches a file name prefix against template names, legacy
// names and configured output names. The longest matching prefix wins.
func templateForFile(path string, outputNames map[string]string) (templates.Template, bool) {
	base := strings.ToLower(filepath.Base(path))

	type candidate struct {
		prefix string
		t      templates.Template
	}
	var candidates []candidate
	for _, t := range templates.All {
		candidates = append(candidates,
			candidate{string(t.Name), t},
			candidate{t.LegacyName, t},
		)
	}
	for key, name := range outputNames {
		if t, ok := templates.Lookup(key); ok && name != "" {
			candidates = append(candidates, candidate{strings.ToLower(name), t})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].prefix) > len(candidates[j].prefix)
	})

	for _, c := range candidates {
		if base == c.prefix+".csv" || strings.HasPrefix(base, c.prefix+"_") {
			return c.t, true
		}
	}
	return templates.Template{}, false
}
