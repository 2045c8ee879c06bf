// =============================================================================
// Clinic Template Migrator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the migrator CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   migrator process   - Migrate exports into the destination templates
//   migrator templates - Write or list header override files
//   migrator verify    - Check generated files against their headers
//   migrator version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Source readers, generators, writer and validation
//   - pkg/       : File discovery, output naming and run logs
//   - templates/ : Optional header override files
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/clinic-template-migrator/cmd"
)

func main() {
	cmd.Execute()
}
