// =============================================================================
// USDA Honey Report - Main Entry Point
// =============================================================================
//
// This is the main entry point for the honeyreport CLI. It initializes the
// Cobra CLI framework and delegates command execution to the cmd package.
//
// USAGE:
//   honeyreport process    - Parse reports and write the output tables
//   honeyreport validate   - Parse and check reports without writing
//   honeyreport serve      - Serve the output tables to the dashboard
//   honeyreport version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Parsing, aggregation, output and API packages
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/honey-report/cmd"
)

func main() {
	cmd.Execute()
}
