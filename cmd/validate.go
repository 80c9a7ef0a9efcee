// =============================================================================
// USDA Honey Report - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It runs the full parse and
// aggregation pipeline but writes nothing, then reports per-file block and
// record counts and any table validation errors.
//
// COMMAND USAGE:
//   honeyreport validate [--colony-dir DIR] [--production-dir DIR]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/honey-report/internal/validation"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and check all reports without writing output",
	Long: `The validate command parses every colony and production report, builds
both output tables in memory and checks them: every state is known, every
(state, period) key is unique and every period is well formed.

The exit status is non-zero when any file fails to parse or any table check
reports an error.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		applyDirFlags(mainConfig)
		out := cmd.OutOrStdout()

		result, err := runPipeline(mainConfig, logger, nil)

		for _, pf := range result.Summary.ProcessedFiles {
			fmt.Fprintf(out, "✓ %s (%s): %d blocks, %d records, %d rows dropped\n",
				pf.InputFile, pf.Category, pf.Blocks, pf.Records, pf.RowsDropped)
		}
		for _, ff := range result.Summary.FailedFilesList {
			fmt.Fprintf(out, "✗ %s: %s\n", ff.InputFile, ff.ErrorMessage)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Production records: %d\n", result.Summary.ProductionRecords)
		fmt.Fprintf(out, "Colony records:     %d\n", result.Summary.ColonyRecords)
		fmt.Fprintln(out, validation.FormatErrors(result.Validation))

		if result.Summary.ValidationErrors > 0 {
			return fmt.Errorf("%d validation error(s)", result.Summary.ValidationErrors)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&colonyDir, "colony-dir", "", "Directory of colony/stressor report files")
	validateCmd.Flags().StringVar(&productionDir, "production-dir", "", "Directory of production report files")
}
