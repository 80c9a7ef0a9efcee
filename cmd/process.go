// =============================================================================
// USDA Honey Report - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main command for turning raw
// USDA reports into the dashboard's output tables.
//
// COMMAND USAGE:
//   honeyreport process [flags]
//
// FLAGS:
//   --colony-dir      : Override the colony report directory
//   --production-dir  : Override the production report directory
//   --output-dir      : Override the output directory
//   --dry-run         : Parse, aggregate and validate without writing tables
//
// PROCESSING PIPELINE:
//   1. Discover and parse report files (see pipeline.go)
//   2. Aggregate and validate the production and colony tables
//   3. Write all_honey_data.csv, all_colony_data.csv, honey_report.xlsx
//   4. Write the processing summary, the error log and the metrics textfile
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/honey-report/internal/config"
	"github.com/ginjaninja78/honey-report/internal/metrics"
	"github.com/ginjaninja78/honey-report/internal/tablewriter"
	"github.com/ginjaninja78/honey-report/internal/validation"
	"github.com/ginjaninja78/honey-report/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun        bool
	colonyDir     string
	productionDir string
	outputDir     string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Parse USDA reports and write the tidy output tables",
	Long: `The process command reads every colony and production report, splits each
file into its period blocks, labels blocks with years and quarters, and writes
the combined tables to the output directory.

Files are labelled by their position in name order, so the first colony file
is the first colony year. A file whose block markers do not pair up, or that
names an unknown state, fails the run; no tables are written in that case and
an error log names the offending files.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		applyDirFlags(mainConfig)
		return runProcess(cmd, mainConfig, logger)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate without writing output tables")
	processCmd.Flags().StringVar(&colonyDir, "colony-dir", "", "Directory of colony/stressor report files")
	processCmd.Flags().StringVar(&productionDir, "production-dir", "", "Directory of production report files")
	processCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for output tables and logs")
}

// applyDirFlags lets command-line directories win over the configuration.
func applyDirFlags(cfg *config.MainConfig) {
	if colonyDir != "" {
		cfg.ColonyDir = colonyDir
	}
	if productionDir != "" {
		cfg.ProductionDir = productionDir
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates one processing run.
func runProcess(cmd *cobra.Command, cfg *config.MainConfig, log *zap.Logger) error {
	out := cmd.OutOrStdout()
	m := metrics.New()
	defer writeMetrics(cfg, m, log)

	fm := utils.NewFileManager(cfg.ColonyDir, cfg.ProductionDir, cfg.OutputDir)
	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	result, runErr := runPipeline(cfg, log, m)

	if runErr == nil && result.Summary.ValidationErrors > 0 {
		runErr = fmt.Errorf("%d validation error(s)", result.Summary.ValidationErrors)
		fmt.Fprint(out, validation.FormatErrors(result.Validation))
	}

	if runErr == nil && !dryRun {
		outputs, err := writeOutputs(cfg, fm, result, log)
		if err != nil {
			return err
		}
		result.Summary.Outputs = outputs
	}

	printSummary(cmd, result)

	if dryRun {
		return runErr
	}

	if entries := result.failures(); len(entries) > 0 {
		path, err := utils.WriteErrorLog(entries, cfg.OutputDir, result.Summary.RunID)
		if err != nil {
			log.Error("failed to write error log", zap.Error(err))
		} else {
			fmt.Fprintf(out, "Errors have been logged to %s\n", path)
		}
	}
	if len(result.Validation) > 0 {
		path := fm.OutputPath("validation_" + result.Summary.RunID[:8] + ".log")
		if err := validation.WriteErrorLog(result.Validation, path); err != nil {
			log.Error("failed to write validation log", zap.Error(err))
		}
	}

	summaryPath, err := utils.WriteSummaryLog(result.Summary, cfg.OutputDir)
	if err != nil {
		log.Error("failed to write summary", zap.Error(err))
	} else {
		log.Info("summary written", zap.String("path", summaryPath))
	}

	return runErr
}

// writeOutputs writes the enabled output formats and returns their paths.
func writeOutputs(cfg *config.MainConfig, fm *utils.FileManager, result *pipelineResult, log *zap.Logger) ([]string, error) {
	var outputs []string

	if cfg.WantsFormat("csv") {
		productionPath := fm.OutputPath(tablewriter.ProductionCSV)
		if err := tablewriter.WriteCSVFile(productionPath, result.Production); err != nil {
			return outputs, err
		}
		colonyPath := fm.OutputPath(tablewriter.ColonyCSV)
		if err := tablewriter.WriteCSVFile(colonyPath, result.Colony); err != nil {
			return outputs, err
		}
		outputs = append(outputs, productionPath, colonyPath)
	}

	if cfg.WantsFormat("xlsx") {
		workbookPath := fm.OutputPath(tablewriter.WorkbookXLSX)
		err := tablewriter.WriteXLSX(workbookPath,
			tablewriter.Sheet{Name: tablewriter.ProductionSheet, Table: result.Production},
			tablewriter.Sheet{Name: tablewriter.ColonySheet, Table: result.Colony},
		)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, workbookPath)
	}

	for _, path := range outputs {
		log.Info("wrote output", zap.String("path", path))
	}
	return outputs, nil
}

func writeMetrics(cfg *config.MainConfig, m *metrics.Metrics, log *zap.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Error("failed to write metrics", zap.Error(err))
	}
}

func printSummary(cmd *cobra.Command, result *pipelineResult) {
	out := cmd.OutOrStdout()
	s := result.Summary

	fmt.Fprintln(out, "=== Processing Complete ===")
	fmt.Fprintf(out, "Run ID:             %s\n", s.RunID)
	fmt.Fprintf(out, "Total files:        %d\n", s.TotalFiles)
	fmt.Fprintf(out, "Successful:         %d\n", s.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:             %d\n", s.FailedFiles)
	fmt.Fprintf(out, "Production records: %d\n", s.ProductionRecords)
	fmt.Fprintf(out, "Colony records:     %d\n", s.ColonyRecords)
	fmt.Fprintf(out, "Time elapsed:       %s\n", s.EndTime.Sub(s.StartTime))
	for _, ff := range s.FailedFilesList {
		fmt.Fprintf(out, "  ✗ %s: %s\n", ff.InputFile, ff.ErrorMessage)
	}
	for _, path := range s.Outputs {
		fmt.Fprintf(out, "  ✓ %s\n", path)
	}
}
