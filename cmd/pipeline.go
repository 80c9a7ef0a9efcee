// =============================================================================
// USDA Honey Report - Ingestion Pipeline
// =============================================================================
//
// This file holds the pipeline shared by the 'process' and 'validate'
// commands:
//
//   1. Discover colony and production files (lexical order)
//   2. Parse every file concurrently; results keep discovery order
//   3. Aggregate each category into its output table
//   4. Validate both tables
//
// Any fatal file error fails the run after all files have been attempted, so
// the error log names every broken file at once.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/honey-report/internal/aggregate"
	"github.com/ginjaninja78/honey-report/internal/config"
	"github.com/ginjaninja78/honey-report/internal/converter"
	"github.com/ginjaninja78/honey-report/internal/csvparser"
	"github.com/ginjaninja78/honey-report/internal/metrics"
	"github.com/ginjaninja78/honey-report/internal/types"
	"github.com/ginjaninja78/honey-report/internal/validation"
	"github.com/ginjaninja78/honey-report/pkg/utils"
)

// errFilesFailed is returned when at least one report file could not be parsed.
var errFilesFailed = errors.New("one or more report files failed")

// pipelineResult is everything a run produced.
type pipelineResult struct {
	Summary utils.ProcessingSummary

	ColonyResults     []converter.Result
	ProductionResults []converter.Result

	Production *types.Table
	Colony     *types.Table

	Validation []*validation.ValidationError
}

// failures returns the error log entries for the failed files of the run.
func (r *pipelineResult) failures() []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, results := range [][]converter.Result{r.ColonyResults, r.ProductionResults} {
		for _, res := range results {
			if res.Success {
				continue
			}
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    r.Summary.EndTime,
				FileName:     res.FilePath,
				ErrorType:    errorType(res.Error),
				ErrorMessage: res.Error.Error(),
			})
		}
	}
	return entries
}

// runPipeline parses, aggregates and validates all report files.
//
// PARAMETERS:
//   - cfg: The loaded configuration.
//   - log: The logger for the run.
//   - m: Metrics to record into; may be nil.
//
// RETURNS:
//   - The run result, populated as far as the run got.
//   - errFilesFailed when any file failed to parse, or an aggregation error.
func runPipeline(cfg *config.MainConfig, log *zap.Logger, m *metrics.Metrics) (*pipelineResult, error) {
	result := &pipelineResult{
		Summary: utils.ProcessingSummary{
			RunID:     utils.NewRunID(),
			StartTime: time.Now(),
		},
	}
	log = log.With(zap.String("run_id", result.Summary.RunID))
	defer func() { result.Summary.EndTime = time.Now() }()

	fm := utils.NewFileManager(cfg.ColonyDir, cfg.ProductionDir, cfg.OutputDir)

	colonyFiles, err := fm.DiscoverColonyFiles(cfg.FilePattern)
	if err != nil {
		return result, fmt.Errorf("failed to discover colony files: %w", err)
	}
	productionFiles, err := fm.DiscoverProductionFiles(cfg.FilePattern)
	if err != nil {
		return result, fmt.Errorf("failed to discover production files: %w", err)
	}
	log.Info("discovered report files",
		zap.Int("colony", len(colonyFiles)),
		zap.Int("production", len(productionFiles)),
	)

	opts := converter.Options{
		Delimiter:     cfg.Delimiter,
		RowMarker:     cfg.RowMarker,
		UnknownStates: converter.UnknownStatePolicy(cfg.UnknownStates),
	}
	result.ColonyResults = parseFiles(colonyFiles, converter.CategoryColony, opts, log, m)
	result.ProductionResults = parseFiles(productionFiles, converter.CategoryProduction, opts, log, m)

	result.Summary.TotalFiles = len(colonyFiles) + len(productionFiles)
	for _, results := range [][]converter.Result{result.ColonyResults, result.ProductionResults} {
		for _, res := range results {
			if !res.Success {
				result.Summary.FailedFiles++
				result.Summary.FailedFilesList = append(result.Summary.FailedFilesList, utils.FailedFileInfo{
					InputFile:    res.FilePath,
					ErrorMessage: res.Error.Error(),
				})
				log.Error("file failed", zap.String("file", res.FilePath), zap.Error(res.Error))
				continue
			}
			result.Summary.SuccessfulFiles++
			result.Summary.ProcessedFiles = append(result.Summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   res.FilePath,
				Category:    categoryOf(res),
				Blocks:      res.Stats.Blocks,
				Records:     res.Stats.Records,
				RowsDropped: res.Stats.RowsDropped,
				ProcessTime: res.Stats.ProcessingTime,
			})
		}
	}
	if result.Summary.FailedFiles > 0 {
		return result, fmt.Errorf("%d of %d files: %w", result.Summary.FailedFiles, result.Summary.TotalFiles, errFilesFailed)
	}

	agg := aggregate.New(
		aggregate.ProductionOptions{
			StartYear:      cfg.Production.StartYear,
			PrimaryQuarter: cfg.Production.PrimaryQuarter,
			FinalQuarter:   cfg.Production.FinalQuarter,
		},
		aggregate.ColonyOptions{
			StartYear:    cfg.Colony.StartYear,
			DropQuarters: cfg.Colony.DropQuarters,
		},
		log,
	)

	if result.Production, err = agg.Production(result.ProductionResults); err != nil {
		return result, fmt.Errorf("failed to aggregate production data: %w", err)
	}
	if result.Colony, err = agg.Colony(result.ColonyResults); err != nil {
		return result, fmt.Errorf("failed to aggregate colony data: %w", err)
	}
	result.Summary.ProductionRecords = result.Production.Len()
	result.Summary.ColonyRecords = result.Colony.Len()

	validator := validation.NewValidator(nil, validation.DefaultValidationOptions())
	for _, table := range []*types.Table{result.Production, result.Colony} {
		v := validator.Validate(table)
		result.Validation = append(result.Validation, v.Errors...)
		result.Summary.ValidationErrors += v.ErrorCount
		if v.WarningCount > 0 {
			log.Warn("validation warnings", zap.String("table", string(table.Kind)), zap.Int("warnings", v.WarningCount))
		}
	}

	return result, nil
}

// parseFiles converts each file in its own goroutine. The returned slice is
// in the same order as files.
func parseFiles(files []string, category converter.Category, opts converter.Options, log *zap.Logger, m *metrics.Metrics) []converter.Result {
	results := make([]converter.Result, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, filePath string) {
			defer wg.Done()
			results[i] = converter.New(filePath, category, opts, log, m).Run()
		}(i, file)
	}
	wg.Wait()

	return results
}

func categoryOf(res converter.Result) string {
	if _, ok := res.Tables[types.KindProduction]; ok {
		return string(converter.CategoryProduction)
	}
	return string(converter.CategoryColony)
}

func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, converter.ErrUnknownState):
		return "unknown_state"
	case errors.Is(err, csvparser.ErrBlockMismatch):
		return "block_mismatch"
	case errors.Is(err, csvparser.ErrTooManyBlocks):
		return "too_many_blocks"
	default:
		return "read_error"
	}
}
