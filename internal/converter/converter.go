// =============================================================================
// USDA Honey Report - Converter Module
// =============================================================================
//
// This module turns one raw report file into typed per-file tables. It
// orchestrates the parsing pipeline for a single file:
//
// CONVERSION PIPELINE:
//   1. Read and normalize every line of the file
//   2. For each schema of the file's category (colony files hold two):
//      a. Classify data rows by field count and row-type marker
//      b. Segment the rows into period blocks (Q1, Q2, ...)
//      c. Type every block row into a state record
//   3. Return one table per schema, records in file order
//
// ERROR HANDLING:
//   - Unparseable numbers become missing values and never fail the file
//   - Rows with an empty state are dropped
//   - Mismatched block markers and unknown states fail the file; the error
//     is a *FileError naming the offending file
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/honey-report/internal/csvparser"
	"github.com/ginjaninja78/honey-report/internal/metrics"
	"github.com/ginjaninja78/honey-report/internal/states"
	"github.com/ginjaninja78/honey-report/internal/types"
)

// =============================================================================
// CATEGORIES
// =============================================================================

// Category is a dataset category: a directory of report files sharing a layout.
type Category string

const (
	// CategoryColony files hold colony-count and stressor tables.
	CategoryColony Category = "colony"

	// CategoryProduction files hold the yearly honey production table.
	CategoryProduction Category = "production"
)

// Schemas returns the raw row schemas found in files of the category.
func (c Category) Schemas() []types.Schema {
	switch c {
	case CategoryColony:
		return []types.Schema{types.ColonySchema, types.StressorSchema}
	case CategoryProduction:
		return []types.Schema{types.ProductionSchema}
	}
	return nil
}

// =============================================================================
// OPTIONS
// =============================================================================

// UnknownStatePolicy decides what happens to rows whose state is not in the
// lookup table.
type UnknownStatePolicy string

const (
	// UnknownStateFail aborts the file.
	UnknownStateFail UnknownStatePolicy = "fail"

	// UnknownStateSkip drops the row with a warning.
	UnknownStateSkip UnknownStatePolicy = "skip"
)

// Options configure how raw files are read.
type Options struct {
	Delimiter     string
	RowMarker     string
	UnknownStates UnknownStatePolicy
	Lookup        *states.Lookup
}

func (o Options) withDefaults() Options {
	if o.Delimiter == "" {
		o.Delimiter = csvparser.DefaultDelimiter
	}
	if o.RowMarker == "" {
		o.RowMarker = csvparser.DefaultRowMarker
	}
	if o.UnknownStates == "" {
		o.UnknownStates = UnknownStateFail
	}
	if o.Lookup == nil {
		o.Lookup = states.Default
	}
	return o
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// FileError is a fatal ingestion error for one file.
type FileError struct {
	Path string
	Kind types.Kind
	Err  error
}

func (e *FileError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result represents the outcome of converting a single file.
type Result struct {
	// FilePath is the path to the input file.
	FilePath string

	// Tables holds one table per schema of the file's category.
	Tables map[types.Kind]*types.Table

	// Quarters lists the block labels found per table kind, in file order.
	Quarters map[types.Kind][]string

	// Success indicates whether the conversion succeeded.
	Success bool

	// Error is a *FileError when conversion failed.
	Error error

	// Stats contains conversion statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about one file.
type ProcessingStats struct {
	LinesRead      int
	RowsClassified int
	Blocks         int
	Records        int
	RowsDropped    int
	MissingValues  int
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER
// =============================================================================

// Converter handles the conversion of a single report file.
type Converter struct {
	filePath    string
	category    Category
	opts        Options
	transformer *Transformer
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// New creates a Converter for one file. logger and m may be nil.
func New(filePath string, category Category, opts Options, logger *zap.Logger, m *metrics.Metrics) *Converter {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		filePath:    filePath,
		category:    category,
		opts:        opts,
		transformer: NewTransformer(opts.Lookup),
		logger:      logger.With(zap.String("file", filePath), zap.String("category", string(category))),
		metrics:     m,
	}
}

// Run executes the conversion pipeline for the file.
func (c *Converter) Run() Result {
	startTime := time.Now()
	result := Result{
		FilePath: c.filePath,
		Tables:   make(map[types.Kind]*types.Table),
		Quarters: make(map[types.Kind][]string),
	}

	schemas := c.category.Schemas()
	if len(schemas) == 0 {
		result.Error = &FileError{Path: c.filePath, Err: fmt.Errorf("unknown category %q", c.category)}
		return result
	}

	lines, err := csvparser.ReadFile(c.filePath, c.opts.Delimiter)
	if err != nil {
		result.Error = &FileError{Path: c.filePath, Err: err}
		return result
	}
	result.Stats.LinesRead = len(lines)
	c.logger.Debug("read lines", zap.Int("lines", len(lines)))

	for _, schema := range schemas {
		table, quarters, err := c.convertSchema(lines, schema, &result.Stats)
		if err != nil {
			result.Error = &FileError{Path: c.filePath, Kind: schema.Kind, Err: err}
			return result
		}
		result.Tables[schema.Kind] = table
		result.Quarters[schema.Kind] = quarters
	}

	c.metrics.FileParsed(string(c.category))
	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	c.logger.Info("converted file",
		zap.Int("blocks", result.Stats.Blocks),
		zap.Int("records", result.Stats.Records),
		zap.Int("rows_dropped", result.Stats.RowsDropped),
		zap.Int("missing_values", result.Stats.MissingValues),
		zap.Duration("elapsed", result.Stats.ProcessingTime),
	)
	return result
}

// convertSchema classifies, segments and types the rows of one schema.
func (c *Converter) convertSchema(lines []csvparser.RawLine, schema types.Schema, stats *ProcessingStats) (*types.Table, []string, error) {
	rows := csvparser.Classify(lines, schema.Arity, c.opts.RowMarker)
	stats.RowsClassified += len(rows)

	blocks, err := csvparser.Segment(rows, c.segmentOptions(schema))
	if err != nil {
		return nil, nil, err
	}
	stats.Blocks += len(blocks)
	c.metrics.BlocksSegmented(string(schema.Kind), len(blocks))

	c.logger.Debug("segmented rows",
		zap.String("kind", string(schema.Kind)),
		zap.Int("rows", len(rows)),
		zap.Int("blocks", len(blocks)),
	)

	table := &types.Table{
		Kind:    schema.Kind,
		Columns: append([]string(nil), schema.Columns...),
		Labels:  []string{types.ColQuarter},
	}
	quarters := make([]string, 0, len(blocks))

	for _, block := range blocks {
		records, err := c.TypeBlock(block, schema, stats)
		if err != nil {
			return nil, nil, fmt.Errorf("block %s: %w", block.Quarter, err)
		}
		table.Records = append(table.Records, records...)
		quarters = append(quarters, block.Quarter)
	}

	stats.Records += len(table.Records)
	c.metrics.RecordsProduced(string(schema.Kind), len(table.Records))
	return table, quarters, nil
}

func (c *Converter) segmentOptions(schema types.Schema) csvparser.SegmentOptions {
	first := c.opts.Lookup.First()
	last := c.opts.Lookup.Last()
	firstCode, _ := c.opts.Lookup.Code(first)
	lastCode, _ := c.opts.Lookup.Code(last)

	return csvparser.SegmentOptions{
		First:       first,
		Last:        last,
		FirstCode:   firstCode,
		LastCode:    lastCode,
		AcceptCodes: schema.AcceptCodes,
		StateField:  types.StateField,
	}
}

// TypeBlock promotes the rows of one period block to state records.
//
// The table number and row-type marker columns are dropped, the remaining
// fields are named after the schema columns, sentinel tokens are replaced and
// numbers parsed. Rows with an empty state are discarded.
func (c *Converter) TypeBlock(block csvparser.PeriodBlock, schema types.Schema, stats *ProcessingStats) ([]types.Record, error) {
	if stats == nil {
		stats = &ProcessingStats{}
	}
	records := make([]types.Record, 0, len(block.Rows))

	for _, row := range block.Rows {
		rawState := strings.TrimSpace(row.Field(types.StateField))
		if rawState == "" {
			stats.RowsDropped++
			c.metrics.RowDropped(string(schema.Kind), "blank_state")
			continue
		}

		name, code, err := c.transformer.MapState(rawState)
		if err != nil {
			if c.opts.UnknownStates == UnknownStateSkip && errors.Is(err, ErrUnknownState) {
				stats.RowsDropped++
				c.metrics.RowDropped(string(schema.Kind), "unknown_state")
				c.logger.Warn("skipping row with unknown state",
					zap.String("kind", string(schema.Kind)),
					zap.String("state", rawState),
					zap.String("quarter", block.Quarter),
				)
				continue
			}
			return nil, err
		}

		values := make(map[string]*float64, len(schema.Columns))
		for i, column := range schema.Columns {
			v := c.transformer.Coerce(row.Field(types.StateField + 1 + i))
			if v == nil {
				stats.MissingValues++
				c.metrics.MissingValue(string(schema.Kind), column)
			}
			values[column] = v
		}

		records = append(records, types.Record{
			State:     name,
			StateCode: code,
			Quarter:   block.Quarter,
			Values:    values,
		})
	}

	return records, nil
}
