// =============================================================================
// USDA Honey Report - File-Set Aggregator
// =============================================================================
//
// This module combines the per-file tables of one dataset category into the
// two output tables:
//
// PRODUCTION (yearly):
//   - File i contributes its primary-quarter block labelled StartYear+i
//   - The final file additionally contributes its final-quarter block,
//     labelled with the year after the last file's year
//   - The quarter column is dropped
//
// COLONY / STRESSOR (quarterly):
//   - File i is labelled StartYear+i
//   - Duplicate-coverage quarters (Q5, Q6) are dropped
//   - Colony and stressor records are merged on (state, year, quarter)
//   - The period key is year ++ quarter, e.g. "2016Q3"
//
// Input tables are never modified; every output record is a copy.
//
// =============================================================================

package aggregate

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ginjaninja78/honey-report/internal/converter"
	"github.com/ginjaninja78/honey-report/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingBlock is returned when a file lacks a block the aggregation
	// rules require.
	ErrMissingBlock = errors.New("required period block missing")

	// ErrMergeMismatch is returned when colony and stressor records of a file
	// set do not cover the same (state, year, quarter) keys.
	ErrMergeMismatch = errors.New("colony and stressor records do not align")
)

// =============================================================================
// OPTIONS
// =============================================================================

// ProductionOptions control yearly production aggregation.
type ProductionOptions struct {
	StartYear      int
	PrimaryQuarter string
	FinalQuarter   string
}

// DefaultProductionOptions label files from 2000 and take the 2018 figures
// from the Q2 block of the last file.
func DefaultProductionOptions() ProductionOptions {
	return ProductionOptions{StartYear: 2000, PrimaryQuarter: "Q1", FinalQuarter: "Q2"}
}

// ColonyOptions control quarterly colony/stressor aggregation.
type ColonyOptions struct {
	StartYear    int
	DropQuarters []string
}

// DefaultColonyOptions label files from 2015 and drop the Q5/Q6 windows.
func DefaultColonyOptions() ColonyOptions {
	return ColonyOptions{StartYear: 2015, DropQuarters: []string{"Q5", "Q6"}}
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator combines converter results. The zero value is not usable; call
// New.
type Aggregator struct {
	production ProductionOptions
	colony     ColonyOptions
	logger     *zap.Logger
}

// New creates an Aggregator. A nil logger discards output.
func New(production ProductionOptions, colony ColonyOptions, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{production: production, colony: colony, logger: logger}
}

// Production builds the yearly production table from per-file results given
// in file order.
//
// PARAMETERS:
//   - results: One successful converter result per production file.
//
// RETURNS:
//   - A table labelled by year only, one record per (state, year).
//   - ErrMissingBlock when a file lacks its primary block, or the final file
//     lacks the final-quarter block.
func (a *Aggregator) Production(results []converter.Result) (*types.Table, error) {
	out := &types.Table{
		Kind:    types.KindProduction,
		Columns: append([]string(nil), types.ProductionSchema.Columns...),
		Labels:  []string{types.ColYear},
	}
	if len(results) == 0 {
		return out, nil
	}

	opts := a.production
	for i, result := range results {
		table := result.Tables[types.KindProduction]
		year := opts.StartYear + i

		records, err := selectQuarter(result.FilePath, table, opts.PrimaryQuarter)
		if err != nil {
			return nil, err
		}
		out.Records = append(out.Records, yearly(records, year)...)
		a.logger.Debug("production file labelled",
			zap.String("file", result.FilePath),
			zap.String("quarter", opts.PrimaryQuarter),
			zap.Int("year", year),
			zap.Int("records", len(records)),
		)
	}

	last := results[len(results)-1]
	finalYear := opts.StartYear + len(results)
	records, err := selectQuarter(last.FilePath, last.Tables[types.KindProduction], opts.FinalQuarter)
	if err != nil {
		return nil, err
	}
	out.Records = append(out.Records, yearly(records, finalYear)...)

	a.logger.Info("aggregated production",
		zap.Int("files", len(results)),
		zap.Int("first_year", opts.StartYear),
		zap.Int("last_year", finalYear),
		zap.Int("records", len(out.Records)),
	)
	return out, nil
}

// Colony builds the combined quarterly colony/stressor table from per-file
// results given in file order.
//
// PARAMETERS:
//   - results: One successful converter result per colony file; each must
//     hold both a colony and a stressor table.
//
// RETURNS:
//   - A table with stressor then colony measurements, labelled by quarter,
//     year and period.
//   - ErrMergeMismatch when the colony and stressor keys differ.
func (a *Aggregator) Colony(results []converter.Result) (*types.Table, error) {
	out := &types.Table{
		Kind:    types.KindColonyStressor,
		Columns: mergeColumns(types.StressorSchema.Columns, types.ColonySchema.Columns),
		Labels:  []string{types.ColQuarter, types.ColYear, types.ColPeriod},
	}

	drop := make(map[string]bool, len(a.colony.DropQuarters))
	for _, q := range a.colony.DropQuarters {
		drop[q] = true
	}

	var stressors, colonies []types.Record
	for i, result := range results {
		year := a.colony.StartYear + i

		stressor, ok := result.Tables[types.KindStressor]
		if !ok || stressor == nil {
			return nil, fmt.Errorf("%s: no stressor table: %w", result.FilePath, ErrMissingBlock)
		}
		colony, ok := result.Tables[types.KindColony]
		if !ok || colony == nil {
			return nil, fmt.Errorf("%s: no colony table: %w", result.FilePath, ErrMissingBlock)
		}

		stressors = append(stressors, labelYear(keepQuarters(stressor.Records, drop), year)...)
		colonies = append(colonies, labelYear(keepQuarters(colony.Records, drop), year)...)
	}

	merged, err := Merge(stressors, colonies)
	if err != nil {
		return nil, err
	}
	out.Records = merged

	a.logger.Info("aggregated colony data",
		zap.Int("files", len(results)),
		zap.Int("records", len(out.Records)),
	)
	return out, nil
}

// =============================================================================
// MERGE
// =============================================================================

type mergeKey struct {
	state   string
	year    int
	quarter string
}

func keyOf(r types.Record) mergeKey {
	return mergeKey{state: r.State, year: r.Year, quarter: r.Quarter}
}

// Merge joins two record sequences on (state, year, quarter). The output keeps
// the order of left; values of right are added, and a column present on both
// sides keeps the left value. Every output record carries its period key.
func Merge(left, right []types.Record) ([]types.Record, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("%d stressor records, %d colony records: %w", len(left), len(right), ErrMergeMismatch)
	}

	index := make(map[mergeKey]types.Record, len(right))
	for _, r := range right {
		k := keyOf(r)
		if _, dup := index[k]; dup {
			return nil, fmt.Errorf("duplicate key %s %s: %w", r.State, types.PeriodKey(r.Year, r.Quarter), ErrMergeMismatch)
		}
		index[k] = r
	}

	out := make([]types.Record, 0, len(left))
	for _, l := range left {
		k := keyOf(l)
		r, ok := index[k]
		if !ok {
			return nil, fmt.Errorf("no colony record for %s %s: %w", l.State, types.PeriodKey(l.Year, l.Quarter), ErrMergeMismatch)
		}
		delete(index, k)

		rec := l.Clone()
		for col, v := range r.Clone().Values {
			if _, exists := rec.Values[col]; !exists {
				rec.Values[col] = v
			}
		}
		rec.Period = types.PeriodKey(rec.Year, rec.Quarter)
		out = append(out, rec)
	}

	return out, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func selectQuarter(path string, table *types.Table, quarter string) ([]types.Record, error) {
	if table == nil {
		return nil, fmt.Errorf("%s: no production table: %w", path, ErrMissingBlock)
	}
	var out []types.Record
	for _, r := range table.Records {
		if r.Quarter == quarter {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no %s block: %w", path, quarter, ErrMissingBlock)
	}
	return out, nil
}

func keepQuarters(records []types.Record, drop map[string]bool) []types.Record {
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if !drop[r.Quarter] {
			out = append(out, r)
		}
	}
	return out
}

// labelYear copies records and stamps the year.
func labelYear(records []types.Record, year int) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		c := r.Clone()
		c.Year = year
		out[i] = c
	}
	return out
}

// yearly labels records with a year and drops the quarter.
func yearly(records []types.Record, year int) []types.Record {
	out := labelYear(records, year)
	for i := range out {
		out[i].Quarter = ""
	}
	return out
}

func mergeColumns(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, cols := range [][]string{a, b} {
		for _, c := range cols {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
