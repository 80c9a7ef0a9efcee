// =============================================================================
// USDA Honey Report - Shared Types
// =============================================================================
//
// This package contains the types shared by the parsing, aggregation, output
// and query layers. Keeping them here avoids import cycles between:
//   - converter
//   - aggregate
//   - validation
//   - tablewriter / tablereader
//   - query
//
// =============================================================================

package types

import "fmt"

// =============================================================================
// TABLE KINDS AND SCHEMAS
// =============================================================================

// Kind identifies the category of a table.
type Kind string

const (
	// KindColony is the colony-count table (10 raw fields per data row).
	KindColony Kind = "colony"

	// KindStressor is the disease/stressor table (9 raw fields per data row).
	KindStressor Kind = "stressor"

	// KindProduction is the honey production table (9 raw fields per data row).
	KindProduction Kind = "production"

	// KindColonyStressor is the merged colony + stressor table.
	KindColonyStressor Kind = "colony_stressor"
)

// Schema describes how a raw data row of one kind is laid out.
type Schema struct {
	// Kind is the table kind produced from rows of this schema.
	Kind Kind

	// Arity is the exact field count that identifies a data row of this kind.
	Arity int

	// Columns are the measurement column names, in source order, that follow
	// the table number, row-type marker and state fields.
	Columns []string

	// AcceptCodes allows postal codes as block start/end markers.
	// Production files sometimes report abbreviations instead of names.
	AcceptCodes bool
}

// LeadingFields is the number of non-data columns (table number, row-type
// marker) that precede the state field in a raw data row.
const LeadingFields = 2

// StateField is the index of the state field in a raw data row.
const StateField = LeadingFields

var (
	// ColonySchema describes colony-count rows.
	ColonySchema = Schema{
		Kind:  KindColony,
		Arity: 10,
		Columns: []string{
			"initial_count", "max", "lost", "lost_perc",
			"added", "renovated", "renovated_perc",
		},
	}

	// StressorSchema describes disease/stressor rows.
	StressorSchema = Schema{
		Kind:  KindStressor,
		Arity: 9,
		Columns: []string{
			"varroa_mites", "other_pests", "diseases",
			"pesticides", "other", "unknown",
		},
	}

	// ProductionSchema describes honey production rows.
	ProductionSchema = Schema{
		Kind:  KindProduction,
		Arity: 9,
		Columns: []string{
			"honey_colonies", "yield_per_col", "production",
			"stocks", "avg_price_per_lb", "prod_value",
		},
		AcceptCodes: true,
	}
)

// SchemaFor returns the raw row schema for a kind.
func SchemaFor(kind Kind) (Schema, bool) {
	switch kind {
	case KindColony:
		return ColonySchema, true
	case KindStressor:
		return StressorSchema, true
	case KindProduction:
		return ProductionSchema, true
	}
	return Schema{}, false
}

// =============================================================================
// QUARTER LABELS
// =============================================================================

// Quarters are the block labels assigned, in file order, to period blocks.
// Q5 and Q6 mark overlapping mid-year collection windows in colony files.
var Quarters = []string{"Q1", "Q2", "Q3", "Q4", "Q5", "Q6", "Q7", "Q8"}

// QuarterLabel returns the label for the 0-indexed block position.
func QuarterLabel(index int) (string, bool) {
	if index < 0 || index >= len(Quarters) {
		return "", false
	}
	return Quarters[index], true
}

// PeriodKey renders the combined period key, e.g. 2016 + "Q3" -> "2016Q3".
func PeriodKey(year int, quarter string) string {
	return fmt.Sprintf("%04d%s", year, quarter)
}

// =============================================================================
// RECORDS AND TABLES
// =============================================================================

// Label columns. These are categorical and always rendered as text.
const (
	ColState     = "state"
	ColStateCode = "state_code"
	ColQuarter   = "quarter"
	ColYear      = "year"
	ColPeriod    = "period"
)

// Record is one state's measurements for one period.
//
// A nil entry in Values means the value was withheld, not applicable, or could
// not be parsed. It is never conflated with a legitimate zero.
type Record struct {
	State     string              `json:"state"`
	StateCode string              `json:"state_code"`
	Quarter   string              `json:"quarter,omitempty"`
	Year      int                 `json:"year,omitempty"`
	Period    string              `json:"period,omitempty"`
	Values    map[string]*float64 `json:"values"`
}

// Value returns the named measurement and whether it is present.
func (r Record) Value(column string) (float64, bool) {
	v, ok := r.Values[column]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Values = make(map[string]*float64, len(r.Values))
	for k, v := range r.Values {
		if v == nil {
			out.Values[k] = nil
			continue
		}
		f := *v
		out.Values[k] = &f
	}
	return out
}

// Table is an ordered sequence of records sharing a column set.
type Table struct {
	// Kind is the table category.
	Kind Kind

	// Columns are the measurement columns, in output order.
	Columns []string

	// Labels are the trailing categorical columns present on every record
	// (a subset of quarter, year, period), in output order.
	Labels []string

	// Records are the table rows.
	Records []Record
}

// Header returns the full output header: state, state_code, measurements,
// then labels.
func (t *Table) Header() []string {
	header := make([]string, 0, 2+len(t.Columns)+len(t.Labels))
	header = append(header, ColState, ColStateCode)
	header = append(header, t.Columns...)
	header = append(header, t.Labels...)
	return header
}

// HasColumn reports whether the table carries the named measurement column.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Float returns a pointer to v. Handy for building records in code and tests.
func Float(v float64) *float64 {
	return &v
}
