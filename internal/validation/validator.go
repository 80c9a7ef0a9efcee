// =============================================================================
// USDA Honey Report - Validation Engine
// =============================================================================
//
// This module checks aggregated tables against the invariants the rendering
// layer relies on:
//   - Every record has a non-empty state
//   - Every state is known to the lookup and its code matches the name
//   - Every record of a yearly table has a year, and every record of a
//     quarterly table has a year, a quarter and a matching period key
//   - Within one table, each (state, period) pair occurs once
//
// ERROR HANDLING:
//   - Errors are collected, not returned on first failure
//   - Each error names the table, the record index and the offending state
//   - Records whose measurements are all missing are reported as warnings
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/honey-report/internal/states"
	"github.com/ginjaninja78/honey-report/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleStateRequired = "state_required"
	RuleStateKnown    = "state_known"
	RuleStateCode     = "state_code"
	RuleYearRequired  = "year_required"
	RulePeriodKey     = "period_key"
	RuleUniqueKey     = "unique_key"
	RuleAllMissing    = "all_missing"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Table is the kind of the table holding the record.
	Table types.Kind

	// Index is the position of the record within the table.
	Index int

	// State is the record's state field as stored.
	State string

	// Period is the record's year or period key, when known.
	Period string

	// Rule is the invariant that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s record %d (%s %s): %s: %s",
		strings.ToUpper(e.Severity),
		e.Table,
		e.Index,
		e.State,
		e.Period,
		e.Rule,
		e.Message,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validating one table.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all validation errors (including warnings).
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// RecordsValidated is the number of records checked.
	RecordsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first fatal error.
	StopOnFirstError bool

	// TreatWarningsAsErrors makes warnings invalidate the table.
	TreatWarningsAsErrors bool
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{}
}

// Validator checks tables.
type Validator struct {
	lookup  *states.Lookup
	options ValidationOptions
}

// NewValidator creates a Validator. A nil lookup selects states.Default.
func NewValidator(lookup *states.Lookup, options ValidationOptions) *Validator {
	if lookup == nil {
		lookup = states.Default
	}
	return &Validator{lookup: lookup, options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateTable validates a table with the default options and returns the
// collected problems.
func ValidateTable(table *types.Table) []*ValidationError {
	return NewValidator(nil, DefaultValidationOptions()).Validate(table).Errors
}

// Validate checks every record of the table.
//
// PARAMETERS:
//   - table: An aggregated table (yearly or quarterly).
//
// RETURNS:
//   - A result listing every problem found.
func (v *Validator) Validate(table *types.Table) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	if table == nil {
		return result
	}

	quarterly := hasLabel(table, types.ColQuarter)
	seen := make(map[string]int, len(table.Records))

	for i, rec := range table.Records {
		result.RecordsValidated++

		for _, e := range v.validateRecord(table, i, rec, quarterly, seen) {
			result.Errors = append(result.Errors, e)
			if e.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
				if v.options.StopOnFirstError {
					return result
				}
				continue
			}
			result.WarningCount++
			if v.options.TreatWarningsAsErrors {
				result.IsValid = false
			}
		}
	}

	return result
}

func (v *Validator) validateRecord(table *types.Table, i int, rec types.Record, quarterly bool, seen map[string]int) []*ValidationError {
	var errs []*ValidationError
	period := periodOf(rec, quarterly)

	fail := func(severity, rule, format string, args ...any) {
		errs = append(errs, &ValidationError{
			Severity: severity,
			Table:    table.Kind,
			Index:    i,
			State:    rec.State,
			Period:   period,
			Rule:     rule,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(rec.State) == "" {
		fail(SeverityError, RuleStateRequired, "state is empty")
	} else if code, ok := v.lookup.Code(rec.State); !ok {
		fail(SeverityError, RuleStateKnown, "state %q is not in the lookup table", rec.State)
	} else if code != rec.StateCode {
		fail(SeverityError, RuleStateCode, "state code %q does not match %q", rec.StateCode, code)
	}

	if hasLabel(table, types.ColYear) && rec.Year == 0 {
		fail(SeverityError, RuleYearRequired, "year is not set")
	}

	if quarterly {
		want := types.PeriodKey(rec.Year, rec.Quarter)
		if rec.Quarter == "" || rec.Period != want {
			fail(SeverityError, RulePeriodKey, "period %q, expected %q", rec.Period, want)
		}
	}

	key := rec.State + "|" + period
	if first, dup := seen[key]; dup {
		fail(SeverityError, RuleUniqueKey, "duplicates record %d", first)
	} else {
		seen[key] = i
	}

	if len(table.Columns) > 0 && allMissing(rec, table.Columns) {
		fail(SeverityWarning, RuleAllMissing, "every measurement is missing")
	}

	return errs
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func hasLabel(table *types.Table, label string) bool {
	for _, l := range table.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func periodOf(rec types.Record, quarterly bool) string {
	if quarterly {
		return types.PeriodKey(rec.Year, rec.Quarter)
	}
	return fmt.Sprintf("%d", rec.Year)
}

func allMissing(rec types.Record, columns []string) bool {
	for _, c := range columns {
		if _, ok := rec.Value(c); ok {
			return false
		}
	}
	return true
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation errors to a log file.
//
// PARAMETERS:
//   - errors: The validation errors to write.
//   - filePath: The path to the output file.
//
// RETURNS:
//   - An error if writing fails.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Validation run at %s\n\n", time.Now().Format(time.RFC3339))
	writer.WriteString(FormatErrors(errors))
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	return nil
}
