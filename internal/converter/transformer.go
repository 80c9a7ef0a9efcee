// =============================================================================
// USDA Honey Report - Field Transformation
// =============================================================================
//
// This module converts raw text fields into typed values:
//   - Sentinel replacement: "(X)" (withheld) and "-" (not applicable) become
//     missing, "(Z)" (rounds to zero) becomes 0
//   - Numeric coercion: anything else is parsed as a float; values that do not
//     parse become missing instead of failing the row
//   - State lookup: full names and postal codes are resolved to both forms
//
// Missing is represented as a nil *float64 so it can never be mistaken for a
// legitimate zero further down the pipeline.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/honey-report/internal/states"
)

// Sentinel tokens used by USDA tables.
const (
	SentinelWithheld      = "(X)"
	SentinelNotApplicable = "-"
	SentinelZero          = "(Z)"
)

// ErrUnknownState is returned when a state field matches no lookup entry.
var ErrUnknownState = errors.New("unknown state")

// Transformer coerces raw fields of a data row.
type Transformer struct {
	missing map[string]bool
	zero    map[string]bool
	lookup  *states.Lookup
}

// NewTransformer creates a Transformer using the given state lookup. A nil
// lookup selects states.Default.
func NewTransformer(lookup *states.Lookup) *Transformer {
	if lookup == nil {
		lookup = states.Default
	}
	return &Transformer{
		missing: map[string]bool{SentinelWithheld: true, SentinelNotApplicable: true},
		zero:    map[string]bool{SentinelZero: true},
		lookup:  lookup,
	}
}

// Coerce converts one raw measurement into a value, or nil when missing.
//
// EXAMPLES:
//   "(Z)"   -> 0
//   "(X)"   -> nil
//   "-"     -> nil
//   "12.5"  -> 12.5
//   "n/a"   -> nil
//   "NaN"   -> nil
func (t *Transformer) Coerce(raw string) *float64 {
	value := strings.TrimSpace(raw)

	if t.missing[value] {
		return nil
	}
	if t.zero[value] {
		zero := 0.0
		return &zero
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// MapState resolves a state field to its full name and postal code.
// Abbreviated fields are expanded to the full name first.
func (t *Transformer) MapState(raw string) (name, code string, err error) {
	name, code, ok := t.lookup.Resolve(raw)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownState, strings.TrimSpace(raw))
	}
	return name, code, nil
}
