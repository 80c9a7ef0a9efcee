// Package query answers the questions the dashboard asks of the output tables:
// which states match a period (choropleth), how a state's metrics evolve over
// time (line plot), which states lead a metric in a year (bubble chart) and
// which periods exist (slider).
//
// All functions are read-only over their input table.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/honey-report/internal/states"
	"github.com/ginjaninja78/honey-report/internal/types"
)

var (
	// ErrUnknownMetric is returned when a metric is not a column of the table.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrUnknownState is returned when a state matches no lookup entry.
	ErrUnknownState = errors.New("unknown state")
)

// DefaultTopN is the number of states shown by the bubble chart.
const DefaultTopN = 15

// DefaultSeriesMetrics are the stressor metrics plotted per state.
var DefaultSeriesMetrics = []string{
	"varroa_mites", "other_pests", "diseases",
	"pesticides", "other", "unknown", "lost_perc",
}

// StateValue is one state's value of a metric.
type StateValue struct {
	State     string   `json:"state"`
	StateCode string   `json:"state_code"`
	Value     *float64 `json:"value"`
}

// SeriesPoint is one period of a state's time series.
type SeriesPoint struct {
	Period string              `json:"period"`
	Year   int                 `json:"year"`
	Values map[string]*float64 `json:"values"`
}

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	Rank int `json:"rank"`
	StateValue
	Values map[string]*float64 `json:"values"`
}

func checkMetrics(table *types.Table, metrics ...string) error {
	for _, m := range metrics {
		if !table.HasColumn(m) {
			return fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
	}
	return nil
}

// ByPeriod returns every state's value of metric for one period key. States
// with a missing value are included with a nil Value so the map can render
// them as "no data".
func ByPeriod(table *types.Table, period, metric string) ([]StateValue, error) {
	if err := checkMetrics(table, metric); err != nil {
		return nil, err
	}

	var out []StateValue
	for _, rec := range table.Records {
		if rec.Period != period {
			continue
		}
		out = append(out, StateValue{State: rec.State, StateCode: rec.StateCode, Value: rec.Values[metric]})
	}
	return out, nil
}

// ByState returns a state's series across periods, in period order. The state
// may be given as a name or a postal code. An empty metrics list selects
// DefaultSeriesMetrics that exist in the table.
func ByState(table *types.Table, state string, metrics []string) ([]SeriesPoint, error) {
	name, _, ok := states.Resolve(state)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}

	if len(metrics) == 0 {
		for _, m := range DefaultSeriesMetrics {
			if table.HasColumn(m) {
				metrics = append(metrics, m)
			}
		}
	}
	if err := checkMetrics(table, metrics...); err != nil {
		return nil, err
	}

	var out []SeriesPoint
	for _, rec := range table.Records {
		if rec.State != name {
			continue
		}
		values := make(map[string]*float64, len(metrics))
		for _, m := range metrics {
			values[m] = rec.Values[m]
		}
		out = append(out, SeriesPoint{Period: periodOf(rec), Year: rec.Year, Values: values})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

// TopN ranks the states of one year by metric, descending. Records with a
// missing value are excluded; ties keep table order. n <= 0 selects
// DefaultTopN.
func TopN(table *types.Table, year int, metric string, n int) ([]Ranked, error) {
	if err := checkMetrics(table, metric); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultTopN
	}

	var candidates []types.Record
	for _, rec := range table.Records {
		if rec.Year != year {
			continue
		}
		if _, ok := rec.Value(metric); ok {
			candidates = append(candidates, rec)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, _ := candidates[i].Value(metric)
		b, _ := candidates[j].Value(metric)
		return a > b
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	out := make([]Ranked, len(candidates))
	for i, rec := range candidates {
		out[i] = Ranked{
			Rank:       i + 1,
			StateValue: StateValue{State: rec.State, StateCode: rec.StateCode, Value: rec.Values[metric]},
			Values:     rec.Clone().Values,
		}
	}
	return out, nil
}

// Periods returns the distinct period keys of the table in ascending order.
// Yearly tables yield their years.
func Periods(table *types.Table) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range table.Records {
		p := periodOf(rec)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Years returns the distinct years of the table in ascending order.
func Years(table *types.Table) []int {
	seen := make(map[int]bool)
	var out []int
	for _, rec := range table.Records {
		if rec.Year == 0 || seen[rec.Year] {
			continue
		}
		seen[rec.Year] = true
		out = append(out, rec.Year)
	}
	sort.Ints(out)
	return out
}

// ParseMetrics splits a comma-separated metric list, dropping blanks.
func ParseMetrics(raw string) []string {
	var out []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func periodOf(rec types.Record) string {
	if rec.Period != "" {
		return rec.Period
	}
	if rec.Year != 0 {
		return fmt.Sprintf("%d", rec.Year)
	}
	return ""
}
