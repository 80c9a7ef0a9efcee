// Package metrics owns the prometheus registry for ingestion and the API.
//
// Ingestion is a one-shot batch run, so its counters are exported through the
// node-exporter textfile format after `process` finishes; `serve` exposes the
// same registry on /metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "honeyreport"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	filesParsed   *prometheus.CounterVec
	blocks        *prometheus.CounterVec
	rows          *prometheus.CounterVec
	rowsDropped   *prometheus.CounterVec
	missingValues *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New creates a registry with the ingestion and API collectors registered.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		filesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "Report files parsed, by dataset category.",
		}, []string{"category"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "period_blocks_total",
			Help:      "Period blocks segmented, by table kind.",
		}, []string{"kind"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "State records produced, by table kind.",
		}, []string{"kind"}),
		rowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Classified rows discarded, by table kind and reason.",
		}, []string{"kind", "reason"}),
		missingValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_values_total",
			Help:      "Measurements coerced to missing, by table kind and column.",
		}, []string{"kind", "column"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests served, by route and status code.",
		}, []string{"route", "code"}),
	}

	m.Registry.MustRegister(
		m.filesParsed,
		m.blocks,
		m.rows,
		m.rowsDropped,
		m.missingValues,
		m.httpRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// FileParsed counts one parsed file of a category.
func (m *Metrics) FileParsed(category string) {
	if m == nil {
		return
	}
	m.filesParsed.WithLabelValues(category).Inc()
}

// BlocksSegmented adds n period blocks for a table kind.
func (m *Metrics) BlocksSegmented(kind string, n int) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(kind).Add(float64(n))
}

// RecordsProduced adds n records for a table kind.
func (m *Metrics) RecordsProduced(kind string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(kind).Add(float64(n))
}

// RowDropped counts one discarded row.
func (m *Metrics) RowDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.rowsDropped.WithLabelValues(kind, reason).Inc()
}

// MissingValue counts one measurement coerced to missing.
func (m *Metrics) MissingValue(kind, column string) {
	if m == nil {
		return
	}
	m.missingValues.WithLabelValues(kind, column).Inc()
}

// HTTPRequest counts one served API request.
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, fmt.Sprintf("%d", code)).Inc()
}

// WriteTextfile writes the registry in the textfile-collector format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
