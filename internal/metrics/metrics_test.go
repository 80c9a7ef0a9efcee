package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.FileParsed("colony")
	m.FileParsed("colony")
	m.BlocksSegmented("stressor", 4)
	m.MissingValue("stressor", "varroa_mites")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.filesParsed.WithLabelValues("colony")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.blocks.WithLabelValues("stressor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.missingValues.WithLabelValues("stressor", "varroa_mites")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.FileParsed("production")
	m.RecordsProduced("production", 3)
	m.HTTPRequest("/healthz", 200)
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordsProduced("production", 7)

	path := filepath.Join(t.TempDir(), "honeyreport.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `honeyreport_records_total{kind="production"} 7`)
}
