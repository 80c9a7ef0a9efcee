package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/honey-report/internal/config"
	"github.com/ginjaninja78/honey-report/internal/metrics"
	"github.com/ginjaninja78/honey-report/internal/tablereader"
	"github.com/ginjaninja78/honey-report/internal/tablewriter"
	"github.com/ginjaninja78/honey-report/internal/types"
)

func writeReport(t *testing.T, dir, name string, lines []string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func productionBlock(scale int) []string {
	row := func(state string, colonies int) string {
		return fmt.Sprintf(`"1","d","%s","%d","60","1200","100","2.1","252"`, state, colonies)
	}
	return []string{row("Alabama", 9*scale), row("Texas", 100*scale), row("Wyoming", 40*scale)}
}

func colonyBlock() []string {
	colony := func(state string) string {
		return `"2","d","` + state + `","7000","7000","1800","26","2800","250","4"`
	}
	return []string{colony("Alabama"), colony("Texas"), colony("Wyoming")}
}

func stressorBlock() []string {
	stressor := func(state string) string {
		return `"3","d","` + state + `","10.0","5.4","(X)","2.2","9.1","-"`
	}
	return []string{stressor("Alabama"), stressor("Texas"), stressor("Wyoming")}
}

// testConfig builds two production files and two colony files, each with a
// Q1 and a Q2 block.
func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.ColonyDir = filepath.Join(root, "colony")
	cfg.ProductionDir = filepath.Join(root, "production")
	cfg.OutputDir = filepath.Join(root, "output")
	require.NoError(t, os.MkdirAll(cfg.ColonyDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.ProductionDir, 0o755))

	for i := 0; i < 2; i++ {
		var production []string
		production = append(production, `"1","h","","Honey producing colonies"`)
		production = append(production, productionBlock(1)...)
		production = append(production, productionBlock(2)...)
		writeReport(t, cfg.ProductionDir, fmt.Sprintf("hony_p%02d.csv", i), production)

		var colony []string
		colony = append(colony, colonyBlock()...)
		colony = append(colony, colonyBlock()...)
		colony = append(colony, stressorBlock()...)
		colony = append(colony, stressorBlock()...)
		writeReport(t, cfg.ColonyDir, fmt.Sprintf("hcny_p%02d.csv", i), colony)
	}
	return cfg
}

func TestRunPipeline(t *testing.T) {
	cfg := testConfig(t)
	m := metrics.New()

	result, err := runPipeline(cfg, zap.NewNop(), m)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Summary.TotalFiles)
	assert.Equal(t, 4, result.Summary.SuccessfulFiles)
	assert.Zero(t, result.Summary.ValidationErrors)

	// File 0 Q1 -> 2000, file 1 Q1 -> 2001, file 1 Q2 -> 2002.
	years := map[int]bool{}
	for _, rec := range result.Production.Records {
		years[rec.Year] = true
	}
	assert.Equal(t, map[int]bool{2000: true, 2001: true, 2002: true}, years)
	assert.Equal(t, 6, result.Summary.ProductionRecords)

	assert.Equal(t, types.KindColonyStressor, result.Colony.Kind)
	assert.Equal(t, 8, result.Summary.ColonyRecords)
	periods := map[string]bool{}
	for _, rec := range result.Colony.Records {
		periods[rec.Period] = true
	}
	assert.Equal(t, map[string]bool{"2015Q1": true, "2015Q2": true, "2016Q1": true, "2016Q2": true}, periods)
}

func TestRunPipelineBrokenFile(t *testing.T) {
	cfg := testConfig(t)
	writeReport(t, cfg.ProductionDir, "hony_p99.csv", []string{
		`"1","d","Alabama","10","4.5","45","20","1.2","63"`,
	})

	result, err := runPipeline(cfg, zap.NewNop(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errFilesFailed)
	assert.Equal(t, 1, result.Summary.FailedFiles)
	assert.Nil(t, result.Production)

	entries := result.failures()
	require.Len(t, entries, 1)
	assert.Equal(t, "block_mismatch", entries[0].ErrorType)
	assert.Contains(t, entries[0].FileName, "hony_p99.csv")
}

func TestRunPipelineMissingDirectory(t *testing.T) {
	cfg := testConfig(t)
	cfg.ColonyDir = filepath.Join(t.TempDir(), "missing")

	_, err := runPipeline(cfg, zap.NewNop(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunProcessWritesOutputs(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)

	require.NoError(t, runProcess(c, cfg, zap.NewNop()))
	assert.Contains(t, out.String(), "=== Processing Complete ===")

	for _, name := range []string{tablewriter.ProductionCSV, tablewriter.ColonyCSV, tablewriter.WorkbookXLSX} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name))
	}

	production, err := tablereader.ReadCSVFile(filepath.Join(cfg.OutputDir, tablewriter.ProductionCSV), types.KindProduction)
	require.NoError(t, err)
	assert.Equal(t, 6, production.Len())

	data, err := loadDataset(cfg.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, 8, data.Colony.Len())
}

func TestRunProcessFailureWritesErrorLog(t *testing.T) {
	cfg := testConfig(t)
	writeReport(t, cfg.ColonyDir, "hcny_p99.csv", []string{colonyBlock()[0]})

	c := &cobra.Command{}
	c.SetOut(&bytes.Buffer{})

	err := runProcess(c, cfg, zap.NewNop())
	require.ErrorIs(t, err, errFilesFailed)

	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, tablewriter.ColonyCSV))
	logs, err := filepath.Glob(filepath.Join(cfg.OutputDir, "error_log_*.txt"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestLoadDatasetMissing(t *testing.T) {
	_, err := loadDataset(t.TempDir())
	assert.Error(t, err)
}
