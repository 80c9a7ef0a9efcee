package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"hcny_p2017.csv", "hcny_p2015.csv", "hcny_p2016.csv", "notes.txt"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	files, err := DiscoverFiles(dir, "")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"hcny_p2015.csv", "hcny_p2016.csv", "hcny_p2017.csv"}, names)
}

func TestDiscoverFilesMissingDir(t *testing.T) {
	_, err := DiscoverFiles(filepath.Join(t.TempDir(), "nope"), "*.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnsureDirectories(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a", "b")
	fm := NewFileManager("colony", "production", out)
	require.NoError(t, fm.EnsureDirectories())
	assert.True(t, FileExists(out))
	assert.Equal(t, filepath.Join(out, "x.csv"), fm.OutputPath("x.csv"))
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	summary := ProcessingSummary{
		RunID:             "0123456789abcdef",
		StartTime:         start,
		EndTime:           start.Add(2 * time.Second),
		TotalFiles:        2,
		SuccessfulFiles:   1,
		FailedFiles:       1,
		ProductionRecords: 42,
		ProcessedFiles:    []ProcessedFileInfo{{InputFile: "p.csv", Category: "production", Blocks: 2, Records: 42}},
		FailedFilesList:   []FailedFileInfo{{InputFile: "c.csv", ErrorMessage: "boom"}},
		Outputs:           []string{"all_honey_data.csv"},
	}

	path, err := WriteSummaryLog(summary, dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_01234567.txt"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Run ID:         0123456789abcdef")
	assert.Contains(t, text, "Production Records: 42")
	assert.Contains(t, text, "Error: boom")
	assert.Contains(t, text, "all_honey_data.csv")
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir, "run")
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    time.Now(),
		FileName:     "broken.csv",
		ErrorType:    "block_mismatch",
		ErrorMessage: "2 block start markers but 1 end markers",
	}}, dir, "run")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "broken.csv")
	assert.Contains(t, string(data), "Total Errors: 1")
}
