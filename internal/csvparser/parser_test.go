package csvparser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stateOpts = SegmentOptions{
	First:      "Alabama",
	Last:       "Wyoming",
	FirstCode:  "AL",
	LastCode:   "WY",
	StateField: 2,
}

func TestNormalizeLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RawLine
	}{
		{"empty", "", RawLine{""}},
		{"quoted", `"1","d","Alabama","7000"`, RawLine{"1", "d", "Alabama", "7000"}},
		{"unquoted", `1,d,Alabama,(Z)`, RawLine{"1", "d", "Alabama", "(Z)"}},
		{"single quote stripped once", `""x""`, RawLine{`"x"`}},
		{"crlf", "a,b\r\n", RawLine{"a", "b"}},
		{"lone quote", `"`, RawLine{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLine(tt.in, ","))
		})
	}
}

func TestClassify(t *testing.T) {
	lines := []RawLine{
		NormalizeLine(`"1","h","State","Colonies"`, ","),
		NormalizeLine(`"1","d","Alabama","7000"`, ","),
		NormalizeLine(`"1","d","Alabama"`, ","),
		NormalizeLine(`"1","u","Alabama","7000"`, ","),
		NormalizeLine(`"1","d","d","7000"`, ","),
		NormalizeLine(``, ","),
	}

	rows := Classify(lines, 4, "d")
	require.Len(t, rows, 2)
	assert.Equal(t, "Alabama", rows[0][2])
	// A row carrying the marker twice is still returned once.
	assert.Equal(t, "d", rows[1][2])
}

func row(state string) RawLine {
	return RawLine{"1", "d", state, "1"}
}

func TestSegmentTwoBlocks(t *testing.T) {
	rows := []RawLine{
		row("Alabama"), row("Arizona"), row("Wyoming"), row("United States"),
		row("Alabama"), row("Texas"), row("Wyoming"),
	}

	blocks, err := Segment(rows, stateOpts)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, "Q1", blocks[0].Quarter)
	assert.Equal(t, 0, blocks[0].Start)
	assert.Equal(t, 2, blocks[0].End)
	require.Len(t, blocks[0].Rows, 2)
	assert.Equal(t, "Arizona", blocks[0].Rows[1][2])

	assert.Equal(t, "Q2", blocks[1].Quarter)
	require.Len(t, blocks[1].Rows, 2)
	assert.Equal(t, "Texas", blocks[1].Rows[1][2])
	assert.Equal(t, 4, CountRows(blocks))
}

func TestSegmentAcceptsCodesOnlyWhenEnabled(t *testing.T) {
	rows := []RawLine{row("AL"), row("CA"), row("WY")}

	blocks, err := Segment(rows, stateOpts)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	opts := stateOpts
	opts.AcceptCodes = true
	blocks, err = Segment(rows, opts)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Rows, 2)
}

func TestSegmentMismatchedCounts(t *testing.T) {
	rows := []RawLine{row("Alabama"), row("Ohio"), row("Wyoming"), row("Alabama"), row("Ohio")}

	_, err := Segment(rows, stateOpts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlockMismatch))

	var countErr *BlockCountError
	require.True(t, errors.As(err, &countErr))
	assert.Equal(t, 2, countErr.Starts)
	assert.Equal(t, 1, countErr.Ends)
}

func TestSegmentEndBeforeStart(t *testing.T) {
	rows := []RawLine{row("Wyoming"), row("Alabama")}

	_, err := Segment(rows, stateOpts)
	assert.ErrorIs(t, err, ErrBlockMismatch)
}

func TestSegmentTooManyBlocks(t *testing.T) {
	var rows []RawLine
	for i := 0; i < 9; i++ {
		rows = append(rows, row("Alabama"), row("Wyoming"))
	}

	_, err := Segment(rows, stateOpts)
	assert.ErrorIs(t, err, ErrTooManyBlocks)
}

func TestBlockCountMatchesMarkers(t *testing.T) {
	for n := 0; n <= 8; n++ {
		var rows []RawLine
		for i := 0; i < n; i++ {
			rows = append(rows, row("Alabama"), row("Iowa"), row("Wyoming"), row(""))
		}
		blocks, err := Segment(rows, stateOpts)
		require.NoError(t, err)
		assert.Len(t, blocks, n)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hcny_p01.csv")
	content := strings.Join([]string{
		"\ufeff" + `"1","t","Honey Bee Colonies"`,
		"",
		`"1","d","Alabama","7000"`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := ReadFile(path, ",")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "1", lines[0][0])
	assert.Equal(t, RawLine{""}, lines[1])
	assert.Equal(t, "Alabama", lines[2][2])
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), ",")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
