// =============================================================================
// USDA Honey Report - Report Parser Module
// =============================================================================
//
// This module turns one raw USDA report file into period blocks of data rows.
// USDA "CSV" exports are not well-formed CSV: they interleave headers,
// footnotes and blank lines with data rows, and repeat the same state table
// once per reporting period. Parsing therefore happens in three stages:
//
//   1. Line Normalizer  - split each line on the delimiter and strip one
//                         leading and one trailing quote from every field
//   2. Row Classifier   - keep only lines with the expected field count that
//                         carry the row-type marker among their fields
//   3. Block Segmenter  - cut the classified rows into period blocks that run
//                         from the first canonical state (inclusive) to the
//                         last canonical state (exclusive)
//
// The segmenter pairs start and end markers explicitly and refuses files
// whose marker counts disagree.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/honey-report/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBlockMismatch is returned when block start and end markers do not
	// pair up (different counts, or an end that precedes its start).
	ErrBlockMismatch = errors.New("period block start/end markers do not pair up")

	// ErrTooManyBlocks is returned when a file holds more blocks than there
	// are quarter labels.
	ErrTooManyBlocks = errors.New("more period blocks than quarter labels")
)

// BlockCountError describes a start/end marker count disagreement.
type BlockCountError struct {
	Starts int
	Ends   int
}

func (e *BlockCountError) Error() string {
	return fmt.Sprintf("%d block start markers but %d end markers", e.Starts, e.Ends)
}

// Unwrap lets callers match the error with errors.Is(err, ErrBlockMismatch).
func (e *BlockCountError) Unwrap() error {
	return ErrBlockMismatch
}

// =============================================================================
// LINE NORMALIZER
// =============================================================================

// RawLine is the sequence of fields extracted from one source line.
type RawLine []string

// Field returns the i-th field, or "" when the line is shorter.
func (l RawLine) Field(i int) string {
	if i < 0 || i >= len(l) {
		return ""
	}
	return l[i]
}

// DefaultDelimiter is the field delimiter used by USDA exports.
const DefaultDelimiter = ","

// NormalizeLine splits a line into fields and strips a single leading and a
// single trailing double quote from each field. Nested or escaped quotes are
// not interpreted. An empty line yields one empty field.
func NormalizeLine(line, delimiter string) RawLine {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	line = strings.TrimRight(line, "\r\n")

	parts := strings.Split(line, delimiter)
	fields := make(RawLine, len(parts))
	for i, part := range parts {
		part = strings.TrimPrefix(part, `"`)
		part = strings.TrimSuffix(part, `"`)
		fields[i] = part
	}
	return fields
}

// Parse reads every line from r and normalizes it.
func Parse(r io.Reader, delimiter string) ([]RawLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []RawLine
	first := true
	for scanner.Scan() {
		text := scanner.Text()
		if first {
			// Excel exports sometimes lead with a UTF-8 byte order mark.
			text = strings.TrimPrefix(text, "\ufeff")
			first = false
		}
		lines = append(lines, NormalizeLine(text, delimiter))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return lines, nil
}

// ReadFile opens a report file, normalizes all of its lines and closes it
// again whether or not parsing succeeded.
func ReadFile(filePath, delimiter string) ([]RawLine, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file, delimiter)
}

// =============================================================================
// ROW CLASSIFIER
// =============================================================================

// DefaultRowMarker is the row-type value carried by genuine data rows.
const DefaultRowMarker = "d"

// Classify keeps the lines whose field count equals arity and that carry the
// marker value in any field. Order is preserved and every matching line is
// returned once.
func Classify(lines []RawLine, arity int, marker string) []RawLine {
	var rows []RawLine
	for _, line := range lines {
		if len(line) != arity {
			continue
		}
		if hasField(line, marker) {
			rows = append(rows, line)
		}
	}
	return rows
}

func hasField(line RawLine, value string) bool {
	for _, f := range line {
		if f == value {
			return true
		}
	}
	return false
}

// =============================================================================
// PERIOD BLOCK SEGMENTER
// =============================================================================

// PeriodBlock is the contiguous run of data rows for one reporting period.
type PeriodBlock struct {
	// Index is the 0-indexed block position in file order.
	Index int

	// Quarter is the label assigned to the block position (Q1..Q8).
	Quarter string

	// Start and End delimit the block within the classified rows: Start is
	// the first-state row, End is the last-state row (exclusive).
	Start int
	End   int

	// Rows are the data rows of the block.
	Rows []RawLine
}

// SegmentOptions control block detection.
type SegmentOptions struct {
	// First and Last are the state names that open and close a block.
	First string
	Last  string

	// FirstCode and LastCode are accepted as markers too when AcceptCodes is
	// set.
	FirstCode   string
	LastCode    string
	AcceptCodes bool

	// StateField is the index of the state field within a row.
	StateField int
}

func (o SegmentOptions) isStart(state string) bool {
	return state == o.First || (o.AcceptCodes && o.FirstCode != "" && state == o.FirstCode)
}

func (o SegmentOptions) isEnd(state string) bool {
	return state == o.Last || (o.AcceptCodes && o.LastCode != "" && state == o.LastCode)
}

// span is one explicitly paired (start, end) marker position.
type span struct {
	start int
	end   int
}

// Segment splits classified rows into period blocks.
//
// PARAMETERS:
//   - rows: The classified data rows of one file, in file order.
//   - opts: Marker states and the state field position.
//
// RETURNS:
//   - One block per (start, end) marker pair, labelled Q1, Q2, ... in order.
//   - ErrBlockMismatch (possibly as *BlockCountError) when the markers do not
//     pair up, ErrTooManyBlocks when there are more than eight blocks.
func Segment(rows []RawLine, opts SegmentOptions) ([]PeriodBlock, error) {
	var starts, ends []int
	for i, row := range rows {
		state := strings.TrimSpace(row.Field(opts.StateField))
		switch {
		case opts.isStart(state):
			starts = append(starts, i)
		case opts.isEnd(state):
			ends = append(ends, i)
		}
	}

	if len(starts) != len(ends) {
		return nil, &BlockCountError{Starts: len(starts), Ends: len(ends)}
	}

	spans := make([]span, len(starts))
	for i := range starts {
		spans[i] = span{start: starts[i], end: ends[i]}
		if spans[i].end < spans[i].start {
			return nil, fmt.Errorf("block %d ends at row %d before it starts at row %d: %w",
				i+1, spans[i].end, spans[i].start, ErrBlockMismatch)
		}
		if i > 0 && spans[i].start < spans[i-1].end {
			return nil, fmt.Errorf("block %d starts at row %d inside block %d: %w",
				i+1, spans[i].start, i, ErrBlockMismatch)
		}
	}

	if len(spans) > len(types.Quarters) {
		return nil, fmt.Errorf("%d blocks: %w", len(spans), ErrTooManyBlocks)
	}

	blocks := make([]PeriodBlock, len(spans))
	for i, s := range spans {
		quarter, _ := types.QuarterLabel(i)
		blocks[i] = PeriodBlock{
			Index:   i,
			Quarter: quarter,
			Start:   s.start,
			End:     s.end,
			Rows:    append([]RawLine(nil), rows[s.start:s.end]...),
		}
	}

	return blocks, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// CountRows returns the total number of rows across blocks.
func CountRows(blocks []PeriodBlock) int {
	n := 0
	for _, b := range blocks {
		n += len(b.Rows)
	}
	return n
}
