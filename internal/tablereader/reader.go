// =============================================================================
// USDA Honey Report - Table Reader Module
// =============================================================================
//
// This module loads tables previously written by tablewriter, so the API can
// serve the outputs of an earlier `process` run without re-parsing the raw
// reports.
//
// HEADER RULES:
//   - The first two columns must be state and state_code
//   - quarter, year and period are label columns
//   - Every other column is a measurement
//
// Empty measurement cells are read back as missing.
//
// =============================================================================

package tablereader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/honey-report/internal/types"
)

// ErrBadHeader is returned when a table does not start with state, state_code.
var ErrBadHeader = errors.New("table header must start with state, state_code")

// =============================================================================
// CSV INPUT
// =============================================================================

// ReadCSV reads a table of the given kind from r.
func ReadCSV(r io.Reader, kind types.Kind) (*types.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return fromRows(rows, kind)
}

// ReadCSVFile reads a table of the given kind from the file at path.
func ReadCSVFile(path string, kind types.Kind) (*types.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	table, err := ReadCSV(file, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// =============================================================================
// XLSX INPUT
// =============================================================================

// ReadXLSX reads a table of the given kind from one sheet of a workbook.
//
// PARAMETERS:
//   - path: The workbook path.
//   - sheet: The worksheet name.
//   - kind: The kind assigned to the returned table.
//
// RETURNS:
//   - The table, or an error if the sheet is missing or malformed.
func ReadXLSX(path, sheet string, kind types.Kind) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%s: sheet %q not found", path, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	table, err := fromRows(rows, kind)
	if err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", path, sheet, err)
	}
	return table, nil
}

// =============================================================================
// ROW DECODING
// =============================================================================

func fromRows(rows [][]string, kind types.Kind) (*types.Table, error) {
	if len(rows) == 0 {
		return nil, ErrBadHeader
	}

	header := rows[0]
	if len(header) < 2 ||
		strings.TrimPrefix(header[0], "\ufeff") != types.ColState ||
		header[1] != types.ColStateCode {
		return nil, ErrBadHeader
	}

	table := &types.Table{Kind: kind}
	for _, name := range header[2:] {
		if isLabel(name) {
			table.Labels = append(table.Labels, name)
		} else {
			table.Columns = append(table.Columns, name)
		}
	}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, err := decodeRow(header, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func decodeRow(header, row []string) (types.Record, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rec := types.Record{
		State:     cell(0),
		StateCode: cell(1),
		Values:    make(map[string]*float64, len(header)-2),
	}

	for i := 2; i < len(header); i++ {
		name, value := header[i], cell(i)
		switch name {
		case types.ColQuarter:
			rec.Quarter = value
		case types.ColPeriod:
			rec.Period = value
		case types.ColYear:
			if value == "" {
				continue
			}
			year, err := strconv.Atoi(value)
			if err != nil {
				return rec, fmt.Errorf("invalid year %q: %w", value, err)
			}
			rec.Year = year
		default:
			if value == "" {
				rec.Values[name] = nil
				continue
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return rec, fmt.Errorf("column %s: invalid number %q: %w", name, value, err)
			}
			rec.Values[name] = &f
		}
	}
	return rec, nil
}

func isLabel(name string) bool {
	return name == types.ColQuarter || name == types.ColYear || name == types.ColPeriod
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
