// =============================================================================
// USDA Honey Report - Table Writer Module
// =============================================================================
//
// This module serializes aggregated tables to the flat files consumed by the
// dashboard:
//
//   all_honey_data.csv   - yearly production table
//   all_colony_data.csv  - quarterly colony/stressor table
//   honey_report.xlsx    - both tables, one sheet each
//
// COLUMN LAYOUT:
//   state, state_code, <measurements in schema order>, <labels>
//
// Missing values are written as empty cells so that they can never be read
// back as zero.
//
// =============================================================================

package tablewriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/honey-report/internal/types"
)

// Output file names.
const (
	ProductionCSV = "all_honey_data.csv"
	ColonyCSV     = "all_colony_data.csv"
	WorkbookXLSX  = "honey_report.xlsx"
)

// Workbook sheet names.
const (
	ProductionSheet = "production"
	ColonySheet     = "colony"
)

// =============================================================================
// CELL FORMATTING
// =============================================================================

// FormatValue renders a measurement using the shortest exact representation.
// Missing values render as "".
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Row renders one record in Header order.
func Row(table *types.Table, rec types.Record) []string {
	row := make([]string, 0, 2+len(table.Columns)+len(table.Labels))
	row = append(row, rec.State, rec.StateCode)
	for _, col := range table.Columns {
		row = append(row, FormatValue(rec.Values[col]))
	}
	for _, label := range table.Labels {
		row = append(row, labelValue(rec, label))
	}
	return row
}

func labelValue(rec types.Record, label string) string {
	switch label {
	case types.ColQuarter:
		return rec.Quarter
	case types.ColYear:
		if rec.Year == 0 {
			return ""
		}
		return strconv.Itoa(rec.Year)
	case types.ColPeriod:
		return rec.Period
	}
	return ""
}

// =============================================================================
// CSV OUTPUT
// =============================================================================

// WriteCSV writes the header and every record of the table to w.
func WriteCSV(w io.Writer, table *types.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(table.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range table.Records {
		if err := writer.Write(Row(table, rec)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes the table to a new file at path.
func WriteCSVFile(path string, table *types.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteCSV(file, table); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// =============================================================================
// XLSX OUTPUT
// =============================================================================

// Sheet pairs a worksheet name with the table written to it.
type Sheet struct {
	Name  string
	Table *types.Table
}

// WriteXLSX writes each table to its own worksheet of a new workbook.
// Measurements are stored as numbers, missing values as blank cells.
//
// PARAMETERS:
//   - path: The workbook path.
//   - sheets: The sheets to write, in tab order.
//
// RETURNS:
//   - An error if a sheet cannot be created or the file cannot be saved.
func WriteXLSX(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet.Name, err)
		}

		if err := writeSheet(f, sheet); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	header := sheet.Table.Header()
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range sheet.Table.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := cellRow(sheet.Table, rec)
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

// cellRow is Row with typed cells: float64 measurements, int years and nil
// for missing values.
func cellRow(table *types.Table, rec types.Record) []interface{} {
	row := make([]interface{}, 0, 2+len(table.Columns)+len(table.Labels))
	row = append(row, rec.State, rec.StateCode)
	for _, col := range table.Columns {
		if v := rec.Values[col]; v != nil {
			row = append(row, *v)
		} else {
			row = append(row, nil)
		}
	}
	for _, label := range table.Labels {
		if label == types.ColYear && rec.Year != 0 {
			row = append(row, rec.Year)
			continue
		}
		row = append(row, labelValue(rec, label))
	}
	return row
}
