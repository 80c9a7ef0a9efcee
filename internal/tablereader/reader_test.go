package tablereader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/honey-report/internal/tablewriter"
	"github.com/ginjaninja78/honey-report/internal/types"
)

func sampleTable() *types.Table {
	return &types.Table{
		Kind:    types.KindColonyStressor,
		Columns: []string{"varroa_mites", "lost_perc"},
		Labels:  []string{types.ColQuarter, types.ColYear, types.ColPeriod},
		Records: []types.Record{
			{
				State: "California", StateCode: "CA", Quarter: "Q3", Year: 2016, Period: "2016Q3",
				Values: map[string]*float64{"varroa_mites": types.Float(0), "lost_perc": nil},
			},
			{
				State: "Texas", StateCode: "TX", Quarter: "Q4", Year: 2016, Period: "2016Q4",
				Values: map[string]*float64{"varroa_mites": types.Float(33.1), "lost_perc": types.Float(8)},
			},
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), tablewriter.ColonyCSV)
	want := sampleTable()
	require.NoError(t, tablewriter.WriteCSVFile(path, want))

	got, err := ReadCSVFile(path, types.KindColonyStressor)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), tablewriter.WorkbookXLSX)
	want := sampleTable()
	require.NoError(t, tablewriter.WriteXLSX(path, tablewriter.Sheet{Name: tablewriter.ColonySheet, Table: want}))

	got, err := ReadXLSX(path, tablewriter.ColonySheet, types.KindColonyStressor)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadXLSXMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), tablewriter.WorkbookXLSX)
	require.NoError(t, tablewriter.WriteXLSX(path, tablewriter.Sheet{Name: tablewriter.ColonySheet, Table: sampleTable()}))

	_, err := ReadXLSX(path, tablewriter.ProductionSheet, types.KindProduction)
	assert.Error(t, err)
}

func TestReadCSVBadHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("name,code\nOhio,OH\n"), types.KindProduction)
	assert.ErrorIs(t, err, ErrBadHeader)

	_, err = ReadCSV(strings.NewReader(""), types.KindProduction)
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestReadCSVBadNumber(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("state,state_code,production,year\nOhio,OH,lots,2000\n"), types.KindProduction)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadCSVFileMissing(t *testing.T) {
	_, err := ReadCSVFile(filepath.Join(t.TempDir(), "nope.csv"), types.KindProduction)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
