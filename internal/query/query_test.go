package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/honey-report/internal/types"
)

func colonyRec(state, code string, year int, quarter string, varroa *float64) types.Record {
	return types.Record{
		State: state, StateCode: code, Year: year, Quarter: quarter,
		Period: types.PeriodKey(year, quarter),
		Values: map[string]*float64{"varroa_mites": varroa, "lost_perc": types.Float(10)},
	}
}

func colonyTable() *types.Table {
	return &types.Table{
		Kind:    types.KindColonyStressor,
		Columns: []string{"varroa_mites", "lost_perc"},
		Labels:  []string{types.ColQuarter, types.ColYear, types.ColPeriod},
		Records: []types.Record{
			colonyRec("California", "CA", 2016, "Q3", types.Float(30)),
			colonyRec("Iowa", "IA", 2016, "Q3", nil),
			colonyRec("California", "CA", 2015, "Q1", types.Float(12.5)),
			colonyRec("California", "CA", 2016, "Q4", types.Float(0)),
		},
	}
}

func TestByPeriod(t *testing.T) {
	got, err := ByPeriod(colonyTable(), "2016Q3", "varroa_mites")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "CA", got[0].StateCode)
	assert.Equal(t, 30.0, *got[0].Value)
	assert.Nil(t, got[1].Value)

	_, err = ByPeriod(colonyTable(), "2016Q3", "honey")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestByStateOrdersPeriods(t *testing.T) {
	got, err := ByState(colonyTable(), "CA", nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2015Q1", "2016Q3", "2016Q4"},
		[]string{got[0].Period, got[1].Period, got[2].Period})
	assert.Len(t, got[0].Values, 2)
	assert.Equal(t, 0.0, *got[2].Values["varroa_mites"])

	_, err = ByState(colonyTable(), "Atlantis", nil)
	assert.ErrorIs(t, err, ErrUnknownState)

	_, err = ByState(colonyTable(), "California", []string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func productionTable() *types.Table {
	table := &types.Table{
		Kind:    types.KindProduction,
		Columns: []string{"honey_colonies"},
		Labels:  []string{types.ColYear},
	}
	add := func(state, code string, year int, v *float64) {
		table.Records = append(table.Records, types.Record{
			State: state, StateCode: code, Year: year,
			Values: map[string]*float64{"honey_colonies": v},
		})
	}
	add("Ohio", "OH", 2018, types.Float(5))
	add("Texas", "TX", 2018, types.Float(120))
	add("Iowa", "IA", 2018, nil)
	add("Utah", "UT", 2018, types.Float(120))
	add("Idaho", "ID", 2018, types.Float(80))
	add("Texas", "TX", 2017, types.Float(999))
	return table
}

func TestTopN(t *testing.T) {
	got, err := TopN(productionTable(), 2018, "honey_colonies", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Texas", got[0].State)
	assert.Equal(t, "Utah", got[1].State)
	assert.Equal(t, "Idaho", got[2].State)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Rank, got[1].Rank, got[2].Rank})
	assert.Equal(t, 120.0, *got[0].Value)
}

func TestTopNDefaultsAndMissing(t *testing.T) {
	got, err := TopN(productionTable(), 2018, "honey_colonies", 0)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	for _, r := range got {
		assert.NotEqual(t, "Iowa", r.State)
	}

	_, err = TopN(productionTable(), 2018, "price", 5)
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestPeriodsAndYears(t *testing.T) {
	assert.Equal(t, []string{"2015Q1", "2016Q3", "2016Q4"}, Periods(colonyTable()))
	assert.Equal(t, []string{"2017", "2018"}, Periods(productionTable()))
	assert.Equal(t, []int{2017, 2018}, Years(productionTable()))
}

func TestParseMetrics(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseMetrics(" a, ,b,"))
	assert.Nil(t, ParseMetrics(""))
}
