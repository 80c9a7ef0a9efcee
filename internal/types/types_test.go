package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "2016Q3", PeriodKey(2016, "Q3"))
	assert.Equal(t, "0999Q1", PeriodKey(999, "Q1"))
}

func TestQuarterLabel(t *testing.T) {
	q, ok := QuarterLabel(0)
	require.True(t, ok)
	assert.Equal(t, "Q1", q)

	q, ok = QuarterLabel(5)
	require.True(t, ok)
	assert.Equal(t, "Q6", q)

	_, ok = QuarterLabel(len(Quarters))
	assert.False(t, ok)
	_, ok = QuarterLabel(-1)
	assert.False(t, ok)
}

func TestSchemaArity(t *testing.T) {
	for _, kind := range []Kind{KindColony, KindStressor, KindProduction} {
		s, ok := SchemaFor(kind)
		require.True(t, ok, kind)
		assert.Equal(t, s.Arity, LeadingFields+1+len(s.Columns), kind)
	}
	_, ok := SchemaFor(KindColonyStressor)
	assert.False(t, ok)
}

func TestRecordValueMissingIsNotZero(t *testing.T) {
	r := Record{Values: map[string]*float64{"zero": Float(0), "missing": nil}}

	v, ok := r.Value("zero")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, ok = r.Value("missing")
	assert.False(t, ok)
	_, ok = r.Value("absent")
	assert.False(t, ok)
}

func TestRecordClone(t *testing.T) {
	r := Record{State: "Ohio", Values: map[string]*float64{"a": Float(1), "b": nil}}
	c := r.Clone()

	*c.Values["a"] = 2
	c.Values["c"] = Float(3)

	v, _ := r.Value("a")
	assert.Equal(t, 1.0, v)
	assert.NotContains(t, r.Values, "c")
	assert.Contains(t, c.Values, "b")
}

func TestTableHeader(t *testing.T) {
	table := &Table{Columns: []string{"production"}, Labels: []string{ColYear}}
	assert.Equal(t, []string{"state", "state_code", "production", "year"}, table.Header())
	assert.True(t, table.HasColumn("production"))
	assert.False(t, table.HasColumn("year"))
	assert.Zero(t, table.Len())
}
