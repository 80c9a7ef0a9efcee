package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tr := NewTransformer(nil)

	tests := []struct {
		raw     string
		want    float64
		missing bool
	}{
		{raw: "(Z)", want: 0},
		{raw: " (Z) ", want: 0},
		{raw: "(X)", missing: true},
		{raw: "-", missing: true},
		{raw: "12.5", want: 12.5},
		{raw: "7000", want: 7000},
		{raw: "", missing: true},
		{raw: "n/a", missing: true},
		{raw: "NaN", missing: true},
		{raw: "Inf", missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := tr.Coerce(tt.raw)
			if tt.missing {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestMapState(t *testing.T) {
	tr := NewTransformer(nil)

	name, code, err := tr.MapState("Alabama")
	require.NoError(t, err)
	assert.Equal(t, "Alabama", name)
	assert.Equal(t, "AL", code)

	name, code, err = tr.MapState("PR")
	require.NoError(t, err)
	assert.Equal(t, "Puerto Rico", name)
	assert.Equal(t, "PR", code)

	_, _, err = tr.MapState("United States")
	assert.ErrorIs(t, err, ErrUnknownState)
}
