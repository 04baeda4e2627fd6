package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwise/carbonsched/internal/carbon"
)

func TestParse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, strat := range All() {
			parsed, err := Parse(strat.String())
			require.NoError(t, err)
			assert.Equal(t, strat, parsed)
		}
	})

	t.Run("unknown name is an invalid parameter, not a default", func(t *testing.T) {
		_, err := Parse("carbon_neutral_vibes")
		require.Error(t, err)
		assert.ErrorIs(t, err, carbon.ErrInvalidParameter)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := Parse("")
		assert.ErrorIs(t, err, carbon.ErrInvalidParameter)
	})
}

func TestFleetValidate(t *testing.T) {
	t.Run("default fleet is valid", func(t *testing.T) {
		assert.NoError(t, DefaultFleet().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Fleet)
	}{
		{name: "no regions", mutate: func(f *Fleet) { f.Regions = nil }},
		{name: "duplicate region", mutate: func(f *Fleet) { f.Regions = append(f.Regions, f.Regions[0]) }},
		{name: "zero latency", mutate: func(f *Fleet) { f.Regions[0].LatencyMs = 0 }},
		{name: "no age classes", mutate: func(f *Fleet) { f.Regions[0].AgeClasses = nil }},
		{name: "negative age", mutate: func(f *Fleet) { f.Regions[0].AgeClasses[0].AgeYears = -1 }},
		{name: "negative availability", mutate: func(f *Fleet) { f.Regions[0].AgeClasses[0].Available = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fleet := DefaultFleet()
			tt.mutate(&fleet)
			assert.ErrorIs(t, fleet.Validate(), carbon.ErrInvalidParameter)
		})
	}
}
