package experiment

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwise/carbonsched/internal/carbon"
)

func testScenario() Scenario {
	s := DefaultScenario()
	s.DurationsSeconds = []float64{5, 15, 60}
	s.Repeats = 2
	s.Workers = 3
	return s
}

func TestRunner_Run(t *testing.T) {
	runner, err := NewRunner(testScenario(), zerolog.Nop())
	require.NoError(t, err)

	records, err := runner.Run(context.Background())
	require.NoError(t, err)

	// 3 strategies x 3 durations x 2 repeats.
	require.Len(t, records, 18)

	t.Run("records are complete and internally consistent", func(t *testing.T) {
		ids := make(map[string]bool, len(records))
		for _, rec := range records {
			assert.NotEmpty(t, rec.ID)
			assert.False(t, ids[rec.ID], "run IDs must be unique")
			ids[rec.ID] = true

			assert.NotEmpty(t, rec.Strategy)
			assert.NotEmpty(t, rec.Region)
			assert.InDelta(t, rec.OperationalCO2G+rec.EmbodiedCO2G, rec.TotalCO2G, 1e-9)
			assert.Positive(t, rec.PowerWatts)
		}
	})

	t.Run("job grid order is stable", func(t *testing.T) {
		// First block belongs to the first configured strategy at the
		// first duration.
		assert.Equal(t, "embodied_prioritized", records[0].Strategy)
		assert.InDelta(t, 5.0, records[0].DurationSeconds, 1e-12)
		assert.Equal(t, "operational_only", records[len(records)-1].Strategy)
	})

	t.Run("placements are deterministic across repeats", func(t *testing.T) {
		assert.Equal(t, records[0].Region, records[1].Region)
		assert.Equal(t, records[0].ServerAge, records[1].ServerAge)
		assert.InDelta(t, records[0].TotalCO2G, records[1].TotalCO2G, 1e-12)
	})
}

func TestRunner_RunCancelled(t *testing.T) {
	runner, err := NewRunner(testScenario(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunner_InvalidScenario(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{name: "unknown strategy", mutate: func(s *Scenario) { s.Strategies = []string{"wishful_thinking"} }},
		{name: "no strategies", mutate: func(s *Scenario) { s.Strategies = nil }},
		{name: "no durations", mutate: func(s *Scenario) { s.DurationsSeconds = nil }},
		{name: "negative duration", mutate: func(s *Scenario) { s.DurationsSeconds = []float64{-5} }},
		{name: "zero repeats", mutate: func(s *Scenario) { s.Repeats = 0 }},
		{name: "zero workers", mutate: func(s *Scenario) { s.Workers = 0 }},
		{name: "PUE below one", mutate: func(s *Scenario) { s.PUE = 0.8 }},
		{name: "zero SLA", mutate: func(s *Scenario) { s.SLAMs = 0 }},
		{name: "empty fleet", mutate: func(s *Scenario) { s.Fleet.Regions = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := testScenario()
			tt.mutate(&scenario)
			_, err := NewRunner(scenario, zerolog.Nop())
			assert.ErrorIs(t, err, carbon.ErrInvalidParameter)
		})
	}
}
