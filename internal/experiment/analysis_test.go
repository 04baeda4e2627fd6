package experiment

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwise/carbonsched/internal/carbon"
)

func TestDurationSensitivity(t *testing.T) {
	runner, err := NewRunner(testScenario(), zerolog.Nop())
	require.NoError(t, err)

	durations := []float64{5, 15, 30, 60, 300, 600, 1800, 3600, 14400, 86400}
	points, err := runner.DurationSensitivity(context.Background(), durations)
	require.NoError(t, err)
	require.Len(t, points, len(durations))

	t.Run("penalty ratio is near-constant across four orders of magnitude", func(t *testing.T) {
		summary := SummarizePenalty(points)
		assert.NotZero(t, summary.MeanRatio)
		assert.Less(t, summary.MaxSpread, 0.05,
			"linear amortization must not produce a duration-dependent penalty")
	})

	t.Run("no crossover appears in the sweep", func(t *testing.T) {
		sign := points[0].PenaltyRatio > 0
		for _, p := range points {
			assert.Equal(t, sign, p.PenaltyRatio > 0,
				"penalty sign flipped at %gs", p.DurationSeconds)
		}
	})

	t.Run("empty sweep is rejected", func(t *testing.T) {
		_, err := runner.DurationSensitivity(context.Background(), nil)
		assert.ErrorIs(t, err, carbon.ErrInvalidParameter)
	})
}

func TestSummarizePenalty(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Zero(t, SummarizePenalty(nil))
	})

	t.Run("identical ratios have zero spread", func(t *testing.T) {
		points := []PenaltyPoint{
			{PenaltyRatio: 0.14},
			{PenaltyRatio: 0.14},
			{PenaltyRatio: 0.14},
		}
		summary := SummarizePenalty(points)
		assert.InDelta(t, 0.14, summary.MeanRatio, 1e-12)
		assert.Zero(t, summary.StdDevRatio)
		assert.Zero(t, summary.MaxSpread)
	})
}

func TestRegionalMatrix(t *testing.T) {
	runner, err := NewRunner(testScenario(), zerolog.Nop())
	require.NoError(t, err)

	cells, err := runner.RegionalMatrix(context.Background(), 15)
	require.NoError(t, err)
	// 4 regions x 3 age classes.
	require.Len(t, cells, 12)

	byRegion := make(map[string][]MatrixCell)
	for _, cell := range cells {
		byRegion[cell.Region] = append(byRegion[cell.Region], cell)
	}

	for region, regionCells := range byRegion {
		require.Len(t, regionCells, 3, region)
		// Classes are listed youngest to oldest: operational climbs while
		// embodied falls.
		for i := 1; i < len(regionCells); i++ {
			assert.Greater(t, regionCells[i].OperationalCO2G, regionCells[i-1].OperationalCO2G, region)
			assert.Less(t, regionCells[i].EmbodiedCO2G, regionCells[i-1].EmbodiedCO2G, region)
		}
	}

	t.Run("invalid duration", func(t *testing.T) {
		_, err := runner.RegionalMatrix(context.Background(), 0)
		assert.ErrorIs(t, err, carbon.ErrInvalidParameter)
	})
}

func TestBoundarySweep(t *testing.T) {
	runner, err := NewRunner(testScenario(), zerolog.Nop())
	require.NoError(t, err)

	points, err := runner.BoundarySweep(
		[]float64{50, 100, 300, 600, 813},
		[]float64{0.05, 0.12},
		15,
	)
	require.NoError(t, err)
	require.Len(t, points, 10)

	find := func(ci, rate float64) BoundaryPoint {
		for _, p := range points {
			if p.CarbonIntensityGPerKWh == ci && p.DegradationRatePerYear == rate {
				return p
			}
		}
		t.Fatalf("missing point ci=%g rate=%g", ci, rate)
		return BoundaryPoint{}
	}

	t.Run("old hardware wins on clean slow-aging grids", func(t *testing.T) {
		assert.True(t, find(100, 0.05).OldServerWins)
		assert.True(t, find(50, 0.05).OldServerWins)
	})

	t.Run("new hardware wins on dirty fast-aging grids", func(t *testing.T) {
		assert.False(t, find(813, 0.12).OldServerWins)
		assert.False(t, find(600, 0.12).OldServerWins)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		_, err := runner.BoundarySweep(nil, []float64{0.12}, 15)
		assert.ErrorIs(t, err, carbon.ErrInvalidParameter)
		_, err = runner.BoundarySweep([]float64{600}, []float64{0.12}, -1)
		assert.ErrorIs(t, err, carbon.ErrInvalidParameter)
	})
}
