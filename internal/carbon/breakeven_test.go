package carbon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakEvenHours(t *testing.T) {
	model, err := NewModel(DefaultModelConfig())
	require.NoError(t, err)

	cfg := model.Config()
	oldServer := cfg.Profile(4.0)
	newServer := cfg.Profile(0.5)

	t.Run("replacement premium is eventually repaid on a dirty grid", func(t *testing.T) {
		hours, err := model.BreakEvenHours(oldServer, newServer, 700, 1.2)
		require.NoError(t, err)
		require.False(t, math.IsInf(hours, 1))
		assert.Positive(t, hours)

		// Cross-check against the raw quantities: the old server draws
		// 96.2W, the new one 68.9W, so savings accrue at a fixed hourly
		// rate against the new server's 0.9-debt embodied premium.
		oldDebt, _ := CarbonDebtRatio(4.0, 5.0)
		newDebt, _ := CarbonDebtRatio(0.5, 5.0)
		premiumG := 660*1000*newDebt - 660*1000*oldDebt
		savings := ((96.2 - 68.9) / 1000.0) * 700 * 1.2
		assert.InDelta(t, premiumG/savings, hours, 1e-6)
	})

	t.Run("no break-even when replacement is not more efficient", func(t *testing.T) {
		hours, err := model.BreakEvenHours(newServer, oldServer, 700, 1.2)
		require.NoError(t, err)
		assert.True(t, math.IsInf(hours, 1))
	})

	t.Run("rejects non-positive carbon intensity", func(t *testing.T) {
		_, err := model.BreakEvenHours(oldServer, newServer, 0, 1.2)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestAnalyzeReplacement(t *testing.T) {
	model, err := NewModel(DefaultModelConfig())
	require.NoError(t, err)
	cfg := model.Config()

	analysis, err := model.AnalyzeReplacement(cfg.Profile(4.0), cfg.Profile(0.5), 700, 1.2)
	require.NoError(t, err)

	assert.InDelta(t, 96.2, analysis.OldPowerWatts, 1e-9)
	assert.InDelta(t, 68.9, analysis.NewPowerWatts, 1e-9)
	assert.InDelta(t, 1.0*HoursPerYear, analysis.RemainingLifeHours, 1e-6)
	assert.Equal(t, analysis.BreakEvenHours < analysis.RemainingLifeHours, analysis.ShouldReplace)
}
