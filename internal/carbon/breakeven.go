package carbon

import (
	"fmt"
	"math"
)

// ReplacementAnalysis summarizes whether retiring an old server in favor of
// a new one pays back its embodied premium within the old server's remaining
// life.
type ReplacementAnalysis struct {
	BreakEvenHours     float64 `json:"break_even_hours"`
	RemainingLifeHours float64 `json:"remaining_life_hours"`
	ShouldReplace      bool    `json:"should_replace"`
	OldPowerWatts      float64 `json:"old_power_watts"`
	NewPowerWatts      float64 `json:"new_power_watts"`
}

// BreakEvenHours returns how long a replacement server must run before its
// operational savings repay the embodied carbon it introduces:
//
//	t = (embodied_new - embodied_old_remaining) / hourly operational savings
//
// The old server's remaining embodied debt is its footprint weighted by the
// debt ratio. Returns +Inf when the replacement draws at least as much power
// as the incumbent, since the premium is then never repaid.
func (m *Model) BreakEvenHours(oldServer, newServer ServerProfile, ciGPerKWh, pue float64) (float64, error) {
	if ciGPerKWh <= 0 {
		return 0, fmt.Errorf("%w: carbon intensity must be positive for break-even analysis, got %g", ErrInvalidParameter, ciGPerKWh)
	}
	if pue < 1.0 {
		return 0, fmt.Errorf("%w: PUE must be >= 1.0, got %g", ErrInvalidParameter, pue)
	}

	oldDebt, err := CarbonDebtRatio(oldServer.AgeYears, oldServer.ExpectedLifetimeYears)
	if err != nil {
		return 0, err
	}
	newDebt, err := CarbonDebtRatio(newServer.AgeYears, newServer.ExpectedLifetimeYears)
	if err != nil {
		return 0, err
	}

	oldRemainingG := oldServer.TotalEmbodiedKg * 1000.0 * oldDebt
	newEmbodiedG := newServer.TotalEmbodiedKg * 1000.0 * newDebt
	embodiedDiffG := newEmbodiedG - oldRemainingG

	oldWatts, err := m.PowerWatts(oldServer.AgeYears)
	if err != nil {
		return 0, err
	}
	newWatts, err := m.PowerWatts(newServer.AgeYears)
	if err != nil {
		return 0, err
	}

	savingsGPerHour := ((oldWatts - newWatts) / 1000.0) * ciGPerKWh * pue
	if savingsGPerHour <= 0 {
		return math.Inf(1), nil
	}
	if embodiedDiffG <= 0 {
		return 0, nil
	}

	return embodiedDiffG / savingsGPerHour, nil
}

// AnalyzeReplacement runs the break-even computation and compares it against
// the old server's remaining nominal life.
func (m *Model) AnalyzeReplacement(oldServer, newServer ServerProfile, ciGPerKWh, pue float64) (ReplacementAnalysis, error) {
	breakEven, err := m.BreakEvenHours(oldServer, newServer, ciGPerKWh, pue)
	if err != nil {
		return ReplacementAnalysis{}, err
	}

	remainingYears := oldServer.ExpectedLifetimeYears - oldServer.AgeYears
	if remainingYears < 0 {
		remainingYears = 0
	}
	remainingHours := remainingYears * HoursPerYear

	oldWatts, err := m.PowerWatts(oldServer.AgeYears)
	if err != nil {
		return ReplacementAnalysis{}, err
	}
	newWatts, err := m.PowerWatts(newServer.AgeYears)
	if err != nil {
		return ReplacementAnalysis{}, err
	}

	return ReplacementAnalysis{
		BreakEvenHours:     breakEven,
		RemainingLifeHours: remainingHours,
		ShouldReplace:      breakEven < remainingHours,
		OldPowerWatts:      oldWatts,
		NewPowerWatts:      newWatts,
	}, nil
}
