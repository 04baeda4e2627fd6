package carbon

import (
	"fmt"
	"math"
)

// PowerWatts returns the degradation-adjusted power draw for a server of the
// given age.
//
// The degradation model is linear with a hard cap:
//
//	factor = min(ratePerYear * ageYears, capFraction)
//	watts  = basePowerW * (1 + factor)
//
// The cap is checked as a postcondition, not assumed: an uncapped linear
// model once produced +120% draw for decade-old hardware and skewed an
// entire experiment series.
func PowerWatts(basePowerW, ageYears, ratePerYear, capFraction float64) (float64, error) {
	if basePowerW <= 0 {
		return 0, fmt.Errorf("%w: base power must be positive, got %gW", ErrInvalidParameter, basePowerW)
	}
	if ageYears < 0 {
		return 0, fmt.Errorf("%w: age must be non-negative, got %g years", ErrInvalidParameter, ageYears)
	}
	if ratePerYear < 0 {
		return 0, fmt.Errorf("%w: degradation rate must be non-negative, got %g", ErrInvalidParameter, ratePerYear)
	}
	if capFraction < 0 {
		return 0, fmt.Errorf("%w: degradation cap must be non-negative, got %g", ErrInvalidParameter, capFraction)
	}

	factor := math.Min(ratePerYear*ageYears, capFraction)
	watts := basePowerW * (1 + factor)

	maxWatts := basePowerW * (1 + capFraction)
	if watts > maxWatts*(1+SumTolerance) {
		return 0, fmt.Errorf("%w: power %.2fW exceeds cap %.2fW for base %.2fW at age %.2fy",
			ErrPostconditionViolated, watts, maxWatts, basePowerW, ageYears)
	}

	return watts, nil
}

// CarbonDebtRatio returns the fraction of a server's embodied footprint
// still unpaid by future operation: (L - t) / L, clamped to [0, 1]. New
// hardware is fully unpaid (ratio 1); hardware at or past end of life is
// fully paid off (ratio 0).
func CarbonDebtRatio(ageYears, expectedLifetimeYears float64) (float64, error) {
	if expectedLifetimeYears <= 0 {
		return 0, fmt.Errorf("%w: expected lifetime must be positive, got %g years", ErrInvalidParameter, expectedLifetimeYears)
	}
	if ageYears < 0 {
		return 0, fmt.Errorf("%w: age must be non-negative, got %g years", ErrInvalidParameter, ageYears)
	}

	ratio := (expectedLifetimeYears - ageYears) / expectedLifetimeYears
	if ratio < 0 {
		return 0, nil
	}
	if ratio > 1 {
		return 1, nil
	}
	return ratio, nil
}

// OperationalCO2Grams returns CO2e in grams for drawing powerW for
// durationSeconds on a grid with the given carbon intensity and datacenter
// PUE:
//
//	energyKWh = (powerW * durationSeconds/3600) / 1000
//	grams     = energyKWh * ciGPerKWh * pue
//
// The result is strictly linear in power, duration, and intensity. That
// linearity is what produces the constant-percentage-penalty phenomenon the
// model exists to exhibit; do not introduce nonlinearity here.
func OperationalCO2Grams(powerW, durationSeconds, ciGPerKWh, pue float64) (float64, error) {
	if powerW <= 0 {
		return 0, fmt.Errorf("%w: power must be positive, got %gW", ErrInvalidParameter, powerW)
	}
	if durationSeconds <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %gs", ErrInvalidParameter, durationSeconds)
	}
	if ciGPerKWh < 0 {
		return 0, fmt.Errorf("%w: carbon intensity must be non-negative, got %g gCO2e/kWh", ErrInvalidParameter, ciGPerKWh)
	}
	if pue < 1.0 {
		return 0, fmt.Errorf("%w: PUE must be >= 1.0, got %g", ErrInvalidParameter, pue)
	}

	energyKWh := (powerW * (durationSeconds / 3600.0)) / 1000.0
	return energyKWh * ciGPerKWh * pue, nil
}

// AmortizedEmbodiedCO2Grams returns the share of a server's manufacturing
// footprint attributed to a task of the given duration, in grams.
//
// The footprint is amortized over the TOTAL nominal lifetime, then weighted
// by the debt ratio:
//
//	carbonPerHour = (totalEmbodiedKg * 1000) / (lifetimeYears * 365.25 * 24)
//	grams         = carbonPerHour * durationHours * debtRatio
//
// Amortizing over the remaining lifetime while also applying the debt ratio
// double-counts age and is forbidden, as is any extra new-hardware
// multiplier on top of the ratio; both were identified bugs in earlier
// revisions of the model.
func AmortizedEmbodiedCO2Grams(totalEmbodiedKg, ageYears, expectedLifetimeYears, durationHours float64) (float64, error) {
	if totalEmbodiedKg < 0 {
		return 0, fmt.Errorf("%w: embodied carbon must be non-negative, got %g kg", ErrInvalidParameter, totalEmbodiedKg)
	}

	debtRatio, err := CarbonDebtRatio(ageYears, expectedLifetimeYears)
	if err != nil {
		return 0, err
	}

	totalLifetimeHours := expectedLifetimeYears * HoursPerYear
	carbonPerHourG := (totalEmbodiedKg * 1000.0) / totalLifetimeHours

	return carbonPerHourG * durationHours * debtRatio, nil
}

// Model evaluates complete task footprints from a fixed parameter set.
// Models are immutable after construction and safe for concurrent use.
type Model struct {
	cfg ModelConfig
}

// NewModel validates the config and returns a Model.
func NewModel(cfg ModelConfig) (*Model, error) {
	if cfg.BasePowerW <= 0 {
		return nil, fmt.Errorf("%w: base power must be positive, got %gW", ErrInvalidParameter, cfg.BasePowerW)
	}
	if cfg.DegradationRatePerYear < 0 {
		return nil, fmt.Errorf("%w: degradation rate must be non-negative, got %g", ErrInvalidParameter, cfg.DegradationRatePerYear)
	}
	if cfg.DegradationCapFraction < 0 {
		return nil, fmt.Errorf("%w: degradation cap must be non-negative, got %g", ErrInvalidParameter, cfg.DegradationCapFraction)
	}
	if cfg.TotalEmbodiedKg < 0 {
		return nil, fmt.Errorf("%w: embodied carbon must be non-negative, got %g kg", ErrInvalidParameter, cfg.TotalEmbodiedKg)
	}
	if cfg.ExpectedLifetimeYears <= 0 {
		return nil, fmt.Errorf("%w: expected lifetime must be positive, got %g years", ErrInvalidParameter, cfg.ExpectedLifetimeYears)
	}
	return &Model{cfg: cfg}, nil
}

// Config returns the model's parameter set.
func (m *Model) Config() ModelConfig {
	return m.cfg
}

// PowerWatts returns the degradation-adjusted draw for a server of the given
// age using the model's shared baseline wattage.
func (m *Model) PowerWatts(ageYears float64) (float64, error) {
	return PowerWatts(m.cfg.BasePowerW, ageYears, m.cfg.DegradationRatePerYear, m.cfg.DegradationCapFraction)
}

// Evaluate computes the full carbon footprint of one hypothetical task
// execution on the given server and grid.
//
// This is the sole place a total is constructed as the sum of the two
// components; no other code path may recompute a total independently. The
// sum invariant is re-checked before returning and a violation is reported
// as ErrPostconditionViolated rather than swallowed.
func (m *Model) Evaluate(server ServerProfile, grid GridContext, task Task) (CarbonResult, error) {
	watts, err := m.PowerWatts(server.AgeYears)
	if err != nil {
		return CarbonResult{}, err
	}

	operational, err := OperationalCO2Grams(watts, task.DurationSeconds, grid.CarbonIntensityGPerKWh, grid.PUE)
	if err != nil {
		return CarbonResult{}, err
	}

	durationHours := task.DurationSeconds / 3600.0
	embodied, err := AmortizedEmbodiedCO2Grams(server.TotalEmbodiedKg, server.AgeYears, server.ExpectedLifetimeYears, durationHours)
	if err != nil {
		return CarbonResult{}, err
	}

	debtRatio, err := CarbonDebtRatio(server.AgeYears, server.ExpectedLifetimeYears)
	if err != nil {
		return CarbonResult{}, err
	}

	total := operational + embodied
	if err := checkSum(operational, embodied, total); err != nil {
		return CarbonResult{}, err
	}

	embodiedPercent := 0.0
	if total > 0 {
		embodiedPercent = 100.0 * embodied / total
	}

	return CarbonResult{
		OperationalCO2G: operational,
		EmbodiedCO2G:    embodied,
		TotalCO2G:       total,
		EmbodiedPercent: embodiedPercent,
		PowerWatts:      watts,
		DebtRatio:       debtRatio,
	}, nil
}

// checkSum guards the total = operational + embodied invariant within
// relative tolerance.
func checkSum(operational, embodied, total float64) error {
	sum := operational + embodied
	diff := math.Abs(total - sum)
	scale := math.Max(math.Abs(total), math.Abs(sum))
	if diff > SumTolerance*math.Max(scale, 1.0) {
		return fmt.Errorf("%w: total %.12g != operational %.12g + embodied %.12g",
			ErrPostconditionViolated, total, operational, embodied)
	}
	return nil
}
