// Package carbon implements the carbon-cost model for simulated serverless
// task executions: operational CO2e from electricity draw (adjusted for
// hardware-age power degradation and grid carbon intensity) and embodied
// CO2e amortized from the server's manufacturing footprint.
//
// Every function in this package is pure and deterministic given its inputs.
// There is no shared mutable state, so the package is safe for concurrent
// use without synchronization.
package carbon

const (
	// DefaultBasePowerW is the baseline power draw of a brand-new server in
	// watts. This is the single baseline wattage in the system; age-specific
	// wattage is always computed from it, never stored per age class.
	DefaultBasePowerW = 65.0

	// DefaultDegradationRatePerYear is the slope of the linear power
	// degradation model (12% additional draw per year of age).
	DefaultDegradationRatePerYear = 0.12

	// DefaultDegradationCapFraction caps total degradation at 60% above the
	// baseline regardless of age. An uncapped linear model produces absurd
	// wattage for old hardware (+120% at 10 years).
	DefaultDegradationCapFraction = 0.60

	// DefaultTotalEmbodiedKg is the total lifecycle manufacturing footprint
	// per server in kgCO2e, constant across age classes.
	DefaultTotalEmbodiedKg = 660.0

	// DefaultExpectedLifetimeYears is the nominal retirement age used for
	// amortization and the carbon debt ratio.
	DefaultExpectedLifetimeYears = 5.0

	// DefaultPUE is the default datacenter Power Usage Effectiveness
	// multiplier. PUE is always an explicit input to the model; this value
	// only seeds GridContext construction.
	DefaultPUE = 1.2

	// HoursPerYear uses the astronomical year so lifetime amortization
	// matches the research baseline exactly.
	HoursPerYear = 365.25 * 24

	// SumTolerance is the relative tolerance for the total = operational +
	// embodied invariant check in Evaluate.
	SumTolerance = 1e-9
)
