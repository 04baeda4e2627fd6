package carbon

// ServerProfile describes one candidate hardware instance a task could run
// on. Profiles are constructed fresh per evaluation and never mutated.
//
// Note the absence of a wattage field: the baseline wattage lives in
// ModelConfig and age-specific draw is always computed by PowerWatts.
// Storing a pre-degraded wattage per age bucket and then degrading it again
// was a real modeling bug; the type forbids it by construction.
type ServerProfile struct {
	// AgeYears is the time since manufacture.
	AgeYears float64

	// TotalEmbodiedKg is the total lifecycle manufacturing CO2e for this
	// server class in kilograms.
	TotalEmbodiedKg float64

	// ExpectedLifetimeYears is the planned retirement age.
	ExpectedLifetimeYears float64
}

// GridContext is the electricity environment for a task.
type GridContext struct {
	// CarbonIntensityGPerKWh is grams CO2e per kWh of grid electricity at
	// decision time.
	CarbonIntensityGPerKWh float64

	// PUE is the datacenter power usage effectiveness multiplier (total
	// facility draw per unit of server draw). Must be >= 1.0 and must be an
	// explicit input; the model never hardcodes it.
	PUE float64
}

// Task is the unit of work being scheduled.
type Task struct {
	// DurationSeconds is the expected execution time. Must be positive.
	DurationSeconds float64

	// SLAMs is the latency bound in milliseconds. It informs region choice
	// in the strategy selector; the cost model itself does not consume it.
	SLAMs float64
}

// CarbonResult is the output of one cost evaluation. It is created once per
// evaluation and returned by value; callers may persist results, never
// profiles.
type CarbonResult struct {
	// OperationalCO2G is CO2e from electricity consumed while the task ran.
	OperationalCO2G float64 `json:"operational_co2_g"`

	// EmbodiedCO2G is the amortized share of the server's manufacturing
	// footprint attributed to the task.
	EmbodiedCO2G float64 `json:"embodied_co2_g"`

	// TotalCO2G is the direct sum of the two components. Evaluate is the
	// sole place this sum is constructed.
	TotalCO2G float64 `json:"total_co2_g"`

	// EmbodiedPercent is 100 * embodied / total, or 0 when total is 0.
	EmbodiedPercent float64 `json:"embodied_percent"`

	// PowerWatts is the degradation-adjusted draw used for the operational
	// component, recorded so callers can audit why a total was produced.
	PowerWatts float64 `json:"power_watts"`

	// DebtRatio is the carbon debt ratio applied to the embodied component.
	DebtRatio float64 `json:"carbon_debt_ratio"`
}

// ModelConfig carries the tunable parameters of the cost model. The zero
// value is not usable; construct with DefaultModelConfig and override fields
// as needed.
type ModelConfig struct {
	// BasePowerW is the single shared baseline wattage for all age classes.
	BasePowerW float64 `yaml:"base_power_w"`

	// DegradationRatePerYear is the slope of the linear power-degradation
	// model.
	DegradationRatePerYear float64 `yaml:"degradation_rate_per_year"`

	// DegradationCapFraction is the maximum fractional power increase
	// regardless of age.
	DegradationCapFraction float64 `yaml:"degradation_cap_fraction"`

	// TotalEmbodiedKg is the manufacturing footprint per server.
	TotalEmbodiedKg float64 `yaml:"total_embodied_kg"`

	// ExpectedLifetimeYears is the nominal retirement age.
	ExpectedLifetimeYears float64 `yaml:"expected_lifetime_years"`
}

// DefaultModelConfig returns the research-baseline parameters.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		BasePowerW:             DefaultBasePowerW,
		DegradationRatePerYear: DefaultDegradationRatePerYear,
		DegradationCapFraction: DefaultDegradationCapFraction,
		TotalEmbodiedKg:        DefaultTotalEmbodiedKg,
		ExpectedLifetimeYears:  DefaultExpectedLifetimeYears,
	}
}

// Profile builds a ServerProfile of the given age from the config's embodied
// footprint and lifetime.
func (c ModelConfig) Profile(ageYears float64) ServerProfile {
	return ServerProfile{
		AgeYears:              ageYears,
		TotalEmbodiedKg:       c.TotalEmbodiedKg,
		ExpectedLifetimeYears: c.ExpectedLifetimeYears,
	}
}
