// Package gridci provides grid carbon-intensity data for the simulated
// data-center regions: a static regional table, an embedded historical
// series, and a stubbed live-API client with TTL caching and hybrid
// live/historical blending.
package gridci

// RegionalIntensity maps region names to grid carbon intensity.
// Values are in grams CO2e per kWh.
//
// Source: Indian grid averages used throughout the experiment series.
// Data vintage: 2024 (regenerate with: go run ./tools/update-ci-factors)
var RegionalIntensity = map[string]float64{
	"Northern": 535, // moderate
	"Southern": 607, // moderate-high
	"Western":  712, // high
	"Eastern":  813, // high
}

// DefaultIntensity is used when a region has no specific factor. It matches
// the conservative fallback the live client uses when the API is
// unreachable.
const DefaultIntensity = 700.0

// Intensity returns the static grid carbon intensity for the given region in
// gCO2e/kWh, or DefaultIntensity if the region is not listed.
func Intensity(region string) float64 {
	if ci, ok := RegionalIntensity[region]; ok {
		return ci
	}
	return DefaultIntensity
}

// Regions returns the region names present in the static table.
func Regions() []string {
	names := make([]string, 0, len(RegionalIntensity))
	for name := range RegionalIntensity {
		names = append(names, name)
	}
	return names
}
