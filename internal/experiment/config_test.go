package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
model:
  base_power_w: 65
  degradation_rate_per_year: 0.10
  degradation_cap_fraction: 0.60
  total_embodied_kg: 660
  expected_lifetime_years: 5.0
pue: 1.58
sla_ms: 1000
strategies:
  - operational_only
  - balanced
durations_seconds: [15, 300]
repeats: 5
workers: 8
output: out/results.csv
fleet:
  regions:
    - name: Northern
      latency_ms: 70
      cost_factor: 3.0
      age_classes:
        - {name: new, age_years: 0.5, available: 10}
        - {name: old, age_years: 4.0, available: 30}
`

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.10, scenario.Model.DegradationRatePerYear, 1e-12)
	assert.InDelta(t, 1.58, scenario.PUE, 1e-12)
	assert.InDelta(t, 1000.0, scenario.SLAMs, 1e-12)
	assert.Equal(t, []string{"operational_only", "balanced"}, scenario.Strategies)
	assert.Equal(t, []float64{15, 300}, scenario.DurationsSeconds)
	assert.Equal(t, 5, scenario.Repeats)
	assert.Equal(t, "out/results.csv", scenario.Output)
	require.Len(t, scenario.Fleet.Regions, 1)
	assert.Len(t, scenario.Fleet.Regions[0].AgeClasses, 2)
}

func TestLoadScenario_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("strategies: {not: a list"), 0o644))
		_, err := LoadScenario(path)
		assert.Error(t, err)
	})

	t.Run("invalid strategy name fails before running", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("strategies: [time_travel]"), 0o644))
		_, err := LoadScenario(path)
		assert.ErrorContains(t, err, "time_travel")
	})
}

func TestCSVRoundTrip(t *testing.T) {
	records := []Record{
		{
			ID: "a3f0", Timestamp: "2024-11-09T12:00:00Z",
			Strategy: "operational_only", Region: "Northern", ServerAge: "new",
			ServerAgeYears: 0.5, DurationSeconds: 15, SLAMs: 2000,
			OperationalCO2G: 0.2067, EmbodiedCO2G: 0.0565, TotalCO2G: 0.2632,
			EmbodiedPercent: 21.45, CarbonDebtRatio: 0.9, PowerWatts: 68.9,
			LatencyMs: 70, CarbonIntensityGPerKWh: 535,
		},
		{
			ID: "b7c1", Timestamp: "2024-11-09T12:00:01Z",
			Strategy: "embodied_prioritized", Region: "Eastern", ServerAge: "old",
			ServerAgeYears: 4.0, DurationSeconds: 86400, SLAMs: 2000,
			OperationalCO2G: 2290.1, EmbodiedCO2G: 72.3, TotalCO2G: 2362.4,
			EmbodiedPercent: 3.06, CarbonDebtRatio: 0.2, PowerWatts: 96.2,
			LatencyMs: 120, CarbonIntensityGPerKWh: 813,
		},
	}

	path := filepath.Join(t.TempDir(), "nested", "results.csv")
	require.NoError(t, WriteCSV(path, records))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadCSV_Errors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "results.csv")
		require.NoError(t, os.WriteFile(path, []byte("id,strategy\n1,balanced\n"), 0o644))
		_, err := ReadCSV(path)
		assert.ErrorContains(t, err, "missing column")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})
}
