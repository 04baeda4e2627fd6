package strategy

import (
	"fmt"

	"github.com/gridwise/carbonsched/internal/carbon"
)

// AgeClass is a pool of interchangeable servers of the same age within a
// region.
type AgeClass struct {
	// Name labels the pool ("new", "medium", "old").
	Name string `yaml:"name" json:"name"`

	// AgeYears is the age of every server in the pool.
	AgeYears float64 `yaml:"age_years" json:"age_years"`

	// Available is how many servers the pool can currently host.
	Available int `yaml:"available" json:"available"`
}

// Region is one simulated data center.
type Region struct {
	Name       string     `yaml:"name" json:"name"`
	LatencyMs  float64    `yaml:"latency_ms" json:"latency_ms"`
	CostFactor float64    `yaml:"cost_factor" json:"cost_factor"`
	AgeClasses []AgeClass `yaml:"age_classes" json:"age_classes"`
}

// availableClasses returns the region's age classes that have capacity.
func (r Region) availableClasses() []AgeClass {
	out := make([]AgeClass, 0, len(r.AgeClasses))
	for _, ac := range r.AgeClasses {
		if ac.Available > 0 {
			out = append(out, ac)
		}
	}
	return out
}

// Fleet is the set of candidate regions a task may be placed in.
type Fleet struct {
	Regions []Region `yaml:"regions" json:"regions"`
}

// Validate checks the fleet is structurally usable for selection.
func (f Fleet) Validate() error {
	if len(f.Regions) == 0 {
		return fmt.Errorf("%w: fleet has no regions", carbon.ErrInvalidParameter)
	}
	seen := make(map[string]bool, len(f.Regions))
	for _, r := range f.Regions {
		if r.Name == "" {
			return fmt.Errorf("%w: region with empty name", carbon.ErrInvalidParameter)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate region %q", carbon.ErrInvalidParameter, r.Name)
		}
		seen[r.Name] = true
		if r.LatencyMs <= 0 {
			return fmt.Errorf("%w: region %q latency must be positive, got %g", carbon.ErrInvalidParameter, r.Name, r.LatencyMs)
		}
		if len(r.AgeClasses) == 0 {
			return fmt.Errorf("%w: region %q has no age classes", carbon.ErrInvalidParameter, r.Name)
		}
		for _, ac := range r.AgeClasses {
			if ac.AgeYears < 0 {
				return fmt.Errorf("%w: region %q class %q has negative age", carbon.ErrInvalidParameter, r.Name, ac.Name)
			}
			if ac.Available < 0 {
				return fmt.Errorf("%w: region %q class %q has negative availability", carbon.ErrInvalidParameter, r.Name, ac.Name)
			}
		}
	}
	return nil
}

// DefaultFleet returns the four-region research fleet with its mixed
// hardware-age pools.
func DefaultFleet() Fleet {
	classes := func(newN, medN, oldN int) []AgeClass {
		return []AgeClass{
			{Name: "new", AgeYears: 0.5, Available: newN},
			{Name: "medium", AgeYears: 2.5, Available: medN},
			{Name: "old", AgeYears: 4.0, Available: oldN},
		}
	}
	return Fleet{
		Regions: []Region{
			{Name: "Northern", LatencyMs: 70, CostFactor: 3.0, AgeClasses: classes(10, 20, 30)},
			{Name: "Western", LatencyMs: 90, CostFactor: 2.8, AgeClasses: classes(15, 15, 20)},
			{Name: "Southern", LatencyMs: 80, CostFactor: 3.2, AgeClasses: classes(20, 25, 15)},
			{Name: "Eastern", LatencyMs: 120, CostFactor: 2.5, AgeClasses: classes(8, 12, 40)},
		},
	}
}
