// Package main provides CMA-ES search over tank balance parameters.
package main

import (
	"github.com/pthm-cable/tank/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
// Cooldown min/max pairs get disjoint bounds so min can never cross max.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Energy (start, max and court_threshold locked)
			{Name: "decay_rate", Path: "energy.decay_rate", Min: 0.3, Max: 2.0, Default: 0.9},
			{Name: "move_cost", Path: "energy.move_cost", Min: 0.004, Max: 0.04, Default: 0.012},
			{Name: "feed_gain", Path: "energy.feed_gain", Min: 15, Max: 50, Default: 30},
			{Name: "hunt_gain", Path: "energy.hunt_gain", Min: 20, Max: 70, Default: 45},
			// Feeding
			{Name: "feed_hunger", Path: "feeding.hunger", Min: 60, Max: 95, Default: 85},
			{Name: "feed_cooldown_min", Path: "feeding.cooldown_min", Min: 0.5, Max: 2.5, Default: 1.5},
			{Name: "feed_cooldown_max", Path: "feeding.cooldown_max", Min: 2.5, Max: 8.0, Default: 4.0},
			// Hunting
			{Name: "hunt_hunger", Path: "hunting.hunger", Min: 40, Max: 90, Default: 70},
			{Name: "prey_size_ratio", Path: "hunting.prey_size_ratio", Min: 0.4, Max: 0.9, Default: 0.6},
			{Name: "hunt_cooldown_min", Path: "hunting.cooldown_min", Min: 2.0, Max: 8.0, Default: 6.0},
			{Name: "hunt_cooldown_max", Path: "hunting.cooldown_max", Min: 8.0, Max: 24.0, Default: 12.0},
			// Courtship (offspring counts and spawn jitter locked)
			{Name: "court_chance", Path: "courtship.chance", Min: 0.1, Max: 0.9, Default: 0.45},
			{Name: "pred_court_chance", Path: "courtship.predator_chance", Min: 0.05, Max: 0.5, Default: 0.15},
			{Name: "mature_age", Path: "courtship.mature_age", Min: 20, Max: 90, Default: 45},
			{Name: "court_cooldown_min", Path: "courtship.cooldown_min", Min: 60, Max: 180, Default: 120},
			{Name: "court_cooldown_max", Path: "courtship.cooldown_max", Min: 180, Max: 480, Default: 240},
			{Name: "newborn_energy", Path: "courtship.newborn_energy", Min: 40, Max: 90, Default: 70},
			// Death
			{Name: "illness_chance", Path: "death.illness_chance", Min: 0.0, Max: 0.002, Default: 0.0004},
			// Food
			{Name: "autofeed_interval", Path: "food.autofeed_interval", Min: 1.0, Max: 8.0, Default: 2.5},
			{Name: "food_max_active", Path: "food.max_active", Min: 24, Max: 128, Default: 64},
			// Population
			{Name: "soft_cap", Path: "population.soft_cap", Min: 40, Max: 160, Default: 80},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct. Derived
// values are not recomputed here; callers that run the sim afterwards
// must call cfg.ComputeDerived themselves.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Clamp values to ensure they're within bounds
	clamped := pv.Clamp(values)

	// Apply each parameter to the config
	// Order must match Specs order
	i := 0

	// Energy (start, max and court_threshold locked)
	cfg.Energy.DecayRate = clamped[i]; i++
	cfg.Energy.MoveCost = clamped[i]; i++
	cfg.Energy.FeedGain = clamped[i]; i++
	cfg.Energy.HuntGain = clamped[i]; i++

	// Feeding
	cfg.Feeding.Hunger = clamped[i]; i++
	cfg.Feeding.CooldownMin = clamped[i]; i++
	cfg.Feeding.CooldownMax = clamped[i]; i++

	// Hunting
	cfg.Hunting.Hunger = clamped[i]; i++
	cfg.Hunting.PreySizeRatio = clamped[i]; i++
	cfg.Hunting.CooldownMin = clamped[i]; i++
	cfg.Hunting.CooldownMax = clamped[i]; i++

	// Courtship (offspring counts and spawn jitter locked)
	cfg.Courtship.Chance = clamped[i]; i++
	cfg.Courtship.PredatorChance = clamped[i]; i++
	cfg.Courtship.MatureAge = clamped[i]; i++
	cfg.Courtship.CooldownMin = clamped[i]; i++
	cfg.Courtship.CooldownMax = clamped[i]; i++
	cfg.Courtship.NewbornEnergy = clamped[i]; i++

	// Death
	cfg.Death.IllnessChance = clamped[i]; i++

	// Food
	cfg.Food.AutofeedInterval = clamped[i]; i++
	cfg.Food.MaxActive = int(clamped[i]); i++

	// Population
	cfg.Population.SoftCap = int(clamped[i])
}
