package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	PreyCount int `csv:"prey"`
	PredCount int `csv:"pred"`

	// Events during window
	Births        int   `csv:"births"`
	DeathsOldAge  int   `csv:"deaths_old_age"`
	DeathsStarved int   `csv:"deaths_starved"`
	DeathsIllness int   `csv:"deaths_illness"`
	DeathsEaten   int   `csv:"deaths_eaten"`
	Feeds         int   `csv:"feeds"`
	Kills         int   `csv:"kills"`
	ScoreDelta    int64 `csv:"score_delta"`
	NameFallbacks int   `csv:"name_fallbacks"`

	// Distributions sampled at window end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
	AgeMean    float64 `csv:"age_mean"`
	AgeP50     float64 `csv:"age_p50"`
}

// Distribution computes mean and 10/50/90 percentiles of a sample.
// Returns zeros for an empty sample.
func Distribution(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	p50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	p90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred", s.PredCount),
		slog.Int("births", s.Births),
		slog.Int("deaths_old_age", s.DeathsOldAge),
		slog.Int("deaths_starved", s.DeathsStarved),
		slog.Int("deaths_illness", s.DeathsIllness),
		slog.Int("deaths_eaten", s.DeathsEaten),
		slog.Int("feeds", s.Feeds),
		slog.Int("kills", s.Kills),
		slog.Int64("score_delta", s.ScoreDelta),
		slog.Int("name_fallbacks", s.NameFallbacks),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("age_p50", s.AgeP50),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"prey", s.PreyCount,
		"pred", s.PredCount,
		"births", s.Births,
		"deaths_old_age", s.DeathsOldAge,
		"deaths_starved", s.DeathsStarved,
		"deaths_illness", s.DeathsIllness,
		"deaths_eaten", s.DeathsEaten,
		"feeds", s.Feeds,
		"kills", s.Kills,
		"score_delta", s.ScoreDelta,
		"name_fallbacks", s.NameFallbacks,
		"energy_mean", s.EnergyMean,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"age_mean", s.AgeMean,
		"age_p50", s.AgeP50,
	)
}
