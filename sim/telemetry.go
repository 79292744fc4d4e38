package sim

import "log/slog"

// flushTelemetry closes the current stats window: samples the live
// population, emits the window row, and appends CSV output if
// configured. Output failures are logged and do not stop the tick.
func (w *World) flushTelemetry() {
	energies := make([]float64, 0, w.aliveCount)
	ages := make([]float64, 0, w.aliveCount)
	preyCount, predCount := 0, 0

	query := w.entityFilter.Query()
	for query.Next() {
		_, _, _, _, _, energy, fish := query.Get()
		if !energy.Alive {
			continue
		}
		energies = append(energies, float64(energy.Value))
		ages = append(ages, float64(energy.Age))
		if w.catalog[fish.Species].Predator {
			predCount++
		} else {
			preyCount++
		}
	}

	stats := w.collector.Flush(w.tick, preyCount, predCount, energies, ages)

	if w.logStats {
		stats.LogStats()
	}

	if w.callbacks.Stats != nil {
		w.callbacks.Stats(stats)
	}

	if w.output != nil {
		if err := w.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := w.output.WritePerf(w.perf.Stats(), stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf stats", "error", err)
		}
	}
}
