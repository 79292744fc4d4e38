package sim

import (
	"github.com/pthm-cable/tank/components"
	"github.com/pthm-cable/tank/telemetry"
)

// BirthEvent reports one delivered brood.
type BirthEvent struct {
	Species string
	ParentA string
	ParentB string
	Babies  []string
}

// DeathEvent is a fish's final record, captured when it dies.
type DeathEvent struct {
	Name    string
	Species string
	Age     float32
	Reason  components.DeathReason
}

// Callbacks receive world notifications at the end of each tick. Nil
// fields are skipped. Handlers run on the Tick goroutine and must not
// call back into the world.
type Callbacks struct {
	ScoreChange      func(score int64)
	Birth            func(ev BirthEvent)
	Death            func(ev DeathEvent)
	PopulationChange func(counts map[string]int)
	Stats            func(stats telemetry.WindowStats)
}

// queueBirth buffers a birth event until the end-of-tick flush. Events
// past the queue cap are dropped.
func (w *World) queueBirth(ev BirthEvent) {
	if len(w.birthQueue) < cap(w.birthQueue) {
		w.birthQueue = append(w.birthQueue, ev)
	}
}

// queueDeath buffers a death event until the end-of-tick flush. Events
// past the queue cap are dropped.
func (w *World) queueDeath(ev DeathEvent) {
	if len(w.deathQueue) < cap(w.deathQueue) {
		w.deathQueue = append(w.deathQueue, ev)
	}
}

// flushEvents delivers buffered events and state-change notifications,
// then clears the queues for the next tick.
func (w *World) flushEvents() {
	if w.callbacks.Birth != nil {
		for i := range w.birthQueue {
			w.callbacks.Birth(w.birthQueue[i])
		}
	}
	w.birthQueue = w.birthQueue[:0]

	if w.callbacks.Death != nil {
		for i := range w.deathQueue {
			w.callbacks.Death(w.deathQueue[i])
		}
	}
	w.deathQueue = w.deathQueue[:0]

	if w.scoreDirty {
		if w.callbacks.ScoreChange != nil {
			w.callbacks.ScoreChange(w.score)
		}
		w.scoreDirty = false
	}

	if w.popDirty {
		if w.callbacks.PopulationChange != nil {
			w.callbacks.PopulationChange(w.Population())
		}
		w.popDirty = false
	}
}
