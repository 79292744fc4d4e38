package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/tank/config"
)

// newbornCreator spawns offspring through the test factory and resets
// them to newborn state so they cannot court inside the test window.
func newbornCreator(tw *testWorld) FishCreator {
	return func(speciesIdx int, x, y float32) ecs.Entity {
		e := tw.spawn(speciesIdx, x, y)
		baby := tw.energyMap.Get(e)
		baby.Age = 0
		baby.Value = 50
		return e
	}
}

// runCourtship advances the courtship system for the given number of
// ticks, rebuilding the grid like the world loop does.
func runCourtship(tw *testWorld, cs *CourtshipSystem, ticks int, population int) []BirthRecord {
	var records []BirthRecord
	create := newbornCreator(tw)
	for i := 0; i < ticks; i++ {
		tw.rebuildGrid()
		records = append(records, cs.Update(tw.world, tw.grid, population, create)...)
	}
	return records
}

// ---------- Pairing and delivery ----------

func TestCourtship_PairSpawnsOneBrood(t *testing.T) {
	cfg := config.Cfg()
	tw := newTestWorld()

	spIdx := preyIdx(tw.catalog)
	a := tw.spawn(spIdx, 300, 300)
	b := tw.spawn(spIdx, 306, 300)

	cs := NewCourtshipSystem(tw.world, tw.catalog, rand.New(rand.NewSource(11)))
	records := runCourtship(tw, cs, 1800, 2)

	if len(records) != 1 {
		t.Fatalf("expected exactly one brood in the window, got %d", len(records))
	}
	rec := records[0]
	if rec.Species != spIdx {
		t.Errorf("offspring species should match the parents, got %d", rec.Species)
	}
	n := len(rec.Babies)
	if n < cfg.Courtship.OffspringMin || n > cfg.Courtship.OffspringMax {
		t.Fatalf("brood size %d outside [%d, %d]", n, cfg.Courtship.OffspringMin, cfg.Courtship.OffspringMax)
	}

	for _, parent := range []ecs.Entity{a, b} {
		fish := tw.fishMap.Get(parent)
		if fish.ReproCooldown < float32(cfg.Courtship.CooldownMin) || fish.ReproCooldown > float32(cfg.Courtship.CooldownMax) {
			t.Errorf("parent cooldown %f outside [%f, %f]", fish.ReproCooldown, cfg.Courtship.CooldownMin, cfg.Courtship.CooldownMax)
		}
		if int(fish.Offspring) != n {
			t.Errorf("parent offspring counter %d, want %d", fish.Offspring, n)
		}
	}

	jitter := float32(cfg.Courtship.SpawnJitter)
	for _, baby := range rec.Babies {
		pos := tw.posMap.Get(baby)
		if absf(pos.X-303) > jitter+0.01 || absf(pos.Y-300) > jitter+0.01 {
			t.Errorf("offspring at (%f, %f), expected near the midpoint (303, 300)", pos.X, pos.Y)
		}
	}

	var zero ecs.Entity
	if tw.targetsMap.Get(a).Court != zero || tw.targetsMap.Get(b).Court != zero {
		t.Error("courtship targets should clear after delivery")
	}
}

func TestCourtship_SoftCapBlocksNewPairs(t *testing.T) {
	cfg := config.Cfg()
	tw := newTestWorld()

	spIdx := preyIdx(tw.catalog)
	a := tw.spawn(spIdx, 300, 300)
	b := tw.spawn(spIdx, 306, 300)

	cs := NewCourtshipSystem(tw.world, tw.catalog, rand.New(rand.NewSource(11)))
	records := runCourtship(tw, cs, 600, cfg.Population.SoftCap)

	if len(records) != 0 {
		t.Errorf("no broods expected at the population ceiling, got %d", len(records))
	}
	var zero ecs.Entity
	if tw.targetsMap.Get(a).Court != zero || tw.targetsMap.Get(b).Court != zero {
		t.Error("no pairs should form at the population ceiling")
	}
}

func TestCourtship_ImmatureFishDoNotPair(t *testing.T) {
	tw := newTestWorld()

	spIdx := preyIdx(tw.catalog)
	tw.spawn(spIdx, 300, 300)
	young := tw.spawn(spIdx, 306, 300)
	tw.energyMap.Get(young).Age = 1

	cs := NewCourtshipSystem(tw.world, tw.catalog, rand.New(rand.NewSource(11)))
	if records := runCourtship(tw, cs, 600, 2); len(records) != 0 {
		t.Errorf("immature fish should not reproduce, got %d broods", len(records))
	}
}

func TestCourtship_CooldownBlocksPairing(t *testing.T) {
	tw := newTestWorld()

	spIdx := preyIdx(tw.catalog)
	a := tw.spawn(spIdx, 300, 300)
	b := tw.spawn(spIdx, 306, 300)
	tw.fishMap.Get(a).ReproCooldown = 999
	tw.fishMap.Get(b).ReproCooldown = 999

	cs := NewCourtshipSystem(tw.world, tw.catalog, rand.New(rand.NewSource(11)))
	if records := runCourtship(tw, cs, 600, 2); len(records) != 0 {
		t.Errorf("parents on cooldown should not reproduce, got %d broods", len(records))
	}
}

func TestCourtship_LowEnergyBlocksPairing(t *testing.T) {
	cfg := config.Cfg()
	tw := newTestWorld()

	spIdx := preyIdx(tw.catalog)
	a := tw.spawn(spIdx, 300, 300)
	b := tw.spawn(spIdx, 306, 300)
	tw.energyMap.Get(a).Value = float32(cfg.Energy.CourtThreshold) - 5
	tw.energyMap.Get(b).Value = float32(cfg.Energy.CourtThreshold) - 5

	cs := NewCourtshipSystem(tw.world, tw.catalog, rand.New(rand.NewSource(11)))
	if records := runCourtship(tw, cs, 600, 2); len(records) != 0 {
		t.Errorf("hungry fish should not court, got %d broods", len(records))
	}
}

func TestCourtship_SeparatedPairDeliversNothing(t *testing.T) {
	tw := newTestWorld()

	spIdx := preyIdx(tw.catalog)
	a := tw.spawn(spIdx, 100, 100)
	b := tw.spawn(spIdx, 500, 500)
	tw.targetsMap.Get(a).Court = b
	tw.targetsMap.Get(b).Court = a

	cs := NewCourtshipSystem(tw.world, tw.catalog, rand.New(rand.NewSource(11)))
	tw.rebuildGrid()
	records := cs.Update(tw.world, tw.grid, 2, newbornCreator(tw))

	if len(records) != 0 {
		t.Errorf("distant pair should not deliver, got %d broods", len(records))
	}
}

func TestCourtship_DifferentSpeciesNeverPair(t *testing.T) {
	tw := newTestWorld()

	prey := preyIdx(tw.catalog)
	other := prey + 1
	if tw.catalog[other].Predator {
		t.Skip("catalog needs two adjacent non-predator species")
	}
	tw.spawn(prey, 300, 300)
	tw.spawn(other, 306, 300)

	cs := NewCourtshipSystem(tw.world, tw.catalog, rand.New(rand.NewSource(11)))
	if records := runCourtship(tw, cs, 600, 2); len(records) != 0 {
		t.Errorf("cross-species pairing should never happen, got %d broods", len(records))
	}
}
