package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/tank/components"
)

// ---------- Death checks ----------

func TestMortality_OldAge(t *testing.T) {
	ensureCache()
	rng := rand.New(rand.NewSource(1))
	fish := components.Fish{Lifespan: 50}
	energy := components.Energy{Value: 80, Age: 50, Alive: true}

	reason, died := CheckMortality(&fish, &energy, rng)

	if !died || reason != components.ReasonOldAge {
		t.Fatalf("expected old age death, got died=%v reason=%v", died, reason)
	}
	if energy.Alive {
		t.Error("dead fish should not stay alive")
	}
	if fish.Reason != components.ReasonOldAge {
		t.Errorf("reason should stick on the fish, got %v", fish.Reason)
	}
}

func TestMortality_Starvation(t *testing.T) {
	ensureCache()
	rng := rand.New(rand.NewSource(1))
	fish := components.Fish{Lifespan: 500}
	energy := components.Energy{Value: 0, Age: 10, Alive: true}

	reason, died := CheckMortality(&fish, &energy, rng)

	if !died || reason != components.ReasonStarved {
		t.Fatalf("expected starvation death, got died=%v reason=%v", died, reason)
	}
}

func TestMortality_OldAgeWinsOverStarvation(t *testing.T) {
	ensureCache()
	rng := rand.New(rand.NewSource(1))
	fish := components.Fish{Lifespan: 50}
	energy := components.Energy{Value: 0, Age: 60, Alive: true}

	reason, _ := CheckMortality(&fish, &energy, rng)

	if reason != components.ReasonOldAge {
		t.Errorf("old age should take precedence, got %v", reason)
	}
}

func TestMortality_HealthyFishLives(t *testing.T) {
	ensureCache()
	rng := rand.New(rand.NewSource(12345))
	fish := components.Fish{Lifespan: 500}
	energy := components.Energy{Value: 80, Age: 10, Alive: true}

	if _, died := CheckMortality(&fish, &energy, rng); died {
		t.Error("healthy young fish should survive the check")
	}
}

func TestMortality_DeadFishNotRechecked(t *testing.T) {
	ensureCache()
	rng := rand.New(rand.NewSource(1))
	fish := components.Fish{Lifespan: 50, Reason: components.ReasonStarved}
	energy := components.Energy{Value: 0, Age: 60, Alive: false}

	reason, died := CheckMortality(&fish, &energy, rng)

	if died || reason != components.ReasonNone {
		t.Error("corpses should not die twice")
	}
	if fish.Reason != components.ReasonStarved {
		t.Errorf("original reason should be preserved, got %v", fish.Reason)
	}
}

// ---------- Corpse collection ----------

func TestCorpse_GoneAboveSurface(t *testing.T) {
	fish := components.Fish{Reason: components.ReasonOldAge}
	pos := components.Position{X: 100, Y: -10}
	body := components.Body{Radius: 8}

	UpdateCorpse(&fish, &pos, &body)

	if !fish.Gone {
		t.Error("corpse above the surface should be flagged gone")
	}
}

func TestCorpse_StillDriftingInsideTank(t *testing.T) {
	fish := components.Fish{Reason: components.ReasonOldAge}
	pos := components.Position{X: 100, Y: 50}
	body := components.Body{Radius: 8}

	UpdateCorpse(&fish, &pos, &body)

	if fish.Gone {
		t.Error("corpse still inside the tank should keep drifting")
	}
}

func TestCorpse_EatenFishNotMarkedGone(t *testing.T) {
	fish := components.Fish{Reason: components.ReasonEaten, Eaten: true}
	pos := components.Position{X: 100, Y: -50}
	body := components.Body{Radius: 8}

	UpdateCorpse(&fish, &pos, &body)

	if fish.Gone {
		t.Error("eaten fish are removed directly, not via surface drift")
	}
}
