package combat

import (
	"errors"
	"math"
	"testing"
	"time"

	"emberhex/server/stats"
)

func TestPoolAdvanceRegen(t *testing.T) {
	p := NewPool(100, 10, 0)
	p.Authoritative = 40
	p.Predicted = 40

	p.Advance(500 * time.Millisecond)
	if math.Abs(p.Authoritative-45) > 1e-9 {
		t.Fatalf("authoritative = %v, want 45", p.Authoritative)
	}
	if math.Abs(p.Predicted-45) > 1e-9 {
		t.Fatalf("predicted = %v, want 45", p.Predicted)
	}
}

func TestPoolAdvanceClampsStaleTimestamp(t *testing.T) {
	p := NewPool(100, 10, 0)
	p.Authoritative = 0
	p.Predicted = 0

	// A 30s gap regens at most one second's worth.
	p.Advance(30 * time.Second)
	if p.Authoritative != 10 {
		t.Fatalf("authoritative after stale gap = %v, want 10", p.Authoritative)
	}
	if p.LastUpdate != 30*time.Second {
		t.Fatalf("lastUpdate = %v, want 30s", p.LastUpdate)
	}
}

func TestPoolAdvanceNeverExceedsMax(t *testing.T) {
	p := NewPool(100, 10, 0)
	p.Advance(time.Second)
	if p.Authoritative != 100 {
		t.Fatalf("authoritative = %v, want 100", p.Authoritative)
	}
}

func TestPoolSpendInsufficient(t *testing.T) {
	p := NewPool(100, 10, 0)
	p.Authoritative = 20
	p.Predicted = 20

	if err := p.Spend(30); !errors.Is(err, ErrInsufficientResource) {
		t.Fatalf("spend error = %v, want ErrInsufficientResource", err)
	}
	if p.Authoritative != 20 || p.Predicted != 20 {
		t.Fatalf("failed spend mutated pool: %v/%v", p.Authoritative, p.Predicted)
	}
}

func TestPoolSpendSufficient(t *testing.T) {
	p := NewPool(100, 10, 0)
	p.Authoritative = 50
	p.Predicted = 50

	if err := p.Spend(30); err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if p.Authoritative != 20 {
		t.Fatalf("authoritative = %v, want 20", p.Authoritative)
	}
}

func TestPoolDamageFloorsAtZero(t *testing.T) {
	p := NewPool(100, 0, 0)
	if got := p.Damage(250); got != 0 {
		t.Fatalf("damage result = %v, want 0", got)
	}
}

func TestPoolReconcileWithinTolerance(t *testing.T) {
	p := NewPool(100, 10, 0)
	p.Predicted = 52
	if snapped := p.Reconcile(50); snapped {
		t.Fatal("2% divergence snapped, want prediction kept")
	}
	if p.Predicted != 52 {
		t.Fatalf("predicted = %v, want 52", p.Predicted)
	}
	if p.Authoritative != 50 {
		t.Fatalf("authoritative = %v, want 50", p.Authoritative)
	}
}

func TestPoolReconcileSnapsBeyondTolerance(t *testing.T) {
	p := NewPool(100, 10, 0)
	p.Predicted = 60
	if snapped := p.Reconcile(50); !snapped {
		t.Fatal("10% divergence kept, want snap")
	}
	if p.Predicted != 50 {
		t.Fatalf("predicted = %v, want 50", p.Predicted)
	}
}

func TestResourcesFromAttributes(t *testing.T) {
	a := stats.New(
		stats.Investment{Axis: -3}, // might 30
		stats.Investment{Axis: -2}, // vitality 20
		stats.Investment{},
	)
	r := NewResources(a, 0)
	if r.Health.Max != a.MaxHealth() {
		t.Fatalf("health max = %v, want %v", r.Health.Max, a.MaxHealth())
	}
	if r.Health.RegenRate != 0 {
		t.Fatalf("health regen = %v, want 0", r.Health.RegenRate)
	}
	if r.Stamina.RegenRate != 10 {
		t.Fatalf("stamina regen = %v, want 10", r.Stamina.RegenRate)
	}
	if r.Mana.RegenRate != 8 {
		t.Fatalf("mana regen = %v, want 8", r.Mana.RegenRate)
	}
}

func TestResourcesDeathAndRespawn(t *testing.T) {
	var a stats.Attributes
	r := NewResources(a, 0)
	r.Health.Damage(1000)
	if r.Alive() {
		t.Fatal("actor alive at zero health")
	}
	r.Zero()
	if r.Stamina.Authoritative != 0 || r.Mana.Authoritative != 0 {
		t.Fatalf("pools not zeroed: %v/%v", r.Stamina.Authoritative, r.Mana.Authoritative)
	}
	r.RefillAll()
	if !r.Alive() || r.Health.Authoritative != r.Health.Max {
		t.Fatalf("respawn did not refill: %v of %v", r.Health.Authoritative, r.Health.Max)
	}
}
