package combat

import (
	"testing"
	"time"
)

func TestRecoveryLockAndExpiry(t *testing.T) {
	var s RecoveryState
	if s.Locked() {
		t.Fatal("fresh state is locked")
	}
	s.Trigger("overpower", 2*time.Second, nil)
	if !s.Locked() {
		t.Fatal("trigger did not lock")
	}
	if s.CanUse("strike") {
		t.Fatal("locked actor can act without a synergy")
	}
	if done := s.Tick(time.Second, 1); done {
		t.Fatal("lock ended early")
	}
	if done := s.Tick(time.Second, 1); !done {
		t.Fatal("lock did not end on time")
	}
	if s.Locked() || !s.CanUse("strike") {
		t.Fatal("expired lock still blocking")
	}
}

func TestRecoverySpeedShortensLock(t *testing.T) {
	var s RecoveryState
	s.Trigger("overpower", 2*time.Second, nil)
	if done := s.Tick(time.Second, 2); !done {
		t.Fatal("doubled drain did not end a 2s lock in 1s")
	}
}

func TestSynergyUnlockMatures(t *testing.T) {
	var s RecoveryState
	s.Trigger("lunge", time.Second, []SynergyUnlock{
		{Ability: "overpower", UnlockAt: 500 * time.Millisecond, TriggeredBy: "lunge"},
	})

	if s.CanUse("overpower") {
		t.Fatal("synergy usable before maturity")
	}
	s.Tick(500*time.Millisecond, 1)
	if !s.CanUse("overpower") {
		t.Fatal("matured synergy not usable")
	}
	if s.CanUse("knockback") {
		t.Fatal("unrelated ability unlocked")
	}
}

func TestSynergyChainNeverUnlocked(t *testing.T) {
	var s RecoveryState
	s.Trigger("lunge", time.Second, []SynergyUnlock{
		{Ability: "overpower", UnlockAt: 500 * time.Millisecond, TriggeredBy: "lunge"},
	})
	s.Tick(600*time.Millisecond, 1)

	// Committing the unlocked ability swaps locks atomically.
	s.Trigger("overpower", 2*time.Second, []SynergyUnlock{
		{Ability: "knockback", UnlockAt: time.Second, TriggeredBy: "overpower"},
	})
	if !s.Locked() {
		t.Fatal("chained trigger left actor unlocked")
	}
	if s.Active.TriggeredBy != "overpower" {
		t.Fatalf("active recovery from %q, want overpower", s.Active.TriggeredBy)
	}
	if s.CanUse("overpower") {
		t.Fatal("old unlock survived the new lock")
	}
}

func TestPushbackExtendsRemaining(t *testing.T) {
	var s RecoveryState
	s.Trigger("overpower", 2*time.Second, nil)

	added := s.Pushback(0.125)
	if added != 250*time.Millisecond {
		t.Fatalf("added = %v, want 250ms", added)
	}
	if s.Active.Remaining != 2250*time.Millisecond {
		t.Fatalf("remaining = %v, want 2.25s", s.Active.Remaining)
	}
}

func TestPushbackCapAtTwiceDuration(t *testing.T) {
	var s RecoveryState
	s.Trigger("overpower", 2*time.Second, nil)

	for i := 0; i < 10; i++ {
		s.Pushback(0.5)
	}
	if s.Active.Remaining != 4*time.Second {
		t.Fatalf("remaining = %v, want cap 4s", s.Active.Remaining)
	}
	if added := s.Pushback(0.5); added != 0 {
		t.Fatalf("pushback past cap added %v", added)
	}
}

func TestPushbackWithoutLockIsNoop(t *testing.T) {
	var s RecoveryState
	if added := s.Pushback(0.5); added != 0 {
		t.Fatalf("unlocked pushback added %v", added)
	}
}
