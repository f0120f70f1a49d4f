package combat

import "time"

const (
	// CombatIdleTimeout drops combat state after this long with no hostile
	// activity and no hostile in range.
	CombatIdleTimeout = 10 * time.Second

	// RespawnDelay is how long a defeated player waits before respawning
	// with full pools.
	RespawnDelay = 5 * time.Second
)

// CombatState tracks whether an actor is currently considered in combat.
// Entering combat is instant on any hostile interaction; leaving requires a
// quiet period with no hostile nearby, so the flag never flickers mid-fight.
type CombatState struct {
	InCombat     bool
	LastHostile  time.Duration
	DiedAt       time.Duration
	AwaitRespawn bool
}

// Engage marks hostile activity at now, entering combat if needed.
func (s *CombatState) Engage(now time.Duration) {
	s.InCombat = true
	s.LastHostile = now
}

// Update applies the idle check and reports whether the actor just left
// combat. hostileNearby comes from an injected spatial query; any nearby
// hostile refreshes the activity clock.
func (s *CombatState) Update(now time.Duration, hostileNearby bool) bool {
	if !s.InCombat {
		return false
	}
	if hostileNearby {
		s.LastHostile = now
		return false
	}
	if now-s.LastHostile < CombatIdleTimeout {
		return false
	}
	s.InCombat = false
	return true
}

// MarkDead records the defeat time and starts the respawn wait.
func (s *CombatState) MarkDead(now time.Duration) {
	s.DiedAt = now
	s.AwaitRespawn = true
	s.InCombat = false
}

// RespawnDue reports whether the respawn delay has elapsed.
func (s *CombatState) RespawnDue(now time.Duration) bool {
	return s.AwaitRespawn && now-s.DiedAt >= RespawnDelay
}

// ClearRespawn resets the death bookkeeping once the actor is restored.
func (s *CombatState) ClearRespawn() {
	s.AwaitRespawn = false
	s.DiedAt = 0
}
