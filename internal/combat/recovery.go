package combat

import "time"

// pushbackCapMultiple bounds how far repeated hits can stretch a recovery:
// Remaining never exceeds twice the original Duration.
const pushbackCapMultiple = 2

// GlobalRecovery is the single post-action lockout an actor can carry. While
// Remaining is positive every committed action fails unless a synergy unlock
// covers it.
type GlobalRecovery struct {
	Remaining   time.Duration
	Duration    time.Duration
	TriggeredBy string
}

// SynergyUnlock marks one ability as usable early during the current
// recovery. The ability becomes available once Remaining drops to UnlockAt.
type SynergyUnlock struct {
	Ability     string
	UnlockAt    time.Duration
	TriggeredBy string
}

// RecoveryState tracks an actor's lockout and its synergy unlocks. Unlocks
// only ever belong to the active recovery; replacing or clearing the recovery
// drops them.
type RecoveryState struct {
	Active  *GlobalRecovery
	Unlocks []SynergyUnlock
}

// Locked reports whether a recovery is still running.
func (s *RecoveryState) Locked() bool {
	return s.Active != nil && s.Active.Remaining > 0
}

// CanUse reports whether an ability may be committed right now: either no
// lock is active, or a synergy unlock for that ability has matured.
func (s *RecoveryState) CanUse(ability string) bool {
	if !s.Locked() {
		return true
	}
	for _, u := range s.Unlocks {
		if u.Ability == ability && s.Active.Remaining <= u.UnlockAt {
			return true
		}
	}
	return false
}

// Trigger replaces the current recovery with a fresh one in a single step, so
// an actor chaining through a synergy window is never observably unlocked in
// between. The new recovery's unlocks replace any previous ones.
func (s *RecoveryState) Trigger(ability string, duration time.Duration, unlocks []SynergyUnlock) {
	if duration <= 0 {
		s.Active = nil
		s.Unlocks = nil
		return
	}
	s.Active = &GlobalRecovery{
		Remaining:   duration,
		Duration:    duration,
		TriggeredBy: ability,
	}
	s.Unlocks = unlocks
}

// Tick drains the recovery by dt scaled by the actor's recovery speed and
// reports whether the lock ended this tick. Expired recoveries clear their
// unlocks with them.
func (s *RecoveryState) Tick(dt time.Duration, speed float64) bool {
	if s.Active == nil {
		return false
	}
	if speed < 1 {
		speed = 1
	}
	drain := time.Duration(float64(dt) * speed)
	s.Active.Remaining -= drain
	if s.Active.Remaining > 0 {
		return false
	}
	s.Active = nil
	s.Unlocks = nil
	return true
}

// Pushback extends the running recovery by a fraction of its original
// duration, clamped so Remaining never exceeds twice Duration. No-op when the
// actor is not locked.
func (s *RecoveryState) Pushback(fraction float64) time.Duration {
	if s.Active == nil || fraction <= 0 {
		return 0
	}
	added := time.Duration(float64(s.Active.Duration) * fraction)
	cap := s.Active.Duration * pushbackCapMultiple
	if s.Active.Remaining+added > cap {
		added = cap - s.Active.Remaining
		if added < 0 {
			added = 0
		}
	}
	s.Active.Remaining += added
	return added
}
