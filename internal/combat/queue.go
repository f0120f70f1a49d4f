package combat

import (
	"time"

	"github.com/google/uuid"

	"emberhex/server/stats"
)

// DamageKind selects which defensive stat mitigates a threat.
type DamageKind uint8

const (
	Physical DamageKind = iota
	Magic
)

func (k DamageKind) String() string {
	if k == Magic {
		return "magic"
	}
	return "physical"
}

// ParseDamageKind maps a wire string to a kind.
func ParseDamageKind(s string) (DamageKind, bool) {
	switch s {
	case "physical":
		return Physical, true
	case "magic":
		return Magic, true
	default:
		return Physical, false
	}
}

// QueuedThreat is one pending hit. It is immutable after insertion: the
// outgoing damage and the attacker's pressure are frozen at attack time, so
// only the defender's state at resolution can still change the outcome.
type QueuedThreat struct {
	ID         uuid.UUID
	Source     uuid.UUID
	Ability    string
	Damage     float64 // phase-1 outgoing, attacker scaling already applied
	Kind       DamageKind
	Pressure   int // attacker presence at insert, contests defender mitigation
	Impact     int // attacker might at insert, drives recovery pushback
	InsertedAt time.Duration
	Duration   time.Duration
}

// ExpiresAt is the moment the threat resolves if no reaction removes it.
func (t QueuedThreat) ExpiresAt() time.Duration {
	return t.InsertedAt + t.Duration
}

// ReactionQueue holds an actor's pending threats in strict arrival order. The
// queue itself is unbounded; the visibility window only limits which entries
// reactions can touch.
type ReactionQueue struct {
	threats []QueuedThreat
	window  int
}

// NewReactionQueue builds an empty queue with the given visibility window.
func NewReactionQueue(window int) ReactionQueue {
	if window < 1 {
		window = 1
	}
	return ReactionQueue{window: window}
}

// SetWindow updates the visibility window after a level-up or respec. Entries
// already queued are unaffected; only future reactions see the new size.
func (q *ReactionQueue) SetWindow(window int) {
	if window < 1 {
		window = 1
	}
	q.window = window
}

// Window returns the current visibility window size.
func (q *ReactionQueue) Window() int { return q.window }

// Len returns the total number of queued threats, visible or not.
func (q *ReactionQueue) Len() int { return len(q.threats) }

// Visible returns a copy of the leading entries a reaction could target.
func (q *ReactionQueue) Visible() []QueuedThreat {
	n := q.window
	if n > len(q.threats) {
		n = len(q.threats)
	}
	out := make([]QueuedThreat, n)
	copy(out, q.threats[:n])
	return out
}

// All returns a copy of every queued threat in arrival order, without
// mutating the queue. Snapshots use this; reactions never do.
func (q *ReactionQueue) All() []QueuedThreat {
	if len(q.threats) == 0 {
		return nil
	}
	out := make([]QueuedThreat, len(q.threats))
	copy(out, q.threats)
	return out
}

// Insert appends a threat. FIFO order is the only order.
func (q *ReactionQueue) Insert(t QueuedThreat) {
	q.threats = append(q.threats, t)
}

// PopExpired removes and returns every leading threat whose timer has
// elapsed at now. Resolution is front-first, so a later entry expiring cannot
// jump an earlier one that has not.
func (q *ReactionQueue) PopExpired(now time.Duration) []QueuedThreat {
	n := 0
	for n < len(q.threats) && now >= q.threats[n].ExpiresAt() {
		n++
	}
	if n == 0 {
		return nil
	}
	expired := make([]QueuedThreat, n)
	copy(expired, q.threats[:n])
	q.threats = q.threats[:copy(q.threats, q.threats[n:])]
	return expired
}

// PopFront removes and returns the oldest threat.
func (q *ReactionQueue) PopFront() (QueuedThreat, error) {
	if len(q.threats) == 0 {
		return QueuedThreat{}, ErrEmptyQueue
	}
	front := q.threats[0]
	q.threats = q.threats[:copy(q.threats, q.threats[1:])]
	return front, nil
}

// ClearVisible removes and returns the leading entries within the window.
func (q *ReactionQueue) ClearVisible() []QueuedThreat {
	n := q.window
	if n > len(q.threats) {
		n = len(q.threats)
	}
	if n == 0 {
		return nil
	}
	cleared := make([]QueuedThreat, n)
	copy(cleared, q.threats[:n])
	q.threats = q.threats[:copy(q.threats, q.threats[n:])]
	return cleared
}

// RestoreFront reinserts threats at the head of the queue in their original
// order, undoing a speculative clear that the server rejected.
func (q *ReactionQueue) RestoreFront(threats []QueuedThreat) {
	if len(threats) == 0 {
		return
	}
	restored := make([]QueuedThreat, 0, len(threats)+len(q.threats))
	restored = append(restored, threats...)
	restored = append(restored, q.threats...)
	q.threats = restored
}

// Remove deletes the threat with the given ID wherever it sits, reporting
// whether it was present.
func (q *ReactionQueue) Remove(id uuid.UUID) bool {
	for i, t := range q.threats {
		if t.ID == id {
			q.threats = append(q.threats[:i], q.threats[i+1:]...)
			return true
		}
	}
	return false
}

// ClearAll removes and returns every queued threat, hidden entries included.
func (q *ReactionQueue) ClearAll() []QueuedThreat {
	if len(q.threats) == 0 {
		return nil
	}
	cleared := q.threats
	q.threats = nil
	return cleared
}

// offenseStat maps a damage kind to the attribute that scales it on the way
// out; mitigationStat maps it to the attribute that resists it on the way in.
func offenseStat(kind DamageKind) stats.AttributeID {
	if kind == Magic {
		return stats.Focus
	}
	return stats.Might
}

func mitigationStat(kind DamageKind) stats.AttributeID {
	if kind == Magic {
		return stats.Focus
	}
	return stats.Vitality
}
