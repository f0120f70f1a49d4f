package sim

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubMetrics struct {
	counters map[string]uint64
	gauges   map[string]uint64
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{counters: make(map[string]uint64), gauges: make(map[string]uint64)}
}

func (m *stubMetrics) Add(key string, delta uint64) { m.counters[key] += delta }

func (m *stubMetrics) Store(key string, value uint64) { m.gauges[key] = value }

func TestCommandBufferFIFO(t *testing.T) {
	buffer := NewCommandBuffer(4, nil)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, id := range ids {
		if !buffer.Push(Command{ActorID: id, Seq: uint64(i + 1)}) {
			t.Fatalf("push %d failed", i)
		}
	}
	drained := buffer.Drain()
	if len(drained) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(drained))
	}
	for i, cmd := range drained {
		if cmd.ActorID != ids[i] {
			t.Fatalf("command %d out of order", i)
		}
	}
	if buffer.Len() != 0 {
		t.Fatalf("drain should empty the buffer")
	}
}

func TestCommandBufferOverflow(t *testing.T) {
	metrics := newStubMetrics()
	buffer := NewCommandBuffer(2, metrics)
	buffer.Push(Command{Seq: 1})
	buffer.Push(Command{Seq: 2})
	if buffer.Push(Command{Seq: 3}) {
		t.Fatalf("push beyond capacity should fail")
	}
	if metrics.counters["sim_command_buffer_overflow_total"] != 1 {
		t.Fatalf("overflow metric not recorded: %+v", metrics.counters)
	}
	if metrics.gauges["sim_command_buffer_occupancy"] != 2 {
		t.Fatalf("occupancy metric not stored: %+v", metrics.gauges)
	}
}

func TestCommandBufferWrapAround(t *testing.T) {
	buffer := NewCommandBuffer(2, nil)
	buffer.Push(Command{Seq: 1})
	buffer.Push(Command{Seq: 2})
	buffer.Drain()
	buffer.Push(Command{Seq: 3})
	buffer.Push(Command{Seq: 4})
	drained := buffer.Drain()
	if len(drained) != 2 || drained[0].Seq != 3 || drained[1].Seq != 4 {
		t.Fatalf("wraparound drain mismatch %+v", drained)
	}
}

func TestLoopPerActorThrottle(t *testing.T) {
	w := newTestWorld(t)
	actor := flatFighter(w, "red")
	loop := NewLoop(w, LoopConfig{CommandCapacity: 16, PerActorLimit: 2}, LoopHooks{})

	var dropped []string
	loop.hooks.OnCommandDrop = func(reason string, _ Command) {
		dropped = append(dropped, reason)
	}

	for i := 0; i < 2; i++ {
		if ok, reason := loop.Enqueue(Command{ActorID: actor.ID, Type: CommandHeartbeat}); !ok {
			t.Fatalf("enqueue %d rejected: %s", i, reason)
		}
	}
	ok, reason := loop.Enqueue(Command{ActorID: actor.ID, Type: CommandHeartbeat})
	if ok || reason != CommandRejectQueueLimit {
		t.Fatalf("expected queue_limit rejection, got ok=%v reason=%q", ok, reason)
	}
	if len(dropped) != 1 || dropped[0] != CommandRejectQueueLimit {
		t.Fatalf("drop hook mismatch %v", dropped)
	}

	// Draining resets the per-actor count.
	loop.DrainCommands()
	if ok, _ := loop.Enqueue(Command{ActorID: actor.ID, Type: CommandHeartbeat}); !ok {
		t.Fatalf("enqueue after drain should succeed")
	}
}

func TestLoopQueueFull(t *testing.T) {
	w := newTestWorld(t)
	loop := NewLoop(w, LoopConfig{CommandCapacity: 1}, LoopHooks{})

	if ok, _ := loop.Enqueue(Command{ActorID: uuid.New(), Type: CommandHeartbeat}); !ok {
		t.Fatalf("first enqueue should succeed")
	}
	ok, reason := loop.Enqueue(Command{ActorID: uuid.New(), Type: CommandHeartbeat})
	if ok || reason != CommandRejectQueueFull {
		t.Fatalf("expected queue_full rejection, got ok=%v reason=%q", ok, reason)
	}
}

func TestLoopAdvanceDrainsAndSteps(t *testing.T) {
	w := newTestWorld(t)
	a := flatFighter(w, "red")
	b := flatFighter(w, "blue")
	loop := NewLoop(w, LoopConfig{CommandCapacity: 16}, LoopHooks{})

	if ok, _ := loop.Enqueue(strikeCommand(a.ID, b.ID, 1)); !ok {
		t.Fatalf("enqueue failed")
	}
	result := loop.Advance(LoopTickContext{Tick: 1, Now: time.Now(), Delta: 1})

	if len(result.Commands) != 1 {
		t.Fatalf("expected the staged command in the result, got %d", len(result.Commands))
	}
	if len(updatesOfKind(result.Updates, UpdateInsertThreat)) != 1 {
		t.Fatalf("expected the insertThreat confirmation, got %+v", result.Updates)
	}
	if result.Snapshot.Tick != 1 {
		t.Fatalf("snapshot tick mismatch %d", result.Snapshot.Tick)
	}
	if loop.Pending() != 0 {
		t.Fatalf("advance should drain the buffer")
	}
}

func TestLoopAdvanceStepsWorldByClampedDelta(t *testing.T) {
	w := newTestWorld(t)
	loop := NewLoop(w, LoopConfig{CommandCapacity: 16}, LoopHooks{})

	// A catch-up tick carries the whole clamped interval into the world, so
	// the sim timeline never falls behind the broadcast timestamps.
	result := loop.Advance(LoopTickContext{Tick: 1, Now: time.Now(), Delta: 2.5})
	if result.Snapshot.NowMillis != 2500 {
		t.Fatalf("expected sim now 2500ms after a 2.5s delta, got %d", result.Snapshot.NowMillis)
	}
	if got := w.NowMillis(); got != 2500 {
		t.Fatalf("world now mismatch %d", got)
	}

	// Without a delta the loop falls back to one nominal tick.
	result = loop.Advance(LoopTickContext{Tick: 2, Now: time.Now()})
	if result.Snapshot.NowMillis != 3500 {
		t.Fatalf("expected one nominal 1s tick on zero delta, got %d", result.Snapshot.NowMillis)
	}
}

func TestSharedClockOffsets(t *testing.T) {
	clock := NewSharedClock(time.UnixMilli(1_000_000))
	if clock.EpochUnixMilli() != 1_000_000 {
		t.Fatalf("epoch mismatch %d", clock.EpochUnixMilli())
	}
	at := time.UnixMilli(1_002_500)
	if got := clock.Offset(at); got != 2500*time.Millisecond {
		t.Fatalf("offset mismatch %v", got)
	}
	if got := clock.Instant(2500 * time.Millisecond); !got.Equal(at) {
		t.Fatalf("instant mismatch %v", got)
	}
}
