package server

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"emberhex/server/abilities/catalog"
	"emberhex/server/internal/net/proto"
	"emberhex/server/internal/sim"
	"emberhex/server/logging"
	logginglifecycle "emberhex/server/logging/lifecycle"
	loggingnetwork "emberhex/server/logging/network"
	loggingsim "emberhex/server/logging/simulation"
	"emberhex/server/stats"
)

// HubConfig tunes the hub and the simulation it owns.
type HubConfig struct {
	TickRate  int
	Seed      int64
	Logger    *log.Logger
	Publisher logging.Publisher
	Metrics   *logging.Metrics
	Catalog   *catalog.Catalog
}

// DefaultHubConfig returns the baseline hub tuning.
func DefaultHubConfig() HubConfig {
	return HubConfig{TickRate: tickRate}
}

// JoinOptions carries the optional knobs a join request may set.
type JoinOptions struct {
	Attrs   *stats.Attributes
	Faction string
}

// subscriber serializes writes to one websocket connection.
type subscriber struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	lastSeq atomic.Uint64
}

// WriteMessage writes a frame under the connection's write deadline.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// LastCommandSeq returns the highest acknowledged command sequence.
func (s *subscriber) LastCommandSeq() uint64 { return s.lastSeq.Load() }

// StoreLastCommandSeq records an acknowledged command sequence.
func (s *subscriber) StoreLastCommandSeq(seq uint64) { s.lastSeq.Store(seq) }

// session tracks connectivity metadata for one joined player.
type session struct {
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// Hub owns the simulation loop and every live websocket session. It runs the
// loop on one goroutine and fans confirmations out after each tick.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]*subscriber
	sessions    map[uuid.UUID]*session

	world *sim.World
	loop  *sim.Loop
	clock sim.SharedClock

	logger    *log.Logger
	publisher logging.Publisher
	metrics   *logging.Metrics

	lastTick atomic.Uint64
}

// NewHub constructs a hub with a fresh world anchored at the current instant.
func NewHub(cfg HubConfig) (*Hub, error) {
	if cfg.TickRate <= 0 {
		cfg.TickRate = tickRate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = logging.NewMetrics()
	}

	epoch := time.Now()
	seed := cfg.Seed
	if seed == 0 {
		seed = epoch.UnixNano()
	}

	hub := &Hub{
		subscribers: make(map[uuid.UUID]*subscriber),
		sessions:    make(map[uuid.UUID]*session),
		clock:       sim.NewSharedClock(epoch),
		logger:      logger,
		publisher:   publisher,
		metrics:     metrics,
	}

	deps := sim.Deps{
		Logger:    logger,
		Metrics:   metrics,
		Clock:     logging.SystemClock{},
		RNG:       rand.New(rand.NewSource(seed)),
		Publisher: publisher,
	}
	world, err := sim.NewWorld(sim.WorldConfig{
		TickRate:    cfg.TickRate,
		Seed:        seed,
		EpochMillis: epoch.UnixMilli(),
	}, deps, cfg.Catalog, nil)
	if err != nil {
		return nil, err
	}
	hub.world = world
	hub.loop = sim.NewLoop(world, sim.LoopConfig{
		TickRate:        cfg.TickRate,
		CatchupMaxTicks: catchupMaxTicks,
		CommandCapacity: commandCapacity,
		PerActorLimit:   perActorLimit,
		WarningStep:     queueWarningStep,
	}, sim.LoopHooks{
		AfterStep: hub.afterStep,
		OnQueueWarning: func(length int) {
			logger.Printf("[backpressure] command queue length %d", length)
		},
	})
	return hub, nil
}

// Clock returns the shared session clock.
func (h *Hub) Clock() sim.SharedClock { return h.clock }

// defaultLoadout is the starting investment for players that join without one.
func defaultLoadout() stats.Attributes {
	return stats.New(
		stats.Investment{Spectrum: 2},
		stats.Investment{Spectrum: 2},
		stats.Investment{Spectrum: 2},
	)
}

// Join registers a new player actor and returns the join payload.
func (h *Hub) Join(opts JoinOptions) proto.JoinResponseV1 {
	attrs := defaultLoadout()
	if opts.Attrs != nil {
		attrs = *opts.Attrs
	}
	faction := opts.Faction
	if faction == "" {
		faction = "players"
	}

	actor := h.world.AddActor(sim.ActorConfig{
		Kind:    logging.EntityKindPlayer,
		Faction: faction,
		Attrs:   attrs,
	})

	h.mu.Lock()
	h.sessions[actor.ID] = &session{lastHeartbeat: time.Now()}
	h.mu.Unlock()

	logginglifecycle.PlayerJoined(context.Background(), h.publisher, h.lastTick.Load(),
		logging.EntityRef{ID: actor.ID.String(), Kind: logging.EntityKindPlayer})

	return proto.JoinResponseV1{
		ID:          actor.ID.String(),
		EpochMillis: h.clock.EpochUnixMilli(),
		Config:      h.world.Config(),
		Snapshot:    h.world.Snapshot(),
	}
}

// Subscribe associates a websocket connection with a joined player. An
// existing connection for the same player is replaced.
func (h *Hub) Subscribe(playerID uuid.UUID, conn *websocket.Conn) (*subscriber, sim.Snapshot, bool) {
	h.mu.Lock()
	state, ok := h.sessions[playerID]
	if !ok {
		h.mu.Unlock()
		return nil, sim.Snapshot{}, false
	}
	state.lastHeartbeat = time.Now()
	if existing, ok := h.subscribers[playerID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	h.subscribers[playerID] = sub
	h.mu.Unlock()

	return sub, h.world.Snapshot(), true
}

// Disconnect removes a player and closes any live connection.
func (h *Hub) Disconnect(playerID uuid.UUID, reason string) {
	h.mu.Lock()
	sub, subOK := h.subscribers[playerID]
	delete(h.subscribers, playerID)
	_, sessionOK := h.sessions[playerID]
	delete(h.sessions, playerID)
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	if !sessionOK {
		return
	}
	h.world.RemoveActor(playerID)
	logginglifecycle.PlayerDisconnected(context.Background(), h.publisher, h.lastTick.Load(),
		logging.EntityRef{ID: playerID.String(), Kind: logging.EntityKindPlayer},
		logginglifecycle.PlayerDisconnectedPayload{Reason: reason})
}

// HasActor reports whether the player is currently joined.
func (h *Hub) HasActor(playerID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sessions[playerID]
	return ok
}

// CurrentTick returns the last completed simulation tick.
func (h *Hub) CurrentTick() uint64 { return h.lastTick.Load() }

// Enqueue stages a command on the simulation loop.
func (h *Hub) Enqueue(cmd sim.Command) (bool, string) {
	return h.loop.Enqueue(cmd)
}

// RejectedIntent records an intake-level rejection for observability.
func (h *Hub) RejectedIntent(playerID uuid.UUID, intent string, seq uint64, reason string) {
	loggingnetwork.IntentRejected(context.Background(), h.publisher, h.lastTick.Load(),
		logging.EntityRef{ID: playerID.String(), Kind: logging.EntityKindPlayer},
		loggingnetwork.IntentRejectedPayload{Intent: intent, Seq: seq, Reason: reason})
}

// UpdateHeartbeat records heartbeat receipt and returns the smoothed RTT.
func (h *Hub) UpdateHeartbeat(playerID uuid.UUID, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.sessions[playerID]
	if !ok {
		return 0, false
	}
	state.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			state.lastRTT = rtt
		}
	}
	return state.lastRTT, true
}

// RunSimulation drives the loop until the stop channel closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	h.loop.Run(stop)
}

// afterStep runs on the loop goroutine after every tick: it prunes stale
// sessions, reports budget overruns, and broadcasts the tick's confirmations.
func (h *Hub) afterStep(result sim.LoopStepResult) {
	h.lastTick.Store(result.Tick)

	if result.Budget > 0 && result.Duration > result.Budget {
		loggingsim.TickBudgetOverrun(context.Background(), h.publisher, result.Tick,
			loggingsim.TickBudgetOverrunPayload{
				DurationMillis: result.Duration.Milliseconds(),
				BudgetMillis:   result.Budget.Milliseconds(),
				Ratio:          float64(result.Duration) / float64(result.Budget),
			})
	}
	if result.ClampedDelta {
		loggingsim.CatchUpClamped(context.Background(), h.publisher, result.Tick,
			loggingsim.CatchUpClampedPayload{
				PendingTicks: int64(result.Delta * float64(tickRate)),
				MaxTicks:     int64(result.MaxDelta * float64(tickRate)),
			})
	}

	h.pruneStaleSessions(result.Now)

	if len(result.Updates) == 0 {
		return
	}
	data, err := h.stateFrame(result)
	if err != nil {
		h.logger.Printf("failed to marshal state update: %v", err)
		return
	}
	h.broadcast(data)
}

// stateFrame renders the per-tick confirmation batch. ServerTime rides the
// sim timeline, not the wall clock: combat timestamps (threat insertion,
// snapshot now) come from the world's accumulated tick time, and clients must
// project expiry against that same timeline.
func (h *Hub) stateFrame(result sim.LoopStepResult) ([]byte, error) {
	return proto.EncodeStateUpdateV1(proto.StateUpdateV1{
		Tick:       result.Tick,
		ServerTime: result.Snapshot.NowMillis,
		Updates:    result.Updates,
	})
}

func (h *Hub) pruneStaleSessions(now time.Time) {
	var stale []uuid.UUID
	h.mu.Lock()
	for id, state := range h.sessions {
		if now.Sub(state.lastHeartbeat) > disconnectAfter {
			stale = append(stale, id)
			loggingnetwork.SessionStale(context.Background(), h.publisher, h.lastTick.Load(),
				logging.EntityRef{ID: id.String(), Kind: logging.EntityKindPlayer},
				loggingnetwork.SessionStalePayload{
					SinceMillis: now.Sub(state.lastHeartbeat).Milliseconds(),
				})
		}
	}
	h.mu.Unlock()

	for _, id := range stale {
		h.logger.Printf("disconnecting %s due to heartbeat timeout", id)
		h.Disconnect(id, "heartbeat_timeout")
	}
}

// broadcast sends one frame to every subscriber, dropping sessions whose
// writes fail.
func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	subs := make(map[uuid.UUID]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id, "write_failed")
		}
	}
}

// BroadcastSnapshot pushes a full resync frame to one subscriber.
func (h *Hub) BroadcastSnapshot(sub *subscriber, resync bool) error {
	data, err := proto.EncodeSnapshotV1(proto.SnapshotV1{
		Snapshot: h.world.Snapshot(),
		Resync:   resync,
	})
	if err != nil {
		return err
	}
	return sub.WriteMessage(websocket.TextMessage, data)
}

// diagnosticsPlayer is the per-session view served by /diagnostics.
type diagnosticsPlayer struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rtt"`
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsPlayer {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := make([]diagnosticsPlayer, 0, len(h.sessions))
	for id, state := range h.sessions {
		players = append(players, diagnosticsPlayer{
			ID:            id.String(),
			LastHeartbeat: state.lastHeartbeat.UnixMilli(),
			RTTMillis:     state.lastRTT.Milliseconds(),
		})
	}
	return players
}

// TelemetrySnapshot exposes the counter store for diagnostics.
func (h *Hub) TelemetrySnapshot() map[string]uint64 {
	return h.metrics.TelemetrySnapshot()
}

// World exposes the underlying simulation for tests and tooling.
func (h *Hub) World() *sim.World { return h.world }
