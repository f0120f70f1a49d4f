package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	server "emberhex/server"
	"emberhex/server/internal/net/proto"
)

type frame struct {
	Ver          int    `json:"ver"`
	Type         string `json:"type"`
	Seq          uint64 `json:"seq"`
	Reason       string `json:"reason"`
	Retry        bool   `json:"retry"`
	Resync       bool   `json:"resync"`
	ClientTime   int64  `json:"clientTime"`
	ServerOffset int64  `json:"serverOffset"`
	Snapshot     struct {
		Now int64 `json:"now"`
	} `json:"snapshot"`
}

func newTestHub(t *testing.T) *server.Hub {
	t.Helper()
	hub, err := server.NewHub(server.DefaultHubConfig())
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}
	return hub
}

func dial(t *testing.T, srv *httptest.Server, playerID string) *websocket.Conn {
	t.Helper()
	wsURL, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	wsURL.Scheme = "ws"
	wsURL.RawQuery = "id=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f frame
	if err := json.Unmarshal(payload, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

// skipHandshake consumes the clockInit and initial snapshot frames.
func skipHandshake(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	if f := readFrame(t, conn); f.Type != proto.TypeClockInit {
		t.Fatalf("expected clockInit first, got %q", f.Type)
	}
	if f := readFrame(t, conn); f.Type != proto.TypeSnapshot {
		t.Fatalf("expected snapshot second, got %q", f.Type)
	}
}

func TestHandleRejectsUnknownPlayer(t *testing.T) {
	hub := newTestHub(t)
	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	wsURL, _ := url.Parse(srv.URL)
	wsURL.Scheme = "ws"
	wsURL.RawQuery = "id=" + uuid.NewString()
	_, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err == nil {
		t.Fatalf("expected dial to fail for unknown player")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown player, got %+v", resp)
	}
}

func TestServeSendsClockInitThenSnapshot(t *testing.T) {
	hub := newTestHub(t)
	join := hub.Join(server.JoinOptions{})

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, join.ID)
	skipHandshake(t, conn)
}

func TestClockInitOffsetMatchesSimTimeline(t *testing.T) {
	hub := newTestHub(t)
	join := hub.Join(server.JoinOptions{})

	// Advance the world before the client connects. The handshake offset must
	// be the sim-timeline "now", the same value the snapshot frame carries,
	// never a wall-clock reading.
	hub.World().StepDelta(1500 * time.Millisecond)
	hub.World().StepDelta(1500 * time.Millisecond)

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, join.ID)
	clockInit := readFrame(t, conn)
	if clockInit.Type != proto.TypeClockInit {
		t.Fatalf("expected clockInit first, got %q", clockInit.Type)
	}
	if clockInit.ServerOffset != 3000 {
		t.Fatalf("expected serverOffset 3000 from the sim timeline, got %d", clockInit.ServerOffset)
	}
	snap := readFrame(t, conn)
	if snap.Type != proto.TypeSnapshot {
		t.Fatalf("expected snapshot second, got %q", snap.Type)
	}
	if snap.Snapshot.Now != clockInit.ServerOffset {
		t.Fatalf("handshake offset %d disagrees with snapshot now %d", clockInit.ServerOffset, snap.Snapshot.Now)
	}
}

func TestIntentAckRejectAndDuplicate(t *testing.T) {
	hub := newTestHub(t)
	join := hub.Join(server.JoinOptions{})
	target := hub.Join(server.JoinOptions{Faction: "raiders"})

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, join.ID)
	skipHandshake(t, conn)

	intent := map[string]any{
		"type":    proto.TypeUseAbility,
		"ability": "strike",
		"target":  target.ID,
		"seq":     1,
	}
	if err := conn.WriteJSON(intent); err != nil {
		t.Fatalf("write intent: %v", err)
	}
	ack := readFrame(t, conn)
	if ack.Type != "commandAck" || ack.Seq != 1 {
		t.Fatalf("expected commandAck seq 1, got %+v", ack)
	}

	// Retransmits of an acknowledged sequence get a bare ack and are not
	// staged a second time.
	if err := conn.WriteJSON(intent); err != nil {
		t.Fatalf("write duplicate: %v", err)
	}
	dup := readFrame(t, conn)
	if dup.Type != "commandAck" || dup.Seq != 1 {
		t.Fatalf("expected duplicate ack seq 1, got %+v", dup)
	}

	bad := map[string]any{
		"type":    proto.TypeUseAbility,
		"ability": "strike",
		"target":  "not-a-uuid",
		"seq":     2,
	}
	if err := conn.WriteJSON(bad); err != nil {
		t.Fatalf("write bad intent: %v", err)
	}
	reject := readFrame(t, conn)
	if reject.Type != "commandReject" || reject.Seq != 2 {
		t.Fatalf("expected commandReject seq 2, got %+v", reject)
	}
	if reject.Reason != server.CommandRejectInvalidIntent {
		t.Fatalf("expected invalid_intent, got %q", reject.Reason)
	}
	if reject.Retry {
		t.Fatalf("invalid intents must not be retried")
	}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	hub := newTestHub(t)
	join := hub.Join(server.JoinOptions{})

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, join.ID)
	skipHandshake(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": proto.TypeHeartbeat, "sentAt": 12345}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	hb := readFrame(t, conn)
	if hb.Type != proto.TypeHeartbeat {
		t.Fatalf("expected heartbeat ack, got %q", hb.Type)
	}
	if hb.ClientTime != 12345 {
		t.Fatalf("expected clientTime echo 12345, got %d", hb.ClientTime)
	}
}

func TestResyncRequestReturnsSnapshot(t *testing.T) {
	hub := newTestHub(t)
	join := hub.Join(server.JoinOptions{})

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, join.ID)
	skipHandshake(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": proto.TypeResync}); err != nil {
		t.Fatalf("write resync request: %v", err)
	}
	snap := readFrame(t, conn)
	if snap.Type != proto.TypeSnapshot {
		t.Fatalf("expected snapshot, got %q", snap.Type)
	}
	if !snap.Resync {
		t.Fatalf("expected resync flag on requested snapshot")
	}
}
