package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	server "emberhex/server"
	"emberhex/server/internal/net/intake"
	"emberhex/server/internal/net/proto"
)

// Serve orchestrates a websocket session for the provided player connection.
// It sends the clock handshake and the initial snapshot, then loops on
// inbound intents until the connection drops.
func (h *Handler) Serve(playerID uuid.UUID, conn *websocket.Conn) {
	if h == nil || h.hub == nil || conn == nil {
		return
	}

	sub, snapshot, ok := h.hub.Subscribe(playerID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	// The handshake offset is the sim timeline "now", matching every combat
	// timestamp the client will receive. Wall time plays no part in expiry.
	handshake, err := proto.EncodeClockInit(proto.ClockInit{
		EpochMillis:  h.hub.Clock().EpochUnixMilli(),
		ServerOffset: snapshot.NowMillis,
	})
	if err != nil {
		h.logger.Printf("failed to marshal clock handshake for %s: %v", playerID, err)
		h.disconnect(playerID, "handshake_failed")
		return
	}
	if err := sub.WriteMessage(websocket.TextMessage, handshake); err != nil {
		h.disconnect(playerID, "write_failed")
		return
	}

	initial, err := proto.EncodeSnapshotV1(proto.SnapshotV1{Snapshot: snapshot})
	if err != nil {
		h.logger.Printf("failed to marshal initial snapshot for %s: %v", playerID, err)
		h.disconnect(playerID, "snapshot_failed")
		return
	}
	if err := sub.WriteMessage(websocket.TextMessage, initial); err != nil {
		h.disconnect(playerID, "write_failed")
		return
	}

	ctx := intake.CommandContext{
		Enqueue:  h.hub.Enqueue,
		HasActor: h.hub.HasActor,
		Tick:     h.hub.CurrentTick,
		Now:      time.Now,
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.disconnect(playerID, "read_failed")
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", playerID, err)
			continue
		}

		seq := uint64(0)
		if msg.Seq != nil && *msg.Seq > 0 {
			seq = *msg.Seq
		}

		write := func(data []byte) bool {
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				h.disconnect(playerID, "write_failed")
				return false
			}
			return true
		}

		sendAck := func(tick uint64) bool {
			if seq == 0 {
				return true
			}
			data, err := proto.EncodeCommandAck(proto.CommandAck{Seq: seq, Tick: tick})
			if err != nil {
				h.logger.Printf("failed to marshal ack for %s: %v", playerID, err)
				return true
			}
			if !write(data) {
				return false
			}
			sub.StoreLastCommandSeq(seq)
			return true
		}

		sendReject := func(reason string) bool {
			if seq == 0 {
				return true
			}
			retry := reason == server.CommandRejectQueueLimit || reason == server.CommandRejectQueueFull
			data, err := proto.EncodeCommandReject(proto.CommandReject{Seq: seq, Reason: reason, Retry: retry})
			if err != nil {
				h.logger.Printf("failed to marshal reject for %s: %v", playerID, err)
				return true
			}
			return write(data)
		}

		switch msg.Type {
		case proto.TypeUseAbility, proto.TypeUseReaction, proto.TypeSetShift:
			if seq > 0 {
				if last := sub.LastCommandSeq(); last > 0 && seq <= last {
					data, err := proto.EncodeCommandAck(proto.CommandAck{Seq: seq})
					if err == nil && !write(data) {
						return
					}
					continue
				}
			}
			cmd, ok, reason := intake.StageClientCommand(ctx, playerID, seq, msg)
			if ok {
				if !sendAck(cmd.OriginTick) {
					return
				}
				continue
			}
			h.hub.RejectedIntent(playerID, msg.Type, seq, reason)
			if !sendReject(reason) {
				return
			}
			if reason == server.CommandRejectUnknownActor {
				h.logger.Printf("%s intent ignored for unknown player %s", msg.Type, playerID)
			}
		case proto.TypeHeartbeat:
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(playerID, now, msg.SentAt)
			if !ok {
				continue
			}
			data, err := proto.EncodeHeartbeat(proto.Heartbeat{
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			})
			if err != nil {
				h.logger.Printf("failed to marshal heartbeat ack for %s: %v", playerID, err)
				continue
			}
			if !write(data) {
				return
			}
		case proto.TypeResync:
			if err := h.hub.BroadcastSnapshot(sub, true); err != nil {
				h.disconnect(playerID, "write_failed")
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, playerID)
		}
	}
}

func (h *Handler) disconnect(playerID uuid.UUID, reason string) {
	h.hub.Disconnect(playerID, reason)
}
