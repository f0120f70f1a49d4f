// Package ws upgrades player connections and runs the per-session websocket
// loop that carries intents in and confirmations out.
package ws

import (
	"log"
	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	server "emberhex/server"
)

type HandlerConfig struct {
	Logger *log.Logger
}

// Handler coordinates websocket sessions for joined players.
type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{hub: hub, logger: logger, upgrader: upgrader}
}

// Handle upgrades the request and serves the session. The player must have
// joined over HTTP first; its id arrives as a query parameter.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	playerID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		nethttp.Error(w, "missing or invalid player id", nethttp.StatusBadRequest)
		return
	}
	if !h.hub.HasActor(playerID) {
		nethttp.Error(w, "unknown player", nethttp.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed for %s: %v", playerID, err)
		return
	}

	h.Serve(playerID, conn)
}
