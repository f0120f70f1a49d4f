// Package net assembles the HTTP surface: join, diagnostics, and the
// websocket upgrade path.
package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"net/http/pprof"
	"time"

	server "emberhex/server"
	"emberhex/server/internal/net/proto"
	"emberhex/server/internal/net/ws"
	"emberhex/server/internal/observability"
	"emberhex/server/stats"
)

type HTTPHandlerConfig struct {
	Logger        *log.Logger
	Observability observability.Config
}

// joinRequest is the optional POST body for /join. A loadout, when present,
// must cover all three attribute pairs.
type joinRequest struct {
	Faction string `json:"faction,omitempty"`
	Loadout []struct {
		Axis     int8 `json:"axis"`
		Spectrum int8 `json:"spectrum"`
		Shift    int8 `json:"shift"`
	} `json:"loadout,omitempty"`
}

func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Tick       uint64 `json:"tick"`
			Players    any    `json:"players"`
			TickRate   int    `json:"tickRate"`
			Heartbeat  int64  `json:"heartbeatMillis"`
			Telemetry  any    `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       hub.CurrentTick(),
			Players:    hub.DiagnosticsSnapshot(),
			TickRate:   server.TickRate(),
			Heartbeat:  server.HeartbeatInterval().Milliseconds(),
			Telemetry:  hub.TelemetrySnapshot(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		var opts server.JoinOptions
		if r.Body != nil {
			defer r.Body.Close()
			var req joinRequest
			decoder := json.NewDecoder(r.Body)
			if err := decoder.Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
			opts.Faction = req.Faction
			if len(req.Loadout) > 0 {
				if len(req.Loadout) != int(stats.PairCount) {
					httpError(w, "loadout must cover every attribute pair", nethttp.StatusBadRequest)
					return
				}
				attrs := stats.New(
					stats.Investment{Axis: req.Loadout[0].Axis, Spectrum: req.Loadout[0].Spectrum, Shift: req.Loadout[0].Shift},
					stats.Investment{Axis: req.Loadout[1].Axis, Spectrum: req.Loadout[1].Spectrum, Shift: req.Loadout[1].Shift},
					stats.Investment{Axis: req.Loadout[2].Axis, Spectrum: req.Loadout[2].Spectrum, Shift: req.Loadout[2].Shift},
				)
				opts.Attrs = &attrs
			}
		}

		join := hub.Join(opts)
		data, err := proto.EncodeJoinResponseV1(join)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})
	mux.HandleFunc("/ws", wsHandler.Handle)

	if cfg.Observability.EnablePprofTrace {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
