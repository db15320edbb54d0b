// Package net exposes a session over HTTP and a websocket command channel.
package net

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	nethttp "net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/websocket"

	"github.com/virtu333/rogue-emblem-sub003/internal/run"
	"github.com/virtu333/rogue-emblem-sub003/internal/save"
	"github.com/virtu333/rogue-emblem-sub003/internal/session"
)

// ProtocolVersion is stamped on every websocket frame the server sends.
const ProtocolVersion = 1

type HTTPHandlerConfig struct {
	Logger *log.Logger
	// Diagnostics, when set, is served as JSON on /diagnostics.
	Diagnostics func() any
	// EnablePprof mounts the runtime profiler under /debug/pprof/.
	EnablePprof bool
}

type startRequest struct {
	Seed                  *int64 `json:"seed"`
	DifficultyID          string `json:"difficultyId"`
	BlessingID            string `json:"blessingId"`
	ApplyBlessingsAtStart bool   `json:"applyBlessingsAtStart"`
}

func NewHTTPHandler(mgr *session.Manager, cfg HTTPHandlerConfig) nethttp.Handler {
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
			ActiveRun  bool   `json:"activeRun"`
			Telemetry  any    `json:"telemetry,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			ActiveRun:  mgr.Active(),
		}
		if cfg.Diagnostics != nil {
			payload.Telemetry = cfg.Diagnostics()
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("/run", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.Method {
		case nethttp.MethodGet:
			writeSnapshot(w, mgr)
		case nethttp.MethodDelete:
			if err := mgr.Delete(r.Context()); err != nil {
				logger.Printf("failed to delete run: %v", err)
				httpError(w, "failed to delete run", nethttp.StatusInternalServerError)
				return
			}
			w.WriteHeader(nethttp.StatusNoContent)
		default:
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/run/start", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		var req startRequest
		if r.Body != nil {
			defer r.Body.Close()
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
		}
		err := mgr.Start(r.Context(), run.StartOptions{
			Seed:                  req.Seed,
			DifficultyID:          req.DifficultyID,
			BlessingID:            req.BlessingID,
			ApplyBlessingsAtStart: req.ApplyBlessingsAtStart,
		})
		if err != nil {
			logger.Printf("failed to start run: %v", err)
			httpError(w, "failed to start run", nethttp.StatusInternalServerError)
			return
		}
		writeSnapshot(w, mgr)
	})

	mux.HandleFunc("/run/resume", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if err := mgr.Resume(r.Context()); err != nil {
			if errors.Is(err, save.ErrNoSavedRun) {
				httpError(w, "no saved run", nethttp.StatusNotFound)
				return
			}
			logger.Printf("failed to resume run: %v", err)
			httpError(w, "failed to resume run", nethttp.StatusInternalServerError)
			return
		}
		writeSnapshot(w, mgr)
	})

	mux.HandleFunc("/run/command", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		var cmd session.Command
		if r.Body == nil {
			httpError(w, "invalid payload", nethttp.StatusBadRequest)
			return
		}
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			httpError(w, "invalid payload", nethttp.StatusBadRequest)
			return
		}
		res, err := mgr.Do(r.Context(), cmd)
		switch {
		case errors.Is(err, session.ErrNoActiveRun):
			writeJSON(w, nethttp.StatusConflict, res)
		case errors.Is(err, session.ErrUnknownCommand):
			writeJSON(w, nethttp.StatusBadRequest, res)
		case err != nil:
			logger.Printf("command %s failed: %v", cmd.Type, err)
			writeJSON(w, nethttp.StatusInternalServerError, res)
		default:
			writeJSON(w, nethttp.StatusOK, res)
		}
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}
	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	ws := newCommandHandler(mgr, logger)
	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("upgrade failed: %v", err)
			return
		}
		ws.Serve(conn)
	})

	return mux
}

func writeSnapshot(w nethttp.ResponseWriter, mgr *session.Manager) {
	data, err := mgr.Snapshot()
	if err != nil {
		if errors.Is(err, session.ErrNoActiveRun) {
			httpError(w, "no active run", nethttp.StatusNotFound)
			return
		}
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	w.Write([]byte(msg))
}
