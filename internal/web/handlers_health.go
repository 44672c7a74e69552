package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/signup/internal/logging"
	mw "github.com/JonMunkholm/signup/internal/web/middleware"
)

// readyTimeout bounds the store ping behind /readyz.
const readyTimeout = 2 * time.Second

type readyResponse struct {
	Status   string            `json:"status"`
	Store    string            `json:"store"`
	InFlight mw.InFlightStatus `json:"in_flight"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady pings the store. It answers 503 while the store is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{
		Status:   "ok",
		Store:    "unchecked",
		InFlight: s.inflight.Status(),
	}

	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := s.pinger.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("readiness check failed", "error", err)
			resp.Status = "unavailable"
			resp.Store = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Store = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
