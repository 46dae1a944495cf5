package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleListAlerts returns all open alerts, newest first.
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.store.Active()
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	OK(w, alerts)
}

// handleAlertHistory returns retained alerts, newest first. The limit
// query parameter caps the result; zero or absent means everything
// retained.
func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			JSONError(w, NewBadRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	OK(w, s.store.History(limit))
}

// handleAlertStats returns store statistics.
func (s *Server) handleAlertStats(w http.ResponseWriter, r *http.Request) {
	OK(w, s.store.Stats())
}

// handleGetAlert returns one alert by id, open or historical.
func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alert, ok := s.store.Get(id)
	if !ok {
		JSONError(w, ErrAlertNotFound)
		return
	}
	OK(w, alert)
}

// handleAcknowledgeAlert marks an open alert acknowledged.
func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Acknowledge(id) {
		JSONError(w, NewNotFound("alert is not open"))
		return
	}
	alert, _ := s.store.Get(id)
	OK(w, alert)
}

// handleResolveAlert resolves an open alert.
func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Resolve(id) {
		JSONError(w, NewNotFound("alert is not open"))
		return
	}
	alert, _ := s.store.Get(id)
	OK(w, alert)
}

// handleListAircraft returns the current aircraft table.
func (s *Server) handleListAircraft(w http.ResponseWriter, r *http.Request) {
	aircraft := s.tracker.Snapshot()
	sort.Slice(aircraft, func(i, j int) bool {
		return aircraft[i].Hex < aircraft[j].Hex
	})
	OK(w, aircraft)
}

// handleThresholds returns the active alerting thresholds.
func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	OK(w, s.thresholds.Current())
}

// handleEvents streams alert lifecycle events as Server-Sent Events.
// The stream stays open until the client disconnects or the server
// shuts down; comments keep intermediaries from timing the
// connection out.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		JSONError(w, NewBadRequest("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sse := NewSSEWriter(w, flusher)
	sse.SendRetry(3000)

	events := s.store.Subscribe()
	defer s.store.Unsubscribe(events)

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if err := sse.SendComment("keepalive"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := sse.SendEvent(string(ev.Type), string(data)); err != nil {
				return
			}
		}
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"tracked": s.tracker.Len(),
	}
	if last, ok := s.tracker.LastFetch(); ok {
		status["last_fetch"] = last.UTC().Format(time.RFC3339)
	}
	OK(w, status)
}
