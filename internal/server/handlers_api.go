package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Vashnak/Franz-manager-sub000/internal/cache"
	"github.com/Vashnak/Franz-manager-sub000/internal/listing"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
	"github.com/Vashnak/Franz-manager-sub000/internal/store"
)

type clusterInfo struct {
	Name      string     `json:"name"`
	Brokers   []string   `json:"brokers"`
	Active    bool       `json:"active"`
	Loaded    bool       `json:"loaded"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
}

// snapshot returns the active holder and its current snapshot.
func (s *Server) snapshot() (*cache.Holder, *cache.Snapshot, error) {
	h, err := s.activeSession()
	if err != nil {
		return nil, nil, err
	}
	snap := h.Snapshot()
	if snap == nil {
		return h, nil, errNoSnapshot
	}
	return h, snap, nil
}

func (s *Server) clustersHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	active := s.ActiveCluster()
	s.mu.RLock()
	out := make([]clusterInfo, 0, len(s.cfg.Clusters))
	for _, cc := range s.cfg.Clusters {
		info := clusterInfo{Name: cc.Name, Brokers: cc.Brokers, Active: cc.Name == active}
		if h, ok := s.sessions[cc.Name]; ok {
			if snap := h.Snapshot(); snap != nil {
				info.Loaded = true
				fetched := snap.FetchedAt
				info.FetchedAt = &fetched
			}
		}
		out = append(out, info)
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) switchClusterHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name parameter required")
		return
	}

	h, err := s.session(name)
	if err != nil {
		writeErr(w, err)
		return
	}

	s.mu.Lock()
	s.activeCluster = name
	s.mu.Unlock()

	if err := s.store.SetPreference(store.PrefSelectedCluster, name); err != nil {
		s.logger.Warn("Failed to persist selected cluster", "cluster", name, "error", err)
	}
	s.logger.Info("Switched cluster", "cluster", name)

	if h.Snapshot() == nil {
		snap, err := h.Refresh(r.Context())
		if err != nil {
			s.metrics.AdminErrors.WithLabelValues(name, "refresh").Inc()
			writeErr(w, err)
			return
		}
		s.metrics.ObserveSnapshot(snap)
	}

	writeJSON(w, http.StatusOK, map[string]string{"active": name})
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	h, err := s.activeSession()
	if err != nil {
		writeErr(w, err)
		return
	}
	snap, err := h.Refresh(r.Context())
	if err != nil {
		s.metrics.AdminErrors.WithLabelValues(h.Name(), "refresh").Inc()
		writeErr(w, err)
		return
	}
	s.metrics.ObserveSnapshot(snap)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cluster":   snap.Cluster,
		"topics":    len(snap.Topics),
		"brokers":   len(snap.Brokers),
		"groups":    len(snap.Groups),
		"fetchedAt": snap.FetchedAt,
	})
}

func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	h, err := s.activeSession()
	if err != nil {
		writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		p := h.Progress()
		data, _ := json.Marshal(p)
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
		if p.Finished {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) brokersHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	_, snap, err := s.snapshot()
	if err != nil {
		writeErr(w, err)
		return
	}

	state := s.filterState(r, "brokers")
	res := listing.Brokers(snap.Brokers, state)
	if res.InvalidPattern {
		s.metrics.InvalidPatterns.WithLabelValues("brokers").Inc()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) preferencesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		prefs, err := s.store.Preferences()
		if err != nil {
			s.logger.Error("Failed to list preferences", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list preferences")
			return
		}
		writeJSON(w, http.StatusOK, prefs)

	case http.MethodPost:
		var body map[string]string
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if name, ok := body[store.PrefSelectedCluster]; ok {
			if _, known := s.cfg.Cluster(name); !known {
				writeErr(w, fmt.Errorf("%w: %s", errUnknownCluster, name))
				return
			}
		}
		for k, v := range body {
			if err := s.store.SetPreference(k, v); err != nil {
				s.logger.Error("Failed to save preference", "key", k, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to save preferences")
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost)
	}
}

// filtersHandler reads and writes the saved filter state of a view. GET
// returns the saved state (or the view default) and its query string form.
func (s *Server) filtersHandler(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	def, ok := views[view]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown view")
		return
	}
	clusterName := s.ActiveCluster()

	switch r.Method {
	case http.MethodGet:
		state, err := s.store.LoadFilterState(clusterName, view)
		if err != nil {
			state = def
		}
		writeJSON(w, http.StatusOK, savedFilter{State: state, Query: state.Values().Encode()})

	case http.MethodPost:
		var state models.FilterState
		if err := decodeJSON(r, &state); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		state = state.Normalize()
		if err := s.store.SaveFilterState(clusterName, view, state); err != nil {
			s.logger.Error("Failed to save filter state", "view", view, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save filter state")
			return
		}
		writeJSON(w, http.StatusOK, savedFilter{State: state, Query: state.Values().Encode()})

	case http.MethodDelete:
		if err := s.store.DeleteFilterState(clusterName, view); err != nil {
			s.logger.Error("Failed to delete filter state", "view", view, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete filter state")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

type savedFilter struct {
	State models.FilterState `json:"state"`
	Query string             `json:"query"`
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current":         s.currentVersion,
		"latest":          s.latestVersion,
		"updateAvailable": s.latestVersion != "" && s.latestVersion != s.currentVersion,
	})
}
