package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vashnak/Franz-manager-sub000/internal/cluster"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
	"github.com/Vashnak/Franz-manager-sub000/internal/store"
)

const maxBodySize = 1 << 20

var (
	errUnknownCluster = errors.New("unknown cluster")
	errNoSnapshot     = errors.New("cluster snapshot not loaded yet")
	errGroupNotFound  = errors.New("consumer group not found")
)

// Listing views whose filter state can be saved.
var views = map[string]models.FilterState{
	"topics":  {SortBy: "id"},
	"groups":  {SortBy: "id"},
	"brokers": {SortBy: "id"},
	"config":  {SortBy: "key"},
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeErr maps known errors to their status code.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cluster.ErrTopicNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errUnknownCluster), errors.Is(err, errGroupNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cluster.ErrTopicExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cluster.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errNoSnapshot):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), d)
}

// filterState reads the filter state of view from the query, using the saved
// state of the active cluster (or the view default) for missing parameters.
func (s *Server) filterState(r *http.Request, view string) models.FilterState {
	def := views[view]
	saved, err := s.store.LoadFilterState(s.ActiveCluster(), view)
	switch {
	case err == nil:
		def = saved
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Warn("Failed to load saved filter state", "view", view, "error", err)
	}
	return models.ParseFilterState(r.URL.Query(), def)
}
