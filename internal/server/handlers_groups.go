package server

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/Vashnak/Franz-manager-sub000/internal/listing"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

func (s *Server) groupsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	_, snap, err := s.snapshot()
	if err != nil {
		writeErr(w, err)
		return
	}

	groups := snap.Groups
	if topic := r.URL.Query().Get("topic"); topic != "" {
		groups = listing.GroupsOfTopic(groups, topic)
	}

	res := listing.Groups(groups, s.filterState(r, "groups"))
	if res.InvalidPattern {
		s.metrics.InvalidPatterns.WithLabelValues("groups").Inc()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) groupDetailsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	_, snap, err := s.snapshot()
	if err != nil {
		writeErr(w, err)
		return
	}

	id := r.URL.Query().Get("group")
	idx := slices.IndexFunc(snap.Groups, func(g models.ConsumerGroup) bool { return g.ID == id })
	if idx < 0 {
		writeErr(w, fmt.Errorf("%w: %q", errGroupNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, snap.Groups[idx])
}
