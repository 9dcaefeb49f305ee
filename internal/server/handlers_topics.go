package server

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/Vashnak/Franz-manager-sub000/internal/cache"
	"github.com/Vashnak/Franz-manager-sub000/internal/cluster"
	"github.com/Vashnak/Franz-manager-sub000/internal/listing"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

type topicsResponse struct {
	listing.TopicListing
	Path  []string `json:"path"`
	View  string   `json:"view"`
	Query string   `json:"query"`
}

func (s *Server) topicsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTopics(w, r)
	case http.MethodPost:
		s.createTopic(w, r)
	case http.MethodDelete:
		s.deleteTopic(w, r)
	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	_, snap, err := s.snapshot()
	if err != nil {
		writeErr(w, err)
		return
	}

	view := r.URL.Query().Get("view")
	if view != "flat" {
		view = "tree"
	}
	state := s.filterState(r, "topics")

	res := listing.Topics(snap.Topics, state, view == "tree")
	if res.InvalidPattern {
		s.metrics.InvalidPatterns.WithLabelValues("topics").Inc()
	}

	writeJSON(w, http.StatusOK, topicsResponse{
		TopicListing: res,
		Path:         listing.FolderPath(res.Folder),
		View:         view,
		Query:        state.Values().Encode(),
	})
}

func (s *Server) createTopic(w http.ResponseWriter, r *http.Request) {
	var req cluster.CreateTopicRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h, err := s.activeSession()
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := h.Admin().CreateTopic(r.Context(), req); err != nil {
		s.metrics.AdminErrors.WithLabelValues(h.Name(), "create_topic").Inc()
		s.logger.Error("Failed to create topic", "cluster", h.Name(), "topic", req.Name, "error", err)
		writeErr(w, err)
		return
	}
	s.logger.Info("Topic created", "cluster", h.Name(), "topic", req.Name, "partitions", req.Partitions)

	s.refreshAfterChange(r, h)
	writeJSON(w, http.StatusCreated, models.Topic{
		ID:           req.Name,
		Partitions:   int(req.Partitions),
		Replications: int(req.ReplicationFactor),
	})
}

func (s *Server) deleteTopic(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		writeError(w, http.StatusBadRequest, "topic parameter required")
		return
	}

	h, err := s.activeSession()
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := h.Admin().DeleteTopic(r.Context(), topic); err != nil {
		s.metrics.AdminErrors.WithLabelValues(h.Name(), "delete_topic").Inc()
		s.logger.Error("Failed to delete topic", "cluster", h.Name(), "topic", topic, "error", err)
		writeErr(w, err)
		return
	}
	s.logger.Info("Topic deleted", "cluster", h.Name(), "topic", topic)

	s.refreshAfterChange(r, h)
	w.WriteHeader(http.StatusNoContent)
}

// refreshAfterChange reloads the snapshot after a write so the next listing
// reflects it. A failed reload keeps the old snapshot.
func (s *Server) refreshAfterChange(r *http.Request, h *cache.Holder) {
	snap, err := h.Refresh(r.Context())
	if err != nil {
		s.metrics.AdminErrors.WithLabelValues(h.Name(), "refresh").Inc()
		return
	}
	s.metrics.ObserveSnapshot(snap)
}

type topicDetails struct {
	Topic           models.Topic           `json:"topic"`
	Path            []string               `json:"path"`
	Partitions      []models.Partition     `json:"partitions"`
	UnderReplicated int                    `json:"underReplicated"`
	Messages        int64                  `json:"messages"`
	Groups          []models.ConsumerGroup `json:"groups"`
}

func (s *Server) topicDetailsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	h, snap, err := s.snapshot()
	if err != nil {
		writeErr(w, err)
		return
	}

	name := r.URL.Query().Get("topic")
	idx := slices.IndexFunc(snap.Topics, func(t models.Topic) bool { return t.ID == name })
	if idx < 0 {
		writeErr(w, fmt.Errorf("%w: %q", cluster.ErrTopicNotFound, name))
		return
	}

	partitions, err := h.Admin().TopicPartitions(r.Context(), name)
	if err != nil {
		s.metrics.AdminErrors.WithLabelValues(h.Name(), "topic_partitions").Inc()
		writeErr(w, err)
		return
	}

	state := models.ParseFilterState(r.URL.Query(), models.FilterState{})
	details := topicDetails{
		Topic:      snap.Topics[idx],
		Path:       listing.FolderPath(name),
		Partitions: listing.Partitions(partitions, state.SortBy, state.Reverse),
		Groups:     listing.GroupsOfTopic(snap.Groups, name),
	}
	for _, p := range partitions {
		if p.UnderReplicated() {
			details.UnderReplicated++
		}
		details.Messages += p.EndOffset - p.StartOffset
	}

	writeJSON(w, http.StatusOK, details)
}

// topicConfigHandler lists the bucketed configuration of a topic on GET and
// applies changes on POST. A null value in the POST body resets the key.
func (s *Server) topicConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	name := r.URL.Query().Get("topic")
	if name == "" {
		writeError(w, http.StatusBadRequest, "topic parameter required")
		return
	}
	h, err := s.activeSession()
	if err != nil {
		writeErr(w, err)
		return
	}

	if r.Method == http.MethodPost {
		var changes map[string]*string
		if err := decodeJSON(r, &changes); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(changes) == 0 {
			writeError(w, http.StatusBadRequest, "no configuration changes")
			return
		}
		if err := h.Admin().AlterTopicConfigs(r.Context(), name, changes); err != nil {
			s.metrics.AdminErrors.WithLabelValues(h.Name(), "alter_configs").Inc()
			s.logger.Error("Failed to alter topic configuration", "cluster", h.Name(), "topic", name, "error", err)
			writeErr(w, err)
			return
		}
		s.logger.Info("Topic configuration altered", "cluster", h.Name(), "topic", name, "keys", len(changes))
	}

	entries, err := h.Admin().DescribeTopicConfigs(r.Context(), name)
	if err != nil {
		s.metrics.AdminErrors.WithLabelValues(h.Name(), "describe_configs").Inc()
		writeErr(w, err)
		return
	}

	res := listing.Configuration(name, entries, s.filterState(r, "config"))
	if res.InvalidPattern {
		s.metrics.InvalidPatterns.WithLabelValues("config").Inc()
	}
	writeJSON(w, http.StatusOK, res)
}
