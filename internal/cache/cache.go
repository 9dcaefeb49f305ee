package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vashnak/Franz-manager-sub000/internal/cluster"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

// loadSteps is the number of ProgressTracker steps of a full Load.
const loadSteps = 3

// Snapshot is everything the listing views need from one cluster, fetched in
// one go. A snapshot is never patched: a refresh builds a new one.
type Snapshot struct {
	Cluster   string
	Topics    []models.Topic
	Brokers   []models.Broker
	Groups    []models.ConsumerGroup
	FetchedAt time.Time
}

// Load fetches topics, brokers and consumer groups concurrently. The first
// failure cancels the other requests.
func Load(ctx context.Context, name string, admin cluster.Admin, p *models.ProgressTracker) (*Snapshot, error) {
	if p == nil {
		p = models.NewProgressTracker(loadSteps)
	}

	snap := &Snapshot{Cluster: name}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p.SetStatus("Listing topics...")
		topics, err := admin.ListTopics(ctx)
		if err != nil {
			return err
		}
		snap.Topics = topics
		p.Step(fmt.Sprintf("%d topics listed", len(topics)))
		return nil
	})

	g.Go(func() error {
		p.SetStatus("Listing brokers...")
		brokers, err := admin.ListBrokers(ctx)
		if err != nil {
			return err
		}
		snap.Brokers = brokers
		p.Step(fmt.Sprintf("%d brokers listed", len(brokers)))
		return nil
	})

	g.Go(func() error {
		p.SetStatus("Describing consumer groups...")
		groups, err := admin.ListGroups(ctx)
		if err != nil {
			return err
		}
		snap.Groups = groups
		p.Step(fmt.Sprintf("%d consumer groups described", len(groups)))
		return nil
	})

	if err := g.Wait(); err != nil {
		p.Fail(err)
		return nil, fmt.Errorf("load snapshot of %s: %w", name, err)
	}

	snap.FetchedAt = time.Now()
	p.Finish()
	return snap, nil
}

// Holder keeps the current snapshot of a cluster and swaps it atomically on
// refresh. Readers never see a half-loaded snapshot.
type Holder struct {
	name     string
	admin    cluster.Admin
	logger   *slog.Logger
	mu       sync.RWMutex
	current  *Snapshot
	progress *models.ProgressTracker
	loading  sync.Mutex
}

func NewHolder(name string, admin cluster.Admin, logger *slog.Logger) *Holder {
	p := models.NewProgressTracker(loadSteps)
	return &Holder{
		name:     name,
		admin:    admin,
		logger:   logger,
		progress: p,
	}
}

func (h *Holder) Name() string { return h.name }

func (h *Holder) Admin() cluster.Admin { return h.admin }

// Snapshot returns the current snapshot, nil before the first successful load.
func (h *Holder) Snapshot() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

func (h *Holder) Progress() models.Progress {
	h.mu.RLock()
	p := h.progress
	h.mu.RUnlock()
	return p.Get()
}

// Refresh loads a new snapshot and replaces the current one on success. On
// failure the previous snapshot stays in place. Concurrent refreshes are
// serialized.
func (h *Holder) Refresh(ctx context.Context) (*Snapshot, error) {
	h.loading.Lock()
	defer h.loading.Unlock()

	p := models.NewProgressTracker(loadSteps)
	h.mu.Lock()
	h.progress = p
	h.mu.Unlock()

	start := time.Now()
	snap, err := Load(ctx, h.name, h.admin, p)
	if err != nil {
		h.logger.Error("Failed to refresh cluster snapshot", "cluster", h.name, "error", err)
		return nil, err
	}

	h.mu.Lock()
	h.current = snap
	h.mu.Unlock()

	h.logger.Info("Cluster snapshot refreshed",
		"cluster", h.name,
		"topics", len(snap.Topics),
		"brokers", len(snap.Brokers),
		"groups", len(snap.Groups),
		"duration", time.Since(start))
	return snap, nil
}

// Close releases the cluster client.
func (h *Holder) Close() {
	h.admin.Close()
}
