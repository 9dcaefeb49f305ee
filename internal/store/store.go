package store

import (
	"errors"

	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

// ErrNotFound is returned when a preference or filter state was never saved.
var ErrNotFound = errors.New("not found")

// Preference keys.
const (
	PrefSelectedCluster = "selected_cluster"
	PrefTheme           = "theme"
)

// Store defines the interface for the console's persisted state.
type Store interface {
	GetPreference(key string) (string, error)
	SetPreference(key, value string) error
	Preferences() (map[string]string, error)

	// Filter states are saved per cluster and per view ("topics", "groups"...).
	SaveFilterState(cluster, view string, state models.FilterState) error
	LoadFilterState(cluster, view string) (models.FilterState, error)
	DeleteFilterState(cluster, view string) error

	Close() error
}
