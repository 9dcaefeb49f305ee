package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Vashnak/Franz-manager-sub000/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath. With clean set,
// or when the file was written by an older schema, the database is recreated.
func NewSQLiteStore(dbPath string, clean bool) (*SQLiteStore, error) {
	if clean || shouldWipeDB(dbPath) {
		slog.Info("Creating fresh database", "db", dbPath, "clean", clean)
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove old database: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			slog.Warn("Failed to set pragma", "pragma", p, "error", err)
		}
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func shouldWipeDB(dbPath string) bool {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return false
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return true
	}
	defer func() { _ = db.Close() }()

	var version int
	err = db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	return err != nil || version < schemaVersion
}

func (s *SQLiteStore) InitSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{SchemaVersionTable, PreferencesSchema, FilterStateSchema} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if _, err := tx.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetPreference(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("preference %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetPreference(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save preference %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Preferences() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT key, value FROM preferences")
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		prefs[k] = v
	}
	return prefs, rows.Err()
}

func (s *SQLiteStore) SaveFilterState(cluster, view string, state models.FilterState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode filter state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`INSERT INTO filter_states (cluster, view, state, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(cluster, view) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		cluster, view, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save filter state %s/%s: %w", cluster, view, err)
	}
	return nil
}

func (s *SQLiteStore) LoadFilterState(cluster, view string) (models.FilterState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT state FROM filter_states WHERE cluster = ? AND view = ?", cluster, view).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FilterState{}, fmt.Errorf("filter state %s/%s: %w", cluster, view, ErrNotFound)
	}
	if err != nil {
		return models.FilterState{}, fmt.Errorf("failed to read filter state %s/%s: %w", cluster, view, err)
	}

	var state models.FilterState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return models.FilterState{}, fmt.Errorf("failed to decode filter state %s/%s: %w", cluster, view, err)
	}
	return state, nil
}

func (s *SQLiteStore) DeleteFilterState(cluster, view string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM filter_states WHERE cluster = ? AND view = ?", cluster, view); err != nil {
		return fmt.Errorf("failed to delete filter state %s/%s: %w", cluster, view, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
