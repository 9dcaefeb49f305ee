package server

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vashnak/Franz-manager-sub000/internal/cluster"
	"github.com/Vashnak/Franz-manager-sub000/internal/cluster/clustertest"
	"github.com/Vashnak/Franz-manager-sub000/internal/config"
	"github.com/Vashnak/Franz-manager-sub000/internal/listing"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
	"github.com/Vashnak/Franz-manager-sub000/internal/store"
)

type testEnv struct {
	srv    *Server
	admins map[string]*clustertest.Admin
	store  *store.SQLiteStore
}

func strPtr(s string) *string { return &s }

func newAdmin() *clustertest.Admin {
	a := clustertest.New(
		models.Topic{ID: "logs.app.error", Partitions: 3, Replications: 1},
		models.Topic{ID: "logs.app.info", Partitions: 6, Replications: 1},
		models.Topic{ID: "logs.db", Partitions: 1, Replications: 1},
		models.Topic{ID: "metrics", Partitions: 4, Replications: 1},
	)
	a.AddTopic(models.Topic{ID: "orders", Partitions: 2, Replications: 1}, map[string]*string{
		"retention.ms":   strPtr("604800000"),
		"segment.bytes":  strPtr("1073741824"),
		"cleanup.policy": strPtr("delete"),
	})
	a.Brokers = []models.Broker{
		{NodeID: 1, Host: "kafka-1", Port: 9092, Controller: true},
		{NodeID: 2, Host: "kafka-2", Port: 9092},
	}
	a.Groups = []models.ConsumerGroup{
		{ID: "billing", State: "Stable", Topics: []string{"orders"}, Lag: 12},
		{ID: "audit", State: "Empty", Topics: []string{"logs.db"}},
	}
	return a
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "console.db"), true)
	require.NoError(t, err)

	env := &testEnv{
		store:  st,
		admins: map[string]*clustertest.Admin{"local": newAdmin(), "prod": newAdmin()},
	}

	opts.Config = &config.Config{
		Clusters: []config.ClusterConfig{
			{Name: "local", Brokers: []string{"localhost:9092"}},
			{Name: "prod", Brokers: []string{"kafka-1:9093"}},
		},
		DefaultCluster: "local",
	}
	opts.Store = st
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Connect = func(cc config.ClusterConfig) (cluster.Admin, error) {
		a, ok := env.admins[cc.Name]
		if !ok {
			return nil, errors.New("no such cluster")
		}
		return a, nil
	}

	env.srv, err = New(opts)
	require.NoError(t, err)
	t.Cleanup(env.srv.Shutdown)
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type topicsBody struct {
	listing.TopicListing
	Path  []string `json:"path"`
	View  string   `json:"view"`
	Query string   `json:"query"`
}

func TestNoSnapshot(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/api/topics", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not loaded")
}

func TestTopicsTree(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodGet, "/api/topics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[topicsBody](t, rec)

	assert.Equal(t, "tree", body.View)
	assert.Equal(t, 5, body.Total)
	require.Len(t, body.Folders, 1)
	assert.Equal(t, "logs", body.Folders[0].ID)
	assert.Equal(t, 10, body.Folders[0].Partitions)
	assert.Len(t, body.Topics, 2)
	assert.Empty(t, body.Path)

	rec = env.do(t, http.MethodGet, "/api/topics?folder=logs.&sort=partitions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[topicsBody](t, rec)
	assert.Equal(t, "logs", body.Folder)
	assert.Equal(t, []string{"logs"}, body.Path)
	require.Len(t, body.Folders, 1)
	assert.Equal(t, "logs.app", body.Folders[0].ID)
	require.Len(t, body.Topics, 1)
	assert.Equal(t, "logs.db", body.Topics[0].ID)
	assert.Equal(t, "folder=logs&sort=partitions", body.Query)
}

func TestTopicsFlatAndInvalidPattern(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodGet, "/api/topics?view=flat&q=app&sort=partitions&reverse=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[topicsBody](t, rec)
	assert.Equal(t, "flat", body.View)
	require.Len(t, body.Topics, 2)
	assert.Equal(t, "logs.app.error", body.Topics[0].ID)
	assert.Equal(t, "logs.app.info", body.Topics[1].ID)

	rec = env.do(t, http.MethodGet, "/api/topics?view=flat&q=(&regexp=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[topicsBody](t, rec)
	assert.True(t, body.InvalidPattern)
	assert.Empty(t, body.Topics)

	rec = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `franz_manager_invalid_filter_patterns_total{view="topics"} 1`)
	assert.Contains(t, rec.Body.String(), `franz_manager_snapshot_topics{cluster="local"} 5`)
}

func TestCreateAndDeleteTopic(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodPost, "/api/topics", `{"name":"users","partitions":3,"replicationFactor":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/topics?view=flat&q=users", "")
	body := decode[topicsBody](t, rec)
	require.Len(t, body.Topics, 1)
	assert.Equal(t, 3, body.Topics[0].Partitions)

	rec = env.do(t, http.MethodPost, "/api/topics", `{"name":"","partitions":3,"replicationFactor":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/topics", `{"name":"x","bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/topics?topic=users", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/topics?topic=users", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/topics", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/topics", `{"name":"orders","partitions":1,"replicationFactor":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/topics", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST, DELETE", rec.Header().Get("Allow"))
}

func TestTopicDetails(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.admins["local"].SetPartitions("orders", []models.Partition{
		{ID: 0, Leader: 1, Replicas: []int32{1, 2}, ISR: []int32{1, 2}, StartOffset: 0, EndOffset: 100},
		{ID: 1, Leader: 2, Replicas: []int32{1, 2}, ISR: []int32{2}, StartOffset: 10, EndOffset: 30},
	})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodGet, "/api/topic-details?topic=orders&sort=messages&reverse=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	details := decode[topicDetails](t, rec)

	assert.Equal(t, "orders", details.Topic.ID)
	assert.Equal(t, 1, details.UnderReplicated)
	assert.Equal(t, int64(120), details.Messages)
	require.Len(t, details.Partitions, 2)
	assert.Equal(t, int32(1), details.Partitions[0].ID)
	require.Len(t, details.Groups, 1)
	assert.Equal(t, "billing", details.Groups[0].ID)

	rec = env.do(t, http.MethodGet, "/api/topic-details?topic=nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTopicConfig(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodGet, "/api/topic-config?topic=orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[listing.ConfigListing](t, rec)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Buckets[models.BucketRetention], 1)
	assert.Len(t, res.Buckets[models.BucketSegment], 1)
	assert.Len(t, res.Buckets[models.BucketOthers], 1)

	rec = env.do(t, http.MethodPost, "/api/topic-config?topic=orders", `{"retention.ms":"1000","cleanup.policy":null,"max.message.bytes":"2048"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[listing.ConfigListing](t, rec)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Buckets[models.BucketRetention], 1)
	assert.Equal(t, "1000", *res.Buckets[models.BucketRetention][0].Value)
	assert.Len(t, res.Buckets[models.BucketMessages], 1)
	assert.Empty(t, res.Buckets[models.BucketOthers])

	rec = env.do(t, http.MethodGet, "/api/topic-config?topic=orders&q=bytes", "")
	res = decode[listing.ConfigListing](t, rec)
	assert.Len(t, res.Buckets[models.BucketMessages], 1)
	assert.Len(t, res.Buckets[models.BucketSegment], 1)
	assert.Empty(t, res.Buckets[models.BucketRetention])

	rec = env.do(t, http.MethodGet, "/api/topic-config?topic=nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/topic-config?topic=orders", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.admins["local"].SetErr(fmt.Errorf("alter configs of orders: %w (INVALID_CONFIG)", cluster.ErrInvalidRequest))
	rec = env.do(t, http.MethodPost, "/api/topic-config?topic=orders", `{"retention.ms":"-7"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CONFIG")
	env.admins["local"].SetErr(nil)
}

func TestGroupsAndBrokers(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodGet, "/api/groups?sort=lag", "")
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode[listing.GroupListing](t, rec)
	require.Len(t, groups.Groups, 2)
	assert.Equal(t, "billing", groups.Groups[0].ID)

	rec = env.do(t, http.MethodGet, "/api/groups?topic=logs.db", "")
	groups = decode[listing.GroupListing](t, rec)
	require.Len(t, groups.Groups, 1)
	assert.Equal(t, "audit", groups.Groups[0].ID)

	rec = env.do(t, http.MethodGet, "/api/group-details?group=billing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), decode[models.ConsumerGroup](t, rec).Lag)

	rec = env.do(t, http.MethodGet, "/api/group-details?group=nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/brokers?q=kafka-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	brokers := decode[listing.BrokerListing](t, rec)
	require.Len(t, brokers.Brokers, 1)
	assert.Equal(t, int32(2), brokers.Brokers[0].NodeID)
}

func TestSavedFilters(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodPost, "/api/filters?view=topics", `{"nameQuery":"logs","excludeSuffix":".db","sortBy":"id"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[savedFilter](t, rec)
	assert.Equal(t, "exclude=.db&q=logs&sort=id", saved.Query)

	rec = env.do(t, http.MethodGet, "/api/topics?view=flat", "")
	body := decode[topicsBody](t, rec)
	require.Len(t, body.Topics, 2)
	assert.Equal(t, "logs.app.error", body.Topics[0].ID)

	// Query parameters override the saved state.
	rec = env.do(t, http.MethodGet, "/api/topics?view=flat&q=", "")
	body = decode[topicsBody](t, rec)
	assert.Len(t, body.Topics, 4)

	rec = env.do(t, http.MethodGet, "/api/filters?view=topics", "")
	assert.Equal(t, "logs", decode[savedFilter](t, rec).State.NameQuery)

	rec = env.do(t, http.MethodDelete, "/api/filters?view=topics", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/filters?view=topics", "")
	assert.Equal(t, views["topics"], decode[savedFilter](t, rec).State)

	rec = env.do(t, http.MethodGet, "/api/filters?view=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavedFolderTrailingDelimiter(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodGet, "/api/topics?folder=logs.", "")
	want := decode[topicsBody](t, rec)
	require.Equal(t, 3, want.Matched)

	rec = env.do(t, http.MethodPost, "/api/filters?view=topics", `{"folder":"logs.","sortBy":"id"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "logs", decode[savedFilter](t, rec).State.Folder)

	rec = env.do(t, http.MethodGet, "/api/topics", "")
	got := decode[topicsBody](t, rec)
	assert.Equal(t, "logs", got.Folder)
	assert.Equal(t, 3, got.Matched)
	assert.Len(t, got.Folders, 1)
	assert.Len(t, got.Topics, 1)
	assert.Equal(t, []string{"logs"}, got.Path)
}

func TestClustersAndSwitch(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodGet, "/api/clusters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	clusters := decode[[]clusterInfo](t, rec)
	require.Len(t, clusters, 2)
	assert.True(t, clusters[0].Active)
	assert.True(t, clusters[0].Loaded)
	assert.False(t, clusters[1].Loaded)

	env.admins["prod"].AddTopic(models.Topic{ID: "prod-only", Partitions: 1, Replications: 3}, nil)
	rec = env.do(t, http.MethodPost, "/api/switch-cluster?name=prod", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "prod", env.srv.ActiveCluster())

	selected, err := env.store.GetPreference(store.PrefSelectedCluster)
	require.NoError(t, err)
	assert.Equal(t, "prod", selected)

	rec = env.do(t, http.MethodGet, "/api/topics?view=flat&q=prod-only", "")
	assert.Len(t, decode[topicsBody](t, rec).Topics, 1)

	rec = env.do(t, http.MethodPost, "/api/switch-cluster?name=staging", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/switch-cluster?name=prod", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	env.admins["local"].AddTopic(models.Topic{ID: "late", Partitions: 1, Replications: 1}, nil)
	rec := env.do(t, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 6, decode[map[string]interface{}](t, rec)["topics"])

	env.admins["local"].SetErr(errors.New("broker down"))
	rec = env.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// The previous snapshot keeps serving listings.
	rec = env.do(t, http.MethodGet, "/api/topics?view=flat", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[topicsBody](t, rec).Topics, 6)
}

func TestProgressStream(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.srv.Warmup())

	rec := env.do(t, http.MethodGet, "/api/load-progress", "")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"finished":true`)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "data: "))
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/preferences", `{"theme":"dark"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/preferences", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", decode[map[string]string](t, rec)["theme"])

	rec = env.do(t, http.MethodPost, "/api/preferences", `{"selected_cluster":"staging"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectedClusterRestored(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "console.db"), true)
	require.NoError(t, err)
	require.NoError(t, st.SetPreference(store.PrefSelectedCluster, "prod"))

	cfg := &config.Config{
		Clusters:       []config.ClusterConfig{{Name: "local"}, {Name: "prod"}},
		DefaultCluster: "local",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Equal(t, "prod", initialCluster(cfg, st, logger))

	require.NoError(t, st.SetPreference(store.PrefSelectedCluster, "gone"))
	assert.Equal(t, "local", initialCluster(cfg, st, logger))
	require.NoError(t, st.Close())
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, Options{AuthToken: "s3cret"})

	rec := env.do(t, http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/version?token=s3cret", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookie, cookies[0].Name)

	req = httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGzipAndSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, Options{CurrentVersion: "1.0.0", LatestVersion: "1.1.0"})

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var v map[string]interface{}
	require.NoError(t, json.NewDecoder(zr).Decode(&v))
	assert.Equal(t, true, v["updateAvailable"])
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodPost, "/api/heartbeat", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
