package server

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Vashnak/Franz-manager-sub000/internal/cache"
	"github.com/Vashnak/Franz-manager-sub000/internal/cluster"
	"github.com/Vashnak/Franz-manager-sub000/internal/config"
	"github.com/Vashnak/Franz-manager-sub000/internal/store"
)

// SecurityHeadersMiddleware adds security-related headers
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
	gz *gzip.Writer
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// Flush keeps server-sent events working behind gzip.
func (w gzipResponseWriter) Flush() {
	_ = w.gz.Flush()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzip.NewWriter(w)
		defer gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(gzipResponseWriter{Writer: gz, ResponseWriter: w, gz: gz}, r)
	})
}

// Connector opens an admin client for a configured cluster.
type Connector func(cfg config.ClusterConfig) (cluster.Admin, error)

type Options struct {
	Config            *config.Config
	Store             store.Store
	Logger            *slog.Logger
	Connect           Connector
	Registry          *prometheus.Registry
	AuthToken         string
	ShutdownTimeout   time.Duration
	InactivityTimeout time.Duration
	CurrentVersion    string
	LatestVersion     string
}

type Server struct {
	cfg               *config.Config
	store             store.Store
	logger            *slog.Logger
	connect           Connector
	metrics           *Metrics
	handler           http.Handler // Internal mux + middleware
	mu                sync.RWMutex
	sessions          map[string]*cache.Holder
	activeCluster     string
	authToken         string
	shutdownTimeout   time.Duration
	inactivityTimeout time.Duration
	lastHeartbeat     int64 // Unix timestamp
	currentVersion    string
	latestVersion     string
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if opts.Connect == nil {
		return nil, errors.New("server: connector is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	server := &Server{
		cfg:               opts.Config,
		store:             opts.Store,
		logger:            opts.Logger,
		connect:           opts.Connect,
		metrics:           NewMetrics(opts.Registry),
		sessions:          make(map[string]*cache.Holder),
		activeCluster:     initialCluster(opts.Config, opts.Store, opts.Logger),
		authToken:         opts.AuthToken,
		shutdownTimeout:   opts.ShutdownTimeout,
		inactivityTimeout: opts.InactivityTimeout,
		lastHeartbeat:     time.Now().Unix(),
		currentVersion:    opts.CurrentVersion,
		latestVersion:     opts.LatestVersion,
	}

	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, server.metrics.Instrument(pattern, h))
	}

	route("/api/clusters", server.clustersHandler)
	route("/api/switch-cluster", server.switchClusterHandler)
	route("/api/refresh", server.refreshHandler)
	route("/api/load-progress", server.progressHandler)
	route("/api/brokers", server.brokersHandler)
	route("/api/topics", server.topicsHandler)
	route("/api/topic-details", server.topicDetailsHandler)
	route("/api/topic-config", server.topicConfigHandler)
	route("/api/groups", server.groupsHandler)
	route("/api/group-details", server.groupDetailsHandler)
	route("/api/preferences", server.preferencesHandler)
	route("/api/filters", server.filtersHandler)
	route("/api/version", server.versionHandler)
	route("/api/heartbeat", server.heartbeatHandler)
	mux.Handle("/metrics", server.metrics.Handler(opts.Registry))

	// Order: Auth -> Gzip -> Security -> Mux
	var handler http.Handler = mux
	handler = SecurityHeadersMiddleware(handler)
	handler = GzipMiddleware(handler)
	handler = server.AuthMiddleware(handler)

	server.handler = handler

	server.startTimeoutWatcher()

	return server, nil
}

// initialCluster picks the persisted selection when it still exists in the
// configuration, the configured default otherwise.
func initialCluster(cfg *config.Config, s store.Store, logger *slog.Logger) string {
	selected, err := s.GetPreference(store.PrefSelectedCluster)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("Failed to read selected cluster", "error", err)
		}
		return cfg.DefaultCluster
	}
	if _, ok := cfg.Cluster(selected); !ok {
		logger.Warn("Selected cluster is no longer configured", "cluster", selected)
		return cfg.DefaultCluster
	}
	return selected
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ActiveCluster returns the name of the selected cluster.
func (s *Server) ActiveCluster() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeCluster
}

// session returns the holder of cluster name, connecting on first use.
func (s *Server) session(name string) (*cache.Holder, error) {
	s.mu.RLock()
	h, ok := s.sessions[name]
	s.mu.RUnlock()
	if ok {
		return h, nil
	}

	cc, ok := s.cfg.Cluster(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownCluster, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.sessions[name]; ok {
		return h, nil
	}
	admin, err := s.connect(cc)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", name, err)
	}
	h = cache.NewHolder(name, admin, s.logger)
	s.sessions[name] = h
	return h, nil
}

// activeSession returns the holder of the selected cluster.
func (s *Server) activeSession() (*cache.Holder, error) {
	return s.session(s.ActiveCluster())
}

// Warmup loads the first snapshot of the selected cluster.
func (s *Server) Warmup() error {
	h, err := s.activeSession()
	if err != nil {
		return err
	}
	ctx, cancel := contextWithTimeout(s.cfg.RequestTimeout * 2)
	defer cancel()
	snap, err := h.Refresh(ctx)
	if err != nil {
		return err
	}
	s.metrics.ObserveSnapshot(snap)
	return nil
}

func (s *Server) heartbeatHandler(w http.ResponseWriter, r *http.Request) {
	atomic.StoreInt64(&s.lastHeartbeat, time.Now().Unix())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startTimeoutWatcher() {
	if s.shutdownTimeout == 0 && s.inactivityTimeout == 0 {
		return
	}

	startTime := time.Now()
	ticker := time.NewTicker(30 * time.Second)

	go func() {
		defer ticker.Stop()
		for range ticker.C {
			now := time.Now()

			if s.shutdownTimeout > 0 && now.Sub(startTime) > s.shutdownTimeout {
				s.logger.Info("Hard shutdown timeout reached. Shutting down...", "timeout", s.shutdownTimeout)
				_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
				return
			}

			if s.inactivityTimeout > 0 {
				last := atomic.LoadInt64(&s.lastHeartbeat)
				if now.Unix()-last > int64(s.inactivityTimeout.Seconds()) {
					s.logger.Info("Inactivity timeout reached. Shutting down...", "timeout", s.inactivityTimeout)
					_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
					return
				}
			}
		}
	}()
}

// AuthMiddleware checks for a valid auth token if configured
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		if token := r.URL.Query().Get("token"); token == s.authToken {
			http.SetCookie(w, &http.Cookie{
				Name:     authCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   3600 * 24,
			})

			q := r.URL.Query()
			q.Del("token")
			r.URL.RawQuery = q.Encode()
			http.Redirect(w, r, r.URL.String(), http.StatusFound)
			return
		}

		if bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "); bearer == s.authToken {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(authCookie)
		if err == nil && cookie.Value == s.authToken {
			next.ServeHTTP(w, r)
			return
		}

		writeError(w, http.StatusUnauthorized, "valid token required via ?token=..., bearer header or cookie")
	})
}

const authCookie = "fm_token"

func (s *Server) Shutdown() {
	s.logger.Info("Shutting down server and closing all cluster sessions...")
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, h := range s.sessions {
		h.Close()
		delete(s.sessions, name)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("Failed to close store", "error", err)
	}
}
