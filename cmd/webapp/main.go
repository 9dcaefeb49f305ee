package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Vashnak/Franz-manager-sub000/internal/cluster"
	"github.com/Vashnak/Franz-manager-sub000/internal/config"
	"github.com/Vashnak/Franz-manager-sub000/internal/server"
	"github.com/Vashnak/Franz-manager-sub000/internal/store"
	"github.com/Vashnak/Franz-manager-sub000/internal/version"
)

var Version = "dev"

func envDuration(key string) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// .env files feed the flag defaults below.
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load environment files: %v\n", err)
		os.Exit(1)
	}

	envPort := 7575
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		envPort = p
	}
	port := flag.Int("port", envPort, "Port to listen on (can also be set via PORT env var)")
	host := flag.String("host", envOr("HOST", "127.0.0.1"), "Host to bind to (default: 127.0.0.1 for security, use 0.0.0.0 for containers) (can also be set via HOST env var)")

	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML file describing the clusters (can also be set via CONFIG_FILE env var)")
	brokers := flag.String("brokers", os.Getenv("KAFKA_BROKERS"), "Comma-separated bootstrap brokers of a single cluster, used when no config file is given (can also be set via KAFKA_BROKERS env var)")
	clusterName := flag.String("cluster-name", envOr("CLUSTER_NAME", "default"), "Name of the cluster given with -brokers")

	authToken := flag.String("auth-token", os.Getenv("AUTH_TOKEN"), "Secret token required to access the API (can also be set via AUTH_TOKEN env var)")
	shutdownTimeout := flag.Duration("shutdown-timeout", envDuration("SHUTDOWN_TIMEOUT"), "Hard limit on server lifetime (e.g., 20m). 0 means no limit. (can also be set via SHUTDOWN_TIMEOUT env var)")
	inactivityTimeout := flag.Duration("inactivity-timeout", envDuration("INACTIVITY_TIMEOUT"), "Inactivity timeout (e.g., 5m). Shutdown if no heartbeats received. 0 means no limit. (can also be set via INACTIVITY_TIMEOUT env var)")

	persist := flag.Bool("persist", os.Getenv("PERSIST") == "true", "Keep preferences and saved filters between runs (default: clean on start)")
	debug := flag.Bool("debug", os.Getenv("DEBUG") == "true", "Enable debug logging")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("franz-manager version %s\n", Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Version check
	version.Current = Version
	latestVersionChan := make(chan string, 1)
	go func() {
		latest, err := version.CheckUpdate(context.Background())
		if err != nil {
			logger.Debug("Failed to check for updates", "error", err)
		} else if latest != "" {
			logger.Info("A new version of franz-manager is available!", "latest", latest, "current", Version)
		}
		latestVersionChan <- latest
	}()

	var latestVersion string
	select {
	case latestVersion = <-latestVersionChan:
	case <-time.After(1 * time.Second):
		logger.Debug("Version check timed out")
	}

	cfg, err := loadConfig(*configFile, *clusterName, *brokers)
	if err != nil {
		logger.Error("Failed to load cluster configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("Clusters configured", "clusters", cfg.Names(), "default", cfg.DefaultCluster)

	// Set up application data directory
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	dataDir := filepath.Join(cacheDir, "franz-manager")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Error("Failed to create data directory", "path", dataDir, "error", err)
		os.Exit(1)
	}
	logger.Info("Using data directory", "path", dataDir)

	sqliteStore, err := store.NewSQLiteStore(filepath.Join(dataDir, "console.db"), !*persist)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := server.New(server.Options{
		Config: cfg,
		Store:  sqliteStore,
		Logger: logger,
		Connect: func(cc config.ClusterConfig) (cluster.Admin, error) {
			return cluster.Dial(cc, cfg.AdminRateLimit, cfg.RequestTimeout, logger)
		},
		Registry:          registry,
		AuthToken:         *authToken,
		ShutdownTimeout:   *shutdownTimeout,
		InactivityTimeout: *inactivityTimeout,
		CurrentVersion:    Version,
		LatestVersion:     latestVersion,
	})
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// The first snapshot loads in the background; listings answer 503 until
	// it is ready and /api/load-progress reports its progress.
	go func() {
		if err := srv.Warmup(); err != nil {
			logger.Warn("Initial cluster snapshot failed", "cluster", srv.ActiveCluster(), "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("Server listening on", "address", addr)

	// Signal handling for graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Block until signal
	<-c
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server did not shut down cleanly", "error", err)
	}
	srv.Shutdown()

	// Wipe the entire data directory on exit if persist is false
	if !*persist {
		logger.Info("Cleaning up database files...", "path", dataDir)
		if err := os.RemoveAll(dataDir); err != nil {
			logger.Warn("Failed to clean up data directory on exit", "path", dataDir, "error", err)
		}
	}
}

// loadConfig prefers the cluster file and falls back to a single cluster
// built from the broker list.
func loadConfig(path, name, brokers string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if brokers == "" {
		return nil, errors.New("either -config or -brokers is required")
	}
	var list []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	return config.FromBrokers(name, list)
}
