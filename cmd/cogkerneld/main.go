// Package main — cmd/cogkerneld/main.go
//
// Cognitive kernel daemon entrypoint.
//
// Startup sequence:
//  1. Load and validate config from /etc/cogkernel/config.yaml.
//  2. Initialise structured logger (zap, JSON format).
//  3. Open BoltDB storage and prune stale ledger entries.
//  4. Build the Activation Router's decision cache (memory or redis).
//  5. Start the Prometheus metrics server (127.0.0.1:9091).
//  6. Wire the Apex Orchestrator from config, storage, metrics.
//  7. Start the ingress Unix domain socket server.
//  8. Register SIGHUP handler for config hot-reload.
//  9. Block on SIGINT/SIGTERM for graceful shutdown.
//
// Shutdown sequence (on SIGINT/SIGTERM):
//  1. Cancel root context (propagates to the ingress and metrics servers).
//  2. Close BoltDB.
//  3. Flush logger.
//  4. Exit 0.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/azzindani/cogkernel/internal/apex"
	"github.com/azzindani/cogkernel/internal/config"
	"github.com/azzindani/cogkernel/internal/eventstream"
	"github.com/azzindani/cogkernel/internal/inference"
	"github.com/azzindani/cogkernel/internal/ingress"
	"github.com/azzindani/cogkernel/internal/observability"
	"github.com/azzindani/cogkernel/internal/retrieval"
	"github.com/azzindani/cogkernel/internal/router"
	"github.com/azzindani/cogkernel/internal/storage"
	"github.com/azzindani/cogkernel/internal/toolkit"
)

func main() {
	configPath := flag.String("config", "/etc/cogkernel/config.yaml", "Path to config.yaml")
	socketPath := flag.String("socket", "/run/cogkernel/ingress.sock", "Path to the ingress Unix domain socket")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("cogkerneld %s (commit=%s built=%s)\n", config.Version, config.GitCommit, config.BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := buildLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("cogkerneld starting",
		zap.String("version", config.Version),
		zap.String("commit", config.GitCommit),
		zap.String("built", config.BuildTime),
		zap.String("node_id", cfg.NodeID),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.Open(cfg.Storage.DBPath, cfg.Storage.RetentionDays)
	if err != nil {
		log.Fatal("BoltDB open failed", zap.Error(err), zap.String("path", cfg.Storage.DBPath))
	}
	defer db.Close() //nolint:errcheck
	log.Info("BoltDB opened", zap.String("path", cfg.Storage.DBPath))

	pruned, err := db.PruneOldLedgerEntries()
	if err != nil {
		log.Warn("ledger pruning failed", zap.Error(err))
	} else {
		log.Info("ledger pruned", zap.Int("deleted", pruned))
	}

	cache, err := buildDecisionCache(cfg.Router)
	if err != nil {
		log.Fatal("decision cache init failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	go func() {
		if err := metrics.ServeMetrics(ctx, cfg.Observability.MetricsAddr); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	log.Info("metrics server started", zap.String("addr", cfg.Observability.MetricsAddr))

	// Inference Kit, Tool Registry, and Knowledge Retriever are external
	// collaborators reached over gRPC in a real deployment (see
	// internal/toolkit, internal/retrieval). Without a configured
	// endpoint each component degrades to its documented fallback,
	// per spec.md §6 — so a standalone kernel runs with none wired.
	kit := inference.Empty()
	tools := toolkit.Registry(toolkit.NoopRegistry{})
	retriever := retrieval.Retriever(retrieval.NoopRetriever{})

	stream := eventstream.NewChannelStream(256, log)

	orchestrator := apex.New(*cfg, cache, kit, tools, retriever, stream, db, metrics, log)
	log.Info("apex orchestrator wired")

	ingressSrv := ingress.NewServer(*socketPath, orchestrator, db, log)
	go func() {
		if err := ingressSrv.ListenAndServe(ctx); err != nil {
			log.Error("ingress server error", zap.Error(err))
		}
	}()
	log.Info("ingress server started", zap.String("socket", *socketPath))

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			log.Info("SIGHUP received — reloading config...")
			newCfg, err := config.Load(*configPath)
			if err != nil {
				log.Error("config hot-reload failed — retaining old config", zap.Error(err))
				continue
			}
			// Router/Load/Grounding/Calibration/NoiseGate tunables are
			// read fresh on every apex.New call but the running
			// orchestrator was built once at startup; a full reload
			// requires rebuilding it, which is out of scope for a
			// hot-reload handler. Log the new values for the operator
			// to act on via a restart.
			log.Info("config hot-reload parsed; restart to apply",
				zap.Float64("new_grounding_floor", newCfg.NoiseGate.GroundingFloor))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	cancel()
	time.Sleep(200 * time.Millisecond) // let the ingress/metrics listeners close

	log.Info("cogkerneld shutdown complete")
}

// buildDecisionCache selects the Activation Router's cache backend per
// config: an in-process map, or Redis for deployments running multiple
// kernel processes behind one shared cache.
func buildDecisionCache(cfg config.RouterConfig) (router.DecisionCache, error) {
	switch cfg.CacheBackend {
	case "redis":
		return router.NewRedisDecisionCache(cfg.RedisAddr, cfg.CacheTTL)
	default:
		return router.NewCache(cfg.CacheTTL), nil
	}
}

// buildLogger constructs a zap.Logger with the given level and format.
func buildLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	return cfg.Build()
}
