package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/annamatynian/smartmoney-data/internal/api"
	"github.com/annamatynian/smartmoney-data/internal/book"
	redisc "github.com/annamatynian/smartmoney-data/internal/cache/redis"
	"github.com/annamatynian/smartmoney-data/internal/collector"
	"github.com/annamatynian/smartmoney-data/internal/config"
	"github.com/annamatynian/smartmoney-data/internal/connection"
	"github.com/annamatynian/smartmoney-data/internal/cvd"
	"github.com/annamatynian/smartmoney-data/internal/database"
	"github.com/annamatynian/smartmoney-data/internal/engine"
	"github.com/annamatynian/smartmoney-data/internal/gamma"
	"github.com/annamatynian/smartmoney-data/internal/iceberg"
	"github.com/annamatynian/smartmoney-data/internal/router"
	"github.com/annamatynian/smartmoney-data/internal/version"
	"github.com/annamatynian/smartmoney-data/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/analyzer.local.yaml", "path to config file")
	flag.Parse()

	// .env is optional; config expansion picks up whatever is set.
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting analyzer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"symbol", cfg.Instance.Symbol,
		"feed_url", cfg.Feed.WSURL,
	)

	parsed, err := cfg.Analytics.Parsed()
	if err != nil {
		logger.Error("failed to parse analytics thresholds", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Database
	logger.Info("connecting to database",
		"host", cfg.Database.Timescale.Host,
		"port", cfg.Database.Timescale.Port,
		"database", cfg.Database.Timescale.Name,
	)

	db, err := database.Connect(ctx, cfg.Database.Timescale)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database connected")

	// Redis snapshot cache (optional)
	var sink engine.SnapshotSink
	if cfg.Redis.Addr != "" {
		redisClient, err := redisc.New(ctx, redisc.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
		})
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		sink = redisc.NewSnapshotCache(redisClient)
		logger.Info("redis snapshot cache connected", "addr", cfg.Redis.Addr)
	} else {
		logger.Info("redis disabled, snapshots go to timescale only")
	}

	// Analytics components
	bookMirror := book.New()
	accumulator := cvd.New(cvd.Config{
		WhaleThreshold:  parsed.WhaleThreshold,
		MinnowThreshold: parsed.MinnowThreshold,
	})
	detector := iceberg.New(iceberg.Config{
		MinHiddenSize:  parsed.MinIcebergSize,
		BaseConfidence: cfg.Analytics.BaseConfidence,
	}, bookMirror)
	tracker := gamma.NewTracker()
	adjuster := gamma.NewAdjuster(parsed.WallTolerance, cfg.Analytics.WallBoost)
	snapCollector := collector.New(collector.Config{
		Symbol:       cfg.Instance.Symbol,
		WarmupWindow: cfg.Analytics.WarmupWindow,
	}, bookMirror, accumulator)

	// Gamma poller (optional)
	var poller *gamma.Poller
	if cfg.Gamma.URL != "" {
		gammaClient := api.NewClient(
			cfg.Gamma.URL,
			cfg.Gamma.APIKey,
			api.WithLogger(logger),
			api.WithTimeout(cfg.Gamma.Timeout),
			api.WithRetries(cfg.Gamma.MaxRetries, time.Second),
		)
		poller = gamma.NewPoller(gamma.PollerConfig{
			Symbol:   cfg.Instance.Symbol,
			Interval: cfg.Gamma.PollInterval,
			Timeout:  cfg.Gamma.Timeout,
		}, gammaClient, tracker, logger)
	} else {
		logger.Info("gamma polling disabled, confidences pass through unadjusted")
	}

	// Feed supervisor
	supervisor := connection.NewSupervisor(connection.SupervisorConfig{
		Client: connection.ClientConfig{
			URL:          cfg.Feed.WSURL,
			PingTimeout:  cfg.Feed.PingTimeout,
			WriteTimeout: cfg.Feed.WriteTimeout,
			BufferSize:   cfg.Feed.BufferSize,
		},
		ReconnectBaseDelay: cfg.Feed.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Feed.ReconnectMaxDelay,
		OutputBufferSize:   cfg.Feed.BufferSize,
	}, logger)

	// Router
	msgRouter := router.New(router.Config{
		EventBufferSize: cfg.Router.EventBufferSize,
	}, supervisor.Messages(), logger)

	// Engine
	analyticsEngine := engine.New(
		engine.Config{
			Symbol:           cfg.Instance.Symbol,
			SnapshotInterval: cfg.Analytics.SnapshotInterval,
			OutputBufferSize: cfg.Router.EventBufferSize,
		},
		msgRouter.Buffers(),
		bookMirror, accumulator, detector, tracker, adjuster, snapCollector,
		sink, logger,
	)

	// Writers
	writerCfg := writer.WriterConfig{
		BatchSize:     cfg.Writers.BatchSize,
		FlushInterval: cfg.Writers.FlushInterval,
	}
	icebergWriter := writer.NewIcebergWriter(writerCfg, analyticsEngine.IcebergEvents(), db, logger)
	snapshotWriter := writer.NewSnapshotWriter(writerCfg, analyticsEngine.Snapshots(), db, logger)

	// Start the pipeline back to front so every consumer is ready before its
	// producer begins.
	for _, step := range []struct {
		name  string
		start func(context.Context) error
	}{
		{"iceberg writer", icebergWriter.Start},
		{"snapshot writer", snapshotWriter.Start},
		{"engine", analyticsEngine.Start},
		{"router", msgRouter.Start},
		{"supervisor", supervisor.Start},
	} {
		if err := step.start(ctx); err != nil {
			logger.Error("failed to start component", "component", step.name, "error", err)
			os.Exit(1)
		}
	}

	if poller != nil {
		if err := poller.Start(ctx); err != nil {
			logger.Error("failed to start gamma poller", "error", err)
			os.Exit(1)
		}
	}

	// Health server
	healthPort := cfg.Health.Port
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", healthPort),
		Handler: createHealthHandler(cfg.Health.Path, db, supervisor, msgRouter, analyticsEngine),
	}

	var g errgroup.Group
	g.Go(func() error {
		logger.Info("starting health server", "port", healthPort)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	logger.Info("analyzer running",
		"instance_id", cfg.Instance.ID,
		"symbol", cfg.Instance.Symbol,
		"health_url", fmt.Sprintf("http://localhost:%d%s", healthPort, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop front to back: drain the feed, then the derived-data consumers.
	supervisor.Stop(shutdownCtx)
	msgRouter.Stop(shutdownCtx)
	if poller != nil {
		poller.Stop(shutdownCtx)
	}
	analyticsEngine.Stop(shutdownCtx)
	icebergWriter.Stop(shutdownCtx)
	snapshotWriter.Stop(shutdownCtx)

	healthServer.Shutdown(shutdownCtx)
	if err := g.Wait(); err != nil {
		logger.Error("health server error", "error", err)
	}

	logger.Info("analyzer stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(
	path string,
	db *pgxpool.Pool,
	supervisor *connection.Supervisor,
	msgRouter router.Router,
	analyticsEngine *engine.Engine,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		if err := db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["timescaledb"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["timescaledb"] = "connected"
		}

		health.Components["feed"] = map[string]interface{}{
			"connected":  supervisor.IsConnected(),
			"reconnects": supervisor.Reconnects(),
		}
		if !supervisor.IsConnected() {
			health.Status = "degraded"
		}

		stats := analyticsEngine.Stats()
		health.Components["engine"] = map[string]interface{}{
			"warmed_up":      stats.WarmedUp,
			"book_updates":   stats.BookUpdates,
			"trades":         stats.Trades,
			"sequence_gaps":  stats.SequenceGaps,
			"crossed_books":  stats.CrossedBooks,
			"iceberg_events": stats.IcebergEvents,
			"snapshots":      stats.Snapshots,
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/router", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(msgRouter.Stats())
	})

	return mux
}
