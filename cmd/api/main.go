package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/fnanalytics/stats-api/internal/config"
	"github.com/fnanalytics/stats-api/internal/database"
	"github.com/fnanalytics/stats-api/internal/handlers"
	"github.com/fnanalytics/stats-api/internal/logic"
	"github.com/fnanalytics/stats-api/internal/worker"
)

const (
	connectTimeout  = 10 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	ch, err := database.OpenClickHouse(connectCtx, cfg.ClickHouseURL)
	if err != nil {
		log.Fatalw("ClickHouse unavailable", "error", err)
	}
	defer ch.Close()

	pg, err := database.OpenPostgres(connectCtx, cfg.PostgresURL)
	if err != nil {
		log.Fatalw("Postgres unavailable", "error", err)
	}
	defer pg.Close()

	rdb, err := database.OpenRedis(connectCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalw("Redis unavailable", "error", err)
	}
	defer rdb.Close()

	collation, err := language.Parse(cfg.Collation)
	if err != nil {
		log.Warnw("Invalid collation; falling back to English", "collation", cfg.Collation, "error", err)
		collation = language.English
	}

	// Services
	identities := logic.NewCachedIdentityStore(rdb, logic.NewPostgresIdentityStore(pg))
	filteredStats := logic.NewFilteredStatsService(
		logic.NewClickHouseEventStore(ch),
		identities,
		logic.WithCollationLanguage(collation),
	)
	tournaments := logic.NewTournamentService(pg)

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    ch,
		Postgres:      pg,
		Redis:         rdb,
		Logger:        logger,
	})
	pool.Start(ctx)
	defer pool.Stop()

	h := handlers.New(handlers.Config{
		WorkerPool: pool,
		Checks: map[string]handlers.ReadinessCheck{
			"postgres":   handlers.PostgresCheck(pg),
			"clickhouse": handlers.ClickHouseCheck(ch),
			"redis":      handlers.RedisCheck(rdb),
		},
		Logger:        logger,
		FilteredStats: filteredStats,
		Tournament:    tournaments,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(h, cfg.AllowedOrigins),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
	}

	go func() {
		log.Infow("Starting HTTP server", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server shutdown failed", "error", err)
	}
	log.Info("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Env == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if err := zcfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zcfg.Build()
}
