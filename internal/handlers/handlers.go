package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fnanalytics/stats-api/internal/logic"
	"github.com/fnanalytics/stats-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// IngestQueue defines the interface for the telemetry ingestion worker pool
type IngestQueue interface {
	Enqueue(event *models.TelemetryEvent) bool
	QueueDepth() int
}

// ReadinessCheck reports whether one backing store is reachable
type ReadinessCheck func(ctx context.Context) error

func PostgresCheck(pg *pgxpool.Pool) ReadinessCheck {
	return pg.Ping
}

func ClickHouseCheck(ch driver.Conn) ReadinessCheck {
	return ch.Ping
}

func RedisCheck(rdb *redis.Client) ReadinessCheck {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}

type Config struct {
	WorkerPool IngestQueue
	Checks     map[string]ReadinessCheck
	Logger     *zap.Logger
	// Services
	FilteredStats logic.FilteredStatsService
	Tournament    logic.TournamentService
}

type Handler struct {
	pool          IngestQueue
	checks        map[string]ReadinessCheck
	logger        *zap.SugaredLogger
	validator     *validator.Validate
	filteredStats logic.FilteredStatsService
	tournament    logic.TournamentService
}

func New(cfg Config) *Handler {
	return &Handler{
		pool:          cfg.WorkerPool,
		checks:        cfg.Checks,
		logger:        cfg.Logger.Sugar(),
		validator:     validator.New(),
		filteredStats: cfg.FilteredStats,
		tournament:    cfg.Tournament,
	}
}
