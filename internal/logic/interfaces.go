package logic

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/fnanalytics/stats-api/internal/models"
)

// ErrNotFound is returned when a requested tournament does not exist
var ErrNotFound = errors.New("not found")

// FilteredStatsService computes per-player aggregates for a filter specification
type FilteredStatsService interface {
	GetFilteredStats(ctx context.Context, filters models.StatFilters) ([]models.PlayerRow, error)
}

// TournamentService serves the match/weapon/player listings of a tournament
type TournamentService interface {
	GetTournaments(ctx context.Context) ([]models.Tournament, error)
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	GetMatches(ctx context.Context, tournamentID string) ([]models.MatchOption, error)
	GetWeaponTypes(ctx context.Context, tournamentID string) ([]models.WeaponOption, error)
	GetPlayers(ctx context.Context, matchIDs []string) ([]models.PlayerOption, error)
	DefaultFilters(ctx context.Context, tournamentID string) (models.StatFilters, error)
}

// EventStore runs grouped aggregations over one combat event stream.
// Implementations return a freshly allocated map owned by the caller.
type EventStore interface {
	GroupedAggregate(ctx context.Context, q AggregateQuery) (map[models.RawKey]float64, error)
}

// IdentityStore resolves per-match actor keys to canonical players in bulk.
// Keys without a known identity are absent from the returned map.
type IdentityStore interface {
	LookupIdentities(ctx context.Context, keys []models.RawKey) (map[models.RawKey]models.PlayerIdentity, error)
}

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RedisClient defines the subset of the Redis client used for the identity cache
type RedisClient interface {
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}
