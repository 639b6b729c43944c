package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fnanalytics/stats-api/internal/database"
	"github.com/fnanalytics/stats-api/internal/logic"
)

type rootOptions struct {
	clickhouseURL string
	postgresURL   string
	redisURL      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "fnstats",
		Short:         "Competitive telemetry stats tool",
		Long:          "Aggregate eliminations and damage per player across tournament matches.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.clickhouseURL, "clickhouse", os.Getenv("STATS_CLICKHOUSE_URL"), "ClickHouse DSN")
	root.PersistentFlags().StringVar(&opts.postgresURL, "postgres", os.Getenv("STATS_POSTGRES_URL"), "Postgres URL")
	root.PersistentFlags().StringVar(&opts.redisURL, "redis", os.Getenv("STATS_REDIS_URL"), "Redis URL for the identity cache (optional)")

	root.AddCommand(newQueryCmd(opts))
	root.AddCommand(newMatchesCmd(opts))
	root.AddCommand(newTournamentsCmd(opts))
	return root
}

// stores bundles the live connections a command needs
type stores struct {
	events     logic.EventStore
	identities logic.IdentityStore
	pg         logic.PgPool
	close      func()
}

func (o *rootOptions) openPostgres(ctx context.Context) (*stores, error) {
	if o.postgresURL == "" {
		return nil, fmt.Errorf("--postgres (or STATS_POSTGRES_URL) is required")
	}
	pg, err := database.OpenPostgres(ctx, o.postgresURL)
	if err != nil {
		return nil, err
	}
	return &stores{pg: pg, identities: logic.NewPostgresIdentityStore(pg), close: pg.Close}, nil
}

func (o *rootOptions) openStores(ctx context.Context) (*stores, error) {
	if o.clickhouseURL == "" {
		return nil, fmt.Errorf("--clickhouse (or STATS_CLICKHOUSE_URL) is required")
	}
	s, err := o.openPostgres(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := database.OpenClickHouse(ctx, o.clickhouseURL)
	if err != nil {
		s.close()
		return nil, err
	}
	s.events = logic.NewClickHouseEventStore(ch)
	closers := []func(){s.close, func() { ch.Close() }}

	if o.redisURL != "" {
		rdb, err := database.OpenRedis(ctx, o.redisURL)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, err
		}
		s.identities = logic.NewCachedIdentityStore(rdb, s.identities)
		closers = append(closers, func() { rdb.Close() })
	}

	s.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return s, nil
}
