package logic

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/fnanalytics/stats-api/internal/models"
)

// ClickHouseEventStore runs grouped aggregations against the combat event tables
type ClickHouseEventStore struct {
	ch driver.Conn
}

func NewClickHouseEventStore(ch driver.Conn) *ClickHouseEventStore {
	return &ClickHouseEventStore{ch: ch}
}

// GroupedAggregate groups the stream by (match_id, key column) and reduces each group
func (s *ClickHouseEventStore) GroupedAggregate(ctx context.Context, q AggregateQuery) (map[models.RawKey]float64, error) {
	query, args, err := BuildAggregateQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.ch.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", q.Stream, err)
	}
	defer rows.Close()

	out := make(map[models.RawKey]float64)
	for rows.Next() {
		var (
			matchID, rawKey string
			value           float64
		)
		if err := rows.Scan(&matchID, &rawKey, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", q.Stream, err)
		}
		// recipient_id is empty for environmental damage
		if rawKey == "" {
			continue
		}
		out[models.RawKey{MatchID: matchID, ActorID: rawKey}] += value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s row iteration failed: %w", q.Stream, err)
	}

	return out, nil
}
