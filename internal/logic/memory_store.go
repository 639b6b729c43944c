package logic

import (
	"context"
	"fmt"

	"github.com/fnanalytics/stats-api/internal/models"
)

// MemoryStore holds decoded telemetry in process. It serves both the event
// and identity side of the engine for offline analysis of exported streams.
type MemoryStore struct {
	eliminations []models.TelemetryEvent
	damage       []models.TelemetryEvent
	identities   map[models.RawKey]models.PlayerIdentity
}

func NewMemoryStore(events []models.TelemetryEvent) *MemoryStore {
	s := &MemoryStore{identities: make(map[models.RawKey]models.PlayerIdentity)}
	for _, e := range events {
		switch e.Type {
		case models.TelemetryElimination:
			s.eliminations = append(s.eliminations, e)
		case models.TelemetryDamage:
			s.damage = append(s.damage, e)
		case models.TelemetryMatchPlayer:
			if e.EpicID != "" {
				s.identities[e.Key()] = e.Identity()
			}
		}
	}
	return s
}

func (s *MemoryStore) GroupedAggregate(ctx context.Context, q AggregateQuery) (map[models.RawKey]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []models.TelemetryEvent
	switch q.Stream {
	case StreamEliminations:
		events = s.eliminations
	case StreamDamageDealt:
		events = s.damage
	default:
		return nil, fmt.Errorf("invalid stream: %s", q.Stream)
	}

	out := make(map[models.RawKey]float64)
	for i := range events {
		e := &events[i]
		if !q.Predicate.Match(e.MatchID, e.WeaponType, e.GameTimeSeconds, e.Distance) {
			continue
		}

		key := models.RawKey{MatchID: e.MatchID, ActorID: e.ActorID}
		if q.GroupBy == GroupByRecipient {
			key.ActorID = e.RecipientID
		}
		if key.ActorID == "" {
			continue
		}

		switch q.Measure {
		case MeasureCount:
			out[key]++
		case MeasureSum:
			out[key] += e.Amount
		default:
			return nil, fmt.Errorf("invalid measure: %d", q.Measure)
		}
	}
	return out, nil
}

func (s *MemoryStore) LookupIdentities(ctx context.Context, keys []models.RawKey) (map[models.RawKey]models.PlayerIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[models.RawKey]models.PlayerIdentity, len(keys))
	for _, k := range keys {
		if id, ok := s.identities[k]; ok {
			out[k] = id
		}
	}
	return out, nil
}
