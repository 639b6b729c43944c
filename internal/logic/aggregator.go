package logic

import (
	"context"
	"sort"

	"github.com/fnanalytics/stats-api/internal/models"
)

// PartialAggregate is the per-raw-key result of one statistic before identity
// resolution. It is read-only once returned by aggregateStat.
type PartialAggregate struct {
	def    StatDefinition
	values map[models.RawKey]float64
}

func (p PartialAggregate) Kind() StatKind { return p.def.Kind }

func (p PartialAggregate) Len() int { return len(p.values) }

// Value returns the unrounded total of a raw key
func (p PartialAggregate) Value(k models.RawKey) (float64, bool) {
	v, ok := p.values[k]
	return v, ok
}

// Keys returns the raw keys in a stable order
func (p PartialAggregate) Keys() []models.RawKey {
	keys := make([]models.RawKey, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sortRawKeys(keys)
	return keys
}

// aggregateStat scans the statistic's stream under its predicate
func aggregateStat(ctx context.Context, store EventStore, def StatDefinition, filters models.StatFilters) (PartialAggregate, error) {
	values, err := store.GroupedAggregate(ctx, AggregateQuery{
		Stream:    def.Stream,
		GroupBy:   def.GroupBy,
		Measure:   def.Measure,
		Predicate: BuildPredicate(filters, def.Capability),
	})
	if err != nil {
		return PartialAggregate{}, err
	}
	if values == nil {
		values = map[models.RawKey]float64{}
	}
	return PartialAggregate{def: def, values: values}, nil
}

func sortRawKeys(keys []models.RawKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].MatchID != keys[j].MatchID {
			return keys[i].MatchID < keys[j].MatchID
		}
		return keys[i].ActorID < keys[j].ActorID
	})
}
