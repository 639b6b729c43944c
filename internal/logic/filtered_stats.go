package logic

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/fnanalytics/stats-api/internal/models"
)

type filteredStatsService struct {
	events     EventStore
	identities IdentityStore
	defs       []StatDefinition
	lang       language.Tag
}

// Option configures the filtered stats service
type Option func(*filteredStatsService)

// WithCollationLanguage sets the locale used to order player names
func WithCollationLanguage(tag language.Tag) Option {
	return func(s *filteredStatsService) { s.lang = tag }
}

func NewFilteredStatsService(events EventStore, identities IdentityStore, opts ...Option) FilteredStatsService {
	s := &filteredStatsService{
		events:     events,
		identities: identities,
		defs:       StatDefinitions(),
		lang:       language.English,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetFilteredStats validates the filters, aggregates every statistic
// concurrently, resolves identities in one bulk lookup and returns rows
// ordered by display name. Any failure abandons the whole request.
func (s *filteredStatsService) GetFilteredStats(ctx context.Context, filters models.StatFilters) ([]models.PlayerRow, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.compute(ctx, filters)
	if err != nil {
		filteredStatsDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}
	filteredStatsDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	filteredStatsRows.Observe(float64(len(rows)))

	return rows, nil
}

func (s *filteredStatsService) compute(ctx context.Context, filters models.StatFilters) ([]models.PlayerRow, error) {
	partials := make([]PartialAggregate, len(s.defs))

	g, gctx := errgroup.WithContext(ctx)
	for i, def := range s.defs {
		g.Go(func() error {
			p, err := aggregateStat(gctx, s.events, def, filters)
			if err != nil {
				return fmt.Errorf("%s: %w", def.Kind, err)
			}
			partials[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids, err := resolveIdentities(ctx, s.identities, partials)
	if err != nil {
		return nil, err
	}

	return assembleRows(mergePartials(partials, ids), s.lang), nil
}
