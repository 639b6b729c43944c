package handlers

import (
	"context"

	"github.com/fnanalytics/stats-api/internal/models"
)

// MockIngestQueue implements IngestQueue for testing
type MockIngestQueue struct {
	EnqueueFunc func(event *models.TelemetryEvent) bool
	Depth       int
}

func (m *MockIngestQueue) Enqueue(event *models.TelemetryEvent) bool {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(event)
	}
	return true
}

func (m *MockIngestQueue) QueueDepth() int { return m.Depth }

// MockFilteredStatsService
type MockFilteredStatsService struct {
	GetFilteredStatsFunc func(ctx context.Context, filters models.StatFilters) ([]models.PlayerRow, error)
	Calls                []models.StatFilters
}

func (m *MockFilteredStatsService) GetFilteredStats(ctx context.Context, filters models.StatFilters) ([]models.PlayerRow, error) {
	m.Calls = append(m.Calls, filters)
	if m.GetFilteredStatsFunc != nil {
		return m.GetFilteredStatsFunc(ctx, filters)
	}
	return []models.PlayerRow{}, nil
}

// MockTournamentService
type MockTournamentService struct {
	GetTournamentsFunc func(ctx context.Context) ([]models.Tournament, error)
	GetTournamentFunc  func(ctx context.Context, id string) (*models.Tournament, error)
	GetMatchesFunc     func(ctx context.Context, tournamentID string) ([]models.MatchOption, error)
	GetWeaponTypesFunc func(ctx context.Context, tournamentID string) ([]models.WeaponOption, error)
	GetPlayersFunc     func(ctx context.Context, matchIDs []string) ([]models.PlayerOption, error)
	DefaultFiltersFunc func(ctx context.Context, tournamentID string) (models.StatFilters, error)
}

func (m *MockTournamentService) GetTournaments(ctx context.Context) ([]models.Tournament, error) {
	if m.GetTournamentsFunc != nil {
		return m.GetTournamentsFunc(ctx)
	}
	return []models.Tournament{}, nil
}

func (m *MockTournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	if m.GetTournamentFunc != nil {
		return m.GetTournamentFunc(ctx, id)
	}
	return &models.Tournament{ID: id}, nil
}

func (m *MockTournamentService) GetMatches(ctx context.Context, tournamentID string) ([]models.MatchOption, error) {
	if m.GetMatchesFunc != nil {
		return m.GetMatchesFunc(ctx, tournamentID)
	}
	return []models.MatchOption{}, nil
}

func (m *MockTournamentService) GetWeaponTypes(ctx context.Context, tournamentID string) ([]models.WeaponOption, error) {
	if m.GetWeaponTypesFunc != nil {
		return m.GetWeaponTypesFunc(ctx, tournamentID)
	}
	return []models.WeaponOption{}, nil
}

func (m *MockTournamentService) GetPlayers(ctx context.Context, matchIDs []string) ([]models.PlayerOption, error) {
	if m.GetPlayersFunc != nil {
		return m.GetPlayersFunc(ctx, matchIDs)
	}
	return []models.PlayerOption{}, nil
}

func (m *MockTournamentService) DefaultFilters(ctx context.Context, tournamentID string) (models.StatFilters, error) {
	if m.DefaultFiltersFunc != nil {
		return m.DefaultFiltersFunc(ctx, tournamentID)
	}
	return models.StatFilters{}, nil
}
