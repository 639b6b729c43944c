package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fnanalytics/stats-api/internal/models"
)

type tournamentService struct {
	pg PgPool
}

func NewTournamentService(pg PgPool) TournamentService {
	return &tournamentService{pg: pg}
}

// GetTournaments lists event windows, most recently discovered first
func (s *tournamentService) GetTournaments(ctx context.Context) ([]models.Tournament, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT event_window_id, total_matches, processed_matches, start_time, end_time, discovered_at
		FROM event_windows
		ORDER BY discovered_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournaments: %w", err)
	}
	defer rows.Close()

	list := []models.Tournament{}
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(&t.ID, &t.TotalMatches, &t.ProcessedMatches, &t.StartTime, &t.EndTime, &t.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tournament iteration failed: %w", err)
	}
	return list, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	err := s.pg.QueryRow(ctx, `
		SELECT event_window_id, total_matches, processed_matches, start_time, end_time, discovered_at
		FROM event_windows
		WHERE event_window_id = $1
	`, id).Scan(&t.ID, &t.TotalMatches, &t.ProcessedMatches, &t.StartTime, &t.EndTime, &t.DiscoveredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tournament %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return &t, nil
}

// GetMatches lists the tournament's matches in start order
func (s *tournamentService) GetMatches(ctx context.Context, tournamentID string) ([]models.MatchOption, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT match_id FROM matches
		WHERE event_window_id = $1
		ORDER BY start_time ASC
	`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	defer rows.Close()

	matches := []models.MatchOption{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, models.MatchOption{ID: id, Label: id})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match iteration failed: %w", err)
	}
	return matches, nil
}

// GetWeaponTypes lists the distinct weapon types used in the tournament
func (s *tournamentService) GetWeaponTypes(ctx context.Context, tournamentID string) ([]models.WeaponOption, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT DISTINCT weapon_type FROM weapons
		WHERE event_window_id = $1
		ORDER BY weapon_type ASC
	`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get weapon types: %w", err)
	}
	defer rows.Close()

	weapons := []models.WeaponOption{}
	for rows.Next() {
		var wt string
		if err := rows.Scan(&wt); err != nil {
			return nil, fmt.Errorf("failed to scan weapon type: %w", err)
		}
		weapons = append(weapons, models.WeaponOption{ID: wt, Label: wt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("weapon type iteration failed: %w", err)
	}
	return weapons, nil
}

// GetPlayers lists the distinct players of the given matches by display name
func (s *tournamentService) GetPlayers(ctx context.Context, matchIDs []string) ([]models.PlayerOption, error) {
	players := []models.PlayerOption{}
	if len(matchIDs) == 0 {
		return players, nil
	}

	rows, err := s.pg.Query(ctx, `
		SELECT epic_id, epic_username FROM (
			SELECT DISTINCT ON (epic_id) epic_id, COALESCE(NULLIF(epic_username, ''), epic_id) AS epic_username
			FROM match_players
			WHERE match_id = ANY($1) AND epic_id IS NOT NULL AND epic_id <> ''
			ORDER BY epic_id
		) p
		ORDER BY epic_username ASC
	`, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PlayerOption
		if err := rows.Scan(&p.EpicID, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("player iteration failed: %w", err)
	}
	return players, nil
}

// DefaultFilters builds the initial tournament view: every match and weapon of
// the tournament with the full distance and time windows.
func (s *tournamentService) DefaultFilters(ctx context.Context, tournamentID string) (models.StatFilters, error) {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return models.StatFilters{}, err
	}
	matches, err := s.GetMatches(ctx, tournamentID)
	if err != nil {
		return models.StatFilters{}, err
	}
	weapons, err := s.GetWeaponTypes(ctx, tournamentID)
	if err != nil {
		return models.StatFilters{}, err
	}
	return models.DefaultFilters(matches, weapons), nil
}
