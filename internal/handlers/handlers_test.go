package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fnanalytics/stats-api/internal/logic"
	"github.com/fnanalytics/stats-api/internal/models"
)

func newTestHandler(stats *MockFilteredStatsService, tournaments *MockTournamentService) *Handler {
	if stats == nil {
		stats = &MockFilteredStatsService{}
	}
	if tournaments == nil {
		tournaments = &MockTournamentService{}
	}
	return New(Config{
		WorkerPool:    &MockIngestQueue{Depth: 7},
		Logger:        zap.NewNop(),
		FilteredStats: stats,
		Tournament:    tournaments,
	})
}

func serve(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	NewRouter(h, []string{"*"}).ServeHTTP(w, req)
	return w
}

func TestGetFilteredStats(t *testing.T) {
	rows := []models.PlayerRow{{Player: "Alice", EpicID: "p1", Eliminations: 2, DamageDealt: 37}}

	tests := []struct {
		name       string
		body       string
		result     []models.PlayerRow
		err        error
		wantStatus int
		wantRows   []models.PlayerRow
	}{
		{
			name:       "Success",
			body:       `{"selectedMatches":["m1"],"weaponTypes":[],"timeRange":[0,30],"distanceRange":[0,400]}`,
			result:     rows,
			wantStatus: http.StatusOK,
			wantRows:   rows,
		},
		{
			name:       "Empty Result",
			body:       `{"timeRange":[0,30],"distanceRange":[0,400]}`,
			result:     []models.PlayerRow{},
			wantStatus: http.StatusOK,
			wantRows:   []models.PlayerRow{},
		},
		{
			name:       "Malformed JSON",
			body:       `{"selectedMatches":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Invalid Filters",
			body:       `{"timeRange":[30,0],"distanceRange":[0,400]}`,
			err:        fmt.Errorf("%w: timeRange lower bound 30 exceeds upper bound 0", models.ErrInvalidFilters),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Extra Range Bound",
			body:       `{"timeRange":[0,30,5],"distanceRange":[0,400]}`,
			err:        errors.New("service must not be reached"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Missing Range Bound",
			body:       `{"timeRange":[0,30],"distanceRange":[400]}`,
			err:        errors.New("service must not be reached"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Retrieval Failure",
			body:       `{"timeRange":[0,30],"distanceRange":[0,400]}`,
			err:        errors.New("damageDealt: clickhouse unavailable"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := &MockFilteredStatsService{
				GetFilteredStatsFunc: func(ctx context.Context, f models.StatFilters) ([]models.PlayerRow, error) {
					return tt.result, tt.err
				},
			}

			w := serve(newTestHandler(stats, nil), "POST", "/api/v1/stats/filtered", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantRows == nil {
				return
			}
			var got []models.PlayerRow
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.wantRows) {
				t.Errorf("rows = %+v, want %+v", got, tt.wantRows)
			}
		})
	}
}

func TestGetFilteredStatsDecodesFilters(t *testing.T) {
	stats := &MockFilteredStatsService{}
	serve(newTestHandler(stats, nil), "POST", "/api/v1/stats/filtered",
		`{"selectedMatches":["m1","m2"],"weaponTypes":["Shotgun"],"timeRange":[5,10],"distanceRange":[0,50]}`)

	if len(stats.Calls) != 1 {
		t.Fatalf("service calls = %d, want 1", len(stats.Calls))
	}
	want := models.StatFilters{
		SelectedMatches: []string{"m1", "m2"},
		WeaponTypes:     []string{"Shotgun"},
		TimeRange:       [2]float64{5, 10},
		DistanceRange:   [2]float64{0, 50},
	}
	if !reflect.DeepEqual(stats.Calls[0], want) {
		t.Errorf("filters = %+v, want %+v", stats.Calls[0], want)
	}
}

func TestTournamentEndpoints(t *testing.T) {
	notFound := fmt.Errorf("tournament nope: %w", logic.ErrNotFound)

	tournaments := &MockTournamentService{
		GetTournamentFunc: func(ctx context.Context, id string) (*models.Tournament, error) {
			if id == "nope" {
				return nil, notFound
			}
			return &models.Tournament{ID: id, TotalMatches: 2}, nil
		},
		GetMatchesFunc: func(ctx context.Context, id string) ([]models.MatchOption, error) {
			switch id {
			case "nope":
				return nil, notFound
			case "broken":
				return nil, errors.New("pg down")
			}
			return []models.MatchOption{{ID: "m1", Label: "m1"}, {ID: "m2", Label: "m2"}}, nil
		},
		GetWeaponTypesFunc: func(ctx context.Context, id string) ([]models.WeaponOption, error) {
			return []models.WeaponOption{{ID: "Shotgun", Label: "Shotgun"}}, nil
		},
		GetPlayersFunc: func(ctx context.Context, matchIDs []string) ([]models.PlayerOption, error) {
			return []models.PlayerOption{{EpicID: strings.Join(matchIDs, "+"), DisplayName: "Alice"}}, nil
		},
	}
	h := newTestHandler(nil, tournaments)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"List", "/api/v1/tournaments", http.StatusOK, "[]"},
		{"Get", "/api/v1/tournaments/w1", http.StatusOK, `"id":"w1"`},
		{"Get Unknown", "/api/v1/tournaments/nope", http.StatusNotFound, "Tournament not found"},
		{"Matches", "/api/v1/tournaments/w1/matches", http.StatusOK, `"id":"m2"`},
		{"Matches Failure", "/api/v1/tournaments/broken/matches", http.StatusInternalServerError, "Failed to get matches"},
		{"Weapons", "/api/v1/tournaments/w1/weapons", http.StatusOK, `"id":"Shotgun"`},
		{"Players Of Tournament", "/api/v1/tournaments/w1/players", http.StatusOK, `"epicId":"m1+m2"`},
		{"Players Of Selected Matches", "/api/v1/tournaments/w1/players?matches=m2,%20m3", http.StatusOK, `"epicId":"m2+m3"`},
		{"Players Unknown", "/api/v1/tournaments/nope/players", http.StatusNotFound, "Tournament not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, "GET", tt.path, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGetTournamentStats(t *testing.T) {
	defaults := models.StatFilters{
		SelectedMatches: []string{"m1", "m2"},
		WeaponTypes:     []string{"Shotgun"},
		TimeRange:       [2]float64{0, 30},
		DistanceRange:   [2]float64{0, 400},
	}

	t.Run("Runs the engine with the default view", func(t *testing.T) {
		stats := &MockFilteredStatsService{
			GetFilteredStatsFunc: func(ctx context.Context, f models.StatFilters) ([]models.PlayerRow, error) {
				return []models.PlayerRow{{Player: "Alice", EpicID: "p1", Eliminations: 3}}, nil
			},
		}
		tournaments := &MockTournamentService{
			DefaultFiltersFunc: func(ctx context.Context, id string) (models.StatFilters, error) { return defaults, nil },
		}

		w := serve(newTestHandler(stats, tournaments), "GET", "/api/v1/tournaments/w1/stats", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %v", w.Code)
		}
		if len(stats.Calls) != 1 || !reflect.DeepEqual(stats.Calls[0], defaults) {
			t.Errorf("engine calls = %+v", stats.Calls)
		}
		if !strings.Contains(w.Body.String(), `"eliminations":3`) {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("Tournament without matches", func(t *testing.T) {
		stats := &MockFilteredStatsService{}
		tournaments := &MockTournamentService{
			DefaultFiltersFunc: func(ctx context.Context, id string) (models.StatFilters, error) {
				return models.DefaultFilters(nil, nil), nil
			},
		}

		w := serve(newTestHandler(stats, tournaments), "GET", "/api/v1/tournaments/w1/stats", "")
		if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
			t.Errorf("status = %v body = %s, want 200 []", w.Code, w.Body.String())
		}
		if len(stats.Calls) != 0 {
			t.Errorf("engine should not run, got %d calls", len(stats.Calls))
		}
	})

	t.Run("Unknown tournament", func(t *testing.T) {
		tournaments := &MockTournamentService{
			DefaultFiltersFunc: func(ctx context.Context, id string) (models.StatFilters, error) {
				return models.StatFilters{}, logic.ErrNotFound
			},
		}
		w := serve(newTestHandler(nil, tournaments), "GET", "/api/v1/tournaments/x/stats", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %v, want 404", w.Code)
		}
	})

	t.Run("Engine failure", func(t *testing.T) {
		stats := &MockFilteredStatsService{
			GetFilteredStatsFunc: func(ctx context.Context, f models.StatFilters) ([]models.PlayerRow, error) {
				return nil, errors.New("identity lookup: redis down")
			},
		}
		tournaments := &MockTournamentService{
			DefaultFiltersFunc: func(ctx context.Context, id string) (models.StatFilters, error) { return defaults, nil },
		}
		w := serve(newTestHandler(stats, tournaments), "GET", "/api/v1/tournaments/w1/stats", "")
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %v, want 500", w.Code)
		}
	})
}

func TestHealthAndReady(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		w := serve(newTestHandler(nil, nil), "GET", "/health", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
			t.Errorf("status = %v body = %s", w.Code, w.Body.String())
		}
	})

	tests := []struct {
		name       string
		checks     map[string]ReadinessCheck
		wantStatus int
		wantReady  bool
	}{
		{
			name: "All Healthy",
			checks: map[string]ReadinessCheck{
				"postgres":   func(ctx context.Context) error { return nil },
				"clickhouse": func(ctx context.Context) error { return nil },
				"redis":      func(ctx context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantReady:  true,
		},
		{
			name: "Redis Down",
			checks: map[string]ReadinessCheck{
				"postgres": func(ctx context.Context) error { return nil },
				"redis":    func(ctx context.Context) error { return errors.New("dial tcp: refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(nil, nil)
			h.checks = tt.checks

			w := serve(h, "GET", "/ready", "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v", w.Code, tt.wantStatus)
			}

			var resp struct {
				Ready      bool            `json:"ready"`
				Checks     map[string]bool `json:"checks"`
				QueueDepth int             `json:"queueDepth"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Ready != tt.wantReady || resp.QueueDepth != 7 || len(resp.Checks) != len(tt.checks) {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestRouterMetricsAndCORS(t *testing.T) {
	h := newTestHandler(nil, nil)

	w := serve(h, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Errorf("/metrics status = %v", w.Code)
	}

	req := httptest.NewRequest("OPTIONS", "/api/v1/stats/filtered", nil)
	req.Header.Set("Origin", "https://stats.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	NewRouter(h, []string{"https://stats.example.com"}).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://stats.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
