package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/fnanalytics/stats-api/internal/handlers"
	"github.com/fnanalytics/stats-api/internal/logic"
	"github.com/fnanalytics/stats-api/internal/models"
)

type queryOptions struct {
	matches  []string
	weapons  []string
	timeR    string
	distance string
	fromFile string
	lang     string
	format   string
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Per-player eliminations and damage for a filter",
		Example: `  fnstats query --match m1 --match m2 --weapon "Pump Shotgun" --time 0,30 --distance 0,400
  fnstats query --from-file match.ndjson --time 5,20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, root, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.matches, "match", nil, "match id to include (repeatable, default all)")
	cmd.Flags().StringSliceVar(&opts.weapons, "weapon", nil, "weapon type to include (repeatable, default all)")
	cmd.Flags().StringVar(&opts.timeR, "time", fmt.Sprintf("0,%d", models.DefaultMaxTimeMinutes), "in-game time window in minutes: lo,hi")
	cmd.Flags().StringVar(&opts.distance, "distance", fmt.Sprintf("0,%d", models.DefaultMaxDistanceM), "distance window in meters: lo,hi")
	cmd.Flags().StringVar(&opts.fromFile, "from-file", "", "aggregate an NDJSON telemetry export instead of the live stores")
	cmd.Flags().StringVar(&opts.lang, "lang", "en", "collation locale for name ordering")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table or json")
	return cmd
}

func runQuery(cmd *cobra.Command, root *rootOptions, opts *queryOptions) error {
	filters, err := opts.filters()
	if err != nil {
		return err
	}
	tag, err := language.Parse(opts.lang)
	if err != nil {
		return fmt.Errorf("invalid --lang: %w", err)
	}

	ctx := cmd.Context()
	var svc logic.FilteredStatsService
	if opts.fromFile != "" {
		f, err := os.Open(opts.fromFile)
		if err != nil {
			return fmt.Errorf("open telemetry: %w", err)
		}
		events, err := loadTelemetry(f)
		f.Close()
		if err != nil {
			return err
		}
		store := logic.NewMemoryStore(events)
		svc = logic.NewFilteredStatsService(store, store, logic.WithCollationLanguage(tag))
	} else {
		s, err := root.openStores(ctx)
		if err != nil {
			return err
		}
		defer s.close()
		svc = logic.NewFilteredStatsService(s.events, s.identities, logic.WithCollationLanguage(tag))
	}

	rows, err := svc.GetFilteredStats(ctx, filters)
	if err != nil {
		return err
	}
	return renderRows(cmd.OutOrStdout(), rows, opts.format)
}

func (o *queryOptions) filters() (models.StatFilters, error) {
	timeR, err := parseRange(o.timeR)
	if err != nil {
		return models.StatFilters{}, fmt.Errorf("invalid --time: %w", err)
	}
	distance, err := parseRange(o.distance)
	if err != nil {
		return models.StatFilters{}, fmt.Errorf("invalid --distance: %w", err)
	}
	return models.StatFilters{
		SelectedMatches: o.matches,
		WeaponTypes:     o.weapons,
		TimeRange:       timeR,
		DistanceRange:   distance,
	}, nil
}

// parseRange reads "lo,hi"
func parseRange(s string) ([2]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("want lo,hi, got %q", s)
	}
	var r [2]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [2]float64{}, err
		}
		r[i] = v
	}
	return r, nil
}

// loadTelemetry decodes an NDJSON export, accepting the same records as the
// ingest endpoint
func loadTelemetry(r io.Reader) ([]models.TelemetryEvent, error) {
	validate := validator.New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), handlers.MaxBodySize)

	var events []models.TelemetryEvent
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e models.TelemetryEvent
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := validate.Struct(&e); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read telemetry: %w", err)
	}
	return events, nil
}

func renderRows(w io.Writer, rows []models.PlayerRow, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "table":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "(no players)")
		return nil
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{PerColumn: []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight}}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("PLAYER", "ELIMS", "DMG DEALT", "DMG RECEIVED")
	for _, r := range rows {
		table.Append(r.Player, r.Eliminations, r.DamageDealt, r.DamageReceived)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d players)\n", len(rows))
	return nil
}
