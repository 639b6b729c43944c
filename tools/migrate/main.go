// Command migrate applies the SQL files under migrations/ to ClickHouse and
// Postgres. Every statement is idempotent, so the tool can be rerun safely.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fnanalytics/stats-api/internal/config"
	"github.com/fnanalytics/stats-api/internal/database"
)

type execFunc func(ctx context.Context, stmt string) error

func main() {
	dir := flag.String("dir", "migrations", "directory holding clickhouse/ and postgres/ migrations")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ch, err := database.OpenClickHouse(ctx, cfg.ClickHouseURL)
	if err != nil {
		log.Fatalw("ClickHouse unavailable", "error", err)
	}
	defer ch.Close()

	pg, err := database.OpenPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalw("Postgres unavailable", "error", err)
	}
	defer pg.Close()

	targets := []struct {
		name string
		exec execFunc
	}{
		{"clickhouse", func(ctx context.Context, stmt string) error { return ch.Exec(ctx, stmt) }},
		{"postgres", func(ctx context.Context, stmt string) error {
			_, err := pg.Exec(ctx, stmt)
			return err
		}},
	}
	for _, t := range targets {
		n, err := applyDir(ctx, filepath.Join(*dir, t.name), t.exec)
		if err != nil {
			log.Fatalw("Migration failed", "target", t.name, "error", err)
		}
		log.Infow("Migrations applied", "target", t.name, "statements", n)
	}
}

// applyDir runs every .sql file of dir in name order and returns the number
// of statements executed
func applyDir(ctx context.Context, dir string, exec execFunc) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return 0, err
	}
	sort.Strings(files)

	total := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return total, err
		}
		for _, stmt := range splitStatements(string(data)) {
			if err := exec(ctx, stmt); err != nil {
				return total, fmt.Errorf("%s: %w", filepath.Base(f), err)
			}
			total++
		}
	}
	return total, nil
}

// splitStatements drops "--" comment lines and splits on ";"
func splitStatements(sql string) []string {
	var b strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
