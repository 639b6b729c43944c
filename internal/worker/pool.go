// Package worker implements the buffered worker pool pattern for async telemetry processing.
// This decouples HTTP request handling from database writes, providing:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fnanalytics/stats-api/internal/logic"
	"github.com/fnanalytics/stats-api/internal/models"
)

// Prometheus metrics
var (
	eventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fnstats_events_ingested_total",
		Help: "Total number of telemetry records ingested",
	})

	eventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fnstats_events_processed_total",
		Help: "Total number of telemetry records processed by workers",
	})

	eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fnstats_events_failed_total",
		Help: "Total number of telemetry records that failed processing",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fnstats_worker_queue_depth",
		Help: "Current depth of the worker queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fnstats_batch_insert_duration_seconds",
		Help:    "Duration of batch writes to the event and metadata stores",
		Buckets: prometheus.DefBuckets,
	})

	eventsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fnstats_events_load_shed_total",
		Help: "Total number of telemetry records dropped due to load shedding",
	})
)

// combatInserts maps combat telemetry to its ClickHouse table
var combatInserts = map[models.TelemetryType]string{
	models.TelemetryElimination: `INSERT INTO elimination_events (
		event_id, match_id, actor_id, recipient_id, weapon_type, game_time_seconds, distance, ingested_at
	)`,
	models.TelemetryDamage: `INSERT INTO damage_dealt_events (
		event_id, match_id, actor_id, recipient_id, weapon_type, game_time_seconds, distance, amount, ingested_at
	)`,
}

// DBExecer is the subset of the Postgres pool used for metadata writes
type DBExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IdentityCache is the subset of the Redis client used for identity write-through
type IdentityCache interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Job represents a unit of work for the worker pool
type Job struct {
	Event     *models.TelemetryEvent
	Timestamp time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Postgres      DBExecer
	Redis         IdentityCache
	Logger        *zap.Logger
}

// Pool manages a pool of workers for async telemetry processing
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines. Writes keep running after ctx is
// cancelled until Stop has drained the queue.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	// Start queue depth reporter
	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop rejects new jobs, drains the queue and waits for the final flushes
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.logger.Info("Stopping worker pool...")
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a job to the queue without blocking. Returns false when the
// queue is full or the pool is stopped.
func (p *Pool) Enqueue(event *models.TelemetryEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		eventsLoadShed.Inc()
		return false
	}

	select {
	case p.jobQueue <- Job{Event: event, Timestamp: time.Now()}:
		eventsIngested.Inc()
		return true
	default:
		eventsLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(p.ctx, batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			eventsFailed.Add(float64(len(batch)))
		} else {
			p.logger.Debugw("Batch processed", "worker", id, "batchSize", len(batch), "duration", time.Since(start))
			eventsProcessed.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				// Channel closed, flush remaining
				flush()
				return
			}

			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// processBatch writes combat telemetry to ClickHouse and identity records to
// Postgres and the Redis identity cache
func (p *Pool) processBatch(ctx context.Context, batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	byType := make(map[models.TelemetryType][]Job, len(combatInserts))
	var players []*models.TelemetryEvent
	for _, job := range batch {
		switch job.Event.Type {
		case models.TelemetryElimination, models.TelemetryDamage:
			byType[job.Event.Type] = append(byType[job.Event.Type], job)
		case models.TelemetryMatchPlayer:
			players = append(players, job.Event)
		}
	}

	var errs []error
	for _, t := range []models.TelemetryType{models.TelemetryElimination, models.TelemetryDamage} {
		if err := p.insertCombat(ctx, t, byType[t]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.upsertMetadata(ctx, batch); err != nil {
		errs = append(errs, err)
	}
	if err := p.upsertIdentities(ctx, players); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (p *Pool) insertCombat(ctx context.Context, t models.TelemetryType, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, combatInserts[t])
	if err != nil {
		return fmt.Errorf("prepare %s batch: %w", t, err)
	}

	for _, job := range jobs {
		ev := toClickHouseEvent(job)

		args := []interface{}{
			ev.EventID,
			ev.MatchID,
			ev.ActorID,
			ev.RecipientID,
			ev.WeaponType,
			ev.GameTimeSeconds,
			ev.Distance,
		}
		if t == models.TelemetryDamage {
			args = append(args, ev.Amount)
		}
		args = append(args, ev.IngestedAt)

		if err := chBatch.Append(args...); err != nil {
			p.logger.Warnw("Failed to append telemetry to batch", "error", err, "type", t, "match_id", ev.MatchID)
			continue
		}
	}

	if err := chBatch.Send(); err != nil {
		return fmt.Errorf("send %s batch: %w", t, err)
	}
	return nil
}

// upsertMetadata records the event windows, matches and weapon types seen in
// the batch so tournaments can be discovered and listed
func (p *Pool) upsertMetadata(ctx context.Context, batch []Job) error {
	type matchRow struct {
		window    string
		startedAt time.Time
	}

	windows := map[string]time.Time{}
	matches := map[string]matchRow{}
	weapons := map[[2]string]struct{}{}

	for _, job := range batch {
		e := job.Event
		if e.EventWindowID == "" {
			continue
		}
		if _, ok := windows[e.EventWindowID]; !ok {
			windows[e.EventWindowID] = job.Timestamp
		}
		if _, ok := matches[e.MatchID]; !ok {
			matches[e.MatchID] = matchRow{window: e.EventWindowID, startedAt: job.Timestamp.UTC()}
		}
		if e.WeaponType != nil && *e.WeaponType != "" {
			weapons[[2]string{e.EventWindowID, *e.WeaponType}] = struct{}{}
		}
	}
	if len(windows) == 0 {
		return nil
	}

	var windowRows, matchRows, weaponRows [][]interface{}
	for id, seen := range windows {
		windowRows = append(windowRows, []interface{}{id, seen})
	}
	for id, m := range matches {
		matchRows = append(matchRows, []interface{}{id, m.window, m.startedAt})
	}
	for k := range weapons {
		weaponRows = append(weaponRows, []interface{}{k[0], k[1]})
	}

	stmts := []struct {
		prefix string
		rows   [][]interface{}
		suffix string
	}{
		{"INSERT INTO event_windows (event_window_id, discovered_at) VALUES ", windowRows,
			" ON CONFLICT (event_window_id) DO NOTHING"},
		{"INSERT INTO matches (match_id, event_window_id, start_time) VALUES ", matchRows,
			" ON CONFLICT (match_id) DO NOTHING"},
		{"INSERT INTO weapons (event_window_id, weapon_type) VALUES ", weaponRows,
			" ON CONFLICT (event_window_id, weapon_type) DO NOTHING"},
	}
	for _, s := range stmts {
		if len(s.rows) == 0 {
			continue
		}
		sql, vals := buildBulkInsert(s.prefix, s.rows, s.suffix)
		if _, err := p.config.Postgres.Exec(ctx, sql, vals...); err != nil {
			return fmt.Errorf("upsert metadata: %w", err)
		}
	}

	if _, err := p.config.Postgres.Exec(ctx, `
		UPDATE event_windows w
		SET total_matches = (SELECT count(*) FROM matches m WHERE m.event_window_id = w.event_window_id)
		WHERE w.event_window_id = ANY($1)
	`, mapKeys(windows)); err != nil {
		return fmt.Errorf("update match counts: %w", err)
	}
	return nil
}

// upsertIdentities links per-match actors to Epic accounts in one statement
// and writes the identities through to the cache
func (p *Pool) upsertIdentities(ctx context.Context, players []*models.TelemetryEvent) error {
	if len(players) == 0 {
		return nil
	}

	// ON CONFLICT DO UPDATE cannot touch the same row twice; last record wins
	latest := make(map[models.RawKey]models.PlayerIdentity, len(players))
	order := make([]models.RawKey, 0, len(players))
	for _, e := range players {
		k := e.Key()
		if _, ok := latest[k]; !ok {
			order = append(order, k)
		}
		id := e.Identity()
		id.DisplayName = sanitizeName(id.DisplayName)
		if id.DisplayName == "" {
			id.DisplayName = id.EpicID
		}
		latest[k] = id
	}

	rows := make([][]interface{}, 0, len(order))
	for _, k := range order {
		id := latest[k]
		rows = append(rows, []interface{}{k.MatchID, k.ActorID, id.EpicID, id.DisplayName})
	}
	sql, vals := buildBulkInsert(
		"INSERT INTO match_players (match_id, actor_id, epic_id, epic_username) VALUES ",
		rows,
		" ON CONFLICT (match_id, actor_id) DO UPDATE SET epic_id = EXCLUDED.epic_id, epic_username = EXCLUDED.epic_username",
	)
	if _, err := p.config.Postgres.Exec(ctx, sql, vals...); err != nil {
		return fmt.Errorf("upsert match players: %w", err)
	}

	if p.config.Redis == nil {
		return nil
	}
	fields := make([]interface{}, 0, len(order)*2)
	for _, k := range order {
		data, err := json.Marshal(latest[k])
		if err != nil {
			continue
		}
		fields = append(fields, k.CacheField(), string(data))
	}
	if err := p.config.Redis.HSet(ctx, logic.IdentityCacheKey, fields...).Err(); err != nil {
		// Postgres is authoritative; a stale cache entry is rewritten on the next miss
		p.logger.Warnw("Identity cache write-through failed", "error", err, "count", len(order))
	}
	return nil
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}

// Helper functions

func toClickHouseEvent(job Job) *models.ClickHouseEvent {
	e := job.Event
	return &models.ClickHouseEvent{
		EventID:         uuid.New(),
		MatchID:         e.MatchID,
		ActorID:         e.ActorID,
		RecipientID:     e.RecipientID,
		WeaponType:      e.WeaponType,
		GameTimeSeconds: e.GameTimeSeconds,
		Distance:        e.Distance,
		Amount:          e.Amount,
		IngestedAt:      job.Timestamp.UTC(),
	}
}

// buildBulkInsert renders a multi-row VALUES list with positional parameters
func buildBulkInsert(prefix string, rows [][]interface{}, suffix string) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(prefix)
	vals := []interface{}{}

	n := 0
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			n++
			fmt.Fprintf(&sb, "$%d", n)
			vals = append(vals, v)
		}
		sb.WriteByte(')')
	}
	sb.WriteString(suffix)

	return sb.String(), vals
}

// sanitizeName strips control and format characters from a display name
func sanitizeName(s string) string {
	clean := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
	}) == -1
	if clean {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimSpace(sb.String())
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
