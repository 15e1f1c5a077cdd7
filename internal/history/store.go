package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-based episode history storage.
type Store struct {
	db *sql.DB
}

// StoreConfig configures the history store.
type StoreConfig struct {
	// Path is the SQLite database file path
	Path string
}

// NewStore creates a new history store.
func NewStore(cfg StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			episode_id TEXT NOT NULL UNIQUE,
			level TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			cause TEXT,
			reward REAL NOT NULL,
			steps INTEGER NOT NULL,
			duration_sec REAL NOT NULL,
			strategy_hash TEXT NOT NULL,
			summary TEXT,
			degraded INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_episodes_level ON episodes(level)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_success ON episodes(success)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_strategy ON episodes(strategy_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_created ON episodes(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Store saves an episode record.
func (s *Store) Store(ctx context.Context, record *EpisodeRecord) error {
	query := `INSERT INTO episodes (
		episode_id, level, success, cause, reward, steps,
		duration_sec, strategy_hash, summary, degraded, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		record.EpisodeID, record.Level, record.Success, record.Cause,
		record.Reward, record.Steps, record.DurationSec,
		record.StrategyHash, record.Summary, record.Degraded, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	id, _ := result.LastInsertId()
	record.ID = id

	return nil
}

// Search filters episode history.
func (s *Store) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	var args []interface{}
	var conditions []string

	if q.Level != "" {
		conditions = append(conditions, "level = ?")
		args = append(args, q.Level)
	}
	if q.Success != nil {
		conditions = append(conditions, "success = ?")
		args = append(args, *q.Success)
	}
	if q.Cause != "" {
		conditions = append(conditions, "cause = ?")
		args = append(args, q.Cause)
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, q.Since)
	}
	if !q.Until.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, q.Until)
	}
	if q.MinReward != nil {
		conditions = append(conditions, "reward >= ?")
		args = append(args, *q.MinReward)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM episodes " + whereClause //nolint:gosec // Query built with parameterized args
	var totalCount int64
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("counting results: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	//nolint:gosec // Query built with parameterized args, whereClause uses placeholders
	selectQuery := `
		SELECT id, episode_id, level, success, cause, reward, steps,
		       duration_sec, strategy_hash, summary, degraded, created_at
		FROM episodes
		` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]EpisodeRecord, 0)
	for rows.Next() {
		var r EpisodeRecord
		var cause, summary sql.NullString

		if err := rows.Scan(
			&r.ID, &r.EpisodeID, &r.Level, &r.Success, &cause, &r.Reward,
			&r.Steps, &r.DurationSec, &r.StrategyHash, &summary, &r.Degraded,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if cause.Valid {
			r.Cause = cause.String
		}
		if summary.Valid {
			r.Summary = summary.String
		}

		records = append(records, r)
	}

	return &SearchResult{
		Records:    records,
		TotalCount: totalCount,
		Query:      q,
	}, nil
}

// GetLevelStats aggregates the episodes of one level.
func (s *Store) GetLevelStats(ctx context.Context, levelKey string) (*LevelStats, error) {
	query := `
		SELECT
			COUNT(*) as attempts,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) as successes,
			MAX(reward) as best_reward,
			AVG(reward) as mean_reward,
			AVG(steps) as mean_steps,
			COUNT(DISTINCT strategy_hash) as strategies,
			MIN(created_at) as first_run,
			MAX(created_at) as last_run
		FROM episodes
		WHERE level = ?
	`

	var st LevelStats
	var successes sql.NullInt64
	var best, mean, meanSteps sql.NullFloat64
	var strategies sql.NullInt64
	// MIN/MAX strip the column's declared DATETIME type, so the driver
	// returns the stored text instead of a time.Time; scan as string and
	// parse with the formats the driver accepts.
	var first, last sql.NullString

	if err := s.db.QueryRowContext(ctx, query, levelKey).Scan(
		&st.Attempts, &successes, &best, &mean, &meanSteps,
		&strategies, &first, &last,
	); err != nil {
		return nil, fmt.Errorf("querying level stats: %w", err)
	}

	st.Level = levelKey
	st.Successes = successes.Int64
	st.BestReward = best.Float64
	st.MeanReward = mean.Float64
	st.MeanSteps = meanSteps.Float64
	st.Strategies = strategies.Int64
	if first.Valid {
		if t, ok := parseStoredTime(first.String); ok {
			st.FirstRun = t
		}
	}
	if last.Valid {
		if t, ok := parseStoredTime(last.String); ok {
			st.LastRun = t
		}
	}
	if st.Attempts > 0 {
		st.SuccessRate = float64(st.Successes) / float64(st.Attempts)
	}

	return &st, nil
}

// parseStoredTime parses a timestamp string in any of the formats the
// sqlite driver writes or accepts (time.Time.String() by default).
func parseStoredTime(s string) (time.Time, bool) {
	if i := strings.Index(s, " m="); i > 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	formats := []string{
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GetStats returns aggregate statistics.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var total int64
	var successes sql.NullInt64

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(CASE WHEN success THEN 1 ELSE 0 END)
		FROM episodes
	`).Scan(&total, &successes); err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}

	byLevel := make(map[string]int64)
	rows, err := s.db.QueryContext(ctx, `SELECT level, COUNT(*) FROM episodes GROUP BY level`)
	if err != nil {
		return nil, fmt.Errorf("querying level breakdown: %w", err)
	}
	for rows.Next() {
		var lvl string
		var count int64
		if scanErr := rows.Scan(&lvl, &count); scanErr == nil {
			byLevel[lvl] = count
		}
	}
	rows.Close()

	byCause := make(map[string]int64)
	rows, err = s.db.QueryContext(ctx, `
		SELECT cause, COUNT(*) FROM episodes
		WHERE success = FALSE AND cause != ''
		GROUP BY cause
	`)
	if err != nil {
		return nil, fmt.Errorf("querying cause breakdown: %w", err)
	}
	for rows.Next() {
		var cause string
		var count int64
		if scanErr := rows.Scan(&cause, &count); scanErr == nil {
			byCause[cause] = count
		}
	}
	rows.Close()

	return &Stats{
		TotalEpisodes: total,
		Successes:     successes.Int64,
		ByLevel:       byLevel,
		ByCause:       byCause,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
