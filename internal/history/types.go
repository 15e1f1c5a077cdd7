// Package history provides SQLite-based storage for episode history.
// It complements the episodic memory stream (BadgerDB) with the queryable
// ledger behind `boxpush history` and per-level statistics.
package history

import "time"

// EpisodeRecord is one stored episode result.
type EpisodeRecord struct {
	ID           int64     `json:"id"`
	EpisodeID    string    `json:"episode_id"`
	Level        string    `json:"level"`
	Success      bool      `json:"success"`
	Cause        string    `json:"cause,omitempty"`
	Reward       float64   `json:"reward"`
	Steps        int       `json:"steps"`
	DurationSec  float64   `json:"duration_sec"`
	StrategyHash string    `json:"strategy_hash"`
	Summary      string    `json:"summary,omitempty"`
	Degraded     int       `json:"degraded"`
	CreatedAt    time.Time `json:"created_at"`
}

// SearchQuery filters episode history.
type SearchQuery struct {
	// Level filters by level key.
	Level string
	// Success filters by outcome (nil = all).
	Success *bool
	// Cause filters by failure cause.
	Cause string
	// Since filters by creation date.
	Since time.Time
	// Until filters by creation date.
	Until time.Time
	// MinReward keeps episodes with reward >= this value.
	MinReward *float64
	// Limit restricts result count.
	Limit int
	// Offset for pagination.
	Offset int
}

// SearchResult contains search results with metadata.
type SearchResult struct {
	Records    []EpisodeRecord `json:"records"`
	TotalCount int64           `json:"total_count"`
	Query      SearchQuery     `json:"-"`
}

// LevelStats aggregates the episodes of one level.
type LevelStats struct {
	Level       string    `json:"level"`
	Attempts    int64     `json:"attempts"`
	Successes   int64     `json:"successes"`
	SuccessRate float64   `json:"success_rate"`
	BestReward  float64   `json:"best_reward"`
	MeanReward  float64   `json:"mean_reward"`
	MeanSteps   float64   `json:"mean_steps"`
	Strategies  int64     `json:"strategies"`
	FirstRun    time.Time `json:"first_run"`
	LastRun     time.Time `json:"last_run"`
}

// Stats contains aggregate statistics across all levels.
type Stats struct {
	TotalEpisodes int64            `json:"total_episodes"`
	Successes     int64            `json:"successes"`
	ByLevel       map[string]int64 `json:"by_level"`
	ByCause       map[string]int64 `json:"by_cause"`
}
