package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/tarslab/boxpush/internal/episode"
	"github.com/tarslab/boxpush/internal/level"
)

// SessionRunner runs a series of episodes on one level. A controller admits
// one episode at a time, so parallel sessions need one runner per task.
type SessionRunner interface {
	RunSeries(ctx context.Context, lvl *level.Config, n int) ([]*episode.Episode, error)
}

// SessionResult aggregates one level session.
type SessionResult struct {
	Level       string
	Episodes    []*episode.Episode
	Successes   int
	TotalReward float64
	Duration    time.Duration
}

// SessionTask runs n episodes on a level through a SessionRunner.
type SessionTask struct {
	id       string
	lvl      *level.Config
	episodes int
	runner   SessionRunner
	result   *SessionResult
}

// NewSessionTask creates a task running n episodes on the given level.
func NewSessionTask(lvl *level.Config, episodes int, runner SessionRunner) *SessionTask {
	return &SessionTask{
		id:       fmt.Sprintf("level:%s", lvl.Key),
		lvl:      lvl,
		episodes: episodes,
		runner:   runner,
	}
}

// ID returns the task identifier.
func (t *SessionTask) ID() string {
	return t.id
}

// Execute runs the session and records the aggregate result.
func (t *SessionTask) Execute(ctx context.Context) error {
	start := time.Now()
	episodes, err := t.runner.RunSeries(ctx, t.lvl, t.episodes)

	result := &SessionResult{
		Level:    t.lvl.Key,
		Episodes: episodes,
		Duration: time.Since(start),
	}
	for _, ep := range episodes {
		if ep.Outcome == nil {
			continue
		}
		if ep.Outcome.Success {
			result.Successes++
		}
		result.TotalReward += ep.Outcome.Reward
	}
	t.result = result

	if err != nil {
		return fmt.Errorf("session %s: %w", t.lvl.Key, err)
	}
	return nil
}

// Result returns the session result. Partial results survive an error.
func (t *SessionTask) Result() *SessionResult {
	return t.result
}

// Level returns the level being run.
func (t *SessionTask) Level() *level.Config {
	return t.lvl
}
