package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/tarslab/boxpush/internal/episode"
	"github.com/tarslab/boxpush/internal/level"
	"github.com/tarslab/boxpush/internal/task"
)

// mockRunner returns canned episodes.
type mockRunner struct {
	episodes []*episode.Episode
	err      error
	gotLevel string
	gotN     int
}

func (m *mockRunner) RunSeries(ctx context.Context, lvl *level.Config, n int) ([]*episode.Episode, error) {
	m.gotLevel = lvl.Key
	m.gotN = n
	return m.episodes, m.err
}

func sealedEpisode(success bool, reward float64) *episode.Episode {
	return &episode.Episode{
		Outcome: &task.Outcome{Success: success, Reward: reward},
	}
}

func TestSessionTask_Aggregates(t *testing.T) {
	runner := &mockRunner{episodes: []*episode.Episode{
		sealedEpisode(true, 150),
		sealedEpisode(false, -50),
		sealedEpisode(true, 200),
	}}
	lvl, err := level.Get("tutorial")
	if err != nil {
		t.Fatal(err)
	}

	st := NewSessionTask(lvl, 3, runner)
	if st.ID() != "level:tutorial" {
		t.Errorf("ID() = %q", st.ID())
	}

	if err := st.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if runner.gotLevel != "tutorial" || runner.gotN != 3 {
		t.Errorf("runner called with (%s, %d)", runner.gotLevel, runner.gotN)
	}

	res := st.Result()
	if res == nil {
		t.Fatal("Result() = nil")
	}
	if res.Successes != 2 {
		t.Errorf("Successes = %d, want 2", res.Successes)
	}
	if res.TotalReward != 300 {
		t.Errorf("TotalReward = %v, want 300", res.TotalReward)
	}
}

func TestSessionTask_PartialResultOnError(t *testing.T) {
	runner := &mockRunner{
		episodes: []*episode.Episode{sealedEpisode(true, 100)},
		err:      errors.New("oracle down"),
	}
	lvl, err := level.Get("tutorial")
	if err != nil {
		t.Fatal(err)
	}

	st := NewSessionTask(lvl, 5, runner)
	if err := st.Execute(context.Background()); err == nil {
		t.Error("Execute() = nil error, want wrapped runner error")
	}

	res := st.Result()
	if res == nil || len(res.Episodes) != 1 {
		t.Fatal("partial episodes lost on error")
	}
}

func TestSessionTasksInPool(t *testing.T) {
	pool := NewPool(Config{Workers: 2, QueueSize: 4})
	pool.Start()
	defer pool.Stop()

	levels := level.BuiltIn()
	tasks := make([]*SessionTask, 0, len(levels))
	for _, key := range level.Keys(levels) {
		st := NewSessionTask(levels[key], 1, &mockRunner{episodes: []*episode.Episode{sealedEpisode(true, 100)}})
		tasks = append(tasks, st)
		if err := pool.Submit(st); err != nil {
			t.Fatalf("Submit(%s) failed: %v", key, err)
		}
	}

	for range tasks {
		r := <-pool.Results()
		if r.Error != nil {
			t.Errorf("task %s failed: %v", r.TaskID, r.Error)
		}
	}
	for _, st := range tasks {
		if st.Result() == nil {
			t.Errorf("task %s has no result", st.ID())
		}
	}
}
