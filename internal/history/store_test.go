package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(StoreConfig{Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []*EpisodeRecord{
		{EpisodeID: "ep-1", Level: "tutorial", Success: true, Reward: 310, Steps: 4, DurationSec: 8, StrategyHash: "aaa", CreatedAt: base},
		{EpisodeID: "ep-2", Level: "tutorial", Success: false, Cause: "timeout", Reward: -15, Steps: 12, DurationSec: 61, StrategyHash: "bbb", CreatedAt: base.Add(time.Minute)},
		{EpisodeID: "ep-3", Level: "friction", Success: false, Cause: "out_of_bounds", Reward: -40, Steps: 6, DurationSec: 20, StrategyHash: "aaa", CreatedAt: base.Add(2 * time.Minute)},
		{EpisodeID: "ep-4", Level: "tutorial", Success: true, Reward: 290, Steps: 6, DurationSec: 11, StrategyHash: "ccc", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range records {
		if err := store.Store(context.Background(), r); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if r.ID == 0 {
			t.Error("Store() did not assign row ID")
		}
	}
}

func TestSearch(t *testing.T) {
	store := testStore(t)
	seed(t, store)
	ctx := context.Background()

	t.Run("by level", func(t *testing.T) {
		res, err := store.Search(ctx, SearchQuery{Level: "tutorial"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if res.TotalCount != 3 {
			t.Errorf("TotalCount = %d, want 3", res.TotalCount)
		}
	})

	t.Run("by success", func(t *testing.T) {
		success := true
		res, err := store.Search(ctx, SearchQuery{Success: &success})
		if err != nil {
			t.Fatal(err)
		}
		if res.TotalCount != 2 {
			t.Errorf("TotalCount = %d, want 2", res.TotalCount)
		}
	})

	t.Run("by cause", func(t *testing.T) {
		res, err := store.Search(ctx, SearchQuery{Cause: "out_of_bounds"})
		if err != nil {
			t.Fatal(err)
		}
		if res.TotalCount != 1 || res.Records[0].EpisodeID != "ep-3" {
			t.Errorf("got %+v, want only ep-3", res.Records)
		}
	})

	t.Run("min reward", func(t *testing.T) {
		min := 0.0
		res, err := store.Search(ctx, SearchQuery{MinReward: &min})
		if err != nil {
			t.Fatal(err)
		}
		if res.TotalCount != 2 {
			t.Errorf("TotalCount = %d, want 2", res.TotalCount)
		}
	})

	t.Run("ordering newest first", func(t *testing.T) {
		res, err := store.Search(ctx, SearchQuery{})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Records) != 4 {
			t.Fatalf("got %d records", len(res.Records))
		}
		if res.Records[0].EpisodeID != "ep-4" {
			t.Errorf("first record = %s, want ep-4", res.Records[0].EpisodeID)
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		res, err := store.Search(ctx, SearchQuery{Limit: 2, Offset: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Records) != 2 {
			t.Errorf("got %d records, want 2", len(res.Records))
		}
		if res.TotalCount != 4 {
			t.Errorf("TotalCount = %d, want 4 (count ignores paging)", res.TotalCount)
		}
	})
}

func TestGetLevelStats(t *testing.T) {
	store := testStore(t)
	seed(t, store)

	st, err := store.GetLevelStats(context.Background(), "tutorial")
	if err != nil {
		t.Fatalf("GetLevelStats() error = %v", err)
	}
	if st.Attempts != 3 || st.Successes != 2 {
		t.Errorf("attempts/successes = %d/%d, want 3/2", st.Attempts, st.Successes)
	}
	if st.SuccessRate < 0.66 || st.SuccessRate > 0.67 {
		t.Errorf("SuccessRate = %v, want ~0.667", st.SuccessRate)
	}
	if st.BestReward != 310 {
		t.Errorf("BestReward = %v, want 310", st.BestReward)
	}
	if st.Strategies != 3 {
		t.Errorf("Strategies = %d, want 3", st.Strategies)
	}
}

func TestGetLevelStatsEmpty(t *testing.T) {
	store := testStore(t)
	st, err := store.GetLevelStats(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("GetLevelStats() error = %v", err)
	}
	if st.Attempts != 0 || st.SuccessRate != 0 {
		t.Errorf("empty level stats = %+v", st)
	}
}

func TestGetStats(t *testing.T) {
	store := testStore(t)
	seed(t, store)

	st, err := store.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if st.TotalEpisodes != 4 || st.Successes != 2 {
		t.Errorf("totals = %d/%d, want 4/2", st.TotalEpisodes, st.Successes)
	}
	if st.ByLevel["tutorial"] != 3 || st.ByLevel["friction"] != 1 {
		t.Errorf("ByLevel = %v", st.ByLevel)
	}
	if st.ByCause["timeout"] != 1 || st.ByCause["out_of_bounds"] != 1 {
		t.Errorf("ByCause = %v", st.ByCause)
	}
}
