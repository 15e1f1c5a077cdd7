package memory

import (
	"fmt"
	"testing"
	"time"
)

// fixedClock makes ranking deterministic: records are stamped relative to
// a frozen "now".
func fixedClock(s *Stream, now time.Time) {
	s.now = func() time.Time { return now }
}

func TestAppendRetrieveRoundTrip(t *testing.T) {
	s := NewStream()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(s, now)

	const n = 7
	for i := 0; i < n; i++ {
		err := s.Append(&Record{
			Summary:    fmt.Sprintf("episode %d", i),
			Action:     "push(50,0,1000ms)",
			Outcome:    "failure: timeout",
			Importance: 5,
			CreatedAt:  now.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got := s.RetrieveRelevant(Query{Limit: n})
	if len(got) != n {
		t.Fatalf("retrieved %d records, want %d", len(got), n)
	}
	seen := make(map[string]bool)
	for _, r := range got {
		seen[r.Summary] = true
		if r.ID == "" {
			t.Error("record missing assigned ID")
		}
	}
	for i := 0; i < n; i++ {
		if !seen[fmt.Sprintf("episode %d", i)] {
			t.Errorf("episode %d missing from retrieval", i)
		}
	}
}

func TestRetrieveEmptyStream(t *testing.T) {
	s := NewStream()
	if got := s.RetrieveRelevant(Query{Limit: 5}); len(got) != 0 {
		t.Errorf("empty stream returned %d records", len(got))
	}
}

func TestRankingImportance(t *testing.T) {
	s := NewStream()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(s, now)

	// Same timestamp, different importance: importance decides.
	for _, imp := range []int{2, 9, 5} {
		if err := s.Append(&Record{
			Summary:    fmt.Sprintf("imp %d", imp),
			Importance: imp,
			CreatedAt:  now,
		}); err != nil {
			t.Fatal(err)
		}
	}

	got := s.RetrieveRelevant(Query{})
	want := []string{"imp 9", "imp 5", "imp 2"}
	for i, r := range got {
		if r.Summary != want[i] {
			t.Errorf("rank %d = %q, want %q", i, r.Summary, want[i])
		}
	}
}

func TestRankingRecencyBreaksTies(t *testing.T) {
	s := NewStream()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(s, now)

	old := &Record{Summary: "old", Importance: 5, CreatedAt: now.Add(-2 * time.Hour)}
	fresh := &Record{Summary: "fresh", Importance: 5, CreatedAt: now.Add(-2 * time.Hour)}
	// Identical age and importance: stable sort falls back to recency,
	// which is equal, so append order decides via CreatedAt comparison.
	fresh.CreatedAt = fresh.CreatedAt.Add(time.Second)
	if err := s.Append(old); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(fresh); err != nil {
		t.Fatal(err)
	}

	got := s.RetrieveRelevant(Query{})
	if got[0].Summary != "fresh" {
		t.Errorf("rank 0 = %q, want the newer record", got[0].Summary)
	}
}

func TestRankingRecencyBeatsAge(t *testing.T) {
	s := NewStream()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(s, now)

	// Same importance, one record far older: the fresh one ranks first.
	if err := s.Append(&Record{Summary: "stale", Importance: 6, CreatedAt: now.Add(-3 * time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(&Record{Summary: "recent", Importance: 6, CreatedAt: now.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}
	got := s.RetrieveRelevant(Query{})
	if got[0].Summary != "recent" {
		t.Errorf("rank 0 = %q, want recent", got[0].Summary)
	}
}

func TestRetrieveDeterministic(t *testing.T) {
	s := NewStream()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(s, now)
	for i := 0; i < 10; i++ {
		if err := s.Append(&Record{
			Summary:    fmt.Sprintf("r%d", i),
			Importance: (i * 3) % 10,
			CreatedAt:  now.Add(-time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatal(err)
		}
	}

	a := s.RetrieveRelevant(Query{Limit: 5})
	b := s.RetrieveRelevant(Query{Limit: 5})
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("rank %d differs across identical retrievals", i)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	s := NewStream()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(s, now)

	records := []*Record{
		{Kind: KindMemory, Level: "tutorial", Summary: "m1", Importance: 5, CreatedAt: now},
		{Kind: KindMemory, Level: "friction", Summary: "m2", Importance: 5, CreatedAt: now},
		{Kind: KindReflection, Summary: "lesson", Importance: 8, CreatedAt: now},
	}
	for _, r := range records {
		if err := s.Append(r); err != nil {
			t.Fatal(err)
		}
	}

	// Level filter keeps the matching memory plus the reflection.
	got := s.RetrieveRelevant(Query{Level: "tutorial"})
	if len(got) != 2 {
		t.Fatalf("level query returned %d records, want 2", len(got))
	}
	for _, r := range got {
		if r.Summary == "m2" {
			t.Error("foreign-level memory leaked into results")
		}
	}

	refl := s.RetrieveRelevant(Query{Kind: KindReflection})
	if len(refl) != 1 || refl[0].Summary != "lesson" {
		t.Errorf("kind query = %+v, want the single reflection", refl)
	}
}

func TestStats(t *testing.T) {
	s := NewStream()
	if st := s.Stats(); st.Memories != 0 || st.Reflections != 0 || st.MeanImportance != 0 {
		t.Errorf("empty stats = %+v", st)
	}

	for _, imp := range []int{4, 8} {
		if err := s.Append(&Record{Summary: "m", Importance: imp}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Append(&Record{Kind: KindReflection, Summary: "lesson", Importance: 9}); err != nil {
		t.Fatal(err)
	}

	st := s.Stats()
	if st.Memories != 2 || st.Reflections != 1 {
		t.Errorf("counts = %d/%d, want 2/1", st.Memories, st.Reflections)
	}
	if st.MeanImportance != 6 {
		t.Errorf("MeanImportance = %v, want 6 (reflections excluded)", st.MeanImportance)
	}
	if st.HighImportance != 2 {
		t.Errorf("HighImportance = %d, want 2 (the importance-8 memory and the reflection)", st.HighImportance)
	}
}

func TestImportanceClamped(t *testing.T) {
	s := NewStream()
	if err := s.Append(&Record{Summary: "hot", Importance: 99}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(&Record{Summary: "cold", Importance: -3}); err != nil {
		t.Fatal(err)
	}
	recs := s.Recent(0)
	if recs[0].Importance != MaxImportance {
		t.Errorf("Importance = %d, want clamped to %d", recs[0].Importance, MaxImportance)
	}
	if recs[1].Importance != MinImportance {
		t.Errorf("Importance = %d, want clamped to %d", recs[1].Importance, MinImportance)
	}
}

func TestBadgerRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	s, err := NewPersistentStream(store)
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := s.Append(&Record{
			Summary:    fmt.Sprintf("persisted %d", i),
			Level:      "tutorial",
			Importance: i + 3,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	reloaded, err := NewPersistentStream(store)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reloaded.Close() }()

	if reloaded.Len() != 3 {
		t.Fatalf("reloaded %d records, want 3", reloaded.Len())
	}
	recs := reloaded.Recent(0)
	for i, r := range recs {
		if want := fmt.Sprintf("persisted %d", i); r.Summary != want {
			t.Errorf("record %d = %q, want %q (append order lost)", i, r.Summary, want)
		}
	}
}
