package memory

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Retrieval blends importance and recency:
//
//	score = 0.6*(importance/10) + 0.4*exp(-age/halflife)
//
// Monotonic in both inputs; ties broken by recency (newer first). The
// half-life keeps a fresh low-importance memory competitive with an old
// high-importance one for a few episodes, then importance dominates.
const (
	importanceWeight = 0.6
	recencyWeight    = 0.4
	recencyHalfLife  = 10 * time.Minute
)

// Stream is the append-only record sequence. Appends are single-writer
// (episodes run one at a time); retrieval takes a read lock so concurrent
// readers see a consistent snapshot.
type Stream struct {
	mu      sync.RWMutex
	records []*Record
	persist Persister

	// now is swapped in tests to make ranking deterministic.
	now func() time.Time
}

// NewStream returns an empty in-memory stream.
func NewStream() *Stream {
	return &Stream{now: time.Now}
}

// NewPersistentStream returns a stream backed by p, rehydrated with
// whatever p already holds.
func NewPersistentStream(p Persister) (*Stream, error) {
	records, err := p.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading memory stream: %w", err)
	}
	return &Stream{records: records, persist: p, now: time.Now}, nil
}

// Append adds a record to the stream. Assigns ID and timestamp when absent
// and clamps importance into range. O(1) amortized.
func (s *Stream) Append(r *Record) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Kind == "" {
		r.Kind = KindMemory
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	if r.Importance < MinImportance {
		r.Importance = MinImportance
	}
	if r.Importance > MaxImportance {
		r.Importance = MaxImportance
	}

	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Save(r); err != nil {
			return fmt.Errorf("persisting memory: %w", err)
		}
	}
	return nil
}

// RetrieveRelevant returns records matching q ranked by the blended
// importance/recency score. An empty stream yields an empty slice, never
// an error.
func (s *Stream) RetrieveRelevant(q Query) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	matched := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		if !matches(r, q) {
			continue
		}
		matched = append(matched, r)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := score(matched[i], now), score(matched[j], now)
		if si != sj {
			return si > sj
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched
}

// Recent returns the last n records in append order, oldest first.
func (s *Stream) Recent(n int) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.records) {
		n = len(s.records)
	}
	out := make([]*Record, n)
	copy(out, s.records[len(s.records)-n:])
	return out
}

// Len returns the total record count.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Stats aggregates the stream. Mean importance covers episodic memories
// only.
func (s *Stream) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	var total int
	for _, r := range s.records {
		switch r.Kind {
		case KindReflection:
			st.Reflections++
		default:
			st.Memories++
			total += r.Importance
		}
		if r.Importance >= HighImportanceFloor {
			st.HighImportance++
		}
	}
	if st.Memories > 0 {
		st.MeanImportance = float64(total) / float64(st.Memories)
	}
	return st
}

// Close releases the persister, if any.
func (s *Stream) Close() error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Close()
}

func matches(r *Record, q Query) bool {
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Level != "" && r.Kind == KindMemory && r.Level != "" && r.Level != q.Level {
		return false
	}
	return true
}

func score(r *Record, now time.Time) float64 {
	age := now.Sub(r.CreatedAt).Seconds()
	if age < 0 {
		age = 0
	}
	recency := math.Exp(-age / recencyHalfLife.Seconds())
	return importanceWeight*float64(r.Importance)/MaxImportance + recencyWeight*recency
}
