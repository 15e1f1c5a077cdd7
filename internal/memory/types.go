// Package memory is the agent's episodic store: one record per sealed
// episode plus the reflections synthesized from them, ranked for retrieval
// by importance and recency.
package memory

import "time"

// Kind separates episodic memories from synthesized reflections. Both live
// in the same stream and both come back from retrieval.
type Kind string

const (
	KindMemory     Kind = "memory"
	KindReflection Kind = "reflection"
)

// Importance bounds. Scores outside the range are clamped on append.
const (
	MinImportance = 0
	MaxImportance = 10
)

// Record is one entry in the stream. Immutable once appended.
//
// For KindMemory, Summary/Action/Outcome describe the episode. For
// KindReflection, Summary carries the synthesized lesson and the episode
// fields stay empty.
type Record struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Level      string    `json:"level,omitempty"`
	Summary    string    `json:"summary"`
	Action     string    `json:"action,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Learning   string    `json:"learning,omitempty"`
	Importance int       `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

// Query narrows retrieval. A zero Query matches everything.
type Query struct {
	// Level restricts episodic memories to one level. Reflections are
	// general lessons and always match.
	Level string

	// Kind restricts to one record kind when set.
	Kind Kind

	// Limit caps the result count; 0 means no cap.
	Limit int
}

// Stats is a pure aggregation over the stream.
type Stats struct {
	Memories       int     `json:"memories"`
	Reflections    int     `json:"reflections"`
	MeanImportance float64 `json:"mean_importance"`
	HighImportance int     `json:"high_importance"`
}

// HighImportanceFloor is the importance at and above which a memory counts
// as high-importance in Stats.
const HighImportanceFloor = 8

// Persister is the optional durability hook behind a Stream. Appends are
// written through; LoadAll rehydrates the stream at startup in
// chronological order.
type Persister interface {
	Save(r *Record) error
	LoadAll() ([]*Record, error)
	Close() error
}
