package metrics

import "sync"

var (
	global     *Collector
	globalOnce sync.Once
)

// Global returns the process-wide collector, creating it on first use.
func Global() *Collector {
	globalOnce.Do(func() { global = NewCollector() })
	return global
}

// IncCounter adds one to a counter on the global collector.
func IncCounter(name string) { Global().Counter(name).Inc() }

// AddCounter adds n to a counter on the global collector.
func AddCounter(name string, n int64) { Global().Counter(name).Add(n) }

// SetGauge sets a gauge on the global collector.
func SetGauge(name string, v float64) { Global().Gauge(name).Set(v) }

// ObserveHistogram records one observation on the global collector.
func ObserveHistogram(name string, v float64) { Global().Histogram(name).Observe(v) }

// Metric names recorded by the episode controller and its collaborators.
const (
	MetricEpisodesTotal   = "boxpush_episodes_total"
	MetricEpisodeDuration = "boxpush_episode_duration"
	MetricEpisodeSteps    = "boxpush_episode_steps"
	MetricEpisodeReward   = "boxpush_episode_reward"
	MetricSuccessesTotal  = "boxpush_successes_total"
	MetricFailuresTotal   = "boxpush_failures_total"
	MetricDegradedSteps   = "boxpush_degraded_steps_total"
	MetricActiveEpisodes  = "boxpush_active_episodes"
	MetricLastReward      = "boxpush_last_reward"

	MetricOracleRequests = "boxpush_oracle_requests_total"
	MetricOracleErrors   = "boxpush_oracle_errors_total"
	MetricOracleLatency  = "boxpush_oracle_latency"

	MetricMemoriesTotal    = "boxpush_memories_total"
	MetricReflectionsTotal = "boxpush_reflections_total"

	MetricErrors = "boxpush_errors_total"
)
