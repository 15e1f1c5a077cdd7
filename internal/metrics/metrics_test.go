package metrics

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestCounter(t *testing.T) {
	c := NewCollector()

	ctr := c.Counter("boxpush_episodes_total")
	ctr.Inc()
	ctr.Inc()
	ctr.Add(3)

	if got := ctr.Value(); got != 5 {
		t.Fatalf("counter = %d, want 5", got)
	}
	if c.Counter("boxpush_episodes_total") != ctr {
		t.Fatal("same name should return the same counter")
	}
}

func TestCounterConcurrent(t *testing.T) {
	c := NewCollector()
	ctr := c.Counter("boxpush_oracle_requests_total")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				ctr.Inc()
			}
		}()
	}
	wg.Wait()

	if got := ctr.Value(); got != 8000 {
		t.Fatalf("counter = %d, want 8000", got)
	}
}

func TestGauge(t *testing.T) {
	g := NewCollector().Gauge("boxpush_active_episodes")

	g.Set(3)
	g.Inc()
	g.Dec()
	g.Add(1.5)

	if got := g.Value(); got != 4.5 {
		t.Fatalf("gauge = %v, want 4.5", got)
	}
}

func TestHistogramStats(t *testing.T) {
	h := NewHistogram(100)
	for v := 1.0; v <= 10; v++ {
		h.Observe(v)
	}

	stats := h.Stats()
	if stats.Count != 10 {
		t.Fatalf("count = %d, want 10", stats.Count)
	}
	if stats.Min != 1 || stats.Max != 10 {
		t.Fatalf("min/max = %v/%v, want 1/10", stats.Min, stats.Max)
	}
	if stats.Mean != 5.5 {
		t.Fatalf("mean = %v, want 5.5", stats.Mean)
	}
	if stats.P50 != 6 {
		t.Fatalf("p50 = %v, want 6", stats.P50)
	}
}

func TestHistogramEmpty(t *testing.T) {
	if got := NewHistogram(10).Stats(); got != (HistogramStats{}) {
		t.Fatalf("empty histogram stats = %+v, want zero value", got)
	}
}

func TestHistogramWindowRolls(t *testing.T) {
	h := NewHistogram(4)
	for v := 1.0; v <= 6; v++ {
		h.Observe(v)
	}

	// 1 and 2 have fallen out of the window.
	stats := h.Stats()
	if stats.Count != 4 {
		t.Fatalf("count = %d, want 4", stats.Count)
	}
	if stats.Min != 3 || stats.Max != 6 {
		t.Fatalf("min/max = %v/%v, want 3/6", stats.Min, stats.Max)
	}
}

func TestExport(t *testing.T) {
	c := NewCollector()
	c.Counter("boxpush_successes_total").Add(2)
	c.Gauge("boxpush_mean_reward").Set(137.5)
	c.Histogram("boxpush_oracle_latency").Observe(0.42)

	raw, err := c.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var snap struct {
		Uptime     string                    `json:"uptime"`
		Counters   map[string]int64          `json:"counters"`
		Gauges     map[string]float64        `json:"gauges"`
		Histograms map[string]HistogramStats `json:"histograms"`
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if snap.Counters["boxpush_successes_total"] != 2 {
		t.Errorf("counters = %v, want boxpush_successes_total=2", snap.Counters)
	}
	if snap.Gauges["boxpush_mean_reward"] != 137.5 {
		t.Errorf("gauges = %v, want boxpush_mean_reward=137.5", snap.Gauges)
	}
	if snap.Histograms["boxpush_oracle_latency"].Count != 1 {
		t.Errorf("histograms = %v, want boxpush_oracle_latency count 1", snap.Histograms)
	}
	if snap.Uptime == "" {
		t.Error("export should include uptime")
	}
}

func TestReset(t *testing.T) {
	c := NewCollector()
	c.Counter("boxpush_errors_total").Inc()
	c.Reset()

	if got := c.Counter("boxpush_errors_total").Value(); got != 0 {
		t.Fatalf("counter after reset = %d, want 0", got)
	}
}

func TestGlobalHelpers(t *testing.T) {
	Global().Reset()

	IncCounter("boxpush_reflections_total")
	AddCounter("boxpush_reflections_total", 2)
	SetGauge("boxpush_window", 3)
	ObserveHistogram("boxpush_episode_steps", 12)

	if got := Global().Counter("boxpush_reflections_total").Value(); got != 3 {
		t.Errorf("global counter = %d, want 3", got)
	}
	if got := Global().Gauge("boxpush_window").Value(); got != 3 {
		t.Errorf("global gauge = %v, want 3", got)
	}
	if got := Global().Histogram("boxpush_episode_steps").Stats().Count; got != 1 {
		t.Errorf("global histogram count = %d, want 1", got)
	}
}
