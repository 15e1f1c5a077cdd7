// Package metrics keeps lightweight in-process run statistics:
// counters, gauges and latency/size histograms, exportable as JSON.
package metrics

import (
	"encoding/json"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// histogramWindow bounds how many observations a histogram retains.
// Older observations fall out of the window once it is full.
const histogramWindow = 1000

// Counter is a monotonically increasing count.
type Counter struct {
	n atomic.Int64
}

// Inc adds one.
func (c *Counter) Inc() { c.n.Add(1) }

// Add adds n.
func (c *Counter) Add(n int64) { c.n.Add(n) }

// Value reports the current count.
func (c *Counter) Value() int64 { return c.n.Load() }

// Gauge is a value that moves in both directions.
type Gauge struct {
	bits atomic.Uint64
}

// Set replaces the gauge value.
func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

// Inc adds one.
func (g *Gauge) Inc() { g.Add(1) }

// Dec subtracts one.
func (g *Gauge) Dec() { g.Add(-1) }

// Add shifts the gauge by delta.
func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if g.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Value reports the current gauge value.
func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

// Histogram keeps a sliding window of observations in a ring buffer.
type Histogram struct {
	mu   sync.Mutex
	ring []float64
	next int
	full bool
}

// NewHistogram makes a histogram retaining at most window observations.
func NewHistogram(window int) *Histogram {
	return &Histogram{ring: make([]float64, window)}
}

// Observe records one value, dropping the oldest when the window is full.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	h.ring[h.next] = v
	h.next++
	if h.next == len(h.ring) {
		h.next = 0
		h.full = true
	}
	h.mu.Unlock()
}

// Stats summarizes the current window.
func (h *Histogram) Stats() HistogramStats {
	h.mu.Lock()
	n := h.next
	if h.full {
		n = len(h.ring)
	}
	sorted := make([]float64, n)
	copy(sorted, h.ring[:n])
	h.mu.Unlock()

	if n == 0 {
		return HistogramStats{}
	}
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return HistogramStats{
		Count: n,
		Min:   sorted[0],
		Max:   sorted[n-1],
		Mean:  sum / float64(n),
		P50:   sorted[n*50/100],
		P90:   sorted[n*90/100],
		P99:   sorted[n*99/100],
	}
}

// HistogramStats is a point-in-time summary of a histogram window.
type HistogramStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
}

// Collector owns a named set of counters, gauges and histograms.
type Collector struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	startedAt  time.Time
}

// NewCollector makes an empty collector.
func NewCollector() *Collector {
	return &Collector{
		counters:   map[string]*Counter{},
		gauges:     map[string]*Gauge{},
		histograms: map[string]*Histogram{},
		startedAt:  time.Now(),
	}
}

// Counter fetches the named counter, creating it on first use.
func (c *Collector) Counter(name string) *Counter {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctr := c.counters[name]
	if ctr == nil {
		ctr = &Counter{}
		c.counters[name] = ctr
	}
	return ctr
}

// Gauge fetches the named gauge, creating it on first use.
func (c *Collector) Gauge(name string) *Gauge {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.gauges[name]
	if g == nil {
		g = &Gauge{}
		c.gauges[name] = g
	}
	return g
}

// Histogram fetches the named histogram, creating it on first use.
func (c *Collector) Histogram(name string) *Histogram {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.histograms[name]
	if h == nil {
		h = NewHistogram(histogramWindow)
		c.histograms[name] = h
	}
	return h
}

// Uptime reports how long the collector has been running.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startedAt)
}

type snapshot struct {
	Uptime     string                    `json:"uptime"`
	Counters   map[string]int64          `json:"counters"`
	Gauges     map[string]float64        `json:"gauges"`
	Histograms map[string]HistogramStats `json:"histograms"`
}

// Export serializes every metric to indented JSON.
func (c *Collector) Export() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := snapshot{
		Uptime:     time.Since(c.startedAt).String(),
		Counters:   make(map[string]int64, len(c.counters)),
		Gauges:     make(map[string]float64, len(c.gauges)),
		Histograms: make(map[string]HistogramStats, len(c.histograms)),
	}
	for name, ctr := range c.counters {
		snap.Counters[name] = ctr.Value()
	}
	for name, g := range c.gauges {
		snap.Gauges[name] = g.Value()
	}
	for name, h := range c.histograms {
		snap.Histograms[name] = h.Stats()
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Reset discards every metric and restarts the uptime clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = map[string]*Counter{}
	c.gauges = map[string]*Gauge{}
	c.histograms = map[string]*Histogram{}
	c.startedAt = time.Now()
}
