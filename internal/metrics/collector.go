// Package metrics provides in-memory runtime statistics collection for
// the query pipeline.
package metrics

import (
	"math"
	"sync"
	"time"
)

// StageMetrics holds aggregated metrics for one pipeline stage.
type StageMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Streamed token count (generation stage only)
	TotalTokens int64
}

// StageSnapshot provides computed stats from raw metrics.
type StageSnapshot struct {
	Count       int64   `json:"count"`
	Failures    int64   `json:"failures"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	TotalTokens *int64 `json:"total_tokens,omitempty"`
}

// Snapshot represents full pipeline statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64        `json:"uptime_seconds"`
	Rewrite       *StageSnapshot `json:"rewrite,omitempty"`
	Classify      *StageSnapshot `json:"classify,omitempty"`
	Retrieve      *StageSnapshot `json:"retrieve,omitempty"`
	Shape         *StageSnapshot `json:"shape,omitempty"`
	Generate      *StageSnapshot `json:"generate,omitempty"`
}

// Stage names for the collector.
const (
	StageRewrite  = "rewrite"
	StageClassify = "classify"
	StageRetrieve = "retrieve"
	StageShape    = "shape"
	StageGenerate = "generate"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	stages    map[string]*StageMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		stages:    make(map[string]*StageMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for a stage.
// Caller must hold the write lock.
func (c *Collector) getOrCreate(stage string) *StageMetrics {
	m, ok := c.stages[stage]
	if !ok {
		m = &StageMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.stages[stage] = m
	}
	return m
}

// RecordTiming records a successful stage execution.
func (c *Collector) RecordTiming(stage string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(stage)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordFailure counts a failed stage execution.
func (c *Collector) RecordFailure(stage string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(stage).Failures++
}

// RecordTokens adds streamed tokens to a stage's totals.
func (c *Collector) RecordTokens(stage string, tokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(stage).TotalTokens += tokens
}

// snapshotStage creates a snapshot for a stage, returning nil if no data.
func snapshotStage(m *StageMetrics, includeTokens bool) *StageSnapshot {
	if m == nil || (m.Count == 0 && m.Failures == 0) {
		return nil
	}

	snap := &StageSnapshot{
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
	if m.Count > 0 {
		snap.AvgTimeMs = float64(m.TotalTime.Milliseconds()) / float64(m.Count)
		snap.MinTimeMs = m.MinTime.Milliseconds()
	}
	if includeTokens && m.TotalTokens > 0 {
		total := m.TotalTokens
		snap.TotalTokens = &total
	}
	return snap
}

// Snapshot returns a point-in-time snapshot of all stage metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Rewrite:       snapshotStage(c.stages[StageRewrite], false),
		Classify:      snapshotStage(c.stages[StageClassify], false),
		Retrieve:      snapshotStage(c.stages[StageRetrieve], false),
		Shape:         snapshotStage(c.stages[StageShape], false),
		Generate:      snapshotStage(c.stages[StageGenerate], true),
	}
}
