// Package metrics provides in-memory tool-call statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// ToolMetrics holds aggregated metrics for a single tool.
type ToolMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// ToolSnapshot provides computed stats from raw metrics.
type ToolSnapshot struct {
	Count       int64   `json:"count"`
	Errors      int64   `json:"errors"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot represents the full tool-call statistics at a point in time.
// Tools are keyed "category.name", categories aggregate their tools.
type Snapshot struct {
	UptimeSeconds float64                 `json:"uptime_seconds"`
	TotalCalls    int64                   `json:"total_calls"`
	TotalErrors   int64                   `json:"total_errors"`
	Categories    map[string]ToolSnapshot `json:"categories,omitempty"`
	Tools         map[string]ToolSnapshot `json:"tools,omitempty"`
}

// Collector aggregates in-memory tool-call statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	tools     map[string]*ToolMetrics
	category  map[string]*ToolMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		tools:     make(map[string]*ToolMetrics),
		category:  make(map[string]*ToolMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones.
// Caller must hold write lock.
func getOrCreate(m map[string]*ToolMetrics, key string) *ToolMetrics {
	tm, ok := m[key]
	if !ok {
		tm = &ToolMetrics{MinTime: time.Duration(math.MaxInt64)}
		m[key] = tm
	}
	return tm
}

func record(tm *ToolMetrics, duration time.Duration, failed bool) {
	tm.Count++
	if failed {
		tm.Errors++
	}
	tm.TotalTime += duration

	if duration < tm.MinTime {
		tm.MinTime = duration
	}
	if duration > tm.MaxTime {
		tm.MaxTime = duration
	}
}

// RecordCall records one tool call under both its tool key and its category.
func (c *Collector) RecordCall(category, tool string, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record(getOrCreate(c.tools, category+"."+tool), duration, failed)
	record(getOrCreate(c.category, category), duration, failed)
}

func snapshotTool(tm *ToolMetrics) ToolSnapshot {
	return ToolSnapshot{
		Count:       tm.Count,
		Errors:      tm.Errors,
		TotalTimeMs: tm.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(tm.TotalTime.Milliseconds()) / float64(tm.Count),
		MinTimeMs:   tm.MinTime.Milliseconds(),
		MaxTimeMs:   tm.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Categories:    make(map[string]ToolSnapshot, len(c.category)),
		Tools:         make(map[string]ToolSnapshot, len(c.tools)),
	}
	for key, tm := range c.tools {
		snap.Tools[key] = snapshotTool(tm)
	}
	for key, tm := range c.category {
		snap.Categories[key] = snapshotTool(tm)
		snap.TotalCalls += tm.Count
		snap.TotalErrors += tm.Errors
	}
	return snap
}
