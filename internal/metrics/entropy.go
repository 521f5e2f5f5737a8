package metrics

import (
	"time"
)

// EntropyMetrics holds all engine-specific metrics.
type EntropyMetrics struct {
	registry *Registry

	// Counters
	RawBytesTotal    *Counter
	OutputBytesTotal *Counter
	CollectionsTotal *Counter
	SourceFailures   *Counter
	ErrorsTotal      *Counter

	// Gauges
	SourcesHealthy  *Gauge
	SourcesTotal    *Gauge
	BufferBytes     *Gauge
	BatteryScore    *Gauge
	UptimeSeconds   *Gauge
	LastCollectUnix *Gauge

	// Histograms
	CollectDuration  *Histogram
	SampleDuration   *Histogram
	BatteryDuration  *Histogram
	ConditionLatency *Histogram
}

// startTime records when metrics were initialized.
var startTime = time.Now()

// NewEntropyMetrics creates and registers all engine metrics.
func NewEntropyMetrics(registry *Registry) *EntropyMetrics {
	if registry == nil {
		registry = Default()
	}

	m := &EntropyMetrics{
		registry: registry,

		RawBytesTotal: registry.RegisterCounter(
			"raw_bytes_total",
			"Total number of raw bytes collected from all sources",
			nil,
		),
		OutputBytesTotal: registry.RegisterCounter(
			"output_bytes_total",
			"Total number of conditioned bytes emitted to consumers",
			nil,
		),
		CollectionsTotal: registry.RegisterCounter(
			"collections_total",
			"Total number of CollectAll invocations",
			nil,
		),
		SourceFailures: registry.RegisterCounter(
			"source_failures_total",
			"Total number of per-source collection failures",
			nil,
		),
		ErrorsTotal: registry.RegisterCounter(
			"errors_total",
			"Total number of errors surfaced to callers",
			nil,
		),

		SourcesHealthy: registry.RegisterGauge(
			"sources_healthy",
			"Number of sources currently marked healthy",
			nil,
		),
		SourcesTotal: registry.RegisterGauge(
			"sources_total",
			"Number of sources registered in the pool",
			nil,
		),
		BufferBytes: registry.RegisterGauge(
			"buffer_bytes",
			"Current size of the pool's raw byte buffer",
			nil,
		),
		BatteryScore: registry.RegisterGauge(
			"battery_score",
			"Most recent overall statistical battery score (0-100)",
			nil,
		),
		UptimeSeconds: registry.RegisterGauge(
			"uptime_seconds",
			"Number of seconds since the engine started",
			nil,
		),
		LastCollectUnix: registry.RegisterGauge(
			"last_collect_unix",
			"Unix timestamp of the last successful CollectAll",
			nil,
		),

		CollectDuration: registry.RegisterHistogram(
			"collect_duration_seconds",
			"Duration of CollectAll operations in seconds",
			nil,
			DurationBuckets,
		),
		SampleDuration: registry.RegisterHistogram(
			"sample_duration_seconds",
			"Duration of individual source Sample calls in seconds",
			nil,
			[]float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		),
		BatteryDuration: registry.RegisterHistogram(
			"battery_duration_seconds",
			"Duration of a full statistical battery run in seconds",
			nil,
			[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		),
		ConditionLatency: registry.RegisterHistogram(
			"condition_latency_seconds",
			"Duration of conditioning operations (debias, fold, extract) in seconds",
			nil,
			[]float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		),
	}

	return m
}

// RecordCollection records a completed CollectAll pass.
func (m *EntropyMetrics) RecordCollection(duration time.Duration, rawBytes int64, failures int) {
	m.CollectionsTotal.Inc()
	m.CollectDuration.ObserveDuration(duration)
	m.RawBytesTotal.Add(uint64(rawBytes))
	if failures > 0 {
		m.SourceFailures.Add(uint64(failures))
	}
	m.LastCollectUnix.Set(time.Now().Unix())
}

// StartCollectTimer returns a timer for a CollectAll pass.
func (m *EntropyMetrics) StartCollectTimer() *HistogramTimer {
	return m.CollectDuration.Timer()
}

// RecordSample records a single source's Sample call.
func (m *EntropyMetrics) RecordSample(duration time.Duration) {
	m.SampleDuration.ObserveDuration(duration)
}

// RecordOutput records bytes handed back by GetBytes.
func (m *EntropyMetrics) RecordOutput(n int64) {
	m.OutputBytesTotal.Add(uint64(n))
}

// RecordCondition records a conditioning operation's latency.
func (m *EntropyMetrics) RecordCondition(duration time.Duration) {
	m.ConditionLatency.ObserveDuration(duration)
}

// RecordBattery records a completed statistical battery run.
func (m *EntropyMetrics) RecordBattery(duration time.Duration, score float64) {
	m.BatteryDuration.ObserveDuration(duration)
	m.BatteryScore.Set(int64(score))
}

// SetSourceCounts updates the healthy/total source gauges.
func (m *EntropyMetrics) SetSourceCounts(healthy, total int) {
	m.SourcesHealthy.Set(int64(healthy))
	m.SourcesTotal.Set(int64(total))
}

// SetBufferBytes updates the buffer occupancy gauge.
func (m *EntropyMetrics) SetBufferBytes(n int) {
	m.BufferBytes.Set(int64(n))
}

// RecordError records an error surfaced to a caller.
func (m *EntropyMetrics) RecordError() {
	m.ErrorsTotal.Inc()
}

// UpdateUptime updates the uptime metric.
func (m *EntropyMetrics) UpdateUptime() {
	m.UptimeSeconds.Set(int64(time.Since(startTime).Seconds()))
}

// Snapshot returns a snapshot of key metrics.
func (m *EntropyMetrics) Snapshot() map[string]interface{} {
	m.UpdateUptime()
	return map[string]interface{}{
		"raw_bytes_total":          m.RawBytesTotal.Value(),
		"output_bytes_total":       m.OutputBytesTotal.Value(),
		"collections_total":        m.CollectionsTotal.Value(),
		"source_failures_total":    m.SourceFailures.Value(),
		"errors_total":             m.ErrorsTotal.Value(),
		"sources_healthy":          m.SourcesHealthy.Value(),
		"sources_total":            m.SourcesTotal.Value(),
		"buffer_bytes":             m.BufferBytes.Value(),
		"battery_score":            m.BatteryScore.Value(),
		"uptime_seconds":           m.UptimeSeconds.Value(),
		"collect_avg_seconds":      m.CollectDuration.Mean(),
		"battery_avg_seconds":      m.BatteryDuration.Mean(),
	}
}

// Global default metrics instance.
var defaultEntropyMetrics *EntropyMetrics

// GetMetrics returns the global engine metrics instance.
func GetMetrics() *EntropyMetrics {
	if defaultEntropyMetrics == nil {
		defaultEntropyMetrics = NewEntropyMetrics(Default())
	}
	return defaultEntropyMetrics
}

// InitMetrics initializes the global engine metrics with a custom registry.
func InitMetrics(registry *Registry) *EntropyMetrics {
	defaultEntropyMetrics = NewEntropyMetrics(registry)
	return defaultEntropyMetrics
}
