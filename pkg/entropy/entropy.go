// Package entropy is the public entry point for the engine: it wires
// capability detection, the auto-discovered source pool, and the
// statistical battery behind a small facade so a caller never needs to
// reach into internal/pool or internal/capability directly.
//
// # Usage
//
//	eng, err := entropy.Open(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	b, err := eng.RandomBytes(32)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report := eng.HealthReport()
//	fmt.Println(report)
//
// Any out-of-process sink (HTTP endpoint, named pipe, CLI, TUI monitor)
// is expected to be built on top of this package, not on internal/pool
// directly.
package entropy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entropic/internal/battery"
	"entropic/internal/capability"
	"entropic/internal/config"
	"entropic/internal/metrics"
	"entropic/internal/pool"
	"entropic/internal/quality"
	"entropic/internal/schemavalidation"
)

// Engine is an open entropy engine: a capability-probed, auto-wired
// source pool plus the configuration it was opened with.
type Engine struct {
	pool    *pool.Pool
	caps    *capability.Capabilities
	opts    *config.Options
	metrics *metrics.EntropyMetrics
}

// Open probes host capabilities, auto-wires every compatible registered
// source at weight 1.0, and returns a ready-to-use Engine. opts may be
// nil, in which case config.Defaults() is used.
func Open(opts *config.Options) (*Engine, error) {
	if opts == nil {
		opts = config.Defaults()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("entropy: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), capability.Budget)
	defer cancel()
	caps := capability.Probe(ctx)

	p, err := pool.Auto(caps)
	if err != nil {
		return nil, fmt.Errorf("entropy: %w", err)
	}

	m := metrics.NewEntropyMetrics(metrics.NewRegistry("entropic", "engine"))
	healthy, total := 0, 0
	for _, d := range p.Sources() {
		total++
		if d.Healthy {
			healthy++
		}
	}
	m.SetSourceCounts(healthy, total)

	return &Engine{pool: p, caps: caps, opts: opts, metrics: m}, nil
}

// Close releases any resources held by the engine. It never returns an
// error; the pool holds no file descriptors of its own once sampling
// rounds have completed, and source SelfCheck calls already guard their
// own cleanup.
func (e *Engine) Close() error {
	return nil
}

// Capabilities returns the capability snapshot the engine was opened
// with.
func (e *Engine) Capabilities() *capability.Capabilities {
	return e.caps
}

// RandomBytes returns n bytes conditioned through the keyed-hash
// extractor, the engine's default output mode.
func (e *Engine) RandomBytes(n int) ([]byte, error) {
	data, err := e.pool.GetRandomBytes(n)
	if err != nil {
		e.metrics.RecordError()
		return nil, err
	}
	e.metrics.RecordOutput(int64(len(data)))
	return data, nil
}

// RawBytes returns n bytes taken directly from the unconditioned
// buffer, zero-padded if too few raw bytes are available. Intended for
// research and diagnostics only; never use this for anything security
// sensitive.
func (e *Engine) RawBytes(n int) ([]byte, error) {
	data, err := e.pool.GetRawBytes(n)
	if err != nil {
		e.metrics.RecordError()
		return nil, err
	}
	return data, nil
}

// VonNeumannBytes returns n bytes conditioned through Von Neumann
// debiasing instead of the keyed-hash extractor.
func (e *Engine) VonNeumannBytes(n int) ([]byte, error) {
	data, err := e.pool.GetBytes(n, pool.ModeVonNeumann)
	if err != nil {
		e.metrics.RecordError()
		return nil, err
	}
	e.metrics.RecordOutput(int64(len(data)))
	return data, nil
}

// HealthReport returns the pool's current aggregate health snapshot and
// refreshes the engine's source-count and buffer-occupancy gauges.
func (e *Engine) HealthReport() pool.HealthSnapshot {
	snap := e.pool.HealthReport()
	e.metrics.SetSourceCounts(snap.Healthy, snap.Total)
	e.metrics.SetBufferBytes(e.pool.BufferLen())
	return snap
}

// Collect drives one additional sampling round beyond whatever happens
// automatically inside RandomBytes/RawBytes, useful for a caller that
// wants to pre-warm the buffer before the first read.
func (e *Engine) Collect(timeout time.Duration) (int, error) {
	start := time.Now()
	n, err := e.pool.CollectAll(e.opts.Parallel, timeout)
	failures := 0
	if err != nil {
		failures = 1
	}
	e.metrics.RecordCollection(time.Since(start), int64(n), failures)
	return n, err
}

// RunBattery draws n bytes via RandomBytes and runs the full statistical
// battery against them, validating every result against the bundled
// test-result schema before returning the summary.
func (e *Engine) RunBattery(n int) (battery.Summary, error) {
	data, err := e.RandomBytes(n)
	if err != nil {
		return battery.Summary{}, err
	}
	start := time.Now()
	summary := battery.RunAll(data)
	e.metrics.RecordBattery(time.Since(start), summary.Score)

	if err := validateResults(summary.Results); err != nil {
		return summary, fmt.Errorf("entropy: %w", err)
	}
	return summary, nil
}

// RunBatteryOn runs the statistical battery directly against
// caller-supplied data, bypassing the pool entirely. Useful for
// comparing the engine's output quality against another source. Every
// result is validated against the bundled test-result schema.
func RunBatteryOn(data []byte) (battery.Summary, error) {
	summary := battery.RunAll(data)
	if err := validateResults(summary.Results); err != nil {
		return summary, fmt.Errorf("entropy: %w", err)
	}
	return summary, nil
}

// QualityReport draws n bytes via RandomBytes and scores them with the
// lightweight quality estimator (Shannon entropy, min-entropy,
// compression ratio), validating the result against the bundled
// quality-report schema before returning it.
func (e *Engine) QualityReport(n int, label string) (quality.Report, error) {
	data, err := e.RandomBytes(n)
	if err != nil {
		return quality.Report{}, err
	}
	report := quality.QuickQuality(data, label)

	encoded, err := json.Marshal(report)
	if err != nil {
		return report, fmt.Errorf("entropy: marshal quality report: %w", err)
	}
	if err := schemavalidation.Validate(schemavalidation.QualityReport, encoded); err != nil {
		return report, fmt.Errorf("entropy: quality report failed schema validation: %w", err)
	}
	return report, nil
}

// validateResults checks each battery Result against the bundled
// test-result-v1 schema, catching a field ever drifting out of sync
// with the schema the moment it happens rather than at some downstream
// consumer.
func validateResults(results []battery.Result) error {
	for _, r := range results {
		encoded, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal result %q: %w", r.Name, err)
		}
		if err := schemavalidation.Validate(schemavalidation.TestResult, encoded); err != nil {
			return fmt.Errorf("result %q failed schema validation: %w", r.Name, err)
		}
	}
	return nil
}
