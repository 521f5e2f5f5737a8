package sources

import (
	"context"
	"runtime"
	"sort"
	"time"

	"entropic/internal/pool"
)

// ClockJitterSource repeatedly reads two distinct high-resolution
// counters and emits the LSB of their difference. Independent PLLs and
// interrupt coalescing introduce sub-nanosecond phase noise between a
// monotonic clock read and a CPU cycle-ish counter approximated by a
// second, immediately adjacent monotonic read.
type ClockJitterSource struct{}

func NewClockJitterSource() *ClockJitterSource { return &ClockJitterSource{} }

func (s *ClockJitterSource) Name() string { return "clock_jitter" }

func (s *ClockJitterSource) Available() bool { return true }

func (s *ClockJitterSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		t1 := time.Now()
		t2 := time.Now()
		out = append(out, lsb(t2.Sub(t1).Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *ClockJitterSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// SchedulerJitterSource yield-style sleeps of nominal zero duration and
// records the LSB of actual elapsed time, capturing OS scheduler
// non-determinism.
type SchedulerJitterSource struct{}

func NewSchedulerJitterSource() *SchedulerJitterSource { return &SchedulerJitterSource{} }

func (s *SchedulerJitterSource) Name() string { return "scheduler_jitter" }

func (s *SchedulerJitterSource) Available() bool { return true }

func (s *SchedulerJitterSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		start := time.Now()
		runtime.Gosched()
		time.Sleep(0)
		out = append(out, lsb(time.Since(start).Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *SchedulerJitterSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// KernelCounterDeltaSource takes two snapshots of platform kernel
// counters close in time and emits the LSBs of per-key deltas,
// concatenated in sorted-key order so output is reproducible across
// runs even though map iteration order is not.
type KernelCounterDeltaSource struct {
	// snapshot is platform-specific (linux reads /proc/stat-like numeric
	// counters; other platforms fall back to runtime/Go counters).
	snapshot func() map[string]int64
	gap      time.Duration
}

func NewKernelCounterDeltaSource() *KernelCounterDeltaSource {
	return &KernelCounterDeltaSource{snapshot: counterSnapshot, gap: 5 * time.Millisecond}
}

func (s *KernelCounterDeltaSource) Name() string { return "kernel_counter_delta" }

func (s *KernelCounterDeltaSource) Available() bool {
	return len(s.snapshot()) > 0
}

func (s *KernelCounterDeltaSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		a := s.snapshot()
		time.Sleep(s.gap)
		b := s.snapshot()

		keys := make([]string, 0, len(a))
		for k := range a {
			if _, ok := b[k]; ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		for _, k := range keys {
			delta := b[k] - a[k]
			out = append(out, lsb(delta))
			if len(out) >= n {
				break
			}
		}
		if len(keys) == 0 {
			break
		}
	}
	return clampOvershoot(out, n), nil
}

func (s *KernelCounterDeltaSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// VMStatisticsSource is a KernelCounterDeltaSource fixed to page-fault
// and swap counters reported by the platform's VM statistics call; it
// tolerates absent fields by simply omitting their keys.
type VMStatisticsSource struct {
	inner *KernelCounterDeltaSource
}

func NewVMStatisticsSource() *VMStatisticsSource {
	return &VMStatisticsSource{inner: &KernelCounterDeltaSource{snapshot: vmStatSnapshot, gap: 10 * time.Millisecond}}
}

func (s *VMStatisticsSource) Name() string { return "vm_statistics" }

func (s *VMStatisticsSource) Available() bool { return s.inner.Available() }

func (s *VMStatisticsSource) Sample(ctx context.Context, n int) ([]byte, error) {
	return s.inner.Sample(ctx, n)
}

func (s *VMStatisticsSource) SelfCheck(ctx context.Context) error {
	return s.inner.SelfCheck(ctx)
}

func init() {
	pool.Register(pool.Factory{Name: "clock_jitter", Category: string(CategoryTiming), New: func() pool.Source { return NewClockJitterSource() }})
	pool.Register(pool.Factory{Name: "scheduler_jitter", Category: string(CategoryTiming), New: func() pool.Source { return NewSchedulerJitterSource() }})
	pool.Register(pool.Factory{Name: "kernel_counter_delta", Category: string(CategoryTiming), New: func() pool.Source { return NewKernelCounterDeltaSource() }})
	pool.Register(pool.Factory{Name: "vm_statistics", Category: string(CategoryTiming), New: func() pool.Source { return NewVMStatisticsSource() }})
}
