package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"entropic/internal/pool"
)

// ProcessTableSource snapshots the running process table, hashes its
// serialization, and interleaves the hash bytes with micro-timing LSBs
// of the snapshot call itself.
type ProcessTableSource struct{}

func NewProcessTableSource() *ProcessTableSource { return &ProcessTableSource{} }

func (s *ProcessTableSource) Name() string { return "process_table" }

func (s *ProcessTableSource) Available() bool { return true }

func (s *ProcessTableSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		start := time.Now()
		snap := processSnapshot()
		elapsed := time.Since(start)

		h := sha256.Sum256([]byte(snap))
		out = append(out, lsb(elapsed.Nanoseconds()))
		out = append(out, h[:]...)
	}
	return clampOvershoot(out, n), nil
}

func (s *ProcessTableSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// processSnapshot serializes a coarse view of process-adjacent OS
// state: PID, goroutine count, and directory entries under /proc when
// present. It deliberately avoids a full process-list syscall dependency
// not present in this module's stack.
func processSnapshot() string {
	s := fmt.Sprintf("pid=%d goroutines=%d time=%d", os.Getpid(), runtime.NumGoroutine(), time.Now().UnixNano())
	if entries, err := os.ReadDir("/proc"); err == nil {
		s += fmt.Sprintf(" proc_entries=%d", len(entries))
	}
	return s
}

// DispatchQueueSource submits trivial tasks to a small worker pool and
// measures per-task latency deltas' LSBs.
type DispatchQueueSource struct {
	workers int
}

func NewDispatchQueueSource() *DispatchQueueSource {
	return &DispatchQueueSource{workers: 4}
}

func (s *DispatchQueueSource) Name() string { return "dispatch_queue" }

func (s *DispatchQueueSource) Available() bool { return true }

func (s *DispatchQueueSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		var wg sync.WaitGroup
		latencies := make(chan time.Duration, s.workers)
		for i := 0; i < s.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				start := time.Now()
				acc := 0
				for j := 0; j < 1000; j++ {
					acc += j
				}
				_ = acc
				latencies <- time.Since(start)
			}()
		}
		wg.Wait()
		close(latencies)
		for d := range latencies {
			out = append(out, lsb(d.Nanoseconds()))
			if len(out) >= n {
				break
			}
		}
	}
	return clampOvershoot(out, n), nil
}

func (s *DispatchQueueSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

func init() {
	pool.Register(pool.Factory{Name: "process_table", Category: string(CategoryOther), New: func() pool.Source { return NewProcessTableSource() }})
	pool.Register(pool.Factory{Name: "dispatch_queue", Category: string(CategoryOther), New: func() pool.Source { return NewDispatchQueueSource() }})
}
