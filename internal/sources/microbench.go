package sources

import (
	"context"
	"crypto/rand"
	"math/big"
	"os"
	"time"

	"entropic/internal/pool"
)

// DiskIOSource performs tight read micro-benchmarks against a temp file
// and emits the LSB of each read's wall time.
type DiskIOSource struct{}

func NewDiskIOSource() *DiskIOSource { return &DiskIOSource{} }

func (s *DiskIOSource) Name() string { return "disk_io_timing" }

func (s *DiskIOSource) Available() bool { return true }

func (s *DiskIOSource) Sample(ctx context.Context, n int) ([]byte, error) {
	f, err := os.CreateTemp("", "entropic-diskio-*")
	if err != nil {
		return nil, nil
	}
	defer os.Remove(f.Name())
	defer f.Close()

	payload := make([]byte, 4096)
	if _, err := f.Write(payload); err != nil {
		return nil, nil
	}

	out := make([]byte, 0, n)
	buf := make([]byte, 512)
	for len(out) < n && !ctxDone(ctx) {
		if _, err := f.Seek(0, 0); err != nil {
			break
		}
		d := timeIt(func() { _, _ = f.Read(buf) })
		out = append(out, lsb(d.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *DiskIOSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// MemoryTimingSource times repeated allocation-and-touch cycles.
type MemoryTimingSource struct{}

func NewMemoryTimingSource() *MemoryTimingSource { return &MemoryTimingSource{} }

func (s *MemoryTimingSource) Name() string { return "memory_timing" }

func (s *MemoryTimingSource) Available() bool { return true }

func (s *MemoryTimingSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		d := timeIt(func() {
			buf := make([]byte, 4096)
			for i := range buf {
				buf[i] = byte(i)
			}
		})
		out = append(out, lsb(d.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *MemoryTimingSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// DRAMRowBufferSource performs random access to a buffer far larger
// than last-level cache (8 MiB), so consecutive accesses likely miss the
// open DRAM row; it emits the XOR of consecutive access-time deltas for
// decorrelation.
type DRAMRowBufferSource struct {
	buf []byte
}

func NewDRAMRowBufferSource() *DRAMRowBufferSource {
	buf := make([]byte, 8*1024*1024)
	return &DRAMRowBufferSource{buf: buf}
}

func (s *DRAMRowBufferSource) Name() string { return "dram_row_buffer" }

func (s *DRAMRowBufferSource) Available() bool { return true }

func (s *DRAMRowBufferSource) Sample(ctx context.Context, n int) ([]byte, error) {
	need := n + 1
	deltas := make([]int64, 0, need)
	for len(deltas) < need && !ctxDone(ctx) {
		idx, err := randIntn(len(s.buf))
		if err != nil {
			return nil, nil
		}
		start := time.Now()
		s.buf[idx] ^= 0xFF
		deltas = append(deltas, time.Since(start).Nanoseconds())
	}
	return clampOvershoot(xorConsecutive(deltas), n), nil
}

func (s *DRAMRowBufferSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// CacheContentionSource alternates sequential and random access over a
// 1 MiB buffer, emitting the LSB of each pass's elapsed time.
type CacheContentionSource struct {
	buf []byte
}

func NewCacheContentionSource() *CacheContentionSource {
	return &CacheContentionSource{buf: make([]byte, 1024*1024)}
}

func (s *CacheContentionSource) Name() string { return "cache_contention" }

func (s *CacheContentionSource) Available() bool { return true }

func (s *CacheContentionSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	sequential := true
	for len(out) < n && !ctxDone(ctx) {
		var d time.Duration
		if sequential {
			d = timeIt(func() {
				for i := range s.buf {
					s.buf[i]++
				}
			})
		} else {
			d = timeIt(func() {
				for i := 0; i < len(s.buf); i++ {
					idx, err := randIntn(len(s.buf))
					if err != nil {
						return
					}
					s.buf[idx]++
				}
			})
		}
		sequential = !sequential
		out = append(out, lsb(d.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *CacheContentionSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// PageFaultSource allocates fresh anonymous memory and touches new
// pages, emitting the LSB of the fault-inducing touch's wall time.
type PageFaultSource struct{}

func NewPageFaultSource() *PageFaultSource { return &PageFaultSource{} }

func (s *PageFaultSource) Name() string { return "page_fault_timing" }

func (s *PageFaultSource) Available() bool { return true }

func (s *PageFaultSource) Sample(ctx context.Context, n int) ([]byte, error) {
	const pageSize = 4096
	out := make([]byte, 0, n)
	for len(out) < n && !ctxDone(ctx) {
		var page []byte
		d := timeIt(func() {
			page = make([]byte, pageSize)
			page[0] = 1
			page[pageSize-1] = 1
		})
		_ = page
		out = append(out, lsb(d.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *PageFaultSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// SpeculativeExecutionSource times a branch with a data-dependent,
// hard-to-predict condition, capturing branch-predictor/pipeline state
// that the spec attributes to "speculative execution" timing.
type SpeculativeExecutionSource struct {
	state uint32
}

func NewSpeculativeExecutionSource() *SpeculativeExecutionSource {
	return &SpeculativeExecutionSource{state: 0x2545F491}
}

func (s *SpeculativeExecutionSource) Name() string { return "speculative_execution" }

func (s *SpeculativeExecutionSource) Available() bool { return true }

func (s *SpeculativeExecutionSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	acc := 0
	for len(out) < n && !ctxDone(ctx) {
		d := timeIt(func() {
			s.state = s.state*1664525 + 1013904223
			if s.state&1 == 1 {
				acc += int(s.state >> 16)
			} else {
				acc -= int(s.state >> 16)
			}
		})
		out = append(out, lsb(d.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *SpeculativeExecutionSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// randIntn draws a uniform index in [0, max) from the system CSPRNG;
// micro-benchmark sources use it to pick access offsets, not to inject
// entropy into the output themselves.
func randIntn(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func init() {
	pool.Register(pool.Factory{Name: "disk_io_timing", Category: string(CategoryTiming), New: func() pool.Source { return NewDiskIOSource() }})
	pool.Register(pool.Factory{Name: "memory_timing", Category: string(CategoryTiming), New: func() pool.Source { return NewMemoryTimingSource() }})
	pool.Register(pool.Factory{Name: "dram_row_buffer", Category: string(CategoryTiming), New: func() pool.Source { return NewDRAMRowBufferSource() }})
	pool.Register(pool.Factory{Name: "cache_contention", Category: string(CategoryTiming), New: func() pool.Source { return NewCacheContentionSource() }})
	pool.Register(pool.Factory{Name: "page_fault_timing", Category: string(CategoryTiming), New: func() pool.Source { return NewPageFaultSource() }})
	pool.Register(pool.Factory{Name: "speculative_execution", Category: string(CategoryTiming), New: func() pool.Source { return NewSpeculativeExecutionSource() }})
}
