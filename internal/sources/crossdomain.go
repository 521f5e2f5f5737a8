package sources

import (
	"context"
	"os"
	"runtime"

	"entropic/internal/pool"
)

// CPUIOBeatSource interleaves a pure-CPU spin with a tiny filesystem stat
// call, measuring the beat between the CPU clock domain and the I/O
// completion path; it emits the XOR of consecutive delta LSBs.
type CPUIOBeatSource struct{}

func NewCPUIOBeatSource() *CPUIOBeatSource { return &CPUIOBeatSource{} }

func (s *CPUIOBeatSource) Name() string { return "cpu_io_beat" }

func (s *CPUIOBeatSource) Available() bool { return true }

func (s *CPUIOBeatSource) Sample(ctx context.Context, n int) ([]byte, error) {
	need := n + 1
	deltas := make([]int64, 0, need)
	acc := uint64(0xA5A5A5A5)
	for len(deltas) < need && !ctxDone(ctx) {
		d := beatTimer(func() {
			for i := 0; i < 256; i++ {
				acc = acc*6364136223846793005 + 1
			}
			_, _ = os.Stat(os.Args[0])
		})
		deltas = append(deltas, d.Nanoseconds())
	}
	return clampOvershoot(xorConsecutive(deltas), n), nil
}

func (s *CPUIOBeatSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// CPUMemoryControllerBeatSource interleaves a CPU spin with a large-stride
// memory touch intended to cross into the memory-controller's own clock
// domain, measuring the beat between the two.
type CPUMemoryControllerBeatSource struct {
	buf []byte
}

func NewCPUMemoryControllerBeatSource() *CPUMemoryControllerBeatSource {
	return &CPUMemoryControllerBeatSource{buf: make([]byte, 4*1024*1024)}
}

func (s *CPUMemoryControllerBeatSource) Name() string { return "cpu_memory_controller_beat" }

func (s *CPUMemoryControllerBeatSource) Available() bool { return true }

func (s *CPUMemoryControllerBeatSource) Sample(ctx context.Context, n int) ([]byte, error) {
	need := n + 1
	deltas := make([]int64, 0, need)
	stride := 4096
	offset := 0
	for len(deltas) < need && !ctxDone(ctx) {
		d := beatTimer(func() {
			acc := byte(0)
			for i := 0; i < 64; i++ {
				acc ^= 1
			}
			offset = (offset + stride) % len(s.buf)
			s.buf[offset] ^= acc
		})
		deltas = append(deltas, d.Nanoseconds())
	}
	return clampOvershoot(xorConsecutive(deltas), n), nil
}

func (s *CPUMemoryControllerBeatSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// CPUKernelBeatSource interleaves a CPU spin with a syscall that forces a
// kernel-domain crossing (Gosched plus a getpid-style call), measuring the
// beat between userspace scheduling and the kernel clock domain.
type CPUKernelBeatSource struct{}

func NewCPUKernelBeatSource() *CPUKernelBeatSource { return &CPUKernelBeatSource{} }

func (s *CPUKernelBeatSource) Name() string { return "cpu_kernel_beat" }

func (s *CPUKernelBeatSource) Available() bool { return true }

func (s *CPUKernelBeatSource) Sample(ctx context.Context, n int) ([]byte, error) {
	need := n + 1
	deltas := make([]int64, 0, need)
	for len(deltas) < need && !ctxDone(ctx) {
		d := beatTimer(func() {
			runtime.Gosched()
			_ = os.Getpid()
		})
		deltas = append(deltas, d.Nanoseconds())
	}
	return clampOvershoot(xorConsecutive(deltas), n), nil
}

func (s *CPUKernelBeatSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

func init() {
	pool.Register(pool.Factory{Name: "cpu_io_beat", Category: string(CategoryCrossDomain), New: func() pool.Source { return NewCPUIOBeatSource() }})
	pool.Register(pool.Factory{Name: "cpu_memory_controller_beat", Category: string(CategoryCrossDomain), New: func() pool.Source { return NewCPUMemoryControllerBeatSource() }})
	pool.Register(pool.Factory{Name: "cpu_kernel_beat", Category: string(CategoryCrossDomain), New: func() pool.Source { return NewCPUKernelBeatSource() }})
}
