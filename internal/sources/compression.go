package sources

import (
	"context"
	"crypto/rand"
	"time"

	"entropic/internal/pool"
)

// CompressionTimingSource compresses short buffers of mixed origin at a
// fixed deflate level and emits the XOR of consecutive delta LSBs, a
// workload whose duration is shaped by branch-predictor and cache state
// rather than the compressed bytes themselves.
type CompressionTimingSource struct{}

func NewCompressionTimingSource() *CompressionTimingSource { return &CompressionTimingSource{} }

func (s *CompressionTimingSource) Name() string { return "compression_timing" }

func (s *CompressionTimingSource) Available() bool { return true }

func (s *CompressionTimingSource) Sample(ctx context.Context, n int) ([]byte, error) {
	need := n + 1
	deltas := make([]int64, 0, need)

	buf := make([]byte, 2048)
	_, _ = rand.Read(buf)

	for len(deltas) < need && !ctxDone(ctx) {
		// Mutate the buffer slightly each round so the compressor sees
		// mixed-origin content rather than one static payload.
		buf[len(deltas)%len(buf)] ^= 0x5A

		start := time.Now()
		_ = compress(buf, 6)
		deltas = append(deltas, time.Since(start).Nanoseconds())
	}
	return clampOvershoot(xorConsecutive(deltas), n), nil
}

func (s *CompressionTimingSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

// HashTimingSource iteratively hashes a self-updating buffer (each
// round's output feeds the next round's input) and emits delta LSBs of
// the hashing call's wall time.
type HashTimingSource struct{}

func NewHashTimingSource() *HashTimingSource { return &HashTimingSource{} }

func (s *HashTimingSource) Name() string { return "hash_timing" }

func (s *HashTimingSource) Available() bool { return true }

func (s *HashTimingSource) Sample(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, 32)
	for len(out) < n && !ctxDone(ctx) {
		start := time.Now()
		sum := sha256Sum(buf)
		elapsed := time.Since(start)
		buf = sum[:]
		out = append(out, lsb(elapsed.Nanoseconds()))
	}
	return clampOvershoot(out, n), nil
}

func (s *HashTimingSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, selfCheckSampleSize)
	return err
}

func init() {
	pool.Register(pool.Factory{Name: "compression_timing", Category: string(CategoryTiming), New: func() pool.Source { return NewCompressionTimingSource() }})
	pool.Register(pool.Factory{Name: "hash_timing", Category: string(CategoryTiming), New: func() pool.Source { return NewHashTimingSource() }})
}
