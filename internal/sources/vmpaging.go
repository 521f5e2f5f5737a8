package sources

import (
	"context"
	"time"

	"entropic/internal/pool"
)

// VMPageTimingSource repeatedly maps, touches, and unmaps a page and
// emits the XOR of consecutive delta LSBs. The actual map/unmap
// primitive is platform-specific; platformMapTouchUnmap performs one
// full cycle and returns its duration.
type VMPageTimingSource struct{}

func NewVMPageTimingSource() *VMPageTimingSource { return &VMPageTimingSource{} }

func (s *VMPageTimingSource) Name() string { return "vm_page_timing" }

func (s *VMPageTimingSource) Available() bool { return platformMapTouchUnmapAvailable() }

func (s *VMPageTimingSource) Sample(ctx context.Context, n int) ([]byte, error) {
	if !s.Available() {
		return []byte{}, nil
	}
	need := n + 1
	deltas := make([]int64, 0, need)
	for len(deltas) < need && !ctxDone(ctx) {
		d, err := platformMapTouchUnmap()
		if err != nil {
			break
		}
		deltas = append(deltas, d.Nanoseconds())
	}
	return clampOvershoot(xorConsecutive(deltas), n), nil
}

func (s *VMPageTimingSource) SelfCheck(ctx context.Context) error {
	_, err := s.Sample(ctx, 256)
	return err
}

// beatTimer measures the duration between two timestamps taken around
// fn, used by the cross-domain beat sources in crossdomain.go.
func beatTimer(fn func()) time.Duration {
	return timeIt(fn)
}

func init() {
	pool.Register(pool.Factory{Name: "vm_page_timing", Category: string(CategoryHardware), New: func() pool.Source { return NewVMPageTimingSource() }})
}
