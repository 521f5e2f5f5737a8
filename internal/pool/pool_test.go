package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource is a deterministic, injectable Source for pool tests.
type stubSource struct {
	name  string
	delay time.Duration
	fn    func(ctx context.Context, n int) ([]byte, error)
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Sample(ctx context.Context, n int) ([]byte, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fn != nil {
		return s.fn(ctx, n)
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out, nil
}

func (s *stubSource) SelfCheck(ctx context.Context) error { return nil }

func zeroCSPRNG(n int) ([]byte, error) { return make([]byte, n), nil }

func zeroClock() int64 { return 0 }

func TestNewSeedsDeterministicallyFromInjectedCSPRNG(t *testing.T) {
	p1, err := newPool([]byte("seed"), zeroCSPRNG, zeroClock)
	require.NoError(t, err)
	p2, err := newPool([]byte("seed"), zeroCSPRNG, zeroClock)
	require.NoError(t, err)
	assert.Equal(t, p1.extractor.State(), p2.extractor.State())
}

func TestAddSourceRejectsDuplicateName(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)

	require.NoError(t, p.AddSource(&stubSource{name: "dup"}, 1.0))
	err = p.AddSource(&stubSource{name: "dup"}, 1.0)
	assert.ErrorIs(t, err, ErrDuplicateSource)
	assert.Len(t, p.Sources(), 1)
}

func TestCollectAllZeroSourcesReturnsZero(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)

	n, err := p.CollectAll(false, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, p.BufferLen())
}

func TestCollectAllSequentialUpdatesHealthyState(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, p.AddSource(&stubSource{name: "good"}, 1.0))
	require.NoError(t, p.AddSource(&stubSource{
		name: "silent",
		fn:   func(ctx context.Context, n int) ([]byte, error) { return nil, nil },
	}, 1.0))

	n, err := p.CollectAll(false, time.Second)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	descs := p.Sources()
	var good, silent Descriptor
	for _, d := range descs {
		switch d.Name {
		case "good":
			good = d
		case "silent":
			silent = d
		}
	}
	assert.True(t, good.Healthy)
	assert.Greater(t, good.TotalBytes, int64(0))
	assert.False(t, silent.Healthy)
	assert.Equal(t, int64(1), silent.Failures)
}

func TestCollectAllParallelDeadlineAbandonsSlowSource(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)

	require.NoError(t, p.AddSource(&stubSource{
		name:  "fast",
		delay: 10 * time.Millisecond,
		fn:    func(ctx context.Context, n int) ([]byte, error) { return make([]byte, 100), nil },
	}, 1.0))
	require.NoError(t, p.AddSource(&stubSource{
		name:  "slow",
		delay: 60 * time.Second,
	}, 1.0))

	start := time.Now()
	n, err := p.CollectAll(true, 200*time.Millisecond)
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, 2500*time.Millisecond)
	assert.GreaterOrEqual(t, n, 100)

	var fast, slow Descriptor
	for _, d := range p.Sources() {
		switch d.Name {
		case "fast":
			fast = d
		case "slow":
			slow = d
		}
	}
	assert.GreaterOrEqual(t, fast.TotalBytes, int64(100))
	assert.Equal(t, int64(0), slow.TotalBytes)
	assert.Equal(t, int64(0), slow.Failures)
	assert.True(t, slow.Healthy)

	// Subsequent calls still succeed.
	n2, err := p.CollectAll(false, time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n2, 100)
}

func TestGetBytesRejectsNegativeLength(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	_, err = p.GetBytes(-1, ModeSHA256)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestGetBytesRejectsUnknownMode(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	_, err = p.GetBytes(8, Mode("nonsense"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestGetBytesZeroReturnsEmpty(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	out, err := p.GetBytes(0, ModeSHA256)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetRandomBytesWithNoSourcesStillProducesOutput(t *testing.T) {
	// Open question resolution: an empty buffer does not block sha256
	// mode; the extractor mixes in an empty sample chunk.
	p, err := New(nil)
	require.NoError(t, err)
	out, err := p.GetRandomBytes(32)
	require.NoError(t, err)
	assert.Len(t, out, 32)
}

func TestGetRandomBytesTopsUpFromSources(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, p.AddSource(&stubSource{name: "s1"}, 1.0))

	out, err := p.GetRandomBytes(64)
	require.NoError(t, err)
	assert.Len(t, out, 64)
}

func TestGetRawBytesDoesNotRefillBeyondOneTopUp(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	// No sources registered: CollectAll appends nothing, so raw bytes
	// come back zero-padded rather than blocking forever.
	out, err := p.GetRawBytes(16)
	require.NoError(t, err)
	assert.Len(t, out, 16)
	for _, b := range out {
		assert.Equal(t, byte(0), b)
	}
}

func TestConditionerIdempotenceAcrossPoolsIsNegativeTest(t *testing.T) {
	var seed [32]byte
	p1, err := New(seed[:])
	require.NoError(t, err)
	p2, err := New(seed[:])
	require.NoError(t, err)

	b1, err := p1.GetRandomBytes(32)
	require.NoError(t, err)
	b2, err := p2.GetRandomBytes(32)
	require.NoError(t, err)
	assert.NotEqual(t, b1, b2)
}

func TestHealthReportCountsHealthySources(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, p.AddSource(&stubSource{name: "good"}, 1.0))
	require.NoError(t, p.AddSource(&stubSource{
		name: "bad",
		fn:   func(ctx context.Context, n int) ([]byte, error) { return nil, errors.New("boom") },
	}, 1.0))

	_, err = p.CollectAll(false, time.Second)
	require.NoError(t, err)

	report := p.HealthReport()
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Healthy)
	assert.Contains(t, report.String(), "good")
	assert.Contains(t, report.String(), "bad")
}

func TestVonNeumannModeConverges(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, p.AddSource(&stubSource{
		name: "biased",
		fn: func(ctx context.Context, n int) ([]byte, error) {
			out := make([]byte, n)
			for i := range out {
				out[i] = 0x55 // 01010101: alternating, maximal VN yield
			}
			return out, nil
		},
	}, 1.0))

	out, err := p.GetBytes(64, ModeVonNeumann)
	require.NoError(t, err)
	assert.Len(t, out, 64)
}
