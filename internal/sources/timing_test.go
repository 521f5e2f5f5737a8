package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockJitterSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewClockJitterSource()
	assert.Equal(t, "clock_jitter", s.Name())
	assert.True(t, s.Available())

	const n = 256
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestClockJitterSourceSampleHonorsCancellation(t *testing.T) {
	s := NewClockJitterSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.Sample(ctx, 1024)
	require.NoError(t, err)
	assert.Empty(t, out, "a cancelled context should short-circuit before any sample is taken")
}

func TestClockJitterSourceSelfCheckSucceeds(t *testing.T) {
	s := NewClockJitterSource()
	assert.NoError(t, s.SelfCheck(context.Background()))
}

func TestSchedulerJitterSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewSchedulerJitterSource()
	assert.Equal(t, "scheduler_jitter", s.Name())

	const n = 128
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

// fakeCounterSnapshot lets KernelCounterDeltaSource be tested without
// depending on a real /proc or runtime counter advancing during the test.
func fakeCounterSnapshot(counter *int64) func() map[string]int64 {
	return func() map[string]int64 {
		*counter++
		return map[string]int64{"a": *counter, "b": *counter * 2}
	}
}

func TestKernelCounterDeltaSourceSampleProducesBytes(t *testing.T) {
	var counter int64
	s := &KernelCounterDeltaSource{snapshot: fakeCounterSnapshot(&counter), gap: time.Millisecond}
	assert.Equal(t, "kernel_counter_delta", s.Name())
	assert.True(t, s.Available())

	const n = 16
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestKernelCounterDeltaSourceAvailableFalseOnEmptySnapshot(t *testing.T) {
	s := &KernelCounterDeltaSource{snapshot: func() map[string]int64 { return nil }, gap: time.Millisecond}
	assert.False(t, s.Available())
}

func TestVMStatisticsSourceDelegatesToInner(t *testing.T) {
	var counter int64
	s := &VMStatisticsSource{inner: &KernelCounterDeltaSource{snapshot: fakeCounterSnapshot(&counter), gap: time.Millisecond}}
	assert.Equal(t, "vm_statistics", s.Name())
	assert.True(t, s.Available())

	out, err := s.Sample(context.Background(), 8)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	require.NoError(t, s.SelfCheck(context.Background()))
}
