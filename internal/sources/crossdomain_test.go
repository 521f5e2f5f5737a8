package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPUIOBeatSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewCPUIOBeatSource()
	assert.Equal(t, "cpu_io_beat", s.Name())
	assert.True(t, s.Available())

	const n = 64
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestCPUIOBeatSourceSampleHonorsCancellation(t *testing.T) {
	s := NewCPUIOBeatSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.Sample(ctx, 64)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCPUMemoryControllerBeatSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewCPUMemoryControllerBeatSource()
	assert.Equal(t, "cpu_memory_controller_beat", s.Name())
	assert.True(t, s.Available())

	const n = 64
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestCPUKernelBeatSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewCPUKernelBeatSource()
	assert.Equal(t, "cpu_kernel_beat", s.Name())
	assert.True(t, s.Available())

	const n = 64
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestCrossDomainSourcesSelfCheckSucceeds(t *testing.T) {
	require.NoError(t, NewCPUIOBeatSource().SelfCheck(context.Background()))
	require.NoError(t, NewCPUMemoryControllerBeatSource().SelfCheck(context.Background()))
	require.NoError(t, NewCPUKernelBeatSource().SelfCheck(context.Background()))
}
