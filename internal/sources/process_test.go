package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessTableSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewProcessTableSource()
	assert.Equal(t, "process_table", s.Name())
	assert.True(t, s.Available())

	const n = 64
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestProcessTableSourceSampleHonorsCancellation(t *testing.T) {
	s := NewProcessTableSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.Sample(ctx, 64)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProcessSnapshotIncludesPID(t *testing.T) {
	snap := processSnapshot()
	assert.Contains(t, snap, "pid=")
	assert.Contains(t, snap, "goroutines=")
}

func TestDispatchQueueSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewDispatchQueueSource()
	assert.Equal(t, "dispatch_queue", s.Name())
	assert.True(t, s.Available())

	const n = 64
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestDispatchQueueSourceSelfCheckSucceeds(t *testing.T) {
	s := NewDispatchQueueSource()
	assert.NoError(t, s.SelfCheck(context.Background()))
}
