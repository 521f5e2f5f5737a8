package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionTimingSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewCompressionTimingSource()
	assert.Equal(t, "compression_timing", s.Name())
	assert.True(t, s.Available())

	const n = 64
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestCompressionTimingSourceSampleHonorsCancellation(t *testing.T) {
	s := NewCompressionTimingSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.Sample(ctx, 64)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCompressionTimingSourceSelfCheckSucceeds(t *testing.T) {
	s := NewCompressionTimingSource()
	assert.NoError(t, s.SelfCheck(context.Background()))
}

func TestHashTimingSourceSampleRespectsOvershootBound(t *testing.T) {
	s := NewHashTimingSource()
	assert.Equal(t, "hash_timing", s.Name())
	assert.True(t, s.Available())

	const n = 64
	out, err := s.Sample(context.Background(), n)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), n+n/2)
}

func TestHashTimingSourceSelfCheckSucceeds(t *testing.T) {
	s := NewHashTimingSource()
	assert.NoError(t, s.SelfCheck(context.Background()))
}

func TestCompressHelperReturnsShorterOutputForRepetitiveInput(t *testing.T) {
	repetitive := make([]byte, 4096)
	compressed := compress(repetitive, 6)
	assert.Less(t, compressed, len(repetitive))
}
