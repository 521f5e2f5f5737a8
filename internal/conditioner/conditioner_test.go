package conditioner

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedVectorBlockMatchesKnownHash(t *testing.T) {
	var state [StateSize]byte
	var mix [8]byte

	got := FixedVectorBlock(state, []byte("abc"), 1, 0, mix)

	want, err := hex.DecodeString("e6b836e9ebf84d720cbe1af99747d1c7b20710c04451ba5752e1ebf8cd82f021")
	require.NoError(t, err)
	assert.Equal(t, want, got[:])
}

func TestExtractorBlockMatchesFixedVector(t *testing.T) {
	var state [StateSize]byte
	e := NewExtractor(state,
		func(n int) ([]byte, error) { return make([]byte, n), nil },
		func() int64 { return 0 },
	)

	block, err := e.Block([]byte("abc"))
	require.NoError(t, err)

	want, err := hex.DecodeString("e6b836e9ebf84d720cbe1af99747d1c7b20710c04451ba5752e1ebf8cd82f021")
	require.NoError(t, err)
	assert.Equal(t, want, block[:])
	assert.Equal(t, uint64(1), e.Counter())
	assert.Equal(t, block, e.State())
}

func TestExtractorStateNeverReverts(t *testing.T) {
	var state [StateSize]byte
	e := NewExtractor(state,
		func(n int) ([]byte, error) { return make([]byte, n), nil },
		func() int64 { return 0 },
	)

	b1, err := e.Block([]byte("first"))
	require.NoError(t, err)
	assert.Equal(t, b1, e.State())

	b2, err := e.Block([]byte("second"))
	require.NoError(t, err)
	assert.NotEqual(t, b1, b2)
	assert.Equal(t, b2, e.State())
}

func TestVonNeumannEmitsOneBitPerDiscordantPair(t *testing.T) {
	// 0b01011010: pairs (0,1)->0 (0,1)->0 (1,0)->1 (1,0)->1
	r := VonNeumannDebias([]byte{0x5A})
	assert.Equal(t, 8, r.InputBits)
	assert.Equal(t, 4, r.OutputBits)
}

func TestVonNeumannBiasedBitstreamConvergesToHalf(t *testing.T) {
	// 10000 bits with p(1)=0.7, packed into 1250 bytes, via a simple LCG
	// so the test is deterministic without depending on crypto/rand.
	bits := make([]byte, 1250)
	state := uint32(12345)
	for i := 0; i < 10000; i++ {
		state = state*1664525 + 1013904223
		bit := byte(0)
		if float64(state%1000)/1000.0 < 0.7 {
			bit = 1
		}
		bits[i/8] |= bit << uint(7-i%8)
	}

	r := VonNeumannDebias(bits)
	require.GreaterOrEqual(t, r.OutputBits, 500)

	ones := 0
	total := 0
	for i := 0; i < r.OutputBits; i++ {
		byteIdx := i / 8
		bitIdx := 7 - i%8
		if (r.Output[byteIdx]>>uint(bitIdx))&1 == 1 {
			ones++
		}
		total++
	}
	mean := float64(ones) / float64(total)
	assert.Less(t, math.Abs(mean-0.5), 0.05)
}

func TestXORFoldTruncatesRemainder(t *testing.T) {
	out := XORFold([]byte{1, 2, 3, 4, 5}, 2)
	assert.Equal(t, []byte{1 ^ 2, 3 ^ 4}, out)
}

func TestExtractProducesExactlyNBytes(t *testing.T) {
	var state [StateSize]byte
	e := NewExtractor(state,
		func(n int) ([]byte, error) { return make([]byte, n), nil },
		func() int64 { return 0 },
	)
	out, consumed, err := e.Extract([]byte("some raw buffer contents here"), 50)
	require.NoError(t, err)
	assert.Len(t, out, 50)
	assert.Equal(t, 29, consumed)
}

func TestConditionerIdempotenceIsNegativeTest(t *testing.T) {
	// Two extractors seeded identically but drawing from the real system
	// CSPRNG must diverge on their very first block.
	var state [StateSize]byte
	e1 := NewExtractor(state, RealCSPRNG, RealClock)
	e2 := NewExtractor(state, RealCSPRNG, RealClock)

	b1, err := e1.Block(nil)
	require.NoError(t, err)
	b2, err := e2.Block(nil)
	require.NoError(t, err)
	assert.NotEqual(t, b1, b2)
}
