package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLSBReturnsLowByteOfValue(t *testing.T) {
	assert.Equal(t, byte(0x34), lsb(0x1234))
	assert.Equal(t, byte(0), lsb(256))
	assert.Equal(t, byte(1), lsb(-255))
}

func TestXORConsecutiveDecorrelatesAdjacentDeltas(t *testing.T) {
	deltas := []int64{10, 20, 20, 5}
	out := xorConsecutive(deltas)
	want := []byte{lsb(20) ^ lsb(10), lsb(20) ^ lsb(20), lsb(5) ^ lsb(20)}
	assert.Equal(t, want, out)
}

func TestXORConsecutiveNeedsAtLeastTwoDeltas(t *testing.T) {
	assert.Nil(t, xorConsecutive(nil))
	assert.Nil(t, xorConsecutive([]int64{1}))
}

func TestClampOvershootEnforcesFiftyPercentBound(t *testing.T) {
	data := make([]byte, 100)
	clamped := clampOvershoot(data, 10)
	assert.Len(t, clamped, 15)
}

func TestClampOvershootPassesThroughWhenWithinBound(t *testing.T) {
	data := make([]byte, 12)
	clamped := clampOvershoot(data, 10)
	assert.Len(t, clamped, 12)
}

func TestClampOvershootHandlesZeroN(t *testing.T) {
	data := make([]byte, 3)
	clamped := clampOvershoot(data, 0)
	assert.Len(t, clamped, 0)
}

func TestCompressReturnsNonNegativeLengthOnEmptyInput(t *testing.T) {
	assert.GreaterOrEqual(t, compress(nil, 6), 0)
}
