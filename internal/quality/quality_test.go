package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickQualityInsufficientData(t *testing.T) {
	r := QuickQuality(make([]byte, 8), "short")
	assert.True(t, r.Insufficient)
	assert.Equal(t, GradeF, r.Grade)
	assert.Equal(t, "insufficient", r.Reason)
}

func TestConstantStreamGradesF(t *testing.T) {
	data := make([]byte, 10000)
	r := QuickQuality(data, "constant")
	assert.InDelta(t, 0, r.ShannonEntropy, 1e-9)
	assert.InDelta(t, 0, r.MinEntropy, 1e-9)
	assert.Less(t, r.CompressionRatio, 0.05)
	assert.Equal(t, GradeF, r.Grade)
	assert.Less(t, r.QualityScore, 20.0)
}

func TestUniformStreamGradesA(t *testing.T) {
	// bytes 0..255 repeated 40 times: per-byte distribution is perfectly
	// uniform (Shannon/min-entropy near the 8-bit ceiling) even though the
	// exact periodicity makes it LZ77-compressible; the composite score
	// still clears the grade-A threshold because entropy and unique-value
	// coverage dominate it.
	data := make([]byte, 0, 256*40)
	for i := 0; i < 40; i++ {
		for b := 0; b < 256; b++ {
			data = append(data, byte(b))
		}
	}
	r := QuickQuality(data, "uniform")
	assert.GreaterOrEqual(t, r.ShannonEntropy, 7.99)
	assert.GreaterOrEqual(t, r.MinEntropy, 7.99)
	assert.Equal(t, 256, r.UniqueValues)
	assert.Equal(t, GradeA, r.Grade)
	assert.GreaterOrEqual(t, r.QualityScore, 80.0)
}

func TestGradeFromScoreThresholds(t *testing.T) {
	assert.Equal(t, GradeA, GradeFromScore(80))
	assert.Equal(t, GradeB, GradeFromScore(60))
	assert.Equal(t, GradeC, GradeFromScore(40))
	assert.Equal(t, GradeD, GradeFromScore(20))
	assert.Equal(t, GradeF, GradeFromScore(19.9))
}

func TestCompressionRatioTooShort(t *testing.T) {
	assert.Equal(t, 0.0, CompressionRatio([]byte("abc")))
}

func TestMinEntropyNeverExceedsShannon(t *testing.T) {
	data := []byte{0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17}
	h := Shannon(data)
	minH := MinEntropy(data)
	assert.LessOrEqual(t, minH, h+1e-9)
}
