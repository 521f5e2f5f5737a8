package battery

import (
	"crypto/sha256"
	"fmt"
	"math"
)

// bitAvalancheTest checks the avalanche property: hashing data with a
// single bit flipped should change roughly half of the output's bits.
// It samples a handful of flips rather than every bit position, which
// is sufficient to catch a source whose samples barely perturb a
// downstream hash.
func bitAvalancheTest(data []byte) Result {
	if len(data) < 32 {
		return newResult("bit_avalanche_test", 0, 0, "insufficient data")
	}
	base := sha256.Sum256(data)
	positions := []int{0, len(data) / 4, len(data) / 2, 3 * len(data) / 4, len(data) - 1}
	totalFlipped := 0
	trials := 0
	for _, pos := range positions {
		flipped := append([]byte(nil), data...)
		flipped[pos] ^= 0x01
		variant := sha256.Sum256(flipped)
		diffBits := 0
		for i := range base {
			diffBits += popcount(base[i] ^ variant[i])
		}
		totalFlipped += diffBits
		trials++
	}
	avgFraction := float64(totalFlipped) / float64(trials*256)
	stat := math.Abs(avgFraction - 0.5)
	p := 1.0 - stat*2
	p = clampUnit01(p)
	return newResult("bit_avalanche_test", p, avgFraction, fmt.Sprintf("avg_flip_fraction=%.4f trials=%d", avgFraction, trials))
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// monteCarloPi estimates pi by treating consecutive byte pairs as
// (x, y) coordinates in a unit square and measuring the fraction
// falling inside the inscribed circle; the relative error against the
// true value of pi is graded directly.
func monteCarloPi(data []byte) Result {
	n := len(data) / 2
	if n < 100 {
		return newResult("monte_carlo_pi", 0, 0, "insufficient data")
	}
	inside := 0
	for i := 0; i < n; i++ {
		x := float64(data[2*i]) / 255.0
		y := float64(data[2*i+1]) / 255.0
		if x*x+y*y <= 1.0 {
			inside++
		}
	}
	estimate := 4.0 * float64(inside) / float64(n)
	relError := math.Abs(estimate-math.Pi) / math.Pi
	p := 1.0 - relError
	p = clampUnit01(p)
	return newResult("monte_carlo_pi", p, estimate, fmt.Sprintf("estimate=%.4f true=%.4f n=%d", estimate, math.Pi, n))
}

// meanVarianceTest checks the byte stream's empirical mean and variance
// against the values expected of a discrete uniform distribution over
// [0, 255] (mean 127.5, variance 5461.25).
func meanVarianceTest(data []byte) Result {
	n := len(data)
	if n < 30 {
		return newResult("mean_variance_test", 0, 0, "insufficient data")
	}
	mean, variance := meanAndVariance(data)
	expectedMean := 127.5
	expectedVariance := 5461.25

	meanStderr := math.Sqrt(expectedVariance / float64(n))
	meanZ := (mean - expectedMean) / meanStderr
	meanP := erfcOverSqrt2(math.Abs(meanZ) / math.Sqrt2)

	varianceRatio := variance / expectedVariance
	varianceDeviation := math.Abs(varianceRatio - 1.0)
	varianceP := clampUnit01(1.0 - varianceDeviation)

	p := math.Min(meanP, varianceP)
	return newResult("mean_variance_test", p, mean, fmt.Sprintf("mean=%.4f variance=%.4f", mean, variance))
}
