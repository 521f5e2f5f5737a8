package battery

import (
	"fmt"
	"math"
)

// runsTest is the NIST runs test: counts the number of runs (maximal
// sequences of identical bits) and compares it against the expected
// count under randomness, gated by a proportion-of-ones pre-check.
func runsTest(data []byte) Result {
	bits := bytesToBits(data)
	n := len(bits)
	if n < 2 {
		return newResult("runs_test", 0, 0, "insufficient data")
	}
	ones := 0
	for _, b := range bits {
		ones += b
	}
	pi := float64(ones) / float64(n)
	if math.Abs(pi-0.5) >= 2.0/math.Sqrt(float64(n)) {
		return newResult("runs_test", 0, 0, fmt.Sprintf("proportion pre-check failed: pi=%.4f", pi))
	}
	runs := 1
	for i := 1; i < n; i++ {
		if bits[i] != bits[i-1] {
			runs++
		}
	}
	expected := 2*float64(n)*pi*(1-pi)
	variance := math.Sqrt(2 * float64(n)) * pi * (1 - pi) * 2
	if variance == 0 {
		return newResult("runs_test", 0, 0, "degenerate variance")
	}
	stat := math.Abs(float64(runs)-expected) / variance
	p := erfcOverSqrt2(stat)
	return newResult("runs_test", p, stat, fmt.Sprintf("runs=%d expected=%.2f pi=%.4f", runs, expected, pi))
}

const longestRunBlockM = 8

// longestRunOfOnes divides the bitstream into M-bit blocks, measures the
// longest run of ones in each, and compares the resulting category
// frequencies against the NIST theoretical probabilities for M=8 via a
// chi-squared statistic.
func longestRunOfOnes(data []byte) Result {
	bits := bytesToBits(data)
	m := longestRunBlockM
	numBlocks := len(bits) / m
	if numBlocks < 16 {
		return newResult("longest_run_of_ones", 0, 0, "insufficient data")
	}
	// categories: runs of length <=1, 2, 3, >=4 (NIST M=8 categories)
	probs := []float64{0.2148, 0.3672, 0.2305, 0.1875}
	var v [4]int
	for i := 0; i < numBlocks; i++ {
		block := bits[i*m : (i+1)*m]
		longest, current := 0, 0
		for _, b := range block {
			if b == 1 {
				current++
				if current > longest {
					longest = current
				}
			} else {
				current = 0
			}
		}
		switch {
		case longest <= 1:
			v[0]++
		case longest == 2:
			v[1]++
		case longest == 3:
			v[2]++
		default:
			v[3]++
		}
	}
	chi2 := 0.0
	for i, p := range probs {
		expected := float64(numBlocks) * p
		diff := float64(v[i]) - expected
		chi2 += diff * diff / expected
	}
	p := chiSquareSF(chi2, 3)
	return newResult("longest_run_of_ones", p, chi2, fmt.Sprintf("blocks=%d v=%v", numBlocks, v))
}
