package battery

import (
	"fmt"
	"math"
)

// monobitFrequency is the classic NIST monobit test: convert bits to
// +-1, sum them, and test the normalized sum against the standard
// normal distribution via erfc.
func monobitFrequency(data []byte) Result {
	bits := bytesToBits(data)
	n := len(bits)
	if n == 0 {
		return newResult("monobit_frequency", 0, 0, "no data")
	}
	sum := 0
	for _, b := range bits {
		if b == 1 {
			sum++
		} else {
			sum--
		}
	}
	stat := math.Abs(float64(sum)) / math.Sqrt(float64(n))
	p := erfcOverSqrt2(stat)
	return newResult("monobit_frequency", p, stat, fmt.Sprintf("sum=%d n=%d", sum, n))
}

const blockFrequencyBlockSize = 128

// blockFrequency splits the bitstream into fixed-size blocks and tests
// whether each block's proportion of ones is consistent with 0.5 via a
// chi-squared statistic.
func blockFrequency(data []byte) Result {
	bits := bytesToBits(data)
	n := len(bits)
	blockSize := blockFrequencyBlockSize
	numBlocks := n / blockSize
	if numBlocks == 0 {
		return newResult("block_frequency", 0, 0, "insufficient data")
	}
	chi2 := 0.0
	for i := 0; i < numBlocks; i++ {
		ones := 0
		for j := 0; j < blockSize; j++ {
			ones += bits[i*blockSize+j]
		}
		pi := float64(ones) / float64(blockSize)
		chi2 += (pi - 0.5) * (pi - 0.5)
	}
	chi2 *= 4.0 * float64(blockSize)
	p := chiSquareSF(chi2, float64(numBlocks))
	return newResult("block_frequency", p, chi2, fmt.Sprintf("blocks=%d block_size=%d", numBlocks, blockSize))
}

// byteFrequency is a whole-byte chi-squared goodness-of-fit test against
// a uniform distribution over all 256 byte values; chiSquaredTest in
// distribution.go delegates directly to this implementation, matching
// the reference suite's literal reuse of the same routine under two
// names.
func byteFrequency(data []byte) Result {
	return byteFrequencyNamed("byte_frequency", data)
}

func byteFrequencyNamed(name string, data []byte) Result {
	n := len(data)
	if n == 0 {
		return newResult(name, 0, 0, "no data")
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	expected := float64(n) / 256.0
	chi2 := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		chi2 += diff * diff / expected
	}
	p := chiSquareSF(chi2, 255)
	return newResult(name, p, chi2, fmt.Sprintf("n=%d expected_per_byte=%.2f", n, expected))
}

// bytesToBits expands a byte slice into an MSB-first bit slice of 0/1 ints.
func bytesToBits(data []byte) []int {
	bits := make([]int, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, int((b>>uint(i))&1))
		}
	}
	return bits
}
