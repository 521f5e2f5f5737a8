package battery

import (
	"fmt"
	"math"
)

const serialMaxBits = 20000

// serialTest is the NIST serial test at block length m=4: it compares
// the observed frequency of every m-bit and (m-1)-bit and (m-2)-bit
// overlapping pattern against the uniform expectation via nested
// psi-squared statistics.
func serialTest(data []byte) Result {
	bits := bytesToBits(data)
	if len(bits) > serialMaxBits {
		bits = bits[:serialMaxBits]
	}
	n := len(bits)
	m := 4
	if n < 1<<uint(m+2) {
		return newResult("serial_test", 0, 0, "insufficient data")
	}

	psiM := psiSquared(bits, m)
	psiM1 := psiSquared(bits, m-1)
	psiM2 := psiSquared(bits, m-2)

	delta1 := psiM - psiM1
	delta2 := psiM - 2*psiM1 + psiM2

	p1 := chiSquareSF(delta1, math.Pow(2, float64(m-1)))
	p2 := chiSquareSF(delta2, math.Pow(2, float64(m-2)))

	p := math.Min(p1, p2)
	return newResult("serial_test", p, delta1, fmt.Sprintf("delta1=%.4f delta2=%.4f p1=%.4f p2=%.4f", delta1, delta2, p1, p2))
}

// psiSquared computes the psi-squared statistic over all cyclically
// overlapping m-bit patterns, per Rukhin's NIST serial test definition.
func psiSquared(bits []int, m int) float64 {
	if m <= 0 {
		return 0
	}
	n := len(bits)
	counts := make(map[int]int)
	extended := make([]int, n+m-1)
	copy(extended, bits)
	copy(extended[n:], bits[:m-1])
	for i := 0; i < n; i++ {
		pattern := 0
		for j := 0; j < m; j++ {
			pattern = pattern<<1 | extended[i+j]
		}
		counts[pattern]++
	}
	total := 0.0
	numPatterns := math.Pow(2, float64(m))
	for _, c := range counts {
		total += float64(c) * float64(c)
	}
	return total*numPatterns/float64(n) - float64(n)
}

const approxEntropyM = 3

// approximateEntropy compares the regularity of overlapping m-bit and
// (m+1)-bit patterns to detect departures from the randomness expected
// of an ideal source.
func approximateEntropy(data []byte) Result {
	bits := bytesToBits(data)
	if len(bits) > serialMaxBits {
		bits = bits[:serialMaxBits]
	}
	n := len(bits)
	m := approxEntropyM
	if n < 1<<uint(m+3) {
		return newResult("approximate_entropy", 0, 0, "insufficient data")
	}

	phiM := phiStat(bits, m)
	phiM1 := phiStat(bits, m+1)

	apEn := phiM - phiM1
	chi2 := 2.0 * float64(n) * (math.Ln2 - apEn)
	p := chiSquareSF(chi2, math.Pow(2, float64(m)))
	return newResult("approximate_entropy", p, apEn, fmt.Sprintf("apen=%.4f n=%d", apEn, n))
}

func phiStat(bits []int, m int) float64 {
	n := len(bits)
	counts := make(map[int]int)
	extended := make([]int, n+m-1)
	copy(extended, bits)
	copy(extended[n:], bits[:m-1])
	for i := 0; i < n; i++ {
		pattern := 0
		for j := 0; j < m; j++ {
			pattern = pattern<<1 | extended[i+j]
		}
		counts[pattern]++
	}
	sum := 0.0
	for _, c := range counts {
		pi := float64(c) / float64(n)
		if pi > 0 {
			sum += pi * math.Log(pi)
		}
	}
	return sum
}
