package battery

import (
	"fmt"
	"math"
	"math/cmplx"
)

const spectralMaxBits = 10000

// dftSpectral converts bits to +-1 and looks for periodic structure by
// checking how many DFT magnitude peaks exceed the 95% confidence
// threshold expected under randomness, per the NIST discrete Fourier
// transform test.
func dftSpectral(data []byte) Result {
	bits := bytesToBits(data)
	if len(bits) > spectralMaxBits {
		bits = bits[:spectralMaxBits]
	}
	n := pow2Floor(len(bits))
	if n < 16 {
		return newResult("dft_spectral", 0, 0, "insufficient data")
	}
	samples := make([]complex128, n)
	for i := 0; i < n; i++ {
		if bits[i] == 1 {
			samples[i] = complex(1, 0)
		} else {
			samples[i] = complex(-1, 0)
		}
	}
	spectrum := fft(samples)
	half := n / 2
	magnitudes := make([]float64, half)
	for i := 0; i < half; i++ {
		magnitudes[i] = cmplx.Abs(spectrum[i])
	}
	threshold := math.Sqrt(math.Log(1.0/0.05) * float64(n))
	peaks := 0
	for _, m := range magnitudes {
		if m < threshold {
			peaks++
		}
	}
	expected := 0.95 * float64(half)
	variance := float64(n) * 0.95 * 0.05 / 4.0
	if variance == 0 {
		return newResult("dft_spectral", 0, 0, "degenerate variance")
	}
	stat := (float64(peaks) - expected) / math.Sqrt(variance)
	p := erfcOverSqrt2(math.Abs(stat))
	return newResult("dft_spectral", p, stat, fmt.Sprintf("peaks=%d expected=%.2f n=%d", peaks, expected, n))
}

// spectralFlatness computes the ratio of the geometric mean to the
// arithmetic mean of the DFT power spectrum; pure noise has flatness
// near 1, periodic signals well below it.
func spectralFlatness(data []byte) Result {
	bits := bytesToBits(data)
	if len(bits) > spectralMaxBits {
		bits = bits[:spectralMaxBits]
	}
	n := pow2Floor(len(bits))
	if n < 16 {
		return newResult("spectral_flatness", 0, 0, "insufficient data")
	}
	samples := make([]complex128, n)
	for i := 0; i < n; i++ {
		if bits[i] == 1 {
			samples[i] = complex(1, 0)
		} else {
			samples[i] = complex(-1, 0)
		}
	}
	spectrum := fft(samples)
	half := n / 2
	power := make([]float64, half)
	for i := 0; i < half; i++ {
		mag := cmplx.Abs(spectrum[i])
		power[i] = mag*mag + 1e-12
	}
	logSum := 0.0
	arithSum := 0.0
	for _, pw := range power {
		logSum += math.Log(pw)
		arithSum += pw
	}
	geoMean := math.Exp(logSum / float64(half))
	arithMean := arithSum / float64(half)
	flatness := geoMean / arithMean

	stat := flatness
	p := flatness
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return newResult("spectral_flatness", p, stat, fmt.Sprintf("flatness=%.4f n=%d", flatness, n))
}

// pow2Floor returns the largest power of two not exceeding n, so the FFT
// below never needs to pad or handle non-power-of-two lengths.
func pow2Floor(n int) int {
	if n <= 0 {
		return 0
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// fft is an iterative radix-2 Cooley-Tukey transform that works on a
// copy of x and returns it, leaving x unchanged. len(x) must be a power
// of two; callers ensure this via pow2Floor.
func fft(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	copy(out, x)
	// bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j &^= bit
		}
		j |= bit
		if i < j {
			out[i], out[j] = out[j], out[i]
		}
	}
	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wlen := cmplx.Rect(1, angle)
		for i := 0; i < n; i += length {
			w := complex(1.0, 0.0)
			for j := 0; j < length/2; j++ {
				u := out[i+j]
				v := out[i+j+length/2] * w
				out[i+j] = u + v
				out[i+j+length/2] = u - v
				w *= wlen
			}
		}
	}
	return out
}
