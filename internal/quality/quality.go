// Package quality estimates the statistical quality of a byte sample:
// Shannon entropy, min-entropy, compressibility, and a composite score
// graded A through F. It is used both inline by sources (self-check) and
// on demand against pool output.
package quality

import (
	"bytes"
	"compress/flate"
	"math"
)

// minSamples is the smallest sample size quick_quality will grade; shorter
// samples are reported as grade F with Insufficient set.
const minSamples = 16

// Grade is a letter grade in {A, B, C, D, F}.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Report is an immutable quality characterization of a byte sample.
type Report struct {
	Label            string  `json:"label"`
	Samples          int     `json:"samples"`
	UniqueValues     int     `json:"unique_values"`
	ShannonEntropy   float64 `json:"shannon_entropy"`
	MinEntropy       float64 `json:"min_entropy"`
	CompressionRatio float64 `json:"compression_ratio"`
	QualityScore     float64 `json:"quality_score"`
	Grade            Grade   `json:"grade"`
	Insufficient     bool    `json:"insufficient,omitempty"`
	Reason           string  `json:"reason,omitempty"`
}

// Shannon computes the empirical Shannon entropy, in bits/byte, of data.
// A 1e-15 term is added inside the logarithm to avoid -Inf at zero
// probability for byte values that never occur.
func Shannon(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	n := float64(len(data))
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p+1e-15)
	}
	return h
}

// MinEntropy computes min-entropy in bits/byte: -log2(max probability).
func MinEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	n := float64(len(data))
	maxP := 0.0
	for _, c := range counts {
		p := float64(c) / n
		if p > maxP {
			maxP = p
		}
	}
	return -math.Log2(maxP + 1e-15)
}

// CompressionRatio compresses data with deflate at the maximum level and
// returns compressed_size/original_size: values near 1 indicate
// incompressible (high-quality) data, values near 0 indicate heavily
// redundant data. Inputs shorter than 10 bytes return 0, matching the
// reference implementation's "too short to be meaningful" guard.
func CompressionRatio(data []byte) float64 {
	if len(data) < 10 {
		return 0
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return 0
	}
	if _, err := w.Write(data); err != nil {
		return 0
	}
	if err := w.Close(); err != nil {
		return 0
	}

	if buf.Len() == 0 {
		return 0
	}
	return float64(buf.Len()) / float64(len(data))
}

// uniqueValues counts distinct byte values present in data.
func uniqueValues(data []byte) int {
	var seen [256]bool
	n := 0
	for _, b := range data {
		if !seen[b] {
			seen[b] = true
			n++
		}
	}
	return n
}

// GradeFromScore maps a 0..100 quality score to a letter grade using the
// thresholds A>=80, B>=60, C>=40, D>=20, else F.
func GradeFromScore(score float64) Grade {
	switch {
	case score >= 80:
		return GradeA
	case score >= 60:
		return GradeB
	case score >= 40:
		return GradeC
	case score >= 20:
		return GradeD
	default:
		return GradeF
	}
}

// QuickQuality runs the quality estimator over data and returns a Report.
// Samples shorter than 16 bytes return grade F with Insufficient set
// rather than a numerically meaningless report.
func QuickQuality(data []byte, label string) Report {
	if len(data) < minSamples {
		return Report{
			Label:        label,
			Samples:      len(data),
			Grade:        GradeF,
			Insufficient: true,
			Reason:       "insufficient",
		}
	}

	h := Shannon(data)
	minH := MinEntropy(data)
	ratio := CompressionRatio(data)
	unique := uniqueValues(data)

	score := 60*h/8 + 20*math.Min(ratio, 1) + 20*math.Min(float64(unique)/256, 1)
	score = math.Round(score*10) / 10

	return Report{
		Label:            label,
		Samples:          len(data),
		UniqueValues:     unique,
		ShannonEntropy:   h,
		MinEntropy:       minH,
		CompressionRatio: ratio,
		QualityScore:     score,
		Grade:            GradeFromScore(score),
	}
}

// ErrorReport builds a grade-F report for a sampling attempt that itself
// failed, preserving the failure detail in Reason. Source SelfCheck
// methods return a plain error and do not build this report.
func ErrorReport(label, reason string) Report {
	return Report{
		Label:  label,
		Grade:  GradeF,
		Reason: reason,
	}
}
