package schemavalidation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBundledFixtures(t *testing.T) {
	cases := []struct {
		name       string
		schemaName string
		fixture    string
	}{
		{"quality-report", QualityReport, "quality-report-sample.json"},
		{"test-result", TestResult, "test-result-sample.json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", tc.fixture))
			require.NoError(t, err)
			assert.NoError(t, Validate(tc.schemaName, data))
		})
	}
}

func TestValidateRejectsUnknownSchema(t *testing.T) {
	err := Validate("does-not-exist.schema.json", []byte(`{}`))
	assert.Error(t, err)
}

func TestValidateRejectsBadGrade(t *testing.T) {
	bad := []byte(`{
		"label": "x", "samples": 10, "unique_values": 5,
		"shannon_entropy": 1, "min_entropy": 1, "compression_ratio": 1,
		"quality_score": 10, "grade": "Z"
	}`)
	assert.Error(t, Validate(QualityReport, bad))
}

func TestValidateValueRoundtrip(t *testing.T) {
	type qualityReport struct {
		Label             string  `json:"label"`
		Samples           int     `json:"samples"`
		UniqueValues      int     `json:"unique_values"`
		ShannonEntropy    float64 `json:"shannon_entropy"`
		MinEntropy        float64 `json:"min_entropy"`
		CompressionRatio  float64 `json:"compression_ratio"`
		QualityScore      float64 `json:"quality_score"`
		Grade             string  `json:"grade"`
	}

	r := qualityReport{
		Label: "thermal_drift", Samples: 512, UniqueValues: 40,
		ShannonEntropy: 3.1, MinEntropy: 2.0, CompressionRatio: 0.4,
		QualityScore: 46.5, Grade: "C",
	}
	assert.NoError(t, ValidateValue(QualityReport, r))
}
