package battery

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunAllConstantStreamFails feeds an all-zero stream through the
// full battery: a constant stream should fail the overwhelming majority
// of tests and score far below an acceptable quality threshold.
func TestRunAllConstantStreamFails(t *testing.T) {
	data := make([]byte, 16384)
	summary := RunAll(data)
	require.Len(t, summary.Results, len(registeredTests))
	assert.Less(t, summary.Score, 30.0, "constant data should score poorly")
	assert.Greater(t, summary.Failed, summary.Passed, "constant data should fail more tests than it passes")
}

// TestRunAllUniformStreamPasses feeds a cryptographically random stream
// through the full battery: it should pass the large majority of tests
// and clear a respectable overall score.
func TestRunAllUniformStreamPasses(t *testing.T) {
	data := make([]byte, 65536)
	_, err := rand.Read(data)
	require.NoError(t, err)

	summary := RunAll(data)
	require.Len(t, summary.Results, len(registeredTests))
	assert.GreaterOrEqual(t, summary.Score, 60.0, "uniform random data should score well: failed=%v", summary.FailedNames())
	assert.GreaterOrEqual(t, summary.Passed, len(registeredTests)*3/4)
}

// TestRunAllRecoversFromPanickingTest verifies that a test panicking
// mid-run is converted into a synthetic F-grade result rather than
// aborting the whole battery.
func TestRunAllRecoversFromPanickingTest(t *testing.T) {
	original := registeredTests
	defer func() { registeredTests = original }()

	registeredTests = append([]namedTest{}, original...)
	registeredTests = append(registeredTests, namedTest{
		name: "panicking_test",
		fn: func(data []byte) Result {
			panic("synthetic failure")
		},
	})

	data := make([]byte, 1024)
	_, err := rand.Read(data)
	require.NoError(t, err)

	summary := RunAll(data)
	require.Len(t, summary.Results, len(original)+1)
	last := summary.Results[len(summary.Results)-1]
	assert.Equal(t, "panicking_test", last.Name)
	assert.Equal(t, GradeF, last.Grade)
	assert.False(t, last.Passed)
}

// TestRunAllHandlesEmptyInput ensures every test degrades gracefully
// (no panic escapes RunAll) when given no data at all.
func TestRunAllHandlesEmptyInput(t *testing.T) {
	summary := RunAll(nil)
	require.Len(t, summary.Results, len(registeredTests))
	for _, r := range summary.Results {
		assert.False(t, r.Passed, "test %s unexpectedly passed on empty input", r.Name)
	}
}

// TestGradeFromP checks the letter-grade bands line up with the
// reference suite's thresholds.
func TestGradeFromP(t *testing.T) {
	assert.Equal(t, GradeA, gradeFromP(0.5))
	assert.Equal(t, GradeB, gradeFromP(0.07))
	assert.Equal(t, GradeC, gradeFromP(0.02))
	assert.Equal(t, GradeD, gradeFromP(0.005))
	assert.Equal(t, GradeF, gradeFromP(0.0001))
}

func TestSummarizeFailedNamesSorted(t *testing.T) {
	results := []Result{
		{Name: "zeta", Passed: false, Grade: GradeF},
		{Name: "alpha", Passed: false, Grade: GradeF},
		{Name: "beta", Passed: true, Grade: GradeA},
	}
	summary := summarize(results)
	assert.Equal(t, []string{"alpha", "zeta"}, summary.FailedNames())
}
