package loopsafety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeConsecutiveIdenticalOutputsStall(t *testing.T) {
	var counters Counters
	var evidence *Evidence

	counters, evidence = UpdateStallState(counters, "hash-a", "", "", DefaultThreshold)
	assert.Nil(t, evidence, "first occurrence is not a repeat")

	counters, evidence = UpdateStallState(counters, "hash-a", "", "", DefaultThreshold)
	assert.Nil(t, evidence, "second occurrence is only one repeat")

	counters, evidence = UpdateStallState(counters, "hash-a", "", "", DefaultThreshold)
	require.NotNil(t, evidence, "third consecutive identical output must stall")
	assert.Equal(t, KindOutputRepeat, evidence.Kind)
	assert.Equal(t, 3, evidence.Count)
}

func TestDifferentOutputResetsCounter(t *testing.T) {
	var counters Counters
	counters, _ = UpdateStallState(counters, "hash-a", "", "", DefaultThreshold)
	counters, _ = UpdateStallState(counters, "hash-a", "", "", DefaultThreshold)
	counters, evidence := UpdateStallState(counters, "hash-b", "", "", DefaultThreshold)

	assert.Nil(t, evidence)
	assert.Equal(t, 0, counters.OutputRepeatCount)
}

func TestEmptyHashNeitherIncrementsNorResets(t *testing.T) {
	var counters Counters
	counters, _ = UpdateStallState(counters, "hash-a", "", "", DefaultThreshold)
	counters, _ = UpdateStallState(counters, "", "", "", DefaultThreshold)
	assert.Equal(t, "hash-a", counters.OutputHash)
	assert.Equal(t, 0, counters.OutputRepeatCount)

	counters, evidence := UpdateStallState(counters, "hash-a", "", "", DefaultThreshold)
	assert.Nil(t, evidence)
	assert.Equal(t, 1, counters.OutputRepeatCount)
}

func TestDiffAndVerificationRepeatsAreIndependent(t *testing.T) {
	var counters Counters
	counters, _ = UpdateStallState(counters, "out-1", "diff-1", "", DefaultThreshold)
	counters, _ = UpdateStallState(counters, "out-2", "diff-1", "", DefaultThreshold)
	counters, evidence := UpdateStallState(counters, "out-3", "diff-1", "", DefaultThreshold)

	require.NotNil(t, evidence)
	assert.Equal(t, KindDiffRepeat, evidence.Kind)
	assert.Equal(t, 0, counters.OutputRepeatCount, "distinct outputs must not affect the output counter")
}
