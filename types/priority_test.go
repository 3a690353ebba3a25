package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposerPriorityRotates(t *testing.T) {
	// round 1: index 1 leads; round 2: index 2 leads; and so on around
	for round := int64(1); round <= 10; round++ {
		leader := int32(round % 5)
		assert.Equal(t, int32(0), ProposerPriority(round, leader, 5), "round %d leader", round)
	}
}

func TestProposerPriorityCoversAllValues(t *testing.T) {
	seen := make(map[int32]bool)
	for idx := int32(0); idx < 5; idx++ {
		seen[ProposerPriority(3, idx, 5)] = true
	}
	assert.Equal(t, 5, len(seen), "priorities must be a permutation")
}

func TestInProposerWindow(t *testing.T) {
	count := 0
	for idx := int32(0); idx < 5; idx++ {
		if InProposerWindow(1, idx, 5, 2) {
			count++
		}
	}
	assert.Equal(t, 2, count, "window of 2 admits exactly 2 proposers")

	assert.True(t, InProposerWindow(1, 1, 5, 1), "priority 0 is always inside")
	assert.False(t, InProposerWindow(1, 0, 5, 2), "index 0 has priority 4 in round 1")
}
