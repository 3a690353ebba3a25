package config

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuorumFor(t *testing.T) {
	cases := map[int]int{1: 1, 3: 2, 4: 3, 5: 4, 6: 4, 7: 5, 10: 7}
	for n, expected := range cases {
		assert.Equal(t, expected, QuorumFor(n), "quorum for %d nodes", n)
	}
	assert.Equal(t, 0, QuorumFor(0))
}

func TestDefaultConfigIsSane(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg, cfg.Sanitized(), "defaults survive sanitizing unchanged")
	assert.Equal(t, 4, cfg.Quorum, "5 nodes need a quorum of 4")
}

// Every malformed field falls back independently; a bad override never
// poisons its neighbors and never errors.
func TestSanitizedFieldFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeCount = -3
	cfg.LatencyMin = -time.Second
	cfg.AttemptTimeout = 0
	cfg.DropProbability = 1.5

	out := cfg.Sanitized()

	assert.Equal(t, DefaultNodeCount, out.NodeCount)
	assert.Equal(t, DefaultLatencyMin, out.LatencyMin)
	assert.Equal(t, DefaultAttemptTimeout, out.AttemptTimeout)
	assert.Equal(t, DefaultDropProbability, out.DropProbability)
	// untouched fields pass through
	assert.Equal(t, DefaultRoundGap, out.RoundGap)
}

// NaN compares false against any bound, so a naive range check would let it
// through; it must fall back like every other malformed override.
func TestSanitizedNaNDropProbability(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DropProbability = math.NaN()

	out := cfg.Sanitized()
	assert.Equal(t, DefaultDropProbability, out.DropProbability)
}

func TestSanitizedLatencyOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LatencyMin = 500 * time.Millisecond
	cfg.LatencyMax = 100 * time.Millisecond

	out := cfg.Sanitized()
	assert.True(t, out.LatencyMax >= out.LatencyMin, "max is lifted above min")
	assert.Equal(t, 500*time.Millisecond, out.LatencyMin)
}

func TestSanitizedQuorumBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeCount = 4
	cfg.Quorum = 9 // larger than the node count is meaningless

	out := cfg.Sanitized()
	assert.Equal(t, QuorumFor(4), out.Quorum)
}

func TestSanitizedWindowClamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeCount = 1
	cfg.ProposerWindow = 5

	out := cfg.Sanitized()
	assert.Equal(t, int32(1), out.ProposerWindow)
}

func TestSanitizedDoesNotMutate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeCount = -1
	_ = cfg.Sanitized()
	assert.Equal(t, -1, cfg.NodeCount, "sanitizing returns a copy")
}
