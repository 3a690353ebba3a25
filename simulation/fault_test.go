package simulation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bftsim_demo/config"
	"bftsim_demo/types"
)

func TestSetNodeStatusUnknown(t *testing.T) {
	m := newTestModel(t, nil)
	err := m.SetNodeStatus("N99", types.StatusCrashed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node")
}

// One crashed node out of five: the quorum of four is still reachable, the
// round commits without it, and the crashed node neither observes nor commits
// anything.
func TestCrashedNodeExcluded(t *testing.T) {
	m := newTestModel(t, func(cfg *config.Config) {
		cfg.ProposerWindow = 1
	})
	crashed := m.nodes[3]
	require.NoError(t, m.SetNodeStatus(crashed.ID, types.StatusCrashed))

	committed := advanceUntil(m, 20*time.Millisecond, 10*time.Second, func() bool {
		return m.CommittedCandidate != ""
	})
	require.True(t, committed, "four good nodes are enough")

	winner := m.getCandidate(m.CommittedCandidate)
	require.NotNil(t, winner)
	assert.False(t, winner.Commits.Has(crashed.ID))
	assert.Equal(t, types.CandidateID(""), crashed.CommittedTo)
	assert.Empty(t, crashed.ObservedAll(), "a crashed node processes nothing")

	for _, node := range m.nodes {
		if node.ID == crashed.ID {
			continue
		}
		assert.Equal(t, m.CommittedCandidate, node.CommittedTo)
	}
}

// A node brought back from crashed is a full participant again in the next
// round, since round start wipes per-node protocol state.
func TestCrashedNodeRejoins(t *testing.T) {
	m := newTestModel(t, nil)
	down := m.nodes[0]
	require.NoError(t, m.SetNodeStatus(down.ID, types.StatusCrashed))

	require.True(t, advanceUntil(m, 20*time.Millisecond, 10*time.Second, func() bool {
		return len(m.History) == 1
	}))
	require.NoError(t, m.SetNodeStatus(down.ID, types.StatusGood))

	require.True(t, advanceUntil(m, 20*time.Millisecond, 20*time.Second, func() bool {
		return len(m.History) == 2
	}))
	m.Advance(100 * time.Millisecond) // let straggler commits land inside the gap
	assert.Equal(t, m.History[1].Candidate, down.CommittedTo)
}

// Everyone but one node lagging with a drop probability of 1 partitions the
// network completely. The null candidate's global approver set still reaches
// quorum (its approvals are local tasks), but no node ever observes enough
// corroborating messages, so nothing commits and the attempts keep timing
// out.
func TestLaggingPartitionStalls(t *testing.T) {
	m := newTestModel(t, nil)
	for _, node := range m.nodes[1:] {
		require.NoError(t, m.SetNodeStatus(node.ID, types.StatusLagging))
	}
	m.SetDropProbability(1.0)

	for m.Now < 10*time.Second {
		m.Advance(50 * time.Millisecond)
	}

	assert.Equal(t, types.CandidateID(""), m.CommittedCandidate)
	assert.Equal(t, int64(1), m.Round)
	assert.True(t, m.Attempt >= 4, "attempts keep cycling, got %d", m.Attempt)
	assert.True(t, logContains(m, "attempt 3 timed out"))

	null := m.getCandidate(types.NullCandidateID(1))
	require.NotNil(t, null)
	assert.True(t, null.Approvals.Size() >= m.quorum(), "local approvals are not dropped")
	for _, node := range m.nodes {
		assert.Equal(t, 1, node.ObservedCounts(null.ID).Approvals,
			"%v should have seen only its own approval", node.ID)
	}
}

// Lagging drops are probabilistic per message; with the chance at zero a
// lagging node behaves like a good one.
func TestLaggingWithZeroDropBehavesGood(t *testing.T) {
	m := newTestModel(t, func(cfg *config.Config) {
		cfg.ProposerWindow = 1
	})
	for _, node := range m.nodes {
		require.NoError(t, m.SetNodeStatus(node.ID, types.StatusLagging))
	}
	m.SetDropProbability(0)

	committed := advanceUntil(m, 20*time.Millisecond, 10*time.Second, func() bool {
		return m.CommittedCandidate != ""
	})
	require.True(t, committed)
	m.Advance(100 * time.Millisecond)
	for _, node := range m.nodes {
		assert.Equal(t, m.CommittedCandidate, node.CommittedTo)
	}
}

func TestSetDropProbabilityFallback(t *testing.T) {
	m := newTestModel(t, nil)
	configured := m.Config().DropProbability

	m.SetDropProbability(0.8)
	assert.Equal(t, 0.8, m.DropProbability())

	m.SetDropProbability(1.5)
	assert.Equal(t, configured, m.DropProbability(), "out-of-range falls back to the configured value")

	m.SetDropProbability(-0.1)
	assert.Equal(t, configured, m.DropProbability())

	m.SetDropProbability(math.NaN())
	assert.Equal(t, configured, m.DropProbability(), "NaN is not a probability")
}
