package simulation

import (
	"testing"
	"time"

	"github.com/go-kit/kit/log/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"

	"bftsim_demo/config"
	"bftsim_demo/types"
)

// simLogger is a TestingLogger that colors timestamped engine lines, to keep
// interleaved node activity readable when debugging a failing scenario.
func simLogger() log.Logger {
	return log.TestingLoggerWithColorFn(func(keyvals ...interface{}) term.FgBgColor {
		for i := 0; i < len(keyvals)-1; i += 2 {
			if keyvals[i] == "t" {
				return term.FgBgColor{Fg: term.Cyan}
			}
		}
		return term.FgBgColor{}
	})
}

func newTestModel(t *testing.T, mutate func(*config.Config)) *Model {
	cfg := config.TestConfig()
	if mutate != nil {
		mutate(cfg)
	}
	m := NewModel(cfg)
	m.SetLogger(simLogger())
	return m
}

// advanceUntil steps the model until cond holds or the simulated deadline
// passes.
func advanceUntil(m *Model, step, deadline time.Duration, cond func() bool) bool {
	for m.Now < deadline {
		if cond() {
			return true
		}
		m.Advance(step)
	}
	return cond()
}

// The reference scenario: 5 nodes, quorum 4, a single proposer submitting
// R1-P1 at t=0, no faults. Every node converges on R1-P1 and the round
// advances exactly once after the gap.
func TestSingleProposerRoundCommits(t *testing.T) {
	m := newTestModel(t, func(cfg *config.Config) {
		cfg.ProposerWindow = 1
	})

	committed := advanceUntil(m, 20*time.Millisecond, 10*time.Second, func() bool {
		return m.CommittedCandidate != ""
	})
	require.True(t, committed, "round should commit")
	m.Advance(100 * time.Millisecond) // let straggler commits land inside the gap

	expected := types.CandidateIDFor(1, 1) // index 1 leads round 1
	assert.Equal(t, expected, m.CommittedCandidate)
	assert.Equal(t, int64(1), m.Round)

	for _, node := range m.nodes {
		assert.Equal(t, expected, node.CommittedTo, "%v must commit to %v", node.ID, expected)
	}

	require.Len(t, m.History, 1)
	assert.Equal(t, int64(1), m.History[0].Round)
	assert.Equal(t, expected, m.History[0].Candidate)

	// after the round gap, round 2 starts with a clean registry
	committedAt := m.Now
	advanceUntil(m, 20*time.Millisecond, committedAt+2*time.Second, func() bool {
		return m.Round == 2
	})
	assert.Equal(t, int64(2), m.Round, "round advances exactly once after the gap")
	assert.Equal(t, types.CandidateID(""), m.CommittedCandidate)
	assert.Nil(t, m.getCandidate(expected), "round start clears the candidate registry")
}

// Phase ordering: nobody precommits before votes reach quorum, nobody
// commits before precommits reach quorum. Checked continuously while a
// no-fault round runs.
func TestPhaseOrdering(t *testing.T) {
	m := newTestModel(t, nil)
	q := m.quorum()

	for i := 0; i < 500 && m.Round == 1; i++ {
		m.Advance(20 * time.Millisecond)

		for _, cand := range m.candidates {
			if cand.Precommits.Size() > 0 {
				assert.True(t, cand.Votes.Size() >= q || m.CommittedCandidate != "",
					"%v precommitted with %d votes", cand.ID, cand.Votes.Size())
			}
			if cand.Commits.Size() > 0 {
				assert.True(t, cand.Precommits.Size() >= q || m.CommittedCandidate != "",
					"%v committed with %d precommits", cand.ID, cand.Precommits.Size())
			}
		}
	}
	require.NotEqual(t, int64(1), m.Round, "round 1 should finish within the horizon")
}

// A node may not vote on hearsay about quorum: the global approver set
// reaching quorum is not enough, its own counters must corroborate.
func TestVoteRequiresLocalCorroboration(t *testing.T) {
	m := newTestModel(t, nil)
	m.tasks = nil
	m.messages = nil

	node := m.nodes[0]
	cand := types.NewCandidate(1, 1, 1, 0)
	m.candidates[cand.ID] = cand
	for _, peer := range m.nodes {
		cand.Approvals.Add(peer.ID)
	}
	require.True(t, cand.Approvals.Size() >= m.quorum())

	m.tryVote(node)
	assert.False(t, node.VotedThisAttempt, "global quorum alone must not unlock voting")

	for i := 0; i < m.quorum(); i++ {
		node.Observe(cand.ID, types.ActionApprove)
	}
	m.tryVote(node)
	assert.True(t, node.VotedThisAttempt)
	assert.Equal(t, cand.ID, node.LastVoted)
	assert.True(t, cand.Votes.Has(node.ID))
}

// Fast-attempt target preference: lock beats last vote beats lowest
// priority.
func TestVoteTargetPreference(t *testing.T) {
	m := newTestModel(t, nil)
	m.tasks = nil
	m.messages = nil

	node := m.nodes[0]
	low := types.NewCandidate(1, 1, 1, 0)
	high := types.NewCandidate(1, 1, 2, 1)
	m.candidates[low.ID] = low
	m.candidates[high.ID] = high

	for _, peer := range m.nodes {
		low.Approvals.Add(peer.ID)
		high.Approvals.Add(peer.ID)
	}
	for i := 0; i < m.quorum(); i++ {
		node.Observe(low.ID, types.ActionApprove)
		node.Observe(high.ID, types.ActionApprove)
	}

	assert.Equal(t, low.ID, m.voteTarget(node).ID, "lowest priority wins by default")

	node.LastVoted = high.ID
	assert.Equal(t, high.ID, m.voteTarget(node).ID, "last vote beats priority")

	node.LockedCandidate = low.ID
	assert.Equal(t, low.ID, m.voteTarget(node).ID, "lock beats last vote")
}

// Lock invalidation: once some candidate's votes reach quorum, locks on
// other candidates from earlier attempts are cleared; a lock from the
// current attempt survives.
func TestLockInvalidation(t *testing.T) {
	m := newTestModel(t, nil)
	m.tasks = nil
	m.messages = nil
	m.Attempt = 2

	stale := m.nodes[0]
	stale.LockedCandidate = "R1-P1"
	stale.LockedAtAttempt = 1

	fresh := m.nodes[1]
	fresh.LockedCandidate = "R1-P1"
	fresh.LockedAtAttempt = 2

	winner := types.NewCandidate(1, 2, 2, 1)
	m.candidates[winner.ID] = winner

	m.invalidateStaleLocks(winner)

	assert.Equal(t, types.CandidateID(""), stale.LockedCandidate, "earlier-attempt lock on another candidate clears")
	assert.Equal(t, types.CandidateID("R1-P1"), fresh.LockedCandidate, "current-attempt lock survives")
}

// Under fault-induced attempt churn the action sets only ever grow within
// their scope (approvals/commits per round, votes/precommits per attempt),
// and a held lock's attempt stamp never moves backwards.
func TestSetAndLockMonotonicity(t *testing.T) {
	m := newTestModel(t, func(cfg *config.Config) {
		cfg.AttemptTimeout = 300 * time.Millisecond
	})
	require.NoError(t, m.SetNodeStatus(m.nodes[4].ID, types.StatusCrashed))
	require.NoError(t, m.SetNodeStatus(m.nodes[3].ID, types.StatusLagging))
	m.SetDropProbability(0.7)

	type sizes struct{ approvals, votes, precommits, commits int }
	prevSets := map[types.CandidateID]sizes{}
	type lock struct {
		cand    types.CandidateID
		attempt int32
	}
	prevLocks := map[types.NodeID]lock{}
	prevRound, prevAttempt := m.Round, m.Attempt

	for m.Now < 5*time.Second {
		m.Advance(10 * time.Millisecond)

		if m.Round != prevRound {
			prevSets = map[types.CandidateID]sizes{}
			prevLocks = map[types.NodeID]lock{}
		}
		sameAttempt := m.Round == prevRound && m.Attempt == prevAttempt
		prevRound, prevAttempt = m.Round, m.Attempt

		for id, cand := range m.candidates {
			cur := sizes{cand.Approvals.Size(), cand.Votes.Size(), cand.Precommits.Size(), cand.Commits.Size()}
			if prev, seen := prevSets[id]; seen {
				assert.True(t, cur.approvals >= prev.approvals, "%v approvals shrank", id)
				assert.True(t, cur.commits >= prev.commits, "%v commits shrank", id)
				if sameAttempt {
					assert.True(t, cur.votes >= prev.votes, "%v votes shrank mid-attempt", id)
					assert.True(t, cur.precommits >= prev.precommits, "%v precommits shrank mid-attempt", id)
				}
			}
			prevSets[id] = cur
		}

		for _, node := range m.nodes {
			if node.LockedCandidate == "" {
				delete(prevLocks, node.ID)
				continue
			}
			if prev, held := prevLocks[node.ID]; held && prev.cand == node.LockedCandidate {
				assert.True(t, node.LockedAtAttempt >= prev.attempt,
					"%v lock attempt went backwards", node.ID)
			}
			prevLocks[node.ID] = lock{node.LockedCandidate, node.LockedAtAttempt}
		}
	}
}

// Actions about unknown candidates (stragglers from a cleared round) are
// silent no-ops.
func TestUnknownCandidateIgnored(t *testing.T) {
	m := newTestModel(t, nil)
	node := m.nodes[0]

	m.handleAction(node, m.nodes[1].ID, types.Action{Type: types.ActionApprove, Candidate: "R0-P9"})

	assert.Equal(t, types.PhaseCounts{}, node.ObservedCounts("R0-P9"))
	assert.False(t, node.VotedThisAttempt)
}

// Committing is terminal per node: no later action moves CommittedTo.
func TestCommitIsTerminal(t *testing.T) {
	m := newTestModel(t, func(cfg *config.Config) {
		cfg.ProposerWindow = 1
	})

	require.True(t, advanceUntil(m, 20*time.Millisecond, 10*time.Second, func() bool {
		return m.CommittedCandidate != ""
	}))
	m.Advance(100 * time.Millisecond) // let straggler commits land inside the gap

	node := m.nodes[0]
	first := node.CommittedTo
	require.NotEqual(t, types.CandidateID(""), first)

	other := types.NewCandidate(1, 1, 3, 2)
	m.candidates[other.ID] = other
	node.LastPrecommit = other.ID
	for _, peer := range m.nodes {
		other.Precommits.Add(peer.ID)
	}
	for i := 0; i < m.quorum(); i++ {
		node.Observe(other.ID, types.ActionPrecommit)
	}

	m.tryCommit(node)
	assert.Equal(t, first, node.CommittedTo)
}
