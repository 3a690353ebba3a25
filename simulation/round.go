package simulation

import (
	"sort"
	"time"

	simtype "bftsim_demo/simulation/types"
	"bftsim_demo/types"
)

// delays local to the round controller
const (
	voteForDelay = 500 * time.Millisecond // coordinator kicks in shortly after a slow attempt starts
	voteForRetry = 1 * time.Second        // retry interval while no candidate is quorum-approved yet
)

// startRound begins the next round: bump the counter, wipe the candidate
// registry and all per-node round state, create the reserved null candidate
// and queue its delayed approval at every node, then start attempt 1.
func (m *Model) startRound() {
	m.Round++
	m.RoundStartedAt = m.Now
	m.CommittedCandidate = ""
	m.Step = simtype.RoundStepRunning
	m.candidates = make(map[types.CandidateID]*types.Candidate)

	for _, node := range m.nodes {
		node.ResetRound()
	}

	null := types.NewNullCandidate(m.Round)
	m.candidates[null.ID] = null

	m.logEvent("round %d started", m.Round)

	m.Attempt = 0
	m.startAttempt(1)

	// liveness fallback: even with every proposer unreachable, the null
	// candidate eventually gathers approvals
	for _, node := range m.nodes {
		m.scheduleTask(m.cfg.InfiniteDelay, taskNullApprove, node.ID, null.ID)
	}
}

// startAttempt resets attempt-scoped state, schedules the proposer submits in
// priority order, arms the attempt timeout, and for slow attempts schedules
// the coordinator's VoteFor broadcast.
func (m *Model) startAttempt(attempt int32) {
	m.Attempt = attempt
	m.Fast = attempt <= m.cfg.FastAttempts

	for _, node := range m.nodes {
		node.ResetAttempt()
	}
	for _, cand := range m.candidates {
		cand.ResetAttempt()
	}

	mode := "fast"
	if !m.Fast {
		mode = "slow"
	}
	m.logEvent("attempt %d started (%s)", attempt, mode)
	m.fireEvent(EventAttemptStarted, m.RoundState)

	total := int32(len(m.nodes))
	proposers := make([]*types.Node, 0, m.cfg.ProposerWindow)
	for _, node := range m.nodes {
		if types.InProposerWindow(m.Round, node.Index, total, m.cfg.ProposerWindow) {
			proposers = append(proposers, node)
		}
	}
	sort.Slice(proposers, func(i, j int) bool {
		return types.ProposerPriority(m.Round, proposers[i].Index, total) <
			types.ProposerPriority(m.Round, proposers[j].Index, total)
	})

	for _, p := range proposers {
		priority := types.ProposerPriority(m.Round, p.Index, total)
		cand := m.getCandidate(types.CandidateIDFor(m.Round, p.Index))
		if cand == nil {
			cand = types.NewCandidate(m.Round, attempt, p.Index, priority)
			m.candidates[cand.ID] = cand
		}
		// proposer ordering: submits staggered by priority
		m.scheduleTask(time.Duration(priority)*m.cfg.PriorityDelay, taskSubmit, p.ID, cand.ID)
	}

	m.scheduleTask(m.cfg.AttemptTimeout, taskAttemptTimeout, "", "")

	if !m.Fast {
		coord := m.nodes[int(attempt)%len(m.nodes)]
		m.scheduleTask(voteForDelay, taskVoteFor, coord.ID, "")
	}
}

// attemptTimeout fires K after an attempt started. If that attempt is still
// the current one and the round has not committed, move to the next attempt.
func (m *Model) attemptTimeout(round int64, attempt int32) {
	if round != m.Round || attempt != m.Attempt {
		return
	}
	if m.CommittedCandidate != "" {
		return
	}
	m.logEvent("attempt %d timed out", attempt)
	m.startAttempt(attempt + 1)
}

// coordinatorVoteFor runs at the slow-attempt coordinator: pick one
// quorum-approved candidate at random and broadcast VoteFor guidance for it.
// While no candidate qualifies yet the task re-arms itself.
func (m *Model) coordinatorVoteFor(round int64, attempt int32, coordID types.NodeID) {
	if round != m.Round || attempt != m.Attempt || m.CommittedCandidate != "" {
		return
	}
	coord := m.getNode(coordID)
	if coord == nil || coord.Status == types.StatusCrashed {
		return
	}

	var eligible []*types.Candidate
	for _, id := range m.candidateIDs() {
		cand := m.candidates[id]
		if cand.Approvals.Size() >= m.quorum() {
			eligible = append(eligible, cand)
		}
	}
	if len(eligible) == 0 {
		m.scheduleTask(voteForRetry, taskVoteFor, coordID, "")
		return
	}

	cand := eligible[m.rng.Intn(len(eligible))]
	m.logEvent("%v suggests voting for %v", coord.ID, cand.ID)
	m.broadcast(coord, types.Action{Type: types.ActionVoteFor, Candidate: cand.ID})
	// the coordinator follows its own guidance
	m.onVoteFor(coord, cand)
}

// markRoundCommitted records the round result and schedules the next round
// after the configured gap.
func (m *Model) markRoundCommitted(cand *types.Candidate) {
	m.CommittedCandidate = cand.ID
	m.Step = simtype.RoundStepCommitted
	record := simtype.CommitRecord{
		Round:     m.Round,
		Attempt:   m.Attempt,
		Candidate: cand.ID,
		StartedAt: m.RoundStartedAt,
		Committed: m.Now,
	}
	m.History = append(m.History, record)

	m.logEvent("round %d committed %v", m.Round, cand.ID)
	m.fireEvent(EventRoundCommitted, record)

	m.scheduleTask(m.cfg.RoundGap, taskNextRound, "", "")
}

// candidateIDs returns the registry keys in ascending order, so iteration
// order is deterministic for a fixed random stream.
func (m *Model) candidateIDs() []types.CandidateID {
	ids := make([]types.CandidateID, 0, len(m.candidates))
	for id := range m.candidates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
