package simulation

import (
	"time"

	"bftsim_demo/types"
)

// The protocol state machine. Per (node, candidate) pair the state advances
// monotonically: unseen -> approved -> voted -> precommitted -> committed.
//
// Every phase transition is gated twice: the candidate's global action set
// must reach quorum AND the acting node's own observed counters must
// independently corroborate it. A node never votes on hearsay about quorum -
// it has to have counted enough messages itself. The second gate makes
// convergence delivery-order dependent; that is the local-knowledge model
// this simulation is built to show, not an accident.

// handleAction processes one delivered action at its recipient. Unknown
// candidates (typically stragglers from a cleared round) are silently
// ignored, as are all other logically impossible actions further down.
func (m *Model) handleAction(node *types.Node, from types.NodeID, action types.Action) {
	cand := m.getCandidate(action.Candidate)
	if cand == nil {
		return
	}
	if cand.CreatedAt == 0 {
		cand.CreatedAt = m.Now
	}

	node.Observe(cand.ID, action.Type)

	switch action.Type {
	case types.ActionSubmit:
		m.onSubmit(node, cand)
	case types.ActionApprove:
		m.tryVote(node)
	case types.ActionVote:
		m.tryPrecommit(node)
	case types.ActionVoteFor:
		m.onVoteFor(node, cand)
	case types.ActionPrecommit:
		m.tryCommit(node)
	case types.ActionCommit:
		// counted above; commit quorum is checked where commits are issued
	}
}

// submitCandidate runs at the proposer when its submit task fires: register
// the candidate, broadcast it, and queue the proposer's own fixed-delay
// approval.
func (m *Model) submitCandidate(nodeID types.NodeID, candidateID types.CandidateID) {
	node := m.getNode(nodeID)
	cand := m.getCandidate(candidateID)
	if node == nil || cand == nil {
		return
	}
	if node.Status == types.StatusCrashed {
		return
	}

	m.logEvent("%v submitted %v", node.ID, cand.ID)
	m.broadcast(node, types.Action{Type: types.ActionSubmit, Candidate: cand.ID})
	m.scheduleTask(m.cfg.ProcessDelay, taskSelfApprove, node.ID, cand.ID)
}

// onSubmit is the recipient side of a Submit broadcast. Under a fast attempt
// the node validates and approves on its own after a short randomized local
// delay; under a slow attempt approval waits for VoteFor guidance.
func (m *Model) onSubmit(node *types.Node, cand *types.Candidate) {
	if node.Index == cand.ProposerIndex {
		m.scheduleTask(m.cfg.ProcessDelay, taskSelfApprove, node.ID, cand.ID)
		return
	}
	if !m.Fast {
		return
	}
	delay := m.cfg.ProcessDelay + time.Duration(m.rng.Int63n(int64(m.cfg.ProcessDelay)+1))
	m.scheduleTask(delay, taskAutoApprove, node.ID, cand.ID)
}

// onVoteFor records the coordinator's guidance: the named candidate becomes
// the only one this node may vote for this attempt, and is approved if the
// node has not done so yet.
func (m *Model) onVoteFor(node *types.Node, cand *types.Candidate) {
	node.VoteForTarget = cand.ID
	if !node.Approved[cand.ID] {
		m.approve(node, cand)
		return
	}
	m.tryVote(node)
}

// approve issues a node's approval: at most once per candidate, never after
// the node committed, never from a crashed node.
func (m *Model) approve(node *types.Node, cand *types.Candidate) {
	if node.Status == types.StatusCrashed {
		return
	}
	if node.CommittedTo != "" {
		return
	}
	if node.Approved[cand.ID] {
		return
	}

	node.Approved[cand.ID] = true
	cand.Approvals.Add(node.ID)
	if cand.CreatedAt == 0 {
		cand.CreatedAt = m.Now
	}
	node.Observe(cand.ID, types.ActionApprove)

	m.logEvent("%v approved %v", node.ID, cand.ID)
	m.broadcast(node, types.Action{Type: types.ActionApprove, Candidate: cand.ID})

	// the global approver set grew; any node whose local count already
	// suffices may now be able to vote
	m.tryVoteAll()
}

// voteEligible - the double quorum gate for voting.
func (m *Model) voteEligible(node *types.Node, cand *types.Candidate) bool {
	if cand.Approvals.Size() < m.quorum() {
		return false
	}
	return node.ObservedCounts(cand.ID).Approvals >= m.quorum()
}

// voteTarget selects the candidate a node would vote for, or nil.
//
// Slow attempts follow coordinator guidance exclusively. Fast attempts
// prefer, in order: the lock, the last vote, and finally the lowest priority
// value among all eligible candidates.
func (m *Model) voteTarget(node *types.Node) *types.Candidate {
	if !m.Fast {
		if node.VoteForTarget == "" {
			return nil
		}
		cand := m.getCandidate(node.VoteForTarget)
		if cand != nil && m.voteEligible(node, cand) {
			return cand
		}
		return nil
	}

	if node.LockedCandidate != "" {
		if cand := m.getCandidate(node.LockedCandidate); cand != nil && m.voteEligible(node, cand) {
			return cand
		}
	}
	if node.LastVoted != "" {
		if cand := m.getCandidate(node.LastVoted); cand != nil && m.voteEligible(node, cand) {
			return cand
		}
	}

	var best *types.Candidate
	for _, id := range m.candidateIDs() {
		cand := m.candidates[id]
		if !m.voteEligible(node, cand) {
			continue
		}
		if best == nil || cand.Priority < best.Priority {
			best = cand
		}
	}
	return best
}

func (m *Model) tryVote(node *types.Node) {
	if node.Status == types.StatusCrashed || node.CommittedTo != "" || node.VotedThisAttempt {
		return
	}
	cand := m.voteTarget(node)
	if cand == nil {
		return
	}

	node.VotedThisAttempt = true
	node.Voted[cand.ID] = true
	node.LastVoted = cand.ID
	cand.Votes.Add(node.ID)
	node.Observe(cand.ID, types.ActionVote)

	m.logEvent("%v voted for %v", node.ID, cand.ID)
	m.broadcast(node, types.Action{Type: types.ActionVote, Candidate: cand.ID})

	if cand.Votes.Size() >= m.quorum() {
		m.invalidateStaleLocks(cand)
	}
	m.tryPrecommitAll()
}

// tryVoteAll nudges every node toward voting after a global set change.
// Per-node guards and the local counter gate make this cheap and safe.
func (m *Model) tryVoteAll() {
	for _, node := range m.nodes {
		m.tryVote(node)
	}
}

// invalidateStaleLocks clears every lock that points at a different
// candidate and was acquired in an earlier attempt, once cand's vote set
// reaches quorum. The network has moved on; holding the old lock would only
// stall its owner.
func (m *Model) invalidateStaleLocks(cand *types.Candidate) {
	for _, node := range m.nodes {
		if node.LockedCandidate == "" || node.LockedCandidate == cand.ID {
			continue
		}
		if node.LockedAtAttempt < m.Attempt {
			m.logEvent("%v unlocked from %v", node.ID, node.LockedCandidate)
			node.LockedCandidate = ""
			node.LockedAtAttempt = 0
		}
	}
}

// tryPrecommit - a node precommits only for the candidate it itself last
// voted for, once votes reach quorum globally and in its own counters.
// Precommitting acquires the lock.
func (m *Model) tryPrecommit(node *types.Node) {
	if node.Status == types.StatusCrashed || node.CommittedTo != "" || node.PrecommittedThisAttempt {
		return
	}
	if node.LastVoted == "" {
		return
	}
	cand := m.getCandidate(node.LastVoted)
	if cand == nil {
		return
	}
	if cand.Votes.Size() < m.quorum() {
		return
	}
	if node.ObservedCounts(cand.ID).Votes < m.quorum() {
		return
	}

	node.PrecommittedThisAttempt = true
	node.Precommitted[cand.ID] = true
	node.LastPrecommit = cand.ID
	node.LockedCandidate = cand.ID
	node.LockedAtAttempt = m.Attempt
	cand.Precommits.Add(node.ID)
	node.Observe(cand.ID, types.ActionPrecommit)

	m.logEvent("%v precommitted %v (locked)", node.ID, cand.ID)
	m.broadcast(node, types.Action{Type: types.ActionPrecommit, Candidate: cand.ID})

	m.tryCommitAll()
}

func (m *Model) tryPrecommitAll() {
	for _, node := range m.nodes {
		m.tryPrecommit(node)
	}
}

// tryCommit - symmetric to precommit, gated on the precommit sets and the
// node's own precommit target. Committing is terminal per node.
func (m *Model) tryCommit(node *types.Node) {
	if node.Status == types.StatusCrashed || node.CommittedTo != "" {
		return
	}
	if node.LastPrecommit == "" {
		return
	}
	cand := m.getCandidate(node.LastPrecommit)
	if cand == nil {
		return
	}
	if cand.Precommits.Size() < m.quorum() {
		return
	}
	if node.ObservedCounts(cand.ID).Precommits < m.quorum() {
		return
	}

	node.CommittedTo = cand.ID
	cand.Commits.Add(node.ID)
	node.Observe(cand.ID, types.ActionCommit)

	m.logEvent("%v committed %v", node.ID, cand.ID)
	m.broadcast(node, types.Action{Type: types.ActionCommit, Candidate: cand.ID})

	if cand.Commits.Size() >= m.quorum() && m.CommittedCandidate == "" {
		m.markRoundCommitted(cand)
	}
}

func (m *Model) tryCommitAll() {
	for _, node := range m.nodes {
		m.tryCommit(node)
	}
}
