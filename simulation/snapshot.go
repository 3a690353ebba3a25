package simulation

import (
	"sort"
	"time"

	simtype "bftsim_demo/simulation/types"
	"bftsim_demo/types"
)

// Snapshot is the read-only view handed to the rendering layer. Everything
// in it is copied; holding a snapshot across Advance calls is safe.
type Snapshot struct {
	Now time.Duration `json:"now"`

	Round              int64                  `json:"round"`
	Attempt            int32                  `json:"attempt"`
	Fast               bool                   `json:"fast"`
	Step               string                 `json:"step"`
	CommittedCandidate types.CandidateID      `json:"committed_candidate"`
	History            []simtype.CommitRecord `json:"history"`

	Nodes      []NodeSnapshot      `json:"nodes"`
	Candidates []CandidateSnapshot `json:"candidates"`
	Messages   []types.Message     `json:"messages"`

	// Events is newest-first and capped.
	Events []types.LogEntry `json:"events"`

	DeliveredMessages int64 `json:"delivered_messages"`
	DroppedMessages   int64 `json:"dropped_messages"`
}

type NodeSnapshot struct {
	ID     types.NodeID     `json:"id"`
	Index  int32            `json:"index"`
	Label  string           `json:"label"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
	Status string           `json:"status"`

	Approved        []types.CandidateID `json:"approved"`
	Voted           []types.CandidateID `json:"voted"`
	Precommitted    []types.CandidateID `json:"precommitted"`
	CommittedTo     types.CandidateID   `json:"committed_to"`
	LockedCandidate types.CandidateID   `json:"locked_candidate"`
	LockedAtAttempt int32               `json:"locked_at_attempt"`
	LastVoted       types.CandidateID   `json:"last_voted"`
	LastPrecommit   types.CandidateID   `json:"last_precommit"`

	Observed map[types.CandidateID]types.PhaseCounts `json:"observed"`
}

type CandidateSnapshot struct {
	ID            types.CandidateID `json:"id"`
	Round         int64             `json:"round"`
	Attempt       int32             `json:"attempt"`
	ProposerIndex int32             `json:"proposer_index"`
	Priority      int32             `json:"priority"`
	CreatedAt     time.Duration     `json:"created_at"`

	Approvals  []types.NodeID `json:"approvals"`
	Votes      []types.NodeID `json:"votes"`
	Precommits []types.NodeID `json:"precommits"`
	Commits    []types.NodeID `json:"commits"`
}

// Snapshot copies the current state. Candidates and per-node id lists come
// out sorted so two snapshots of the same state are identical.
func (m *Model) Snapshot() Snapshot {
	snap := Snapshot{
		Now:                m.Now,
		Round:              m.Round,
		Attempt:            m.Attempt,
		Fast:               m.Fast,
		Step:               m.Step.String(),
		CommittedCandidate: m.CommittedCandidate,
		History:            append([]simtype.CommitRecord(nil), m.History...),
		Events:             m.eventLog.Entries(),
		DeliveredMessages:  m.deliveredCount,
		DroppedMessages:    m.droppedCount,
	}

	for _, node := range m.nodes {
		snap.Nodes = append(snap.Nodes, NodeSnapshot{
			ID:              node.ID,
			Index:           node.Index,
			Label:           node.Label,
			X:               node.X,
			Y:               node.Y,
			Status:          node.Status.String(),
			Approved:        sortedCandidateIDs(node.Approved),
			Voted:           sortedCandidateIDs(node.Voted),
			Precommitted:    sortedCandidateIDs(node.Precommitted),
			CommittedTo:     node.CommittedTo,
			LockedCandidate: node.LockedCandidate,
			LockedAtAttempt: node.LockedAtAttempt,
			LastVoted:       node.LastVoted,
			LastPrecommit:   node.LastPrecommit,
			Observed:        node.ObservedAll(),
		})
	}

	for _, id := range m.candidateIDs() {
		cand := m.candidates[id]
		snap.Candidates = append(snap.Candidates, CandidateSnapshot{
			ID:            cand.ID,
			Round:         cand.Round,
			Attempt:       cand.Attempt,
			ProposerIndex: cand.ProposerIndex,
			Priority:      cand.Priority,
			CreatedAt:     cand.CreatedAt,
			Approvals:     cand.Approvals.List(),
			Votes:         cand.Votes.List(),
			Precommits:    cand.Precommits.List(),
			Commits:       cand.Commits.List(),
		})
	}

	for _, msg := range m.messages {
		snap.Messages = append(snap.Messages, *msg)
	}

	return snap
}

func sortedCandidateIDs(set map[types.CandidateID]bool) []types.CandidateID {
	ids := make([]types.CandidateID, 0, len(set))
	for id, ok := range set {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
