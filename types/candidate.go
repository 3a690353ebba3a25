package types

import (
	"fmt"
	"math"
	"time"
)

// CandidateID identifies a proposed value. Ids are derived from the round
// number and the proposer index, so the same proposer re-submitting in a
// later attempt of the same round names the same candidate.
type CandidateID string

// NullPriority is the priority of the reserved fallback candidate. Larger
// value means less preferred.
const NullPriority = int32(math.MaxInt32)

func CandidateIDFor(round int64, proposerIndex int32) CandidateID {
	return CandidateID(fmt.Sprintf("R%d-P%d", round, proposerIndex))
}

func NullCandidateID(round int64) CandidateID {
	return CandidateID(fmt.Sprintf("R%d-NULL", round))
}

// Candidate - one proposed value for a round, together with the global sets
// of nodes that acted on it. The sets are ground truth; what each node has
// locally observed lives in Node.observed.
//
// Votes and Precommits are cleared at every attempt boundary. Approvals
// persist for the whole round, which is what lets fast-attempt priority
// resolution pick up candidates approved in earlier attempts.
type Candidate struct {
	ID            CandidateID   `json:"id"`
	Round         int64         `json:"round"`
	Attempt       int32         `json:"attempt"` // attempt of creation
	ProposerIndex int32         `json:"proposer_index"`
	Priority      int32         `json:"priority"`
	CreatedAt     time.Duration `json:"created_at"` // first approval or first network sighting

	Approvals  NodeIDSet `json:"approvals"`
	Votes      NodeIDSet `json:"votes"`
	Precommits NodeIDSet `json:"precommits"`
	Commits    NodeIDSet `json:"commits"`
}

func NewCandidate(round int64, attempt, proposerIndex, priority int32) *Candidate {
	return &Candidate{
		ID:            CandidateIDFor(round, proposerIndex),
		Round:         round,
		Attempt:       attempt,
		ProposerIndex: proposerIndex,
		Priority:      priority,
		Approvals:     NewNodeIDSet(),
		Votes:         NewNodeIDSet(),
		Precommits:    NewNodeIDSet(),
		Commits:       NewNodeIDSet(),
	}
}

// NewNullCandidate returns the reserved fallback candidate for the round. It
// carries no proposer and the maximal priority value, so it only wins when no
// real candidate reaches quorum.
func NewNullCandidate(round int64) *Candidate {
	return &Candidate{
		ID:            NullCandidateID(round),
		Round:         round,
		Attempt:       1,
		ProposerIndex: -1,
		Priority:      NullPriority,
		Approvals:     NewNodeIDSet(),
		Votes:         NewNodeIDSet(),
		Precommits:    NewNodeIDSet(),
		Commits:       NewNodeIDSet(),
	}
}

func (c *Candidate) IsNull() bool {
	return c.ProposerIndex < 0
}

// ResetAttempt clears the attempt-scoped sets. Approvals and commits are
// round-scoped and survive.
func (c *Candidate) ResetAttempt() {
	c.Votes.Clear()
	c.Precommits.Clear()
}

func (c *Candidate) String() string {
	return fmt.Sprintf("Candidate{%v prio=%d a=%d/v=%d/p=%d/c=%d}",
		c.ID, c.Priority,
		c.Approvals.Size(), c.Votes.Size(), c.Precommits.Size(), c.Commits.Size())
}
