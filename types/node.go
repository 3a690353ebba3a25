package types

import (
	"fmt"
	"math"
)

// NodeID identifies a simulated validator.
type NodeID string

// NodeStatus is the externally-controlled fault status of a node.
type NodeStatus uint8

const (
	StatusGood    = NodeStatus(0x01)
	StatusLagging = NodeStatus(0x02) // messages dropped with fixed probability
	StatusCrashed = NodeStatus(0x03) // issues and processes nothing
)

func (s NodeStatus) String() string {
	switch s {
	case StatusGood:
		return "good"
	case StatusLagging:
		return "lagging"
	case StatusCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// ParseNodeStatus maps the string form back to a status. Used by the rpc
// fault-injection endpoint.
func ParseNodeStatus(s string) (NodeStatus, error) {
	switch s {
	case "good":
		return StatusGood, nil
	case "lagging":
		return StatusLagging, nil
	case "crashed":
		return StatusCrashed, nil
	}
	return 0, fmt.Errorf("unknown node status: %q", s)
}

// PhaseCounts - how many approval/vote/precommit/commit messages a node has
// observed for one candidate, counting its own issued actions. This is the
// node's local view; the candidate's global sets are the ground truth.
type PhaseCounts struct {
	Approvals  int `json:"approvals"`
	Votes      int `json:"votes"`
	Precommits int `json:"precommits"`
	Commits    int `json:"commits"`
}

// Node is a simulated validator.
//
// The position is presentation-only and never consulted by the protocol.
// Attempt-scoped fields are reset by ResetAttempt at every attempt start,
// round-scoped fields by ResetRound at every round start. A node is created
// once at model construction and never destroyed.
type Node struct {
	ID    NodeID  `json:"id"`
	Index int32   `json:"index"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`

	Status NodeStatus `json:"status"`

	// Round-scoped protocol state.
	Approved        map[CandidateID]bool `json:"approved"`
	Voted           map[CandidateID]bool `json:"voted"`
	Precommitted    map[CandidateID]bool `json:"precommitted"`
	CommittedTo     CandidateID          `json:"committed_to"` // permanent once set
	LockedCandidate CandidateID          `json:"locked_candidate"`
	LockedAtAttempt int32                `json:"locked_at_attempt"`
	LastVoted       CandidateID          `json:"last_voted"`
	LastPrecommit   CandidateID          `json:"last_precommit"`

	// Attempt-scoped transient state.
	VotedThisAttempt        bool        `json:"voted_this_attempt"`
	PrecommittedThisAttempt bool        `json:"precommitted_this_attempt"`
	VoteForTarget           CandidateID `json:"vote_for_target"`

	observed map[CandidateID]*PhaseCounts
}

// NewNode creates a good node placed on a unit circle by index, which is the
// only thing the rendering layer needs for a stable layout.
func NewNode(index, total int32) *Node {
	angle := 2 * math.Pi * float64(index) / float64(total)
	return &Node{
		ID:           NodeID(fmt.Sprintf("N%d", index+1)),
		Index:        index,
		Label:        fmt.Sprintf("N%d", index+1),
		X:            math.Cos(angle),
		Y:            math.Sin(angle),
		Status:       StatusGood,
		Approved:     make(map[CandidateID]bool),
		Voted:        make(map[CandidateID]bool),
		Precommitted: make(map[CandidateID]bool),
		observed:     make(map[CandidateID]*PhaseCounts),
	}
}

// Observe records one received (or self-issued) action in the node's local
// counter map. Submit and VoteFor carry no phase weight.
func (n *Node) Observe(cid CandidateID, t ActionType) {
	pc, exist := n.observed[cid]
	if !exist {
		pc = &PhaseCounts{}
		n.observed[cid] = pc
	}
	switch t {
	case ActionApprove:
		pc.Approvals++
	case ActionVote:
		pc.Votes++
	case ActionPrecommit:
		pc.Precommits++
	case ActionCommit:
		pc.Commits++
	}
}

// ObservedCounts returns the node's local view of one candidate. The zero
// value is returned for candidates never heard of.
func (n *Node) ObservedCounts(cid CandidateID) PhaseCounts {
	if pc, exist := n.observed[cid]; exist {
		return *pc
	}
	return PhaseCounts{}
}

// ObservedAll copies the full counter map, for snapshots.
func (n *Node) ObservedAll() map[CandidateID]PhaseCounts {
	out := make(map[CandidateID]PhaseCounts, len(n.observed))
	for cid, pc := range n.observed {
		out[cid] = *pc
	}
	return out
}

// ResetAttempt clears the per-attempt transient flags.
func (n *Node) ResetAttempt() {
	n.VotedThisAttempt = false
	n.PrecommittedThisAttempt = false
	n.VoteForTarget = ""
}

// ResetRound clears all protocol state for a new round. Fault status is not
// protocol state and survives.
func (n *Node) ResetRound() {
	n.Approved = make(map[CandidateID]bool)
	n.Voted = make(map[CandidateID]bool)
	n.Precommitted = make(map[CandidateID]bool)
	n.CommittedTo = ""
	n.LockedCandidate = ""
	n.LockedAtAttempt = 0
	n.LastVoted = ""
	n.LastPrecommit = ""
	n.observed = make(map[CandidateID]*PhaseCounts)
	n.ResetAttempt()
}

func (n *Node) String() string {
	return fmt.Sprintf("Node{%v %v}", n.ID, n.Status)
}
