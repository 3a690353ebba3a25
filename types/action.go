package types

import "fmt"

// ActionType enumerates the protocol actions a node may broadcast.
type ActionType uint8

const (
	ActionSubmit    = ActionType(0x01) // proposer publishes a candidate
	ActionApprove   = ActionType(0x02)
	ActionVote      = ActionType(0x03)
	ActionVoteFor   = ActionType(0x04) // coordinator guidance, slow attempts only
	ActionPrecommit = ActionType(0x05)
	ActionCommit    = ActionType(0x06)
)

func (t ActionType) String() string {
	switch t {
	case ActionSubmit:
		return "Submit"
	case ActionApprove:
		return "Approve"
	case ActionVote:
		return "Vote"
	case ActionVoteFor:
		return "VoteFor"
	case ActionPrecommit:
		return "Precommit"
	case ActionCommit:
		return "Commit"
	default:
		return "UnknownAction"
	}
}

// Action - a single protocol statement about one candidate.
type Action struct {
	Type      ActionType  `json:"type"`
	Candidate CandidateID `json:"candidate"`
}

func (a Action) String() string {
	return fmt.Sprintf("%v(%v)", a.Type, a.Candidate)
}

func (a Action) ValidateBasic() error {
	if a.Type < ActionSubmit || a.Type > ActionCommit {
		return fmt.Errorf("unknown action type: %v", uint8(a.Type))
	}
	if a.Candidate == "" {
		return fmt.Errorf("action without candidate")
	}
	return nil
}
