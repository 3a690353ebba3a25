package types

import (
	"time"

	"bftsim_demo/types"
)

//-----------------------------------------------------------------------------
// RoundStepType enum type

// RoundStepType enumerates the coarse state of the round controller.
type RoundStepType uint8

const (
	RoundStepRunning   = RoundStepType(0x01) // attempt in progress
	RoundStepCommitted = RoundStepType(0x02) // quorum of commits reached, waiting out the round gap
)

func (s RoundStepType) String() string {
	switch s {
	case RoundStepRunning:
		return "running"
	case RoundStepCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// CommitRecord is one entry of the round history.
type CommitRecord struct {
	Round     int64             `json:"round"`
	Attempt   int32             `json:"attempt"`
	Candidate types.CandidateID `json:"candidate"`
	StartedAt time.Duration     `json:"started_at"`
	Committed time.Duration     `json:"committed_at"`
}

// RoundState holds the round/attempt progression of the simulation state
// machine.
type RoundState struct {
	Round   int64         `json:"round"`
	Attempt int32         `json:"attempt"`
	Fast    bool          `json:"fast"` // attempt number <= fast threshold
	Step    RoundStepType `json:"step"`

	// CommittedCandidate is set once a candidate's commit set reaches quorum
	// this round; empty while the round is still running.
	CommittedCandidate types.CandidateID `json:"committed_candidate"`

	// RoundStartedAt is the simulated time the current round began.
	RoundStartedAt time.Duration `json:"round_started_at"`

	History []CommitRecord `json:"history"`
}
