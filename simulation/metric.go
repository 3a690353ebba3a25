package simulation

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"bftsim_demo/types"
)

func NewSimulationMetric() *SimulationMetric {
	return &SimulationMetric{
		Round:   0,
		Attempt: 0,
	}
}

// SimulationMetric is the JSON metric surface published through the metric
// registry. The runner refreshes it from snapshots on every tick.
type SimulationMetric struct {
	SimTime time.Duration `json:"sim_time"`

	Round     int64  `json:"round"`
	Attempt   int32  `json:"attempt"`
	Fast      bool   `json:"fast"`
	Step      string `json:"round_step"`
	Committed string `json:"committed_candidate"`

	CommittedRounds   int   `json:"committed_rounds"`
	InFlightMessages  int   `json:"in_flight_messages"`
	DeliveredMessages int64 `json:"delivered_messages"`
	DroppedMessages   int64 `json:"dropped_messages"`

	CrashedNodes int `json:"crashed_nodes"`
	LaggingNodes int `json:"lagging_nodes"`
}

func (sm *SimulationMetric) JSONString() string {
	s, _ := jsoniter.MarshalToString(sm)
	return s
}

// MarkSnapshot refreshes every field from one snapshot.
func (sm *SimulationMetric) MarkSnapshot(snap Snapshot) {
	sm.SimTime = snap.Now
	sm.Round = snap.Round
	sm.Attempt = snap.Attempt
	sm.Fast = snap.Fast
	sm.Step = snap.Step
	sm.Committed = string(snap.CommittedCandidate)
	sm.CommittedRounds = len(snap.History)
	sm.InFlightMessages = len(snap.Messages)
	sm.DeliveredMessages = snap.DeliveredMessages
	sm.DroppedMessages = snap.DroppedMessages

	sm.CrashedNodes = 0
	sm.LaggingNodes = 0
	for _, node := range snap.Nodes {
		switch node.Status {
		case types.StatusCrashed.String():
			sm.CrashedNodes++
		case types.StatusLagging.String():
			sm.LaggingNodes++
		}
	}
}
