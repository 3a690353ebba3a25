package simulation

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/tendermint/tendermint/libs/events"
	"github.com/tendermint/tendermint/libs/log"

	"bftsim_demo/config"
	simtype "bftsim_demo/simulation/types"
	"bftsim_demo/types"
)

// ------ Event ------
// events fired on the model's EventSwitch, if one is attached
const (
	EventAttemptStarted = "AttemptStarted"
	EventRoundCommitted = "RoundCommitted"
	EventNodeStatus     = "NodeStatus"
)

// Model is the aggregate root of the simulation: the clock, both event
// queues, the node and candidate registries and the round state. All
// mutation happens synchronously inside Advance or one of the fault
// injection calls; there is no internal goroutine and no locking. A fresh
// model is the only reset - constructing one drops every queued task and
// in-flight message of the old one.
type Model struct {
	cfg    *config.Config
	logger log.Logger
	rng    *rand.Rand
	evsw   events.EventSwitch // optional, wired by the runner

	simtype.RoundState

	// Now is the simulated clock. The model is oblivious to wall-clock time.
	Now time.Duration

	nodes      []*types.Node
	nodesByID  map[types.NodeID]*types.Node
	candidates map[types.CandidateID]*types.Candidate

	tasks    []task
	messages []*types.Message

	eventLog *types.EventLog

	dropProbability float64

	// plain counters mirrored into go-metrics by the runner
	deliveredCount int64
	droppedCount   int64
}

type ModelOption func(*Model)

// SetEventSwitch attaches an EventSwitch the model fires round/attempt/fault
// events on.
func SetEventSwitch(evsw events.EventSwitch) ModelOption {
	return func(m *Model) {
		m.evsw = evsw
	}
}

// SetSeed overrides the random stream seed from the config.
func SetSeed(seed int64) ModelOption {
	return func(m *Model) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

// NewModel builds the participant set and starts round 1: the first attempt's
// submits, timeout and null-candidate approvals are queued at construction,
// ready for the first Advance call.
func NewModel(cfg *config.Config, options ...ModelOption) *Model {
	cfg = cfg.Sanitized()

	m := &Model{
		cfg:             cfg,
		logger:          log.NewNopLogger(),
		rng:             rand.New(rand.NewSource(cfg.Seed)),
		nodesByID:       make(map[types.NodeID]*types.Node),
		candidates:      make(map[types.CandidateID]*types.Candidate),
		eventLog:        types.NewEventLog(cfg.MaxLogEntries),
		dropProbability: cfg.DropProbability,
	}

	total := int32(cfg.NodeCount)
	for i := int32(0); i < total; i++ {
		node := types.NewNode(i, total)
		m.nodes = append(m.nodes, node)
		m.nodesByID[node.ID] = node
	}

	for _, opt := range options {
		opt(m)
	}

	m.startRound()

	return m
}

func (m *Model) SetLogger(logger log.Logger) {
	m.logger = logger
}

// Config returns the sanitized configuration the model runs with.
func (m *Model) Config() *config.Config {
	return m.cfg
}

func (m *Model) quorum() int {
	return m.cfg.Quorum
}

// getNode returns nil for unknown ids; callers treat that as a no-op.
func (m *Model) getNode(id types.NodeID) *types.Node {
	return m.nodesByID[id]
}

// getCandidate returns nil for unknown ids. A candidate only exists once
// proposed or referenced by a delivered action; actions about candidates
// cleared at a round boundary resolve to nil and are silently ignored.
func (m *Model) getCandidate(id types.CandidateID) *types.Candidate {
	return m.candidates[id]
}

// logEvent appends to the bounded in-model event log and mirrors the line to
// the structured logger.
func (m *Model) logEvent(format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	m.eventLog.Append(m.Now, "%s", text)
	m.logger.Debug(text, "t", m.Now)
}

func (m *Model) fireEvent(event string, data events.EventData) {
	if m.evsw == nil {
		return
	}
	m.evsw.FireEvent(event, data)
}

// latency draws one randomized delivery delay within the configured range.
func (m *Model) latency() time.Duration {
	spread := m.cfg.LatencyMax - m.cfg.LatencyMin
	if spread <= 0 {
		return m.cfg.LatencyMin
	}
	return m.cfg.LatencyMin + time.Duration(m.rng.Int63n(int64(spread)))
}
