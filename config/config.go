package config

import (
	"time"
)

// Defaults tuned for a watchable animation: latencies in the hundreds of
// milliseconds, attempts that time out within seconds.
const (
	DefaultNodeCount       = 5
	DefaultLatencyMin      = 200 * time.Millisecond
	DefaultLatencyMax      = 800 * time.Millisecond
	DefaultAttemptTimeout  = 10 * time.Second       // K
	DefaultRoundGap        = 3 * time.Second        // pause between rounds
	DefaultPriorityDelay   = 1 * time.Second        // Delta
	DefaultInfiniteDelay   = 6 * time.Second        // DeltaInfinity
	DefaultFastAttempts    = 3                      // Y
	DefaultProposerWindow  = 2                      // C
	DefaultProcessDelay    = 500 * time.Millisecond // simDelay
	DefaultDropProbability = 0.5
	DefaultMaxLogEntries   = 100
)

// Config holds every knob of the simulation engine. Zero or otherwise
// malformed fields never abort anything: Sanitized falls back to the default
// field by field.
type Config struct {
	// NodeCount is the number of simulated validators.
	NodeCount int `mapstructure:"node_count" json:"node_count"`

	// Quorum is the number of distinct nodes required to authorize the next
	// protocol phase. Zero means derive it from NodeCount (ceil(2n/3)).
	Quorum int `mapstructure:"quorum" json:"quorum"`

	// LatencyMin/LatencyMax bound the randomized per-message delivery delay.
	LatencyMin time.Duration `mapstructure:"latency_min" json:"latency_min"`
	LatencyMax time.Duration `mapstructure:"latency_max" json:"latency_max"`

	// AttemptTimeout (K) - an attempt that has not committed by then starts
	// the next attempt.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" json:"attempt_timeout"`

	// RoundGap - delay between a committed round and the next round start.
	RoundGap time.Duration `mapstructure:"round_gap" json:"round_gap"`

	// PriorityDelay (Delta) - each proposer submits delayed by
	// priority*PriorityDelay, enforcing proposer ordering.
	PriorityDelay time.Duration `mapstructure:"priority_delay" json:"priority_delay"`

	// InfiniteDelay (DeltaInfinity) - delay before every node approves the
	// null candidate, the liveness fallback.
	InfiniteDelay time.Duration `mapstructure:"infinite_delay" json:"infinite_delay"`

	// FastAttempts (Y) - attempts numbered <= Y are "fast", the rest "slow".
	FastAttempts int32 `mapstructure:"fast_attempts" json:"fast_attempts"`

	// ProposerWindow (C) - only nodes with priority < C propose in a round.
	ProposerWindow int32 `mapstructure:"proposer_window" json:"proposer_window"`

	// ProcessDelay (simDelay) - local validation latency before self- and
	// auto-approvals.
	ProcessDelay time.Duration `mapstructure:"process_delay" json:"process_delay"`

	// DropProbability - chance a lagging node drops one sent or received
	// message.
	DropProbability float64 `mapstructure:"drop_probability" json:"drop_probability"`

	// MaxLogEntries bounds the in-model event log.
	MaxLogEntries int `mapstructure:"max_log_entries" json:"max_log_entries"`

	// Seed for the model's random stream. Zero means the caller picks one.
	Seed int64 `mapstructure:"seed" json:"seed"`
}

// DefaultConfig returns the reference configuration: 5 nodes, quorum 4.
func DefaultConfig() *Config {
	return &Config{
		NodeCount:       DefaultNodeCount,
		Quorum:          QuorumFor(DefaultNodeCount),
		LatencyMin:      DefaultLatencyMin,
		LatencyMax:      DefaultLatencyMax,
		AttemptTimeout:  DefaultAttemptTimeout,
		RoundGap:        DefaultRoundGap,
		PriorityDelay:   DefaultPriorityDelay,
		InfiniteDelay:   DefaultInfiniteDelay,
		FastAttempts:    DefaultFastAttempts,
		ProposerWindow:  DefaultProposerWindow,
		ProcessDelay:    DefaultProcessDelay,
		DropProbability: DefaultDropProbability,
		MaxLogEntries:   DefaultMaxLogEntries,
	}
}

// TestConfig returns a fast, fully deterministic configuration for tests:
// short latencies, no jitter spread to speak of, fixed seed.
func TestConfig() *Config {
	cfg := DefaultConfig()
	cfg.LatencyMin = 10 * time.Millisecond
	cfg.LatencyMax = 30 * time.Millisecond
	cfg.AttemptTimeout = 2 * time.Second
	cfg.RoundGap = 200 * time.Millisecond
	cfg.PriorityDelay = 50 * time.Millisecond
	cfg.InfiniteDelay = 500 * time.Millisecond
	cfg.ProcessDelay = 20 * time.Millisecond
	cfg.Seed = 1
	return cfg
}

// QuorumFor derives the default quorum size ceil(2n/3).
func QuorumFor(nodeCount int) int {
	if nodeCount <= 0 {
		return 0
	}
	return (2*nodeCount + 2) / 3
}

// Sanitized returns a copy with every malformed field replaced by its
// default. Malformed overrides never propagate a fatal error; each field
// falls back independently.
func (cfg *Config) Sanitized() *Config {
	def := DefaultConfig()
	out := *cfg

	if out.NodeCount <= 0 {
		out.NodeCount = def.NodeCount
	}
	if out.Quorum <= 0 || out.Quorum > out.NodeCount {
		out.Quorum = QuorumFor(out.NodeCount)
	}
	if out.LatencyMin < 0 {
		out.LatencyMin = def.LatencyMin
	}
	if out.LatencyMax < out.LatencyMin {
		out.LatencyMax = out.LatencyMin + (def.LatencyMax - def.LatencyMin)
	}
	if out.AttemptTimeout <= 0 {
		out.AttemptTimeout = def.AttemptTimeout
	}
	if out.RoundGap <= 0 {
		out.RoundGap = def.RoundGap
	}
	if out.PriorityDelay <= 0 {
		out.PriorityDelay = def.PriorityDelay
	}
	if out.InfiniteDelay <= 0 {
		out.InfiniteDelay = def.InfiniteDelay
	}
	if out.FastAttempts < 0 {
		out.FastAttempts = def.FastAttempts
	}
	if out.ProposerWindow <= 0 || out.ProposerWindow > int32(out.NodeCount) {
		out.ProposerWindow = def.ProposerWindow
		if out.ProposerWindow > int32(out.NodeCount) {
			out.ProposerWindow = int32(out.NodeCount)
		}
	}
	if out.ProcessDelay <= 0 {
		out.ProcessDelay = def.ProcessDelay
	}
	// inclusion check so NaN (comparing false both ways) also falls back
	if !(out.DropProbability >= 0 && out.DropProbability <= 1) {
		out.DropProbability = def.DropProbability
	}
	if out.MaxLogEntries <= 0 {
		out.MaxLogEntries = def.MaxLogEntries
	}
	return &out
}
