package rpc

import (
	"time"

	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"

	"bftsim_demo/libs/utils"
	"bftsim_demo/simulation"
	simtype "bftsim_demo/simulation/types"
	"bftsim_demo/types"
)

type ResultSnapshot struct {
	Snapshot simulation.Snapshot `json:"snapshot"`
}

type ResultHistory struct {
	Commits []simtype.CommitRecord `json:"commits"`
	ResultLatency
}

// ResultLatency - per-round commit latency statistics in seconds.
type ResultLatency struct {
	Rounds      int     `json:"rounds"`
	MaxLatency  float64 `json:"max_round_latency"`
	MinLatency  float64 `json:"min_round_latency"`
	MeanLatency float64 `json:"mean_round_latency"`
	AvgLatency  float64 `json:"avg_round_latency"`
}

type ResultEventLog struct {
	Events []types.LogEntry `json:"events"`
}

type ResultMetrics struct {
	Items    map[string]string `json:"items"`
	Counters map[string]int64  `json:"counters"`
}

type ResultStatus struct {
	Node   types.NodeID `json:"node,omitempty"`
	Status string       `json:"status"`
}

type ResultServiceStatus struct {
	Info    ServiceInfo   `json:"info"`
	SimTime time.Duration `json:"sim_time"`
	Round   int64         `json:"round"`
	Attempt int32         `json:"attempt"`
}

// Status returns daemon identity plus a cheap progress summary.
func Status(ctx *rpctypes.Context) (*ResultServiceStatus, error) {
	snap := env.Runner.Snapshot()
	return &ResultServiceStatus{
		Info:    env.Info,
		SimTime: snap.Now,
		Round:   snap.Round,
		Attempt: snap.Attempt,
	}, nil
}

// Snapshot returns the full read-only view of the current simulation state.
func Snapshot(ctx *rpctypes.Context) (*ResultSnapshot, error) {
	snap := env.Runner.Snapshot()
	return &ResultSnapshot{Snapshot: snap}, nil
}

// History returns the commit history with latency statistics.
func History(ctx *rpctypes.Context) (*ResultHistory, error) {
	snap := env.Runner.Snapshot()

	latencies := make([]float64, 0, len(snap.History))
	for _, record := range snap.History {
		latencies = append(latencies, (record.Committed - record.StartedAt).Seconds())
	}

	return &ResultHistory{
		Commits: snap.History,
		ResultLatency: ResultLatency{
			Rounds:      len(latencies),
			MaxLatency:  utils.Max(latencies...),
			MinLatency:  utils.Min(latencies...),
			MeanLatency: utils.Mean(latencies...),
			AvgLatency:  utils.Avg(latencies...),
		},
	}, nil
}

// EventLog returns the bounded event log, newest first.
func EventLog(ctx *rpctypes.Context) (*ResultEventLog, error) {
	snap := env.Runner.Snapshot()
	return &ResultEventLog{Events: snap.Events}, nil
}

// Metrics renders every registered metric surface plus the go-metrics
// counters.
func Metrics(ctx *rpctypes.Context) (*ResultMetrics, error) {
	res := &ResultMetrics{
		Items:    map[string]string{},
		Counters: map[string]int64{},
	}
	if env.MetricSet != nil {
		res.Items = env.MetricSet.JSONStrings()
	}
	env.Runner.MetricsRegistry().Each(func(name string, metric interface{}) {
		if counter, ok := metric.(interface{ Count() int64 }); ok {
			res.Counters[name] = counter.Count()
		}
	})
	return res, nil
}

// SetNodeStatus injects a fault: status is one of good|lagging|crashed.
func SetNodeStatus(ctx *rpctypes.Context, node string, status string) (*ResultStatus, error) {
	st, err := types.ParseNodeStatus(status)
	if err != nil {
		return nil, err
	}
	if err := env.Runner.SetNodeStatus(types.NodeID(node), st); err != nil {
		return nil, err
	}
	return &ResultStatus{Node: types.NodeID(node), Status: st.String()}, nil
}

// SetDropProbability overrides the lagging drop chance (0..1).
func SetDropProbability(ctx *rpctypes.Context, probability float64) (*ResultStatus, error) {
	env.Runner.SetDropProbability(probability)
	return &ResultStatus{Status: "ok"}, nil
}

// Reset discards all queues and state and starts a fresh model.
func Reset(ctx *rpctypes.Context, seed int64) (*ResultStatus, error) {
	env.Runner.ResetWithSeed(seed)
	return &ResultStatus{Status: "ok"}, nil
}
