package runner

import (
	"sync"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/tendermint/tendermint/libs/events"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"

	"bftsim_demo/config"
	"bftsim_demo/simulation"
	"bftsim_demo/types"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	defaultTimeScale    = 1.0

	MetricLabel = "SIMULATION"
)

// Runner owns a Model and drives it from wall-clock time: a ticker calls
// Advance with the elapsed delta scaled by the time factor. The engine itself
// stays oblivious to wall-clock time.
//
// All access to the model goes through the runner's mutex; the engine has no
// locking of its own.
type Runner struct {
	service.BaseService

	cfg *config.Config

	mtx   sync.Mutex
	model *simulation.Model

	evsw events.EventSwitch

	tickInterval time.Duration
	timeScale    float64

	metric   *simulation.SimulationMetric
	registry metrics.Registry

	delivered metrics.Counter
	dropped   metrics.Counter
	committed metrics.Counter
	attempts  metrics.Counter
}

type Option func(*Runner)

// WithTickInterval overrides how often the wall-clock ticker fires.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.tickInterval = d
		}
	}
}

// WithTimeScale sets how much simulated time passes per wall-clock second.
func WithTimeScale(scale float64) Option {
	return func(r *Runner) {
		if scale > 0 {
			r.timeScale = scale
		}
	}
}

func NewRunner(cfg *config.Config, options ...Option) *Runner {
	r := &Runner{
		cfg:          cfg.Sanitized(),
		evsw:         events.NewEventSwitch(),
		tickInterval: defaultTickInterval,
		timeScale:    defaultTimeScale,
		metric:       simulation.NewSimulationMetric(),
		registry:     metrics.NewRegistry(),
	}

	r.delivered = metrics.GetOrRegisterCounter("simulation/messages_delivered", r.registry)
	r.dropped = metrics.GetOrRegisterCounter("simulation/messages_dropped", r.registry)
	r.committed = metrics.GetOrRegisterCounter("simulation/rounds_committed", r.registry)
	r.attempts = metrics.GetOrRegisterCounter("simulation/attempts_started", r.registry)

	for _, opt := range options {
		opt(r)
	}

	r.model = simulation.NewModel(r.cfg, simulation.SetEventSwitch(r.evsw))

	r.BaseService = *service.NewBaseService(nil, "SIMULATION", r)

	return r
}

func (r *Runner) SetLogger(logger log.Logger) {
	r.BaseService.SetLogger(logger)
	r.model.SetLogger(logger)
}

func (r *Runner) OnStart() error {
	if err := r.evsw.Start(); err != nil {
		return err
	}
	if err := r.evsw.AddListenerForEvent("runner", simulation.EventRoundCommitted, func(events.EventData) {
		r.committed.Inc(1)
	}); err != nil {
		return err
	}
	if err := r.evsw.AddListenerForEvent("runner", simulation.EventAttemptStarted, func(events.EventData) {
		r.attempts.Inc(1)
	}); err != nil {
		return err
	}

	go r.tickRoutine()
	r.Logger.Info("simulation runner started", "tick", r.tickInterval, "scale", r.timeScale)
	return nil
}

func (r *Runner) OnStop() {
	if err := r.evsw.Stop(); err != nil {
		r.Logger.Error("failed trying to stop eventSwitch", "error", err)
	}
	r.Logger.Info("simulation runner stopped.")
}

func (r *Runner) tickRoutine() {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Quit():
			return
		case <-ticker.C:
			r.Step(time.Duration(float64(r.tickInterval) * r.timeScale))
		}
	}
}

// Step advances the simulation by delta and refreshes the metric surfaces.
// Exposed so tests and the CLI can drive the model without the ticker.
func (r *Runner) Step(delta time.Duration) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.model.Advance(delta)

	snap := r.model.Snapshot()
	r.metric.MarkSnapshot(snap)
	if diff := snap.DeliveredMessages - r.delivered.Count(); diff > 0 {
		r.delivered.Inc(diff)
	}
	if diff := snap.DroppedMessages - r.dropped.Count(); diff > 0 {
		r.dropped.Inc(diff)
	}
}

// Snapshot returns a read-only copy of the current simulation state.
func (r *Runner) Snapshot() simulation.Snapshot {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.model.Snapshot()
}

// SetNodeStatus injects a fault on one node.
func (r *Runner) SetNodeStatus(id types.NodeID, status types.NodeStatus) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.model.SetNodeStatus(id, status)
}

// SetDropProbability overrides the lagging drop chance.
func (r *Runner) SetDropProbability(p float64) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.model.SetDropProbability(p)
}

// ResetWithSeed discards the model, its queues and in-flight messages, and
// starts a fresh one with the given seed.
func (r *Runner) ResetWithSeed(seed int64) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.model = simulation.NewModel(r.cfg, simulation.SetEventSwitch(r.evsw), simulation.SetSeed(seed))
	r.model.SetLogger(r.Logger)
	r.Logger.Info("simulation reset", "seed", seed)
}

// Metric returns the JSON metric surface for registry publication.
func (r *Runner) Metric() *simulation.SimulationMetric {
	return r.metric
}

// MetricsRegistry exposes the go-metrics registry.
func (r *Runner) MetricsRegistry() metrics.Registry {
	return r.registry
}
