package node

import (
	"net"
	"net/http"
	"time"

	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
	rpcserver "github.com/tendermint/tendermint/rpc/jsonrpc/server"

	"bftsim_demo/config"
	"bftsim_demo/libs/metric"
	"bftsim_demo/rpc"
	"bftsim_demo/runner"
)

// Node assembles the simulation daemon: the ticking runner, the metric
// registry and the jsonrpc/websocket server, wrapped into one startable
// service.
type Node struct {
	service.BaseService

	config *config.Config

	runner    *runner.Runner
	metricSet *metric.MetricSet

	listenAddr     string
	listener       net.Listener
	timeScale      float64
	streamInterval time.Duration
}

type Option func(*Node)

func WithListenAddr(addr string) Option {
	return func(n *Node) {
		n.listenAddr = addr
	}
}

// WithTimeScale sets how much simulated time passes per wall-clock second.
func WithTimeScale(scale float64) Option {
	return func(n *Node) {
		if scale > 0 {
			n.timeScale = scale
		}
	}
}

// WithStreamInterval sets the websocket snapshot push interval.
func WithStreamInterval(d time.Duration) Option {
	return func(n *Node) {
		if d > 0 {
			n.streamInterval = d
		}
	}
}

func New(cfg *config.Config, logger log.Logger, options ...Option) (*Node, error) {
	cfg = cfg.Sanitized()

	n := &Node{
		config:         cfg,
		listenAddr:     "tcp://127.0.0.1:26657",
		timeScale:      1.0,
		streamInterval: 100 * time.Millisecond,
	}
	for _, option := range options {
		option(n)
	}
	if err := validateListenAddr(n.listenAddr); err != nil {
		return nil, err
	}

	n.runner = runner.NewRunner(cfg, runner.WithTimeScale(n.timeScale))
	n.runner.SetLogger(logger.With("module", "runner"))

	n.metricSet = metric.NewMetricSet()
	if err := n.metricSet.SetMetrics(runner.MetricLabel, n.runner.Metric()); err != nil {
		return nil, err
	}

	rpc.SetEnvironment(&rpc.Environment{
		Runner:    n.runner,
		MetricSet: n.metricSet,
		Info: rpc.ServiceInfo{
			Version:    Version,
			ListenAddr: n.listenAddr,
			Seed:       cfg.Seed,
			NodeCount:  cfg.NodeCount,
			Quorum:     cfg.Quorum,
		},
	})

	n.BaseService = *service.NewBaseService(logger, "Node", n)
	return n, nil
}

func (n *Node) OnStart() error {
	mux := http.NewServeMux()
	rpcserver.RegisterRPCFuncs(mux, rpc.Routes, n.Logger)
	mux.HandleFunc("/websocket/snapshots", rpc.StreamHandler(n.streamInterval, n.Logger))

	serverConfig := rpcserver.DefaultConfig()
	listener, err := rpcserver.Listen(n.listenAddr, serverConfig)
	if err != nil {
		return err
	}
	n.listener = listener
	go func() {
		if err := rpcserver.Serve(listener, mux, n.Logger.With("module", "rpc"), serverConfig); err != nil {
			n.Logger.Error("rpc server stopped", "err", err)
		}
	}()

	return n.runner.Start()
}

func (n *Node) OnStop() {
	if err := n.runner.Stop(); err != nil {
		n.Logger.Error("failed trying to stop runner", "error", err)
	}
	if n.listener != nil {
		if err := n.listener.Close(); err != nil {
			n.Logger.Error("failed trying to close listener", "error", err)
		}
	}
}

// Runner exposes the underlying simulation driver, mostly for tests and the
// CLI.
func (n *Node) Runner() *runner.Runner {
	return n.runner
}
