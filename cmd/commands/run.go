package commands

import (
	"time"

	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"
	tmrand "github.com/tendermint/tendermint/libs/rand"

	"bftsim_demo/node"
)

var (
	listenAddr     string
	seed           int64
	timeScale      float64
	streamInterval time.Duration
	duration       time.Duration
)

// NewRunSimCmd returns the command that runs the simulation daemon: the
// ticking runner plus the jsonrpc endpoints and the websocket snapshot
// stream a rendering client consumes.
func NewRunSimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Aliases: []string{"run_sim", "start"},
		Short:   "Run the consensus-round simulation and serve snapshots",
		RunE:    runSim,
	}

	cmd.Flags().StringVar(&listenAddr, "laddr", "tcp://127.0.0.1:26657", "rpc listen address")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random stream seed (0 picks one)")
	cmd.Flags().Float64Var(&timeScale, "scale", 1.0, "simulated time per wall-clock time")
	cmd.Flags().DurationVar(&streamInterval, "stream-interval", 100*time.Millisecond, "websocket snapshot push interval")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this much wall-clock time (0 runs until signal)")

	return cmd
}

func runSim(cmd *cobra.Command, args []string) error {
	if seed == 0 {
		seed = tmrand.Int63()
	}
	config.Seed = seed

	n, err := node.New(config, logger,
		node.WithListenAddr(listenAddr),
		node.WithTimeScale(timeScale),
		node.WithStreamInterval(streamInterval),
	)
	if err != nil {
		return err
	}

	if err := n.Start(); err != nil {
		return err
	}
	logger.Info("simulation running", "seed", seed, "laddr", listenAddr)

	if duration > 0 {
		time.Sleep(duration)
		return n.Stop()
	}

	tmos.TrapSignal(logger, func() {
		if err := n.Stop(); err != nil {
			logger.Error("failed trying to stop node", "error", err)
		}
	})
	select {}
}
