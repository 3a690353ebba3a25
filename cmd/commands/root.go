package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"

	cfg "bftsim_demo/config"
)

var (
	config  = cfg.DefaultConfig()
	logger  = log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	verbose bool
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

var RootCmd = &cobra.Command{
	Use:   "bftsim",
	Short: "A Byzantine-agreement round simulator for teaching visualizations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// viper carries whatever the config file and env set; every field
		// missing or malformed falls back to its default in Sanitized
		if err := viper.Unmarshal(config); err != nil {
			logger.Error("failed to parse configuration, using defaults", "err", err)
			config = cfg.DefaultConfig()
		}
		config = config.Sanitized()

		if verbose {
			logger = log.NewFilter(logger, log.AllowDebug())
		} else {
			logger = log.NewFilter(logger, log.AllowInfo())
		}
		return nil
	},
}
