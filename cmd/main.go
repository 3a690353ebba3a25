package main

import (
	"os"
	"path/filepath"

	"github.com/tendermint/tendermint/libs/cli"

	cmd "bftsim_demo/cmd/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.NewRunSimCmd(),
		cmd.ShowConfigCmd,
		cli.NewCompletionCmd(rootCmd, true),
	)

	baseCmd := cli.PrepareBaseCmd(rootCmd, "BFTSIM", os.ExpandEnv(filepath.Join("$HOME", ".bftsim_demo")))

	if err := baseCmd.Execute(); err != nil {
		panic(err)
	}
}
