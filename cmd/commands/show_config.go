package commands

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var ShowConfigCmd = &cobra.Command{
	Use:     "show-config",
	Aliases: []string{"show_config"},
	Short:   "Print the effective (sanitized) simulation configuration",
	RunE:    showConfig,
}

func showConfig(cmd *cobra.Command, args []string) error {
	raw, err := jsoniter.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
