package main

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  `Prints the configuration after defaults, the config file and flags are merged, as TOML.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cfg.Encode(cmd.OutOrStdout())
		},
	}
}
