package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"techsupport/backend/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "techsupportctl",
		Short:         "Operate the tech-support scheduling service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (defaults to TECHSUPPORT_CONFIG)")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newTokenCmd(opts),
		newSlotsCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return cmd
}
