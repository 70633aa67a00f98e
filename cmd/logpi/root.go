package main

import (
	"context"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logpi",
		Short: "Builds an inverted index of network addresses over log files.",
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none)")
	cmd.AddCommand(newIndexCommand(ctx))
	return cmd
}
