package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "forktree",
		Short:        "forktree lays out the block trees seen by a set of nodes",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to the YAML configuration file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newLayoutCmd(&configPath))
	return root
}
