// calorie-admin runs operator tasks against the configured stores: schema
// migrations, account creation and offline target estimates.
// Usage: go run ./cmd/calorie-admin <command>
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
		Use:           "calorie-admin",
		Short:         "Operator tools for the calorie budget API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the YAML config file")

	root.AddCommand(
		newMigrateCmd(&configPath),
		newCreateUserCmd(&configPath),
		newEstimateCmd(),
	)
	return root
}
