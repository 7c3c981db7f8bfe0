// Package cli implements the planner command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/aristath/planner/internal/config"
)

// NewRootCommand builds the planner command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "planner",
		Short: "Deterministic task scheduling service",
		Long: `Planner orders project tasks so that every task follows its dependencies,
preferring earlier due dates, then shorter estimates, then title order.

Run "planner serve" for the HTTP API or "planner schedule" to order a
task list from a file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	root.PersistentFlags().StringP("config", "c", "", "config file (merged over ~/.planner/config.json and .planner/config.json)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newScheduleCommand())
	root.AddCommand(newConfigCommand())
	return root
}

// loadConfig resolves the effective configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.PlannerConfig, error) {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadDefault(explicit)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
