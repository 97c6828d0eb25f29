package cli

import (
	"github.com/google/gops/agent"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// addGopsFlag registers --gops on a long-running command.
func addGopsFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("gops", false, "start a gops agent for runtime diagnostics")
}

// startGops starts the gops agent when --gops is set. The returned
// function stops it.
func startGops(cmd *cobra.Command) func() {
	enabled, err := cmd.Flags().GetBool("gops")
	if err != nil || !enabled {
		return func() {}
	}
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		logger.Warn("gops: %v", err)
		return func() {}
	}
	logger.Info("gops agent listening")
	return agent.Close
}
