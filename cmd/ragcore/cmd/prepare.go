package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrepareCmd() *cobra.Command {
	var forceRebuild bool

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Load or reload a namespace's indices from disk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrepare(cmd, forceRebuild)
		},
	}
	cmd.Flags().BoolVar(&forceRebuild, "force-rebuild", false, "Discard already-loaded indices and reload from disk")
	return cmd
}

func runPrepare(cmd *cobra.Command, forceRebuild bool) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.PrepareNamespace(cmd.Context(), tenantID, scenarioID, forceRebuild)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "parsed=%d indexed=%d total_time_ms=%d\n",
		result.Parsed, result.Indexed, result.TotalTimeMs)
	return nil
}
