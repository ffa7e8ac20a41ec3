package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against a prepared namespace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "))
		},
	}
	return cmd
}

func runAsk(cmd *cobra.Command, question string) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	defer c.Close()

	record, err := c.ProcessQuestion(cmd.Context(), tenantID, scenarioID, question)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, record.Answer)
	fmt.Fprintf(out, "\nmode=%s confidence=%.2f pages=%v time=%dms\n",
		record.Mode, record.Confidence, record.RelevantPages, record.ProcessingTimeMs)
	return nil
}
