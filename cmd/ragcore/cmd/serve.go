package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragcore/ragcore/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long:  `Exposes ask_question, prepare_namespace and get_status as MCP tools over stdio.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, transport)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport to use (stdio)")
	return cmd
}

func runServe(cmd *cobra.Command, transport string) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	defer c.Close()

	srv, err := mcpserver.NewServer(c)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return srv.Serve(cmd.Context(), transport)
}
