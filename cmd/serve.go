package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	mcpserver "github.com/lukman83/vinted-backoffice/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, repo, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer repo.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting back-office MCP server on stdio (%s store)...\n", cfg.StoreDriver)

	if err := mcpserver.Serve(svc); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	return nil
}
