package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/musictruth-cli/internal/adapters/driving/mcp"
)

var (
	mcpHost string
	mcpPort int
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose analysis to AI assistants over MCP",
	Long: `Serve the musictruth tools to an MCP client.

Tools:
  analyze_file    analyse one audio file and return its verdict
  get_verdict     fetch a stored verdict by ID
  list_verdicts   list recent verdicts, optionally for one subject

Resources:
  musictruth://verdicts, musictruth://verdicts/{id}, musictruth://extractors

Without --port the server speaks JSON-RPC on stdin/stdout and logs go to
stderr. With --port it serves the streamable HTTP transport, which works
with MCP Inspector.

Client configuration:
  {
    "mcpServers": {
      "musictruth": {
        "command": "/path/to/musictruth",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", defaultHost, "interface for the HTTP transport")
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if analysisService == nil {
		return errAnalysisNotConfigured
	}

	ports := &mcp.Ports{Analysis: analysisService}
	if historyService != nil {
		ports.History = historyService
	}
	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}
	addr := listenAddr(mcpHost, mcpPort)
	cmd.PrintErrf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
