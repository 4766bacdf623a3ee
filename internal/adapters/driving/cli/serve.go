package cli

import (
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/musictruth-cli/internal/adapters/driving/httpapi"
)

// defaultHost keeps listeners off external interfaces unless asked.
const defaultHost = "127.0.0.1"

var (
	serveHost    string
	servePort    int
	serveTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Start an HTTP server exposing analysis, verdict history and metrics.

Routes:
  GET    /healthz
  GET    /metrics          prometheus metrics
  GET    /extractors
  POST   /analyze          {"path": "..."} or {"paths": [...], "group_id": "..."}
  GET    /verdicts         ?limit=N or ?subject=ID
  GET    /verdicts/{id}
  DELETE /verdicts/{id}`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", defaultHost, "interface to listen on (0.0.0.0 for all)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP port")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 10*time.Minute, "per-request timeout (0 disables)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if analysisService == nil {
		return errAnalysisNotConfigured
	}

	var registry *prometheus.Registry
	if appMetrics != nil {
		registry = appMetrics.Registry()
	}

	server, err := httpapi.NewServer(httpapi.Config{
		Addr:           listenAddr(serveHost, servePort),
		RequestTimeout: serveTimeout,
		Registry:       registry,
	}, analysisService, historyService)
	if err != nil {
		return err
	}

	cmd.Printf("HTTP API listening on http://%s\n", server.Addr())
	return server.Run(cmd.Context())
}

// listenAddr joins host and port, falling back to the loopback host.
func listenAddr(host string, port int) string {
	if host == "" {
		host = defaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
