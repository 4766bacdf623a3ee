// Package cli provides the musictruth command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
	"github.com/custodia-labs/musictruth-cli/internal/metrics"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Services wired in by main.
var (
	analysisService driving.AnalysisService
	historyService  driving.HistoryService
	settingsService driving.SettingsService
	appMetrics      *metrics.Metrics
)

// Global flags.
var (
	verboseFlag bool
	jsonFlag    bool
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "musictruth",
	Short: "Detect AI-generated music",
	Long: `musictruth analyses audio recordings for signs of AI generation.

It extracts forensic features (spectral cutoff, tempo stability, stereo field,
vocal pitch, silence and entropy, provider fingerprints), scores them against
calibrated thresholds and an optional classifier, checks albums for internal
consistency, and has language model agents write a readable report.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if metricsFile == "" || appMetrics == nil {
			return nil
		}
		if err := appMetrics.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")
}

// Services groups the driving ports the commands call.
type Services struct {
	Analysis driving.AnalysisService
	History  driving.HistoryService
	Settings driving.SettingsService
	Metrics  *metrics.Metrics
}

// SetServices installs the services used by commands.
func SetServices(s Services) {
	analysisService = s.Analysis
	historyService = s.History
	settingsService = s.Settings
	appMetrics = s.Metrics
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var (
	errAnalysisNotConfigured = errors.New("analysis service not configured")
	errHistoryNotConfigured  = errors.New("history service not configured")
	errSettingsNotConfigured = errors.New("settings service not configured")
)
