package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

var extractorsCmd = &cobra.Command{
	Use:   "extractors",
	Short: "List registered feature extractors",
	Long:  `List every registered extractor, the metrics it emits and the modes that run it.`,
	RunE:  runExtractors,
}

func init() {
	rootCmd.AddCommand(extractorsCmd)
}

func runExtractors(cmd *cobra.Command, _ []string) error {
	if analysisService == nil {
		return errAnalysisNotConfigured
	}

	infos := analysisService.Extractors()
	if jsonFlag {
		return outputJSON(cmd, infos)
	}

	for _, info := range infos {
		modes := make([]string, len(info.Modes))
		for i, m := range info.Modes {
			modes[i] = m.String()
		}
		if len(modes) == 0 {
			modes = []string{"none"}
		}

		cmd.Printf("%d. %s\n", info.Index+1, info.Name)
		cmd.Printf("   Modes: %s\n", strings.Join(modes, ", "))
		if stem := info.Requirements.Stem; stem != "" && stem != domain.StemFullMix {
			cmd.Printf("   Stem: %s\n", stem)
		}
		if info.Requirements.MinDuration > 0 {
			cmd.Printf("   Min duration: %s\n", info.Requirements.MinDuration)
		}
		if info.Requirements.Channels > 0 {
			cmd.Printf("   Channels: %d\n", info.Requirements.Channels)
		}
		for _, m := range info.Metrics {
			cmd.Printf("   - %s\n", m.Name)
		}
	}
	return nil
}
