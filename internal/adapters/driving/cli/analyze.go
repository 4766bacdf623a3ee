package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/audio"
	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
)

// Request flags shared by analyze, album and compare.
var (
	modeFlag     string
	genreFlag    string
	noAgentsFlag bool
	artistFlag   string
	titleFlag    string
	albumFlag    string
	groupIDFlag  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyse one recording",
	Long: "Analyse a single audio file and print a verdict.\n\n" + modeHelp(),
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var albumCmd = &cobra.Command{
	Use:   "album [dir|files...]",
	Short: "Analyse an album and check it for consistency",
	Long: `Analyse every track of an album as one group. Tracks that deviate from
the rest of the album are reported as outliers, and albums that mix
generated and recorded material are flagged as hybrid suspects.

Pass a directory to scan it for audio files, or list the files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAlbum,
}

var compareCmd = &cobra.Command{
	Use:   "compare [file] [file]",
	Short: "Compare two variants of the same track",
	Long: `Analyse two variants of one track (for example a download and a stream
rip) and report metrics that differ more than the pair tolerance allows.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	for _, c := range []*cobra.Command{analyzeCmd, albumCmd, compareCmd} {
		c.Flags().StringVarP(&modeFlag, "mode", "m", "", "analysis mode (quick, standard, deep, forensic)")
		c.Flags().StringVarP(&genreFlag, "genre", "g", "", "calibration profile (e.g. lofi, electronic, solo_piano)")
		c.Flags().BoolVar(&noAgentsFlag, "no-agents", false, "skip the language model report")
		c.Flags().StringVar(&artistFlag, "artist", "", "artist name for research context")
		c.Flags().StringVar(&titleFlag, "title", "", "track title for research context")
		c.Flags().StringVar(&albumFlag, "album", "", "album name for research context")
	}
	albumCmd.Flags().StringVar(&groupIDFlag, "id", "", "group identifier (defaults to the directory name)")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(albumCmd)
	rootCmd.AddCommand(compareCmd)
}

func analysisRequest() (driving.AnalysisRequest, error) {
	mode := domain.AnalysisMode(modeFlag)
	if modeFlag != "" && !mode.IsValid() {
		return driving.AnalysisRequest{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, modeFlag)
	}
	return driving.AnalysisRequest{
		Mode:       mode,
		Genre:      genreFlag,
		SkipAgents: noAgentsFlag,
		Metadata: domain.Metadata{
			Artist: artistFlag,
			Title:  titleFlag,
			Album:  albumFlag,
			Genre:  genreFlag,
		},
	}, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errAnalysisNotConfigured
	}
	req, err := analysisRequest()
	if err != nil {
		return err
	}

	verdict, err := analysisService.AnalyzeFile(cmd.Context(), args[0], req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return outputVerdict(cmd, verdict)
}

func runAlbum(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errAnalysisNotConfigured
	}
	req, err := analysisRequest()
	if err != nil {
		return err
	}

	paths, err := collectAudioFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: no audio files found", domain.ErrInvalidInput)
	}

	groupID := groupIDFlag
	if groupID == "" {
		groupID = filepath.Base(filepath.Clean(args[0]))
		if len(args) > 1 || !isDir(args[0]) {
			groupID = filepath.Base(filepath.Dir(paths[0]))
		}
	}

	verdict, err := analysisService.AnalyzeFiles(cmd.Context(), groupID, paths, req)
	if err != nil {
		return fmt.Errorf("album analysis failed: %w", err)
	}
	return outputVerdict(cmd, verdict)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errAnalysisNotConfigured
	}
	req, err := analysisRequest()
	if err != nil {
		return err
	}

	groupID := "compare:" + filepath.Base(args[0]) + "|" + filepath.Base(args[1])
	verdict, err := analysisService.AnalyzeFiles(cmd.Context(), groupID, args, req)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	return outputVerdict(cmd, verdict)
}

// collectAudioFiles expands directories into their audio files, sorted by
// name. Explicit file arguments are kept as given.
func collectAudioFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !isDir(arg) {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && audio.IsAudioFile(e.Name()) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// modeHelp lists each mode with its description.
func modeHelp() string {
	var sb strings.Builder
	sb.WriteString("Modes select how many extractors run:")
	for _, m := range domain.AllAnalysisModes() {
		fmt.Fprintf(&sb, "\n  %-9s - %s", m, m.Description())
	}
	return sb.String()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
