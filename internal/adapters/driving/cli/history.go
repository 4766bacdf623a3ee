package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

var (
	historyLimit   int
	historySubject string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse stored verdicts",
	RunE:  runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent verdicts",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored verdict",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored verdict",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	for _, c := range []*cobra.Command{historyCmd, historyListCmd} {
		c.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of verdicts (0 = all)")
		c.Flags().StringVar(&historySubject, "subject", "", "only verdicts for this file or group")
	}
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errHistoryNotConfigured
	}

	var list []domain.VerdictSummary
	var err error
	if historySubject != "" {
		list, err = historyService.ListBySubject(cmd.Context(), historySubject)
	} else {
		list, err = historyService.List(cmd.Context(), historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to list verdicts: %w", err)
	}
	return outputSummaries(cmd, list)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errHistoryNotConfigured
	}
	v, err := historyService.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("verdict %s not found", args[0])
		}
		return fmt.Errorf("failed to get verdict: %w", err)
	}
	return outputVerdict(cmd, v)
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errHistoryNotConfigured
	}
	if err := historyService.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("verdict %s not found", args[0])
		}
		return fmt.Errorf("failed to delete verdict: %w", err)
	}
	cmd.Printf("Deleted verdict %s\n", args[0])
	return nil
}
