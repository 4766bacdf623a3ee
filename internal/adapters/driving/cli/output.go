package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// outputVerdict prints a verdict as JSON or styled text.
func outputVerdict(cmd *cobra.Command, v *domain.Verdict) error {
	if jsonFlag {
		return outputJSON(cmd, v)
	}

	st := stylesFor(cmd.OutOrStdout())
	header := fmt.Sprintf("%s  %s  %.2f",
		st.Title.Render(v.SubjectID), st.Label(v.Score.Label), v.Score.Value)
	cmd.Println(st.Box.Render(header))
	cmd.Printf("  Kind: %s   Mode: %s", v.Kind, v.Mode)
	if v.Genre != "" {
		cmd.Printf("   Genre: %s", v.Genre)
	}
	cmd.Printf("   Completeness: %.0f%%\n", v.Completeness*100)
	cmd.Println()

	if len(v.Score.Reasons) > 0 {
		cmd.Println(st.Subtitle.Render("Reasons"))
		for _, r := range v.Score.Reasons {
			sign := "+"
			if r.Direction == domain.DirectionHuman {
				sign = "-"
			}
			cmd.Printf("  %s %s %s\n", sign, r.Label, st.Muted.Render(fmt.Sprintf("(weight %.2f, %s)", r.Weight, r.Source)))
		}
		cmd.Println()
	}
	if len(v.Score.Fingerprints) > 0 {
		cmd.Printf("%s %s\n\n", st.Subtitle.Render("Fingerprints:"), strings.Join(v.Score.Fingerprints, ", "))
	}

	if len(v.Members) > 0 {
		cmd.Println(st.Subtitle.Render("Members"))
		for _, m := range v.Members {
			cmd.Printf("  %-32s %.2f  %s\n", m.UnitID, m.Score.Value, st.Label(m.Score.Label))
		}
		cmd.Println()
	}
	if len(v.Skipped) > 0 {
		cmd.Println(st.Subtitle.Render("Skipped"))
		ids := make([]string, 0, len(v.Skipped))
		for id := range v.Skipped {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			cmd.Printf("  %s: %s\n", id, v.Skipped[id])
		}
		cmd.Println()
	}
	if len(v.Findings) > 0 {
		cmd.Println(st.Subtitle.Render("Consistency"))
		for _, f := range v.Findings {
			line := fmt.Sprintf("  %s %s %s = %.3f (baseline %.3f, deviation %.2f)",
				f.Class, f.MemberID, f.Metric, f.Value, f.Baseline, f.Deviation)
			if f.LowConfidence {
				line += st.Muted.Render(" [low confidence]")
			}
			cmd.Println(line)
		}
		cmd.Println()
	}

	if v.Summary != "" {
		cmd.Println(st.Subtitle.Render("Report"))
		cmd.Println(v.Summary)
		cmd.Println()
	}
	if len(v.Degraded) > 0 {
		roles := make([]string, len(v.Degraded))
		for i, r := range v.Degraded {
			roles[i] = r.String()
		}
		cmd.Println(st.Muted.Render("Degraded agents: " + strings.Join(roles, ", ")))
	}
	notes := append(append([]string(nil), v.Score.Notes...), v.Notes...)
	for _, n := range notes {
		cmd.Println(st.Muted.Render("note: " + n))
	}
	cmd.Println(st.Muted.Render("verdict " + v.ID))
	return nil
}

// outputSummaries prints history listings.
func outputSummaries(cmd *cobra.Command, list []domain.VerdictSummary) error {
	if jsonFlag {
		return outputJSON(cmd, list)
	}
	if len(list) == 0 {
		cmd.Println("No verdicts recorded.")
		return nil
	}
	st := stylesFor(cmd.OutOrStdout())
	for _, s := range list {
		cmd.Printf("%s  %s  %-5s %-9s %.2f %s  %s\n",
			s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Kind, s.Mode, s.Score, st.Label(s.Label), s.SubjectID)
	}
	return nil
}
