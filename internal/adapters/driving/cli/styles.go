package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// Theme defines the colour palette for terminal output.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
		Border:    lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles renders verdict output. Plain styles render text unchanged.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	AI       lipgloss.Style
	Unsure   lipgloss.Style
	Human    lipgloss.Style
	Box      lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		AI:       lipgloss.NewStyle().Bold(true).Foreground(theme.Error),
		Unsure:   lipgloss.NewStyle().Bold(true).Foreground(theme.Warning),
		Human:    lipgloss.NewStyle().Bold(true).Foreground(theme.Success),
		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}

// PlainStyles returns styles that leave text untouched.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Title:    plain,
		Subtitle: plain,
		Muted:    plain,
		AI:       plain,
		Unsure:   plain,
		Human:    plain,
		Box:      plain,
	}
}

// stylesFor picks coloured styles only when w is an interactive terminal.
func stylesFor(w io.Writer) *Styles {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewStyles(nil)
	}
	return PlainStyles()
}

// Label styles a verdict label by direction.
func (s *Styles) Label(label domain.VerdictLabel) string {
	text := string(label)
	switch label {
	case domain.LabelLikelyAI:
		return s.AI.Render(text)
	case domain.LabelUncertain:
		return s.Unsure.Render(text)
	default:
		return s.Human.Render(text)
	}
}
