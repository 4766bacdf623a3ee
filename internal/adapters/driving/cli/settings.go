package cli

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

var (
	providerModel    string
	providerAPIKey   string
	providerRetries  int
	classifierWeight float64
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure analysis defaults, the classifier and the
language model providers used for reports.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsModeCmd = &cobra.Command{
	Use:   "mode [mode]",
	Short: "Set the default analysis mode",
	Long: `Set the default analysis mode.

Available modes:
  quick     - spectral cutoff and tempo only
  standard  - adds stereo, vocal pitch and silence analysis
  deep      - adds spectral peaks and provider fingerprints
  forensic  - every extractor, strictest completeness floor`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsMode,
}

var settingsGenreCmd = &cobra.Command{
	Use:   "genre [profile]",
	Short: "Set the default calibration profile",
	Long:  `Set the genre calibration profile. Pass "none" to clear it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGenre,
}

var settingsClassifierCmd = &cobra.Command{
	Use:   "classifier [model.json]",
	Short: "Configure the pretrained classifier",
	Long:  `Set the classifier model file. Pass "none" to disable the classifier.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsClassifier,
}

var settingsProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage language model providers",
	Long: `Providers are tried in the order they were added. When one fails after
its retries, the next provider takes over.`,
	RunE: runProvidersList,
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers in priority order",
	RunE:  runProvidersList,
}

var providersAddCmd = &cobra.Command{
	Use:   "add [provider]",
	Short: "Add or replace a provider",
	Long: `Add a provider to the end of the priority list, or replace an existing
entry in place.

Providers: ollama, openai, anthropic, gemini, openrouter, deepseek, lmstudio`,
	Args: cobra.ExactArgs(1),
	RunE: runProvidersAdd,
}

var providersRemoveCmd = &cobra.Command{
	Use:   "remove [provider]",
	Short: "Remove a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersRemove,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and ping every provider",
	RunE:  runSettingsValidate,
}

func init() {
	providersAddCmd.Flags().StringVar(&providerModel, "model", "", "model name (defaults per provider)")
	providersAddCmd.Flags().StringVar(&providerAPIKey, "api-key", "", "API key (prompted when required and omitted)")
	providersAddCmd.Flags().IntVar(&providerRetries, "retries", domain.DefaultProviderRetries, "retries before failing over")
	settingsClassifierCmd.Flags().Float64Var(&classifierWeight, "weight", domain.DefaultClassifierWeight, "classifier weight in the ensemble")

	settingsProvidersCmd.AddCommand(providersListCmd)
	settingsProvidersCmd.AddCommand(providersAddCmd)
	settingsProvidersCmd.AddCommand(providersRemoveCmd)

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsModeCmd)
	settingsCmd.AddCommand(settingsGenreCmd)
	settingsCmd.AddCommand(settingsClassifierCmd)
	settingsCmd.AddCommand(settingsProvidersCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if jsonFlag {
		redacted := *settings
		redacted.Agents.Providers = make([]domain.ProviderSettings, len(settings.Agents.Providers))
		for i, p := range settings.Agents.Providers {
			p.APIKey = maskAPIKey(p.APIKey)
			redacted.Agents.Providers[i] = p
		}
		return outputJSON(cmd, redacted)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Analysis]")
	cmd.Printf("  Mode: %s\n", settings.Analysis.Mode.Description())
	genre := settings.Analysis.Genre
	if genre == "" {
		genre = "(none)"
	}
	cmd.Printf("  Genre profile: %s\n", genre)
	cmd.Printf("  Relax completeness floor: %t\n", settings.Analysis.RelaxFloor)
	if settings.Analysis.Workers > 0 {
		cmd.Printf("  Workers: %d\n", settings.Analysis.Workers)
	} else {
		cmd.Println("  Workers: one per CPU")
	}
	if settings.Analysis.GroupTimeout > 0 {
		cmd.Printf("  Group timeout: %s\n", settings.Analysis.GroupTimeout)
	}
	cmd.Println()

	cmd.Println("[Classifier]")
	if settings.Classifier.Enabled() {
		cmd.Printf("  Model: %s\n", settings.Classifier.ModelPath)
		cmd.Printf("  Weight: %.2f\n", settings.Classifier.Weight)
	} else {
		cmd.Println("  Status: disabled")
	}
	cmd.Println()

	cmd.Println("[Consistency]")
	cmd.Printf("  Tolerance: %.2f MAD\n", settings.Consistency.Tolerance)
	cmd.Printf("  Pair tolerance: %.0f%%\n", settings.Consistency.PairTolerance*100)
	cmd.Println()

	cmd.Println("[Agents]")
	cmd.Printf("  Enabled: %t\n", settings.Agents.Enabled)
	printProviders(cmd, settings.Agents.Providers)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printProviders(cmd *cobra.Command, providers []domain.ProviderSettings) {
	if len(providers) == 0 {
		cmd.Println("  Providers: none (reports use the built-in template)")
		return
	}
	for i, p := range providers {
		key := ""
		if p.Provider.RequiresAPIKey() {
			key = "  key " + maskAPIKey(p.APIKey)
		}
		cmd.Printf("  %d. %s  model %s  retries %d%s\n", i+1, p.Provider.Description(), p.Model, p.Retries, key)
	}
}

func runSettingsMode(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	mode := domain.AnalysisMode(strings.ToLower(args[0]))
	if err := settingsService.SetMode(mode); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}
	cmd.Printf("Analysis mode set to: %s\n", mode.Description())
	return nil
}

func runSettingsGenre(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	genre := args[0]
	if genre == "none" {
		genre = ""
	}
	if err := settingsService.SetGenre(genre); err != nil {
		return fmt.Errorf("failed to set genre: %w", err)
	}
	if genre == "" {
		cmd.Println("Genre profile cleared.")
	} else {
		cmd.Printf("Genre profile set to: %s\n", genre)
	}
	return nil
}

func runSettingsClassifier(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	path := args[0]
	if path == "none" {
		path = ""
	} else if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("classifier model: %w", err)
	}
	if err := settingsService.SetClassifier(path, classifierWeight); err != nil {
		return fmt.Errorf("failed to configure classifier: %w", err)
	}
	if path == "" {
		cmd.Println("Classifier disabled.")
	} else {
		cmd.Printf("Classifier set to %s (weight %.2f)\n", path, classifierWeight)
	}
	return nil
}

func runProvidersList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Println("Providers (priority order):")
	printProviders(cmd, settings.Agents.Providers)
	return nil
}

func runProvidersAdd(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	provider := domain.AIProvider(strings.ToLower(args[0]))
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", args[0])
	}

	apiKey := providerAPIKey
	if apiKey == "" && provider.RequiresAPIKey() {
		cmd.Printf("Enter API key for %s: ", provider.Description())
		apiKey = readPassword()
		cmd.Println()
	}

	if err := settingsService.AddProvider(provider, providerModel, apiKey, providerRetries); err != nil {
		return fmt.Errorf("failed to add provider: %w", err)
	}
	cmd.Printf("Provider configured: %s\n", provider.Description())
	return nil
}

func runProvidersRemove(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	provider := domain.AIProvider(strings.ToLower(args[0]))
	if err := settingsService.RemoveProvider(provider); err != nil {
		return fmt.Errorf("failed to remove provider: %w", err)
	}
	cmd.Printf("Provider removed: %s\n", provider)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	failures := settingsService.ValidateProviders()
	if len(failures) == 0 {
		cmd.Println("All settings valid.")
		return nil
	}
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("  %s: FAILED (%v)\n", name, failures[name])
	}
	return fmt.Errorf("%d provider(s) unreachable", len(failures))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
