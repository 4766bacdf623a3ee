// Command musictruth detects AI-generated music.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/audio"
	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/separation"
	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/musictruth-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/core/services"
	"github.com/custodia-labs/musictruth-cli/internal/extractors"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
	"github.com/custodia-labs/musictruth-cli/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cleanup, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// wire builds the services from the on-disk configuration and installs
// them on the CLI. The returned cleanup releases stores and providers.
func wire() (func(), error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	configDir, err := file.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	calibrationStore, err := file.NewCalibrationStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}
	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(), calibrationStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	m := metrics.New()
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	registry, err := extractors.NewDefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("extractors: %w", err)
	}
	for name, cfg := range settingsService.ExtractorConfigs(registry.Names()) {
		registry.Configure(name, cfg)
	}

	calibration, err := calibrationStore.Load()
	if err != nil {
		logger.Warn("calibration: %v (using built-in thresholds)", err)
		calibration = domain.DefaultCalibration()
	}
	table, err := calibration.TableFor("")
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}

	components := ai.Init(settings)
	cleanups = append(cleanups, components.Close)
	for _, w := range components.Warnings {
		logger.Warn("%s", w)
	}

	var classifier driven.Classifier
	if components.Classifier != nil {
		classifier = components.Classifier
	}

	var orchestrator *services.Orchestrator
	if len(components.Providers) > 0 {
		orchestrator = services.NewOrchestrator(components.Providers, promptStore, services.OrchestratorConfig{
			CallTimeout: settings.Agents.CallTimeout,
			Backoff:     settings.Agents.Backoff,
		}, m)
	}

	var separator driven.StemSeparator
	demucs, err := separation.NewDemucs(separation.Config{})
	if err != nil {
		logger.Warn("stem separation disabled: %v", err)
	} else {
		separator = demucs
		cleanups = append(cleanups, func() { _ = demucs.Close() })
	}

	var store driven.VerdictStore
	var history *services.HistoryService
	db, err := sqlite.NewStore("")
	if err != nil {
		logger.Warn("verdict history disabled: %v", err)
	} else {
		store = db.VerdictStore()
		history = services.NewHistoryService(store)
		cleanups = append(cleanups, func() { _ = db.Close() })
	}

	profiles := settingsService.ModeProfiles()
	analysis := services.NewAnalysisService(services.AnalysisDeps{
		Registry:     registry,
		Profiles:     profiles,
		Extraction:   services.NewExtractionService(separator, m, settings.Analysis.Workers),
		Aggregator:   services.NewAggregator(profiles, settings.Analysis.RelaxFloor, m),
		Ensemble:     services.NewEnsemble(table, classifier, settings.Classifier.Weight, m),
		Calibration:  calibration,
		Consistency:  services.NewConsistencyAnalyzer(settings.Consistency.Tolerance, settings.Consistency.PairTolerance, registry.Specs(), m),
		Orchestrator: orchestrator,
		Assembler:    services.NewVerdictAssembler(time.Now, m),
		Decoder:      audio.NewDecoder(audio.Config{}),
		Store:        store,
	}, settings.Analysis)

	svc := cli.Services{
		Analysis: analysis,
		Settings: settingsService,
		Metrics:  m,
	}
	if history != nil {
		svc.History = history
	}
	cli.SetServices(svc)

	return cleanup, nil
}
