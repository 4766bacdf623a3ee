package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
	"github.com/custodia-labs/musictruth-cli/internal/metrics"
)

// Fallback texts used when a role degrades.
const (
	noResearch = "No external context available"
	noCritique = "Critique unavailable. Evidence digest:"
)

// Defaults for OrchestratorConfig.
const (
	defaultMaxBackoff = 5 * time.Second
	defaultRateLimit  = 2
	defaultBurst      = 1
	defaultMaxTokens  = 1024
)

// roleState is the per-role state machine position.
type roleState int

const (
	stateIdle roleState = iota
	stateAttempting
	stateSucceeded
	stateExhausted
	stateDegraded
)

// OrchestratorConfig tunes retry behaviour.
type OrchestratorConfig struct {
	// CallTimeout bounds each provider call. Zero disables the timeout.
	CallTimeout time.Duration

	// Backoff is the first retry delay; it doubles per retry up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration

	// RateLimit is the per-provider call rate in calls per second.
	RateLimit rate.Limit
	Burst     int
}

// DefaultOrchestratorConfig returns the production tuning.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		CallTimeout: domain.DefaultCallTimeout,
		Backoff:     domain.DefaultBackoff,
		MaxBackoff:  defaultMaxBackoff,
		RateLimit:   defaultRateLimit,
		Burst:       defaultBurst,
	}
}

// Orchestrator runs the Researcher, Critic and Reporter roles against a
// priority list of providers with retry, failover and degradation.
type Orchestrator struct {
	providers []driven.ProviderEntry
	prompts   driven.PromptStore
	cfg       OrchestratorConfig
	limiters  []*rate.Limiter
	metrics   *metrics.Metrics

	// sleep waits between retries. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates an orchestrator. Providers are tried in order.
// The prompt store is optional; built-in prompts are used without one.
func NewOrchestrator(
	providers []driven.ProviderEntry,
	prompts driven.PromptStore,
	cfg OrchestratorConfig,
	m *metrics.Metrics,
) *Orchestrator {
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}

	limiters := make([]*rate.Limiter, len(providers))
	for i := range providers {
		limiters[i] = rate.NewLimiter(cfg.RateLimit, cfg.Burst)
	}
	return &Orchestrator{
		providers: providers,
		prompts:   prompts,
		cfg:       cfg,
		limiters:  limiters,
		metrics:   m,
		sleep:     sleepContext,
	}
}

// Providers returns the number of configured providers.
func (o *Orchestrator) Providers() int {
	return len(o.providers)
}

// Run executes the three roles in order. It never fails: roles that cannot
// reach any provider degrade to templated text.
func (o *Orchestrator) Run(ctx context.Context, b Briefing) domain.AgentRun {
	run := domain.AgentRun{
		Messages: []domain.AgentMessage{},
		Outputs:  make(map[domain.AgentRole]string),
	}
	digest := b.Digest()

	research, ok := o.runRole(ctx, domain.RoleResearcher, b.researchInput(), &run)
	if !ok {
		research = noResearch
	}

	critique, ok := o.runRole(ctx, domain.RoleCritic,
		digest+"\n\nResearch context:\n"+research, &run)
	if !ok {
		critique = noCritique + "\n" + digest
	}

	o.runRole(ctx, domain.RoleReporter,
		digest+"\n\nResearch context:\n"+research+"\n\nCritique:\n"+critique, &run)

	return run
}

// runRole drives one role through the state machine and returns its output.
func (o *Orchestrator) runRole(ctx context.Context, role domain.AgentRole, input string, run *domain.AgentRun) (string, bool) {
	log := logger.Named("orchestrator")
	state := stateIdle
	provider, attempt := 0, 0
	var output string

	for {
		switch state {
		case stateIdle:
			if len(o.providers) == 0 || ctx.Err() != nil {
				state = stateExhausted
				continue
			}
			state = stateAttempting

		case stateAttempting:
			entry := o.providers[provider]
			out, err := o.attempt(ctx, role, provider, attempt, input, run)
			if err == nil {
				output = out
				state = stateSucceeded
				continue
			}
			log.Debug().
				Str("role", role.String()).
				Str("provider", entry.Name).
				Int("retry", attempt).
				Err(err).
				Msg("attempt failed")

			if ctx.Err() != nil {
				state = stateExhausted
				continue
			}
			if attempt < entry.Retries {
				if o.sleep(ctx, o.backoff(attempt)) != nil {
					state = stateExhausted
					continue
				}
				attempt++
				continue
			}
			provider++
			attempt = 0
			if provider >= len(o.providers) {
				state = stateExhausted
			}

		case stateSucceeded:
			run.Outputs[role] = output
			return output, true

		case stateExhausted:
			state = stateDegraded

		case stateDegraded:
			log.Debug().Str("role", role.String()).Msg("role degraded")
			run.Degraded = append(run.Degraded, role)
			o.metrics.ObserveDegraded(role.String())
			return "", false
		}
	}
}

// attempt makes one call and records it as an agent message.
func (o *Orchestrator) attempt(
	ctx context.Context,
	role domain.AgentRole,
	provider, retry int,
	input string,
	run *domain.AgentRun,
) (string, error) {
	entry := o.providers[provider]
	msg := domain.AgentMessage{
		Role:     role,
		Input:    input,
		Provider: entry.Name,
		Retry:    retry,
	}

	start := time.Now()
	out, err := o.call(ctx, role, provider, input)
	o.metrics.ObserveAttempt(entry.Name, role.String(), err == nil, time.Since(start))

	if entry.Service != nil {
		msg.Model = entry.Service.ModelName()
	}
	if err != nil {
		msg.Error = err.Error()
	} else {
		msg.Output = out
		msg.Success = true
	}
	run.Messages = append(run.Messages, msg)
	return out, err
}

func (o *Orchestrator) call(ctx context.Context, role domain.AgentRole, provider int, input string) (string, error) {
	entry := o.providers[provider]
	if entry.Service == nil {
		return "", fmt.Errorf("%w: %s has no service", domain.ErrProviderFailure, entry.Name)
	}

	callCtx := ctx
	if o.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.CallTimeout)
		defer cancel()
	}

	if err := o.limiters[provider].Wait(callCtx); err != nil {
		return "", fmt.Errorf("%w: %w: %v", domain.ErrProviderFailure, domain.ErrRateLimited, err)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: o.systemPrompt(role)},
		{Role: "user", Content: input},
	}
	out, err := entry.Service.Chat(callCtx, messages, driven.ChatOptions{
		MaxTokens:   defaultMaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		if errors.Is(err, domain.ErrProviderFailure) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrProviderFailure)
	}
	return out, nil
}

// backoff returns the delay before the given zero-based retry.
func (o *Orchestrator) backoff(retry int) time.Duration {
	d := o.cfg.Backoff
	for i := 0; i < retry && d < o.cfg.MaxBackoff; i++ {
		d *= 2
	}
	if d > o.cfg.MaxBackoff {
		d = o.cfg.MaxBackoff
	}
	return d
}

func (o *Orchestrator) systemPrompt(role domain.AgentRole) string {
	if o.prompts != nil {
		if p, err := o.prompts.Load(role.String()); err == nil && p != "" {
			return p
		}
	}
	return builtinPrompts[role]
}

// builtinPrompts are used when no prompt store is configured.
var builtinPrompts = map[domain.AgentRole]string{
	domain.RoleResearcher: "You are a music researcher. Report only verifiable facts about the artist and release. " +
		"Say so plainly when nothing is known.",
	domain.RoleCritic: "You are a forensic audio critic. Weigh the technical evidence against the research context " +
		"and point out which signals hold up and which do not.",
	domain.RoleReporter: "You write the final verdict on whether a recording is AI-generated. " +
		"Use short markdown sections: Verdict, Evidence, Caveats.",
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
