// Package ai provides the resilience and gateway layer for outbound calls
// to the text-completion provider: retry with backoff, rate pacing,
// JSON extraction, and a tiered model gateway.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Model tiers. Callers select a tier by task complexity; the tier-to-model
// mapping is configuration, not logic.
//
// Environment variable overrides:
//   - TRIAGE_MODEL_FAST: cheap model for classification-style tasks
//   - TRIAGE_MODEL_BALANCED: default model for similarity scoring
//   - TRIAGE_MODEL_POWERFUL: high-end model for complex reasoning
type Tier string

const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierPowerful Tier = "powerful"
)

const (
	defaultModelFast     = "claude-3-5-haiku-20241022"
	defaultModelBalanced = "claude-sonnet-4-5-20250929"
	defaultModelPowerful = "claude-opus-4-1-20250805"
)

// DefaultModels returns the tier mapping, honoring env overrides.
func DefaultModels() map[Tier]string {
	models := map[Tier]string{
		TierFast:     defaultModelFast,
		TierBalanced: defaultModelBalanced,
		TierPowerful: defaultModelPowerful,
	}
	if m := os.Getenv("TRIAGE_MODEL_FAST"); m != "" {
		models[TierFast] = m
	}
	if m := os.Getenv("TRIAGE_MODEL_BALANCED"); m != "" {
		models[TierBalanced] = m
	}
	if m := os.Getenv("TRIAGE_MODEL_POWERFUL"); m != "" {
		models[TierPowerful] = m
	}
	return models
}

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a provider-neutral chat message.
type Message struct {
	Role    string
	Content string
}

// CompletionOptions tune a single completion request. Nil pointer fields
// mean "provider default" (except JSON mode, which defaults Temperature
// to 0).
type CompletionOptions struct {
	MaxTokens   int
	Temperature *float64
	TopP        *float64
}

// Usage reports token consumption for one provider call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Provider is the remote completion backend. Implementations must surface
// distinguishable errors for network/timeout failures, HTTP 429, and 5xx so
// the retry layer can classify them.
type Provider interface {
	Invoke(ctx context.Context, modelID, system string, messages []Message, opts CompletionOptions) (string, Usage, error)
}

// ErrEmptyResponse indicates the provider returned no text content.
var ErrEmptyResponse = errors.New("provider returned no text content")

// DefaultRequestTimeout bounds a single provider call at the transport
// level. It must stay shorter than any enclosing HTTP request timeout so a
// hung call fails with a classifiable timeout instead of hanging the caller.
const DefaultRequestTimeout = 50 * time.Second

// Gateway normalizes completion calls into two shapes: plain chat and JSON
// mode. It is deliberately retry-agnostic; callers wrap calls in a Retryer
// when they want retries, and skip it when they want to fail fast (crisis
// detection does exactly that).
type Gateway struct {
	provider Provider
	models   map[Tier]string
	logger   *slog.Logger
}

// NewGateway creates a gateway over the given provider. A nil models map
// uses DefaultModels.
func NewGateway(provider Provider, models map[Tier]string, logger *slog.Logger) *Gateway {
	if models == nil {
		models = DefaultModels()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{provider: provider, models: models, logger: logger}
}

// Model resolves a tier to its configured model identifier.
func (g *Gateway) Model(tier Tier) string {
	if m, ok := g.models[tier]; ok {
		return m
	}
	return g.models[TierBalanced]
}

// ChatCompletion sends the messages and returns the provider's text
// response. A leading system message is folded into the provider's system
// field. Fails with ErrEmptyResponse when no text comes back.
func (g *Gateway) ChatCompletion(ctx context.Context, tier Tier, messages []Message, opts CompletionOptions) (string, error) {
	system, rest := splitSystem(messages)

	start := time.Now()
	text, usage, err := g.provider.Invoke(ctx, g.Model(tier), system, rest, opts)
	if err != nil {
		return "", fmt.Errorf("completion call failed: %w", err)
	}
	if text == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Debug("completion call",
		"tier", string(tier),
		"model", g.Model(tier),
		"inputTokens", usage.InputTokens,
		"outputTokens", usage.OutputTokens,
		"duration", time.Since(start))
	return text, nil
}

const jsonInstruction = "Respond with valid JSON only. No prose, no code fences."

// JSONCompletion runs a completion in JSON mode and unmarshals the response
// into T. The JSON-only instruction is appended to the system message (one
// is created if absent) and temperature defaults to 0 unless the caller set
// one. Parse failures return a *JSONError.
func JSONCompletion[T any](ctx context.Context, g *Gateway, tier Tier, messages []Message, opts CompletionOptions) (T, error) {
	var zero T

	system, rest := splitSystem(messages)
	if system == "" {
		system = jsonInstruction
	} else {
		system += "\n\n" + jsonInstruction
	}
	if opts.Temperature == nil {
		t := 0.0
		opts.Temperature = &t
	}

	withSystem := append([]Message{{Role: RoleSystem, Content: system}}, rest...)
	text, err := g.ChatCompletion(ctx, tier, withSystem, opts)
	if err != nil {
		return zero, err
	}

	result, err := ParseJSON[T](text)
	if err != nil {
		return zero, err
	}
	return result, nil
}

// splitSystem folds leading system messages into a single system string and
// returns the remaining conversation.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem && len(rest) == 0 {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
