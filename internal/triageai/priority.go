package triageai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/counselhq/triage/internal/ai"
	"github.com/counselhq/triage/internal/types"
)

// Classifier runs the triage classification calls. Priority and book
// ranking go through the retryer; crisis/grief detection calls the gateway
// directly (see crisis.go).
type Classifier struct {
	gateway *ai.Gateway
	retryer *ai.Retryer
	logger  *slog.Logger
}

// NewClassifier creates a classifier over the given gateway.
func NewClassifier(gateway *ai.Gateway, retryer *ai.Retryer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{gateway: gateway, retryer: retryer, logger: logger}
}

const priorityPrompt = `You triage support tickets for a counseling platform. Classify the ticket's urgency as exactly one of: urgent, high, medium, low. Respond with the single word only.`

// DetectPriority classifies a ticket's urgency. Any error, and any value
// outside the known set, degrades to PriorityMedium, never an error to
// the caller.
func (c *Classifier) DetectPriority(ctx context.Context, title, description string) types.Priority {
	prompt := fmt.Sprintf("Title: %s\n\nDescription: %s", title, description)

	var text string
	err := c.retryer.Execute(ctx, "detect_priority", func(ctx context.Context) error {
		var callErr error
		text, callErr = c.gateway.ChatCompletion(ctx, ai.TierFast, []ai.Message{
			{Role: ai.RoleSystem, Content: priorityPrompt},
			{Role: ai.RoleUser, Content: prompt},
		}, ai.CompletionOptions{MaxTokens: 16})
		return callErr
	})
	if err != nil {
		c.logger.Warn("priority detection failed, defaulting to medium", "error", err)
		return types.PriorityMedium
	}

	cleaned := strings.ToLower(strings.TrimSpace(text))
	if !types.ValidPriority(cleaned) {
		c.logger.Warn("priority detection returned unknown value, defaulting to medium",
			"value", cleaned)
		return types.PriorityMedium
	}
	return types.Priority(cleaned)
}
