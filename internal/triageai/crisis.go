package triageai

import (
	"context"

	"github.com/counselhq/triage/internal/ai"
)

type riskVerdict struct {
	Detected bool `json:"detected"`
}

const crisisPrompt = `You screen messages on a counseling platform for signs of acute crisis: self-harm, harm to others, or immediate danger. Respond with JSON {"detected": true} or {"detected": false}.`

const griefPrompt = `You screen messages on a counseling platform for acute grief or bereavement distress. Respond with JSON {"detected": true} or {"detected": false}.`

// DetectCrisis reports whether the message shows signs of acute crisis.
//
// This call deliberately bypasses the retryer: a retry loop adds seconds of
// latency to a path where the caller is deciding whether to show crisis
// resources right now. Any failure returns false (the safe negative), so
// transient provider trouble never produces spurious alerts.
func (c *Classifier) DetectCrisis(ctx context.Context, message string) bool {
	return c.detectRisk(ctx, "detect_crisis", crisisPrompt, message)
}

// DetectGrief reports whether the message shows acute grief distress. Same
// no-retry, fail-to-false contract as DetectCrisis.
func (c *Classifier) DetectGrief(ctx context.Context, message string) bool {
	return c.detectRisk(ctx, "detect_grief", griefPrompt, message)
}

func (c *Classifier) detectRisk(ctx context.Context, operation, system, message string) bool {
	verdict, err := ai.JSONCompletion[riskVerdict](ctx, c.gateway, ai.TierFast, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: message},
	}, ai.CompletionOptions{MaxTokens: 16})
	if err != nil {
		c.logger.Warn("risk detection failed, returning safe negative",
			"operation", operation, "error", err)
		return false
	}
	return verdict.Detected
}
