package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider binds the Gateway to the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
}

// Compile-time check that AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)

// AnthropicConfig configures the provider binding.
type AnthropicConfig struct {
	APIKey         string        // If empty, read from ANTHROPIC_API_KEY
	RequestTimeout time.Duration // Transport-level timeout (default: 50s)
}

// NewAnthropicProvider creates the provider. The request timeout is
// enforced per call by the SDK transport so a hung request surfaces as a
// timeout error, which the retry layer classifies as transient.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	)
	return &AnthropicProvider{client: client}, nil
}

// Invoke implements Provider over the Messages API.
func (p *AnthropicProvider) Invoke(ctx context.Context, modelID, system string, messages []Message, opts CompletionOptions) (string, Usage, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: int64(maxTokens),
		Messages:  toMessageParams(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}
	if opts.TopP != nil {
		params.TopP = anthropic.Float(*opts.TopP)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", Usage{}, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	usage := Usage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
	return text, usage, nil
}

func toMessageParams(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}
