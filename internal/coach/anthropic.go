package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when the caller gives no model.
const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

// Anthropic generates text with the Claude Messages API.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic returns a provider authenticated with apiKey.
func NewAnthropic(apiKey string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY not set", ErrProvider)
	}
	return &Anthropic{client: anthropic.NewClient(option.WithAPIKey(apiKey))}, nil
}

// Name implements Provider.
func (a *Anthropic) Name() string { return "anthropic" }

// Generate implements Provider.
func (a *Anthropic) Generate(ctx context.Context, prompt, model string, fast bool) (string, error) {
	if model == "" || strings.Contains(model, ":") {
		model = DefaultAnthropicModel
	}
	maxTokens := int64(1024)
	if fast {
		maxTokens = 300
	}
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: claude API call: %v", ErrProvider, err)
	}
	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty response from Claude API", ErrProvider)
	}
	return strings.TrimSpace(b.String()), nil
}
