// Package coach forwards a financial snapshot and a question to a
// text-generation backend.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrProvider is the uniform failure of every text-generation backend.
var ErrProvider = errors.New("model provider failed")

// Provider generates text from a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt, model string, fast bool) (string, error)
}

// ProviderConfig selects and configures a backend.
type ProviderConfig struct {
	Name         string // ollama, anthropic or gemini
	OllamaHost   string
	FallbackHost string
	AnthropicKey string
	GeminiKey    string
}

// NewProvider builds the backend named in cfg.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", "ollama":
		return NewOllama(cfg.OllamaHost, cfg.FallbackHost), nil
	case "anthropic":
		return NewAnthropic(cfg.AnthropicKey)
	case "gemini":
		return NewGemini(ctx, cfg.GeminiKey)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProvider, cfg.Name)
	}
}
