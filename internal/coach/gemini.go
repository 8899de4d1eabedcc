package coach

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when the caller gives no model.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini generates text with the Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini returns a provider authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrProvider)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create genai client: %v", ErrProvider, err)
	}
	return &Gemini{client: client}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }

// Generate implements Provider.
func (g *Gemini) Generate(ctx context.Context, prompt, model string, fast bool) (string, error) {
	if model == "" || !strings.HasPrefix(model, "gemini") {
		model = DefaultGeminiModel
	}
	temp := float32(0.6)
	if fast {
		temp = 0.4
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", ErrProvider, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", ErrProvider)
	}
	return text, nil
}
