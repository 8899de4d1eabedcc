package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cleared-dev/finsight/internal/model"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, model string, fast bool) (string, error)
}

// GeneratorCategorizer asks a text-generation backend for a JSON answer.
type GeneratorCategorizer struct {
	Gen   Generator
	Model string
}

type generatedAnswer struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
}

// Categorize implements Categorizer.
func (g GeneratorCategorizer) Categorize(ctx context.Context, t model.Transaction) (Suggestion, error) {
	raw, err := g.Gen.Generate(ctx, Prompt(t), g.Model, true)
	if err != nil {
		return Suggestion{}, fmt.Errorf("categorizing transaction %d: %w", t.ID, err)
	}
	var ans generatedAnswer
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &ans); err != nil {
		return Suggestion{}, fmt.Errorf("parsing answer for transaction %d: %w", t.ID, err)
	}
	return Suggestion{Category: strings.TrimSpace(ans.Category), Confidence: ans.Confidence, Model: g.Model}, nil
}

// cleanJSON strips Markdown fences and any text around the first object.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
