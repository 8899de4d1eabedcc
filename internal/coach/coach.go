package coach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/finsight/internal/logger"
	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/report"
	"github.com/cleared-dev/finsight/internal/store"
)

const (
	// DefaultModel is requested when neither the caller nor config names one.
	DefaultModel = "phi3:mini"

	safetyPrefix = "You are a helpful financial wellness coach. Provide empathetic, responsible, non-judgmental guidance. Avoid giving legal or investment guarantees."
	optOutText   = "(User opted out of data context)"

	historyTurns    = 8
	historyMaxChars = 300
	snapshotLines   = 12

	fastSnapshotChars = 400
	fastPromptChars   = 900
	fullPromptChars   = 1600
)

// Coach answers questions with a provider and keeps the conversation in the
// store.
type Coach struct {
	Provider     Provider
	Store        *store.Store
	Model        string
	SnapshotDays int
	Now          func() time.Time
}

// Request is one question to the coach.
type Request struct {
	Message     string
	Model       string
	Fast        bool
	IncludeData bool
	NoHistory   bool
}

// Reply is the coach's answer.
type Reply struct {
	Response    string `json:"response"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Fast        bool   `json:"fast"`
	PromptChars int    `json:"prompt_chars"`
}

// Ask builds the prompt, calls the provider and stores both sides of the
// exchange. Failing to store the exchange does not fail the call.
func (c *Coach) Ask(ctx context.Context, req Request) (Reply, error) {
	log := logger.FromContext(ctx)
	chosen := strings.TrimSpace(req.Model)
	if chosen == "" {
		chosen = c.Model
	}
	if chosen == "" {
		chosen = DefaultModel
	}

	snapshot := optOutText
	var history []model.CoachMessage
	err := c.Store.View(func(tx *store.Tx) error {
		if req.IncludeData {
			txns, err := tx.Transactions(store.Filter{})
			if err != nil {
				return err
			}
			snapshot = report.Snapshot(txns, c.now(), c.snapshotDays(), snapshotLines)
		}
		if !req.Fast && !req.NoHistory {
			var err error
			history, err = tx.RecentCoachMessages(historyTurns)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Reply{}, fmt.Errorf("loading coach context: %w", err)
	}

	prompt := BuildPrompt(snapshot, history, req.Message, req.Fast)
	answer, err := c.Provider.Generate(ctx, prompt, chosen, req.Fast)
	if err != nil {
		log.Error().Str("provider", c.Provider.Name()).Str("model", chosen).Err(err).Msg("coach_provider_failed")
		return Reply{}, fmt.Errorf("model provider %q failed: %w", c.Provider.Name(), err)
	}

	now := c.now()
	if err := c.Store.Update(func(tx *store.Tx) error {
		if _, err := tx.AppendCoachMessage(model.CoachMessage{
			Role: "user", Content: req.Message, Model: chosen,
			TokensIn: ApproxTokens(req.Message), CreatedAt: now,
		}); err != nil {
			return err
		}
		_, err := tx.AppendCoachMessage(model.CoachMessage{
			Role: "assistant", Content: answer, Model: chosen,
			TokensOut: ApproxTokens(answer), CreatedAt: now,
		})
		return err
	}); err != nil {
		log.Warn().Err(err).Msg("coach_message_persist_failed")
	}

	return Reply{
		Response:    answer,
		Provider:    c.Provider.Name(),
		Model:       chosen,
		Fast:        req.Fast,
		PromptChars: len([]rune(prompt)),
	}, nil
}

// History returns the last n stored messages, oldest first.
func (c *Coach) History(n int) ([]model.CoachMessage, error) {
	var out []model.CoachMessage
	err := c.Store.View(func(tx *store.Tx) error {
		var err error
		out, err = tx.RecentCoachMessages(n)
		return err
	})
	return out, err
}

func (c *Coach) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Coach) snapshotDays() int {
	if c.SnapshotDays > 0 {
		return c.SnapshotDays
	}
	return 30
}

// BuildPrompt assembles the provider prompt. Fast prompts carry a shortened
// snapshot and no history.
func BuildPrompt(snapshot string, history []model.CoachMessage, message string, fast bool) string {
	style := "Provide concise, structured guidance."
	limit := fullPromptChars
	if fast {
		snapshot = truncate(snapshot, fastSnapshotChars)
		style = "Keep answer under 6 short bullet points."
		limit = fastPromptChars
	}

	var hist string
	if !fast && len(history) > 0 {
		lines := make([]string, 0, len(history))
		for _, m := range history {
			role := "Coach"
			if m.Role == "user" {
				role = "User"
			}
			content := strings.TrimSpace(m.Content)
			if len([]rune(content)) > historyMaxChars {
				content = truncate(content, historyMaxChars) + "…"
			}
			lines = append(lines, role+": "+content)
		}
		hist = "PRIOR CHAT (most recent first shown last):\n" + strings.Join(lines, "\n") + "\n"
	}

	prompt := fmt.Sprintf("%s\nFINANCIAL SNAPSHOT:\n%s\n%sUser Question: %s\n%s\nAnswer:",
		safetyPrefix, snapshot, hist, message, style)
	return truncate(prompt, limit)
}

// ApproxTokens estimates four characters per token, at least one.
func ApproxTokens(s string) int {
	return max(1, len([]rune(s))/4)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
