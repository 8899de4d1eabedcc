package coach

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/store"
)

type fakeProvider struct {
	answer string
	err    error
	prompt string
	model  string
	fast   bool
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, prompt, model string, fast bool) (string, error) {
	f.prompt, f.model, f.fast = prompt, model, fast
	return f.answer, f.err
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "finsight.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var now = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestBuildPromptLayout(t *testing.T) {
	history := []model.CoachMessage{
		{Role: "user", Content: "How am I doing?"},
		{Role: "assistant", Content: "  Fine.  "},
	}
	got := BuildPrompt("Spend: 10.00", history, "Can I save more?", false)

	want := safetyPrefix + "\nFINANCIAL SNAPSHOT:\nSpend: 10.00\n" +
		"PRIOR CHAT (most recent first shown last):\nUser: How am I doing?\nCoach: Fine.\n" +
		"User Question: Can I save more?\nProvide concise, structured guidance.\nAnswer:"
	assert.Equal(t, want, got)
}

func TestBuildPromptFast(t *testing.T) {
	snapshot := strings.Repeat("x", 1000)
	history := []model.CoachMessage{{Role: "user", Content: "earlier"}}
	got := BuildPrompt(snapshot, history, "Quick tip?", true)

	assert.NotContains(t, got, "PRIOR CHAT")
	assert.NotContains(t, got, strings.Repeat("x", 401))
	assert.Contains(t, got, "Keep answer under 6 short bullet points.")
	assert.LessOrEqual(t, len([]rune(got)), fastPromptChars)
}

func TestBuildPromptTruncation(t *testing.T) {
	long := strings.Repeat("y", 5000)
	got := BuildPrompt(long, nil, "q", false)
	assert.Len(t, []rune(got), fullPromptChars)
	assert.False(t, strings.HasSuffix(got, "Answer:"))
}

func TestBuildPromptTrimsLongHistory(t *testing.T) {
	history := []model.CoachMessage{{Role: "assistant", Content: strings.Repeat("z", 400)}}
	got := BuildPrompt("s", history, "q", false)
	assert.Contains(t, got, "Coach: "+strings.Repeat("z", 300)+"…\n")
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 1, ApproxTokens(""))
	assert.Equal(t, 1, ApproxTokens("abc"))
	assert.Equal(t, 2, ApproxTokens("abcdefghi"))
}

func TestAskPersistsExchange(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Update(func(tx *store.Tx) error {
		_, err := tx.CreateTransactions([]model.Transaction{
			{Date: now.AddDate(0, 0, -2), Description: "Coffee", Amount: decimal.RequireFromString("-4.50"), Merchant: "Starbucks"},
			{Date: now.AddDate(0, 0, -1), Description: "Salary", Amount: decimal.RequireFromString("1000")},
		})
		return err
	}))

	p := &fakeProvider{answer: "Spend less on coffee."}
	c := &Coach{Provider: p, Store: s, Now: func() time.Time { return now }}

	reply, err := c.Ask(context.Background(), Request{Message: "Tips?", IncludeData: true})
	require.NoError(t, err)
	assert.Equal(t, "Spend less on coffee.", reply.Response)
	assert.Equal(t, DefaultModel, reply.Model)
	assert.Equal(t, DefaultModel, p.model)
	assert.Contains(t, p.prompt, "Income: 1000.00")
	assert.Contains(t, p.prompt, "TopMerchants: Starbucks:5")

	history, err := c.History(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "Tips?", history[0].Content)
	assert.Equal(t, 1, history[0].TokensIn)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, 5, history[1].TokensOut)

	_, err = c.Ask(context.Background(), Request{Message: "More?", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "llama3", p.model)
	assert.Contains(t, p.prompt, optOutText)
	assert.Contains(t, p.prompt, "User: Tips?")
}

func TestAskProviderFailure(t *testing.T) {
	s := openStore(t)
	p := &fakeProvider{err: errors.New("boom")}
	c := &Coach{Provider: p, Store: s, Model: "m"}

	_, err := c.Ask(context.Background(), Request{Message: "hi", Fast: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"fake"`)
	assert.True(t, p.fast)

	history, err := c.History(10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = NewProvider(context.Background(), ProviderConfig{Name: "nope"})
	assert.ErrorIs(t, err, ErrProvider)

	_, err = NewProvider(context.Background(), ProviderConfig{Name: "anthropic"})
	assert.ErrorIs(t, err, ErrProvider)

	_, err = NewProvider(context.Background(), ProviderConfig{Name: "gemini"})
	assert.ErrorIs(t, err, ErrProvider)
}
