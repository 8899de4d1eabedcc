package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cleared-dev/finsight/internal/logger"
)

const (
	// DefaultOllamaHost is used when no host is configured.
	DefaultOllamaHost = "http://ollama:11434"
	// LocalOllamaHost is tried after the primary host.
	LocalOllamaHost = "http://localhost:11434"
)

// timing is the per-mode timeout and sampling profile.
type timing struct {
	total, connect time.Duration
	temperature    float64
	topP           float64
	numPredict     int
}

var (
	fastTiming   = timing{total: 25 * time.Second, connect: 3 * time.Second, temperature: 0.4, topP: 0.85, numPredict: 160}
	normalTiming = timing{total: 180 * time.Second, connect: 8 * time.Second, temperature: 0.6, topP: 0.9, numPredict: 512}
)

// Ollama talks to an Ollama server, trying each host in turn.
type Ollama struct {
	hosts []string
	// newClient is replaced in tests.
	newClient func(timing) *http.Client
}

// NewOllama returns a provider for primary, then fallback. Empty values use
// the defaults; duplicate hosts are tried once.
func NewOllama(primary, fallback string) *Ollama {
	if primary == "" {
		primary = DefaultOllamaHost
	}
	if fallback == "" {
		fallback = LocalOllamaHost
	}
	hosts := []string{strings.TrimRight(primary, "/")}
	if fb := strings.TrimRight(fallback, "/"); fb != hosts[0] && !strings.HasPrefix(hosts[0], "http://localhost") {
		hosts = append(hosts, fb)
	}
	return &Ollama{hosts: hosts, newClient: httpClient}
}

func httpClient(t timing) *http.Client {
	return &http.Client{
		Timeout: t.total,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: t.connect}).DialContext,
		},
	}
}

// Name implements Provider.
func (o *Ollama) Name() string { return "ollama" }

// Hosts returns the hosts in the order they are tried.
func (o *Ollama) Hosts() []string { return append([]string(nil), o.hosts...) }

type generateRequest struct {
	Model     string          `json:"model"`
	Prompt    string          `json:"prompt"`
	Stream    bool            `json:"stream"`
	KeepAlive string          `json:"keep_alive"`
	Options   generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate implements Provider. Each host is probed with /api/tags before
// /api/generate; the first host that answers wins.
func (o *Ollama) Generate(ctx context.Context, prompt, model string, fast bool) (string, error) {
	log := logger.FromContext(ctx)
	t := normalTiming
	if fast {
		t = fastTiming
	}
	client := o.newClient(t)

	body, err := json.Marshal(generateRequest{
		Model:     model,
		Prompt:    prompt,
		Stream:    false,
		KeepAlive: "5m",
		Options:   generateOptions{Temperature: t.temperature, TopP: t.topP, NumPredict: t.numPredict},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", ErrProvider, err)
	}

	var lastErr error
	for _, host := range o.hosts {
		if err := probe(ctx, client, host); err != nil {
			lastErr = fmt.Errorf("tags: %w", err)
			log.Warn().Str("host", host).Err(err).Msg("ollama_tags_failed")
			continue
		}
		text, err := generate(ctx, client, host, body)
		if err != nil {
			lastErr = err
			log.Warn().Str("host", host).Err(err).Msg("ollama_generate_failed")
			continue
		}
		log.Info().Str("host", host).Str("model", model).Int("chars", len(text)).Bool("fast", fast).Msg("ollama_generate_success")
		return text, nil
	}
	if lastErr == nil {
		return "", fmt.Errorf("%w: model backend unavailable (ollama)", ErrProvider)
	}
	return "", fmt.Errorf("%w: %v", ErrProvider, lastErr)
}

func probe(ctx context.Context, client *http.Client, host string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func generate(ctx context.Context, client *http.Client, host string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("generate status %d", resp.StatusCode)
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}
