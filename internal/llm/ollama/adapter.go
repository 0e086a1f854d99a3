// Package ollama adapts a local Ollama daemon. Completions ride the
// daemon's OpenAI-compatible endpoint, so the adapter embeds the openai
// one and only speaks the native API where there is no compatible route.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/llm"
	"github.com/poolchaos/personalfit-api/internal/llm/openai"
)

const defaultBaseURL = "http://localhost:11434"

func init() {
	llm.Register(string(llm.Ollama), NewAdapter)
}

type Adapter struct {
	llm.Provider
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	// The embedded adapter wants the OpenAI-compatible prefix.
	if !strings.HasSuffix(cfg.BaseURL, "/v1") {
		cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	}

	inner, err := openai.NewAdapter(cfg)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		Provider: inner,
		config:   cfg,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (a *Adapter) Name() string { return a.config.ID }
func (a *Adapter) Type() string { return string(llm.Ollama) }

// Health asks the native API for the local model list. A daemon with
// nothing pulled answers happily but cannot serve a single completion,
// so an empty list counts as unhealthy.
func (a *Adapter) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.nativeURL("/api/tags"), nil)
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health: unexpected status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("ollama health: decoding tags: %w", err)
	}
	if len(tags.Models) == 0 {
		return fmt.Errorf("ollama health: daemon is up but no models are pulled")
	}
	return nil
}

// nativeURL maps a native API path onto the configured base, which by
// construction carries the /v1 suffix the native routes do not use.
func (a *Adapter) nativeURL(path string) string {
	root := strings.TrimSuffix(strings.TrimRight(a.config.BaseURL, "/"), "/v1")
	return root + path
}
