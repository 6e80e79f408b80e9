// Package llm provides the optional text-completion capability used to
// enrich analyzer output. Absence of a credential is an expected,
// non-fatal condition; callers fall back to keyword heuristics.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/signalscale/signalscale/internal/config"
)

// Provider is the interface for completion providers.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

// Client is an OpenAI-compatible chat-completions client with a model
// preference list. The working model is state of the client value, which
// is constructed per run; runs stay independent of each other.
type Client struct {
	BaseURL string
	APIKey  string
	Models  []string

	client *http.Client

	mu      sync.Mutex
	working int // index into Models, -1 until first successful call
}

// NewClient creates a completion client from configuration. The API key
// is read from the configured environment variable.
func NewClient(cfg config.LLM) *Client {
	return &Client{
		BaseURL: cfg.BaseURL,
		APIKey:  os.Getenv(cfg.APIKeyEnv),
		Models:  cfg.Models,
		client:  &http.Client{Timeout: 60 * time.Second},
		working: -1,
	}
}

// IsConfigured checks if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.APIKey != "" && len(c.Models) > 0
}

// Generate sends a prompt and returns the completion text, trying each
// model in preference order until one succeeds.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("completion provider not configured")
	}

	c.mu.Lock()
	start := c.working
	c.mu.Unlock()
	if start < 0 {
		start = 0
	}

	var lastErr error
	for i := start; i < len(c.Models); i++ {
		model := c.Models[i]
		text, err := c.generateWith(ctx, model, prompt, maxTokens)
		if err != nil {
			log.Printf("Model %s failed: %v", model, err)
			lastErr = err
			continue
		}
		c.mu.Lock()
		c.working = i
		c.mu.Unlock()
		return text, nil
	}
	return "", fmt.Errorf("all completion models failed: %w", lastErr)
}

func (c *Client) generateWith(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": 0.3,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	return result.Choices[0].Message.Content, nil
}

// CreateProvider creates a provider from configuration, or nil when no
// credential is available. A nil provider selects the fallback paths.
func CreateProvider(cfg config.LLM) Provider {
	c := NewClient(cfg)
	if c.IsConfigured() {
		log.Printf("Using completion provider with models: %v", c.Models)
		return c
	}
	log.Printf("No completion credential in %s; keyword fallbacks active", cfg.APIKeyEnv)
	return nil
}
