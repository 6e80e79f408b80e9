package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/signalscale/signalscale/internal/config"
)

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"key": "value", "num": 42}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
	if result["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", result["num"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	if ParseJSONResponse("not json at all") != nil {
		t.Error("expected nil for invalid JSON")
	}
	if ParseJSONResponse("") != nil {
		t.Error("expected nil for empty string")
	}
}

func TestClientModelFallback(t *testing.T) {
	var calls []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		calls = append(calls, req.Model)

		if req.Model == "broken-model" {
			http.Error(w, "model unavailable", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer ts.Close()

	c := NewClient(config.LLM{BaseURL: ts.URL, Models: []string{"broken-model", "good-model"}})
	c.APIKey = "test-key"

	text, err := c.Generate(context.Background(), "hello", 16)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("expected 'ok', got %q", text)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(calls))
	}

	// The working model is remembered; the next call skips the broken one.
	calls = nil
	if _, err := c.Generate(context.Background(), "again", 16); err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != "good-model" {
		t.Errorf("expected single call to good-model, got %v", calls)
	}
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient(config.LLM{BaseURL: "http://127.0.0.1:1", Models: []string{"m"}, APIKeyEnv: "SIGNALSCALE_TEST_NO_KEY"})
	if c.IsConfigured() {
		t.Error("expected unconfigured client without API key")
	}
	if _, err := c.Generate(context.Background(), "hi", 8); err == nil {
		t.Error("expected error from unconfigured client")
	}
}
