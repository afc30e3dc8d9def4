package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"research-workflow-be/pkg/llm"
)

func TestChat(t *testing.T) {
	var captured ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   captured.Model,
			Message: ollamaMessage{Role: "assistant", Content: `{"ok": true}`},
			Done:    true,
		})
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	got, err := provider.Chat(context.Background(),
		[]llm.Message{
			{Role: "system", Content: "extract"},
			{Role: "model", Content: "previous"},
			{Role: "user", Content: "prompt"},
		},
		llm.WithTemperature(0),
		llm.WithJSONOutput(),
		llm.WithMaxTokens(512),
	)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != `{"ok": true}` {
		t.Errorf("response = %q", got)
	}

	if captured.Model != "llama3" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Stream {
		t.Error("streaming must be off")
	}
	if captured.Format != "json" {
		t.Errorf("format = %q, want json", captured.Format)
	}
	if captured.Options == nil || captured.Options.NumPredict != 512 {
		t.Errorf("options = %+v", captured.Options)
	}
	// The provider-agnostic "model" role maps to Ollama's "assistant".
	if captured.Messages[1].Role != "assistant" {
		t.Errorf("role = %q, want assistant", captured.Messages[1].Role)
	}
}

func TestChatModelOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "mistral" {
			t.Errorf("model = %q, want the override", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Content: "ok"}})
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	if _, err := provider.Generate(context.Background(), "hi", llm.WithModel("mistral")); err != nil {
		t.Fatal(err)
	}
}

func TestChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	if _, err := provider.Generate(context.Background(), "hi"); err == nil {
		t.Error("non-200 status must error")
	}
}
