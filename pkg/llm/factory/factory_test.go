package factory

import "testing"

func TestNewLLMProvider(t *testing.T) {
	if _, err := NewLLMProvider("ollama", "llama3", ""); err != nil {
		t.Errorf("ollama: %v", err)
	}
	if _, err := NewLLMProvider("openai", "gpt-4", ""); err == nil {
		t.Error("unsupported provider must error")
	}
}
