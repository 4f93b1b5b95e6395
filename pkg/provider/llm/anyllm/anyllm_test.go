package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/readscript/pkg/provider/llm"
)

func TestBuildParams_SystemPromptFirst(t *testing.T) {
	req := llm.CompletionRequest{
		SystemPrompt: "Reply with the script text only.",
		Messages:     []llm.Message{llm.UserMessage("Write 150 words.")},
		Temperature:  0.8,
		MaxTokens:    512,
	}
	params := buildParams("gemini-2.0-flash", req)

	if params.Model != "gemini-2.0-flash" {
		t.Errorf("model: got %q, want %q", params.Model, "gemini-2.0-flash")
	}
	if len(params.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem {
		t.Errorf("first role: got %q, want system", params.Messages[0].Role)
	}
	if got := params.Messages[1].ContentString(); got != "Write 150 words." {
		t.Errorf("user content: got %q", got)
	}
	if params.Temperature == nil || *params.Temperature != 0.8 {
		t.Errorf("temperature: got %v, want 0.8", params.Temperature)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 512 {
		t.Errorf("max tokens: got %v, want 512", params.MaxTokens)
	}
}

func TestBuildParams_ZeroValuesOmitted(t *testing.T) {
	params := buildParams("m", llm.CompletionRequest{Messages: []llm.Message{llm.UserMessage("hi")}})
	if len(params.Messages) != 1 {
		t.Fatalf("messages: got %d, want 1", len(params.Messages))
	}
	if params.Temperature != nil {
		t.Error("temperature should be nil when unset")
	}
	if params.MaxTokens != nil {
		t.Error("max tokens should be nil when unset")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "m"); err == nil {
		t.Error("expected error for empty provider name")
	}
	if _, err := New("gemini", ""); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := New("cohere", "command-r"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestModelCapabilities(t *testing.T) {
	tests := []struct {
		model     string
		maxOutput int
	}{
		{"gemini-2.0-flash", 8_192},
		{"gemini-2.5-pro", 65_536},
		{"claude-3-5-sonnet-latest", 8_192},
		{"gpt-4o-mini", 16_384},
		{"llama3.2", 4_096},
	}
	for _, tt := range tests {
		if got := modelCapabilities(tt.model).MaxOutputTokens; got != tt.maxOutput {
			t.Errorf("%s: max output got %d, want %d", tt.model, got, tt.maxOutput)
		}
	}
}

func TestRequiresAPIKey(t *testing.T) {
	if !RequiresAPIKey("gemini") {
		t.Error("gemini should require an API key")
	}
	if RequiresAPIKey("Ollama") {
		t.Error("ollama should not require an API key")
	}
}
