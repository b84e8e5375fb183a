package openai

import (
	"strings"
	"testing"
)

func TestPromptHashDeterministic(t *testing.T) {
	messages := BuildPrompt("requirements_v1", "CT采购项目", "扫描速度：≥100mm/s", "gpt-4o-mini")
	hash1 := hashPromptString(promptStringFromMessages(messages))
	hash2 := hashPromptString(promptStringFromMessages(messages))
	if hash1 != hash2 {
		t.Fatalf("expected deterministic prompt hash, got %q and %q", hash1, hash2)
	}

	messagesAlt := BuildPrompt("requirements_v1", "CT采购项目", "扫描速度：≥120mm/s", "gpt-4o-mini")
	if hash1 == hashPromptString(promptStringFromMessages(messagesAlt)) {
		t.Fatalf("expected prompt hash to change when input changes")
	}
}

func TestBuildPromptUnknownVersionFallsBack(t *testing.T) {
	messages := BuildPrompt("v9", "", "text", "gpt-4o-mini")
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if !strings.Contains(messages[1].Content, "Prompt version: requirements_v1") {
		t.Fatalf("expected default template, got %q", messages[1].Content)
	}
	if !strings.Contains(messages[2].Content, "Project:\nN/A") {
		t.Fatalf("expected N/A project, got %q", messages[2].Content)
	}
}
