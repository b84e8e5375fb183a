package openai

import (
	"fmt"
	"strings"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/llm"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPrompt        = "You are a tender requirement extraction engine. Respond with JSON only. No markdown. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

// maxDocumentRunes keeps prompts within the model context window.
const maxDocumentRunes = 60000

// BuildPrompt creates the chat messages for a requirement extraction request.
func BuildPrompt(promptVersion, projectName, documentText, model string) []Message {
	_, developer := resolvePromptTemplate(promptVersion, model)
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "developer", Content: developer},
		{Role: "user", Content: buildUserPrompt(projectName, documentText)},
	}
}

func buildFixPrompt(promptVersion, model string, raw []byte) []Message {
	_, developer := resolvePromptTemplate(promptVersion, model)
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: developer},
		{Role: "user", Content: fixUserPrompt(raw)},
	}
}

func resolvePromptTemplate(promptVersion, model string) (string, string) {
	version := strings.TrimSpace(promptVersion)
	template, ok := llm.PromptTemplate(version)
	usedVersion := version
	if !ok {
		if version != "" {
			telemetry.Warn("llm.prompt_version_unknown", map[string]any{"prompt_version": version})
		}
		usedVersion = llm.DefaultPromptVersion
		template, _ = llm.PromptTemplate(usedVersion)
	}

	replacer := strings.NewReplacer(
		"{{PROMPT_VERSION}}", usedVersion,
		"{{MODEL}}", model,
	)
	return usedVersion, replacer.Replace(template)
}

func buildUserPrompt(projectName, documentText string) string {
	name := strings.TrimSpace(projectName)
	if name == "" {
		name = "N/A"
	}
	text := documentText
	if runes := []rune(text); len(runes) > maxDocumentRunes {
		text = string(runes[:maxDocumentRunes])
	}
	return fmt.Sprintf("Project:\n%s\n\nTender Document:\n%s", name, text)
}

func fixUserPrompt(raw []byte) string {
	return fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))
}
