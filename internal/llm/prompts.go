package llm

import _ "embed"

//go:embed prompts/requirements_v1.txt
var promptRequirementsV1 string

// DefaultPromptVersion is used when a task does not name one.
const DefaultPromptVersion = "requirements_v1"

// PromptTemplate returns the prompt template text and whether the version was recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "requirements_v1":
		return promptRequirementsV1, true
	default:
		return promptRequirementsV1, false
	}
}
