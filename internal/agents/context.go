package agents

import (
	"strings"

	"tendercortex.app/cortex/common/llm"
	"tendercortex.app/cortex/internal/model"
)

// ContextSeparator joins document chunks inside a prompt.
const ContextSeparator = "\n\n---\n\n"

// TruncationMarker is appended when the flattened context is cut.
const TruncationMarker = "\n\n[Contexto truncado...]"

// FormatContext flattens docs into one prompt-ready string. maxChars <= 0
// disables truncation.
func FormatContext(docs []model.Document, maxChars int) string {
	if len(docs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	formatted := strings.Join(parts, ContextSeparator)
	if maxChars > 0 {
		if runes := []rune(formatted); len(runes) > maxChars {
			formatted = string(runes[:maxChars]) + TruncationMarker
		}
	}
	return formatted
}

// BuildMessages constructs the two-message prompt shared by all specialists.
func BuildMessages(systemPrompt, contextText, question string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: "Contexto del documento:\n" + contextText + "\n\nPregunta: " + question},
	}
}
