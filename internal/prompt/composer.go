// Package prompt assembles the instruction sets sent to the language
// model: a single prompt string for one-shot note generation, and an
// ordered message sequence for grounded or general chat.
package prompt

import (
	"strings"

	"studyrag/internal/domain"
	"studyrag/internal/format"
)

// groundingInstruction pins chat answers to the retrieved context.
const groundingInstruction = "Answer strictly using the provided context."

// ForNotes substitutes retrieved lecture content into the template's
// context placeholder. Templates without a placeholder (custom
// instruction seeds) get the content appended so the grounding is never
// lost. Fails with domain.ErrMissingContext when retrieval produced
// nothing to substitute.
func ForNotes(template, context string) (string, error) {
	if strings.TrimSpace(context) == "" {
		return "", domain.ErrMissingContext
	}
	if strings.Contains(template, format.Placeholder) {
		return strings.ReplaceAll(template, format.Placeholder, context), nil
	}
	return template + "\n\nLecture content:\n" + context, nil
}

// ForChat builds the grounded chat sequence: grounding instruction,
// retrieved context, the replayed session history in original order,
// then the new question.
func ForChat(context string, history []domain.Message, question string) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+3)
	messages = append(messages,
		domain.ChatMessage{Role: domain.RoleSystem, Content: groundingInstruction},
		domain.ChatMessage{Role: domain.RoleSystem, Content: "Context:\n" + context},
	)
	messages = appendHistory(messages, history)
	return append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})
}

// ForGeneralChat builds the out-of-context sequence: no retrieved
// context, optionally the session's previously generated notes as
// background, then history and the new question.
func ForGeneralChat(notes string, history []domain.Message, question string) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	if strings.TrimSpace(notes) != "" {
		messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: "Lecture notes context:\n" + notes})
	}
	messages = appendHistory(messages, history)
	return append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})
}

func appendHistory(messages []domain.ChatMessage, history []domain.Message) []domain.ChatMessage {
	for _, m := range history {
		messages = append(messages, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return messages
}
