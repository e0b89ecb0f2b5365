package chat

import "strings"

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one the completion API accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single turn of the widget conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RenderTranscript flattens the history into "role: content" lines.
func RenderTranscript(history []Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, string(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
