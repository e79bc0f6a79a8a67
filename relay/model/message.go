package model

import (
	"github.com/Laisky/errors/v2"
)

// Message roles accepted on the canonical wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of the canonical conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    *Content   `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCallId string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// StringContent flattens the message content to plain text.
func (m *Message) StringContent() string {
	if m.Content == nil {
		return ""
	}
	return m.Content.PlainText()
}

// HasContent reports whether the message carries any content.
func (m *Message) HasContent() bool {
	return m.Content != nil && !m.Content.IsEmpty()
}

// Validate enforces the message invariants at construction time, before any
// adaptor sees the conversation.
func (m *Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	case "":
		return errors.New("message role is required")
	default:
		return errors.Errorf("unsupported message role %q", m.Role)
	}

	if m.Role != RoleTool && m.Content == nil && len(m.ToolCalls) == 0 {
		return errors.Errorf("%s message requires content or tool_calls", m.Role)
	}
	if m.Role == RoleTool && m.ToolCallId == "" {
		return errors.New("tool message requires tool_call_id")
	}

	for i := range m.ToolCalls {
		if err := m.ToolCalls[i].Validate(); err != nil {
			return errors.Wrapf(err, "tool_calls[%d]", i)
		}
	}
	return nil
}
