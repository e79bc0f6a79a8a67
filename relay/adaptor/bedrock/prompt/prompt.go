// Package prompt renders canonical conversations into the flat prompt
// templates used by Bedrock model families without a native chat schema.
package prompt

import (
	"strings"

	"github.com/polyrelay/polyrelay/relay/model"
)

// MergeSystem extracts every system message, joins their text in order with
// newlines, and returns the merged system prompt plus the remaining turns.
func MergeSystem(messages []model.Message) (string, []model.Message) {
	var parts []string
	rest := make([]model.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			parts = append(parts, msg.StringContent())
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(parts, "\n"), rest
}

// Template describes a role-prefixed prompt layout.
type Template struct {
	// RolePrefix maps canonical roles to their prompt line prefix
	// (for example "User: ").
	RolePrefix map[string]string
	// Separator joins rendered turns.
	Separator string
	// Cue is appended when the last turn is not assistant-authored, so the
	// model continues as the assistant.
	Cue string
}

// Render writes the conversation into the template. System messages must be
// merged out beforehand; the merged prompt is passed as system and emitted as
// a bare leading line when non-empty.
func Render(system string, messages []model.Message, t Template) string {
	var sb strings.Builder
	if system != "" {
		sb.WriteString(system)
		sb.WriteString(t.Separator)
	}
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString(t.Separator)
		}
		prefix, ok := t.RolePrefix[msg.Role]
		if !ok {
			prefix = t.RolePrefix[model.RoleUser]
		}
		sb.WriteString(prefix)
		sb.WriteString(msg.StringContent())
	}
	if t.Cue != "" && needsCue(messages) {
		sb.WriteString(t.Separator)
		sb.WriteString(t.Cue)
	}
	return sb.String()
}

func needsCue(messages []model.Message) bool {
	if len(messages) == 0 {
		return true
	}
	return messages[len(messages)-1].Role != model.RoleAssistant
}
