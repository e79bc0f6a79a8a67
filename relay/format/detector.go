// Package format classifies inbound request bodies by wire shape.
package format

import "encoding/json"

// Format identifies the wire shape of an inbound request body.
type Format string

const (
	OpenAI        Format = "openai"
	BedrockClaude Format = "bedrock-claude"
	BedrockTitan  Format = "bedrock-titan"
)

// Detect classifies a raw JSON object. Pure function; ambiguous or malformed
// payloads fall through to OpenAI and let request validation fail naturally.
func Detect(raw map[string]json.RawMessage) Format {
	if raw == nil {
		return OpenAI
	}
	if _, ok := raw["anthropic_version"]; ok {
		if msgs, ok := raw["messages"]; ok && isArray(msgs) {
			return BedrockClaude
		}
	}
	if _, ok := raw["inputText"]; ok {
		if _, ok := raw["textGenerationConfig"]; ok {
			return BedrockTitan
		}
	}
	return OpenAI
}

// DetectBytes decodes the body and classifies it. Invalid JSON detects as
// OpenAI.
func DetectBytes(body []byte) Format {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return OpenAI
	}
	return Detect(raw)
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
