package helper

import (
	"strings"

	"github.com/google/uuid"
)

// ChatCompletionID returns a fresh OpenAI-style completion id ("chatcmpl-...").
func ChatCompletionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// BedrockInvocationID returns a fresh id for Bedrock-shaped responses
// ("msg_bdrk_..." to match the Claude-on-Bedrock id convention).
func BedrockInvocationID() string {
	return "msg_bdrk_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
