package format_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/relay/format"
)

func TestDetectBytes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want format.Format
	}{
		{
			name: "titan shaped",
			body: `{"inputText":"x","textGenerationConfig":{"maxTokenCount":10}}`,
			want: format.BedrockTitan,
		},
		{
			name: "claude shaped",
			body: `{"anthropic_version":"bedrock-2023-05-31","max_tokens":100,"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`,
			want: format.BedrockClaude,
		},
		{
			name: "openai shaped",
			body: `{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`,
			want: format.OpenAI,
		},
		{
			name: "anthropic version without messages array",
			body: `{"anthropic_version":"bedrock-2023-05-31","messages":"nope"}`,
			want: format.OpenAI,
		},
		{
			name: "inputText without generation config",
			body: `{"inputText":"x"}`,
			want: format.OpenAI,
		},
		{
			name: "malformed json",
			body: `{"model":`,
			want: format.OpenAI,
		},
		{
			name: "empty object",
			body: `{}`,
			want: format.OpenAI,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, format.DetectBytes([]byte(tc.body)))
		})
	}
}
