package prompt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/prompt"
	"github.com/polyrelay/polyrelay/relay/model"
)

func TestMergeSystem(t *testing.T) {
	messages := []model.Message{
		{Role: "system", Content: model.TextContent("A")},
		{Role: "user", Content: model.TextContent("hi")},
		{Role: "system", Content: model.TextContent("B")},
	}

	system, rest := prompt.MergeSystem(messages)
	require.Equal(t, "A\nB", system)
	require.Len(t, rest, 1)
	require.Equal(t, "user", rest[0].Role)
}

func TestRenderWithCue(t *testing.T) {
	tmpl := prompt.Template{
		RolePrefix: map[string]string{
			model.RoleUser:      "User: ",
			model.RoleAssistant: "Bot: ",
		},
		Separator: "\n",
		Cue:       "Bot:",
	}

	messages := []model.Message{
		{Role: "user", Content: model.TextContent("Capital of France?")},
	}
	require.Equal(t, "User: Capital of France?\nBot:", prompt.Render("", messages, tmpl))

	// No cue when the assistant already authored the last turn.
	messages = append(messages, model.Message{Role: "assistant", Content: model.TextContent("Paris")})
	require.Equal(t, "User: Capital of France?\nBot: Paris", prompt.Render("", messages, tmpl))
}

func TestRenderWithSystem(t *testing.T) {
	tmpl := prompt.Template{
		RolePrefix: map[string]string{
			model.RoleUser:      "User: ",
			model.RoleAssistant: "Bot: ",
		},
		Separator: "\n",
		Cue:       "Bot:",
	}
	messages := []model.Message{
		{Role: "user", Content: model.TextContent("hello")},
	}
	require.Equal(t, "You are terse.\nUser: hello\nBot:", prompt.Render("You are terse.", messages, tmpl))
}
