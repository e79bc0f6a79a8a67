package openai_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/relay/adaptor/openai"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

func toolCallChunk(index int, id, name, args string) *relaymodel.ChatCompletionChunk {
	return &relaymodel.ChatCompletionChunk{
		Choices: []relaymodel.ChunkChoice{{
			Delta: relaymodel.Delta{
				ToolCalls: []relaymodel.ToolCall{{
					Index:    &index,
					Id:       id,
					Function: relaymodel.ToolCallFunction{Name: name, Arguments: args},
				}},
			},
		}},
	}
}

func TestToolCallAccumulatorMergesByIndex(t *testing.T) {
	acc := openai.NewToolCallAccumulator()
	// Name and arguments for one call arrive across separate chunks.
	acc.Feed(toolCallChunk(0, "call_1", "get_weather", ""))
	acc.Feed(toolCallChunk(0, "", "", `{"city":`))
	acc.Feed(toolCallChunk(1, "call_2", "get_time", `{}`))
	acc.Feed(toolCallChunk(0, "", "", `"Paris"}`))

	calls := acc.ToolCalls()
	require.Len(t, calls, 2)
	require.Equal(t, "call_1", calls[0].Id)
	require.Equal(t, "get_weather", calls[0].Function.Name)
	require.JSONEq(t, `{"city":"Paris"}`, calls[0].Function.Arguments)
	require.Equal(t, "call_2", calls[1].Id)
	require.Equal(t, "{}", calls[1].Function.Arguments)
}

func TestToolCallAccumulatorText(t *testing.T) {
	acc := openai.NewToolCallAccumulator()
	acc.Feed(&relaymodel.ChatCompletionChunk{
		Choices: []relaymodel.ChunkChoice{{Delta: relaymodel.Delta{Content: "Hel"}}},
	})
	acc.Feed(&relaymodel.ChatCompletionChunk{
		Choices: []relaymodel.ChunkChoice{{Delta: relaymodel.Delta{Content: "lo"}}},
	})
	require.Equal(t, "Hello", acc.Text())
	require.Nil(t, acc.ToolCalls())
}
