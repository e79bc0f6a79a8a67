package claude_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/claude"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

func TestPrepareRequestPayload(t *testing.T) {
	strategy := claude.NewStrategy(config.ProviderDefaults{MaxTokens: 1024, Temperature: 0.7})
	request := &relaymodel.ChatCompletionRequest{
		Model: "anthropic.claude-3-sonnet-20240229-v1:0",
		Messages: []relaymodel.Message{
			{Role: "system", Content: relaymodel.TextContent("A")},
			{Role: "user", Content: relaymodel.TextContent("hi")},
			{Role: "system", Content: relaymodel.TextContent("B")},
		},
	}

	payload, err := strategy.PrepareRequestPayload(request)
	require.NoError(t, err)

	var claudeReq claude.Request
	require.NoError(t, json.Unmarshal(payload, &claudeReq))
	require.Equal(t, "bedrock-2023-05-31", claudeReq.AnthropicVersion)
	require.Equal(t, "A\nB", claudeReq.System)
	require.Len(t, claudeReq.Messages, 1)
	require.Equal(t, "user", claudeReq.Messages[0].Role)
	require.Equal(t, 1024, claudeReq.MaxTokens)
	require.NotNil(t, claudeReq.Temperature)
	require.InDelta(t, 0.7, *claudeReq.Temperature, 1e-9)
}

func TestPrepareRequestPayloadDropsTopPWithTemperature(t *testing.T) {
	strategy := claude.NewStrategy(config.ProviderDefaults{MaxTokens: 1024, Temperature: 0.7})
	temp := 0.5
	topP := 0.9
	request := &relaymodel.ChatCompletionRequest{
		Model:       "anthropic.claude-3-haiku-20240307-v1:0",
		Temperature: &temp,
		TopP:        &topP,
		Messages: []relaymodel.Message{
			{Role: "user", Content: relaymodel.TextContent("hi")},
		},
	}

	payload, err := strategy.PrepareRequestPayload(request)
	require.NoError(t, err)

	var claudeReq claude.Request
	require.NoError(t, json.Unmarshal(payload, &claudeReq))
	require.Nil(t, claudeReq.TopP)
	require.NotNil(t, claudeReq.Temperature)
}

func TestParseResponse(t *testing.T) {
	strategy := claude.NewStrategy(config.ProviderDefaults{MaxTokens: 1024, Temperature: 0.7})
	request := &relaymodel.ChatCompletionRequest{Model: "anthropic.claude-3-sonnet-20240229-v1:0"}

	body := []byte(`{
		"content": [{"type": "text", "text": "Hello, "}, {"type": "text", "text": "world"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 4}
	}`)

	resp, err := strategy.ParseResponse(body, request)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "Hello, world", resp.Choices[0].Message.StringContent())
	require.Equal(t, relaymodel.FinishReasonStop, resp.Choices[0].FinishReason)
	require.Equal(t, 14, resp.Usage.TotalTokens)
}

func TestParseResponseToolUse(t *testing.T) {
	strategy := claude.NewStrategy(config.ProviderDefaults{MaxTokens: 1024, Temperature: 0.7})
	request := &relaymodel.ChatCompletionRequest{Model: "anthropic.claude-3-sonnet-20240229-v1:0"}

	body := []byte(`{
		"content": [{"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": {"city": "Paris"}}],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 20, "output_tokens": 8}
	}`)

	resp, err := strategy.ParseResponse(body, request)
	require.NoError(t, err)
	require.Equal(t, relaymodel.FinishReasonToolCalls, resp.Choices[0].FinishReason)
	require.Len(t, resp.Choices[0].Message.ToolCalls, 1)
	require.Equal(t, "get_weather", resp.Choices[0].Message.ToolCalls[0].Function.Name)
	require.JSONEq(t, `{"city":"Paris"}`, resp.Choices[0].Message.ToolCalls[0].Function.Arguments)
}

func TestParseResponseEmptyContent(t *testing.T) {
	strategy := claude.NewStrategy(config.ProviderDefaults{MaxTokens: 1024, Temperature: 0.7})
	request := &relaymodel.ChatCompletionRequest{Model: "anthropic.claude-3-sonnet-20240229-v1:0"}

	_, err := strategy.ParseResponse([]byte(`{"content": []}`), request)
	require.Error(t, err)
}

func TestHandleStreamChunkSequence(t *testing.T) {
	strategy := claude.NewStrategy(config.ProviderDefaults{MaxTokens: 1024, Temperature: 0.7})
	request := &relaymodel.ChatCompletionRequest{Model: "anthropic.claude-3-sonnet-20240229-v1:0"}

	events := [][]byte{
		[]byte(`{"type": "content_block_delta", "index": 0, "delta": {"type": "text_delta", "text": "Hel"}}`),
		[]byte(`{"type": "content_block_delta", "index": 0, "delta": {"type": "text_delta", "text": "lo"}}`),
		[]byte(`{"type": "message_delta", "delta": {"stop_reason": "end_turn"}, "usage": {"output_tokens": 2}}`),
	}

	var text string
	var finish *relaymodel.FinishReason
	for _, event := range events {
		chunk, err := strategy.HandleStreamChunk(event, request, "chatcmpl-test", 1700000000)
		require.NoError(t, err)
		require.Len(t, chunk.Choices, 1)
		text += chunk.Choices[0].Delta.Content
		if chunk.Choices[0].FinishReason != nil {
			require.Nil(t, finish, "finish_reason must appear exactly once")
			finish = chunk.Choices[0].FinishReason
		}
	}

	require.Equal(t, "Hello", text)
	require.NotNil(t, finish)
	require.Equal(t, relaymodel.FinishReasonStop, *finish)
}

func TestHandleStreamChunkMetadataOnly(t *testing.T) {
	strategy := claude.NewStrategy(config.ProviderDefaults{MaxTokens: 1024, Temperature: 0.7})
	request := &relaymodel.ChatCompletionRequest{Model: "anthropic.claude-3-sonnet-20240229-v1:0"}

	chunk, err := strategy.HandleStreamChunk([]byte(`{"type": "ping"}`), request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.Empty(t, chunk.Choices)
}

func TestFinishReasonMapping(t *testing.T) {
	strategy := claude.NewStrategy(config.ProviderDefaults{MaxTokens: 1024, Temperature: 0.7})
	request := &relaymodel.ChatCompletionRequest{Model: "anthropic.claude-3-sonnet-20240229-v1:0"}

	cases := map[string]relaymodel.FinishReason{
		"end_turn":      relaymodel.FinishReasonStop,
		"max_tokens":    relaymodel.FinishReasonLength,
		"stop_sequence": relaymodel.FinishReasonStop,
		"tool_use":      relaymodel.FinishReasonToolCalls,
		"mystery":       relaymodel.FinishReason("mystery"),
	}
	for stopReason, want := range cases {
		body := []byte(`{"content": [{"type": "text", "text": "x"}], "stop_reason": "` + stopReason + `"}`)
		resp, err := strategy.ParseResponse(body, request)
		require.NoError(t, err)
		require.Equal(t, want, resp.Choices[0].FinishReason, "stop_reason %q", stopReason)
	}
}
