package cohere_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/cohere"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

func TestPrepareRequestPayload(t *testing.T) {
	strategy := cohere.NewStrategy(config.ProviderDefaults{MaxTokens: 100, Temperature: 0.9})
	request := &relaymodel.ChatCompletionRequest{
		Model: "cohere.command-text-v14",
		Messages: []relaymodel.Message{
			{Role: "user", Content: relaymodel.TextContent("hi")},
		},
		Stream: true,
	}

	payload, err := strategy.PrepareRequestPayload(request)
	require.NoError(t, err)

	var cohereReq cohere.Request
	require.NoError(t, json.Unmarshal(payload, &cohereReq))
	require.Equal(t, "User: hi\nChatbot:", cohereReq.Prompt)
	require.Equal(t, 100, cohereReq.MaxTokens)
	require.True(t, cohereReq.Stream)
}

func TestPrepareRequestPayloadRejectsTools(t *testing.T) {
	strategy := cohere.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{
		Model: "cohere.command-text-v14",
		Messages: []relaymodel.Message{
			{Role: "user", Content: relaymodel.TextContent("hi")},
		},
		Tools: []relaymodel.Tool{{Type: "function"}},
	}

	_, err := strategy.PrepareRequestPayload(request)
	require.Error(t, err)
	require.Equal(t, apierr.KindUnsupportedFeature, apierr.KindOf(err))
}

func TestFinishReasonMapping(t *testing.T) {
	strategy := cohere.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "cohere.command-text-v14"}

	cases := map[string]relaymodel.FinishReason{
		"COMPLETE":    relaymodel.FinishReasonStop,
		"MAX_TOKENS":  relaymodel.FinishReasonLength,
		"ERROR_TOXIC": relaymodel.FinishReasonContentFilter,
		"ERROR":       relaymodel.FinishReason("ERROR"),
	}
	for reason, want := range cases {
		body := []byte(`{"generations": [{"text": "x", "finish_reason": "` + reason + `"}]}`)
		resp, err := strategy.ParseResponse(body, request)
		require.NoError(t, err)
		require.Equal(t, want, resp.Choices[0].FinishReason, "finish_reason %q", reason)
	}
}

func TestHandleStreamChunk(t *testing.T) {
	strategy := cohere.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "cohere.command-text-v14"}

	chunk, err := strategy.HandleStreamChunk(
		[]byte(`{"text": "Hel", "is_finished": false}`), request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.Equal(t, "Hel", chunk.Choices[0].Delta.Content)
	require.Nil(t, chunk.Choices[0].FinishReason)

	chunk, err = strategy.HandleStreamChunk(
		[]byte(`{"text": "", "is_finished": true, "finish_reason": "COMPLETE"}`),
		request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.NotNil(t, chunk.Choices[0].FinishReason)
	require.Equal(t, relaymodel.FinishReasonStop, *chunk.Choices[0].FinishReason)
}
