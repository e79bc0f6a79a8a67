package titan_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/titan"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

func TestPrepareRequestPayload(t *testing.T) {
	strategy := titan.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{
		Model:     "amazon.titan-text-express-v1",
		MaxTokens: 10,
		Messages: []relaymodel.Message{
			{Role: "user", Content: relaymodel.TextContent("Capital of France?")},
		},
	}

	payload, err := strategy.PrepareRequestPayload(request)
	require.NoError(t, err)

	var titanReq titan.Request
	require.NoError(t, json.Unmarshal(payload, &titanReq))
	require.Equal(t, "User: Capital of France?\nBot:", titanReq.InputText)
	require.Equal(t, 10, titanReq.TextGenerationConfig.MaxTokenCount)
}

func TestPrepareRequestPayloadRejectsTools(t *testing.T) {
	strategy := titan.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{
		Model: "amazon.titan-text-express-v1",
		Messages: []relaymodel.Message{
			{Role: "user", Content: relaymodel.TextContent("hi")},
		},
		Tools: []relaymodel.Tool{{Type: "function"}},
	}

	_, err := strategy.PrepareRequestPayload(request)
	require.Error(t, err)
	require.Equal(t, apierr.KindUnsupportedFeature, apierr.KindOf(err))
}

func TestParseResponse(t *testing.T) {
	strategy := titan.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "amazon.titan-text-express-v1"}

	body := []byte(`{
		"inputTextTokenCount": 7,
		"results": [{"outputText": "Paris", "completionReason": "FINISH", "tokenCount": 1}]
	}`)

	resp, err := strategy.ParseResponse(body, request)
	require.NoError(t, err)
	require.Equal(t, "Paris", resp.Choices[0].Message.StringContent())
	require.Equal(t, relaymodel.FinishReasonStop, resp.Choices[0].FinishReason)
	require.Equal(t, 8, resp.Usage.TotalTokens)
}

func TestParseResponseEmptyResults(t *testing.T) {
	strategy := titan.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "amazon.titan-text-express-v1"}

	_, err := strategy.ParseResponse([]byte(`{"results": []}`), request)
	require.Error(t, err)
	require.Equal(t, apierr.KindAPIRequest, apierr.KindOf(err))
}

func TestCompletionReasonMapping(t *testing.T) {
	strategy := titan.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "amazon.titan-text-express-v1"}

	cases := map[string]relaymodel.FinishReason{
		"FINISH":           relaymodel.FinishReasonStop,
		"LENGTH":           relaymodel.FinishReasonLength,
		"CONTENT_FILTERED": relaymodel.FinishReasonContentFilter,
		"OTHER":            relaymodel.FinishReason("OTHER"),
	}
	for reason, want := range cases {
		body := []byte(`{"results": [{"outputText": "x", "completionReason": "` + reason + `"}]}`)
		resp, err := strategy.ParseResponse(body, request)
		require.NoError(t, err)
		require.Equal(t, want, resp.Choices[0].FinishReason, "completionReason %q", reason)
	}
}

func TestHandleStreamChunk(t *testing.T) {
	strategy := titan.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "amazon.titan-text-express-v1"}

	chunk, err := strategy.HandleStreamChunk(
		[]byte(`{"outputText": "Paris", "completionReason": "FINISH"}`),
		request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.Len(t, chunk.Choices, 1)
	require.Equal(t, "Paris", chunk.Choices[0].Delta.Content)
	require.NotNil(t, chunk.Choices[0].FinishReason)
	require.Equal(t, relaymodel.FinishReasonStop, *chunk.Choices[0].FinishReason)
}

func TestHandleStreamChunkMetricsOnly(t *testing.T) {
	strategy := titan.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "amazon.titan-text-express-v1"}

	chunk, err := strategy.HandleStreamChunk(
		[]byte(`{"amazon-bedrock-invocationMetrics": {"inputTokenCount": 7, "outputTokenCount": 1}}`),
		request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.Empty(t, chunk.Choices)
	require.NotNil(t, chunk.Usage)
	require.Equal(t, 8, chunk.Usage.TotalTokens)
}
