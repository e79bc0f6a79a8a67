package writer_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/writer"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

func TestPrepareRequestPayload(t *testing.T) {
	strategy := writer.NewStrategy(config.ProviderDefaults{MaxTokens: 300, Temperature: 0.8})
	request := &relaymodel.ChatCompletionRequest{
		Model: "writer.palmyra-x5-v1:0",
		Messages: []relaymodel.Message{
			{Role: "system", Content: relaymodel.TextContent("Be helpful.")},
			{Role: "user", Content: relaymodel.TextContent("hi")},
		},
	}

	payload, err := strategy.PrepareRequestPayload(request)
	require.NoError(t, err)

	var writerReq writer.Request
	require.NoError(t, json.Unmarshal(payload, &writerReq))
	require.Equal(t, "Be helpful.\nUser: hi\nAssistant:", writerReq.Prompt)
	require.Equal(t, 300, writerReq.MaxTokens)
}

func TestPrepareRequestPayloadRejectsTools(t *testing.T) {
	strategy := writer.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{
		Model: "writer.palmyra-x5-v1:0",
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
	strategy := writer.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "writer.palmyra-x5-v1:0"}

	body := []byte(`{"choices": [{"text": "Hello", "finish_reason": "stop"}]}`)
	resp, err := strategy.ParseResponse(body, request)
	require.NoError(t, err)
	require.Equal(t, "Hello", resp.Choices[0].Message.StringContent())
	require.Equal(t, relaymodel.FinishReasonStop, resp.Choices[0].FinishReason)

	_, err = strategy.ParseResponse([]byte(`{"choices": []}`), request)
	require.Error(t, err)
	require.Equal(t, apierr.KindAPIRequest, apierr.KindOf(err))
}

func TestHandleStreamChunk(t *testing.T) {
	strategy := writer.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "writer.palmyra-x5-v1:0"}

	chunk, err := strategy.HandleStreamChunk(
		[]byte(`{"choices": [{"text": "Hel"}]}`), request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.Equal(t, "Hel", chunk.Choices[0].Delta.Content)
	require.Nil(t, chunk.Choices[0].FinishReason)

	chunk, err = strategy.HandleStreamChunk(
		[]byte(`{"choices": [{"text": "lo", "finish_reason": "length"}]}`),
		request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.NotNil(t, chunk.Choices[0].FinishReason)
	require.Equal(t, relaymodel.FinishReasonLength, *chunk.Choices[0].FinishReason)
}
