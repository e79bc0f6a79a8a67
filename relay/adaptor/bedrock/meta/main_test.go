package meta_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/meta"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

func TestRenderPrompt(t *testing.T) {
	messages := []relaymodel.Message{
		{Role: "user", Content: relaymodel.TextContent("What's your name?")},
	}
	prompt := meta.RenderPrompt(messages)
	expected := `<|begin_of_text|><|start_header_id|>user<|end_header_id|>What's your name?<|eot_id|><|start_header_id|>assistant<|end_header_id|>`
	require.Equal(t, expected, prompt)

	messages = []relaymodel.Message{
		{Role: "system", Content: relaymodel.TextContent("Your name is Kat.")},
		{Role: "user", Content: relaymodel.TextContent("What's your name?")},
		{Role: "assistant", Content: relaymodel.TextContent("Kat")},
		{Role: "user", Content: relaymodel.TextContent("What's your job?")},
	}
	prompt = meta.RenderPrompt(messages)
	expected = `<|begin_of_text|><|start_header_id|>system<|end_header_id|>Your name is Kat.<|eot_id|><|start_header_id|>user<|end_header_id|>What's your name?<|eot_id|><|start_header_id|>assistant<|end_header_id|>Kat<|eot_id|><|start_header_id|>user<|end_header_id|>What's your job?<|eot_id|><|start_header_id|>assistant<|end_header_id|>`
	require.Equal(t, expected, prompt)
}

func TestRenderPromptMergesSystemMessages(t *testing.T) {
	messages := []relaymodel.Message{
		{Role: "system", Content: relaymodel.TextContent("A")},
		{Role: "user", Content: relaymodel.TextContent("hi")},
		{Role: "system", Content: relaymodel.TextContent("B")},
	}
	prompt := meta.RenderPrompt(messages)
	expected := "<|begin_of_text|><|start_header_id|>system<|end_header_id|>A\nB<|eot_id|>" +
		"<|start_header_id|>user<|end_header_id|>hi<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>"
	require.Equal(t, expected, prompt)
}

func TestPrepareRequestPayload(t *testing.T) {
	strategy := meta.NewStrategy(config.ProviderDefaults{MaxTokens: 256, Temperature: 0.4})
	request := &relaymodel.ChatCompletionRequest{
		Model: "meta.llama3-70b-instruct-v1:0",
		Messages: []relaymodel.Message{
			{Role: "user", Content: relaymodel.TextContent("hi")},
		},
	}

	payload, err := strategy.PrepareRequestPayload(request)
	require.NoError(t, err)

	var metaReq meta.Request
	require.NoError(t, json.Unmarshal(payload, &metaReq))
	require.Equal(t, 256, metaReq.MaxGenLen)
	require.Contains(t, metaReq.Prompt, "<|begin_of_text|>")
}

func TestPrepareRequestPayloadRejectsTools(t *testing.T) {
	strategy := meta.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{
		Model: "meta.llama3-8b-instruct-v1:0",
		Messages: []relaymodel.Message{
			{Role: "user", Content: relaymodel.TextContent("hi")},
		},
		ToolChoice: "auto",
	}

	_, err := strategy.PrepareRequestPayload(request)
	require.Error(t, err)
	require.Equal(t, apierr.KindUnsupportedFeature, apierr.KindOf(err))
}

func TestParseResponse(t *testing.T) {
	strategy := meta.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "meta.llama3-70b-instruct-v1:0"}

	body := []byte(`{
		"generation": "Hello",
		"prompt_token_count": 6,
		"generation_token_count": 2,
		"stop_reason": "stop"
	}`)

	resp, err := strategy.ParseResponse(body, request)
	require.NoError(t, err)
	require.Equal(t, "Hello", resp.Choices[0].Message.StringContent())
	require.Equal(t, relaymodel.FinishReasonStop, resp.Choices[0].FinishReason)
	require.Equal(t, 8, resp.Usage.TotalTokens)
}

func TestHandleStreamChunk(t *testing.T) {
	strategy := meta.NewStrategy(config.DefaultProviderDefaults())
	request := &relaymodel.ChatCompletionRequest{Model: "meta.llama3-70b-instruct-v1:0"}

	chunk, err := strategy.HandleStreamChunk(
		[]byte(`{"generation": "Hel"}`), request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.Equal(t, "Hel", chunk.Choices[0].Delta.Content)
	require.Nil(t, chunk.Choices[0].FinishReason)

	chunk, err = strategy.HandleStreamChunk(
		[]byte(`{"generation": "", "stop_reason": "length"}`), request, "chatcmpl-test", 1700000000)
	require.NoError(t, err)
	require.NotNil(t, chunk.Choices[0].FinishReason)
	require.Equal(t, relaymodel.FinishReasonLength, *chunk.Choices[0].FinishReason)
}
