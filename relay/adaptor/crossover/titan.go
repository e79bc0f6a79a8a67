package crossover

import (
	"encoding/json"

	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/titan"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

// TitanRequestToCanonical parses a Bedrock-Titan payload into the canonical
// request. The single inputText becomes one user turn.
func TitanRequestToCanonical(raw []byte, model string) (*relaymodel.ChatCompletionRequest, error) {
	var titanReq titan.Request
	if err := json.Unmarshal(raw, &titanReq); err != nil {
		return nil, apierr.Wrap(err, apierr.KindValidation, "unmarshal titan request")
	}
	if titanReq.InputText == "" {
		return nil, apierr.New(apierr.KindValidation, "titan request requires inputText")
	}

	out := &relaymodel.ChatCompletionRequest{
		Model: model,
		Messages: []relaymodel.Message{
			{Role: relaymodel.RoleUser, Content: relaymodel.TextContent(titanReq.InputText)},
		},
		MaxTokens:   titanReq.TextGenerationConfig.MaxTokenCount,
		Temperature: titanReq.TextGenerationConfig.Temperature,
		TopP:        titanReq.TextGenerationConfig.TopP,
	}
	if len(titanReq.TextGenerationConfig.StopSequences) > 0 {
		out.Stop = titanReq.TextGenerationConfig.StopSequences
	}
	return out, nil
}

// titanCompletionReasonInverse maps the canonical vocabulary back to Titan's.
var titanCompletionReasonInverse = map[relaymodel.FinishReason]string{
	relaymodel.FinishReasonStop:          "FINISH",
	relaymodel.FinishReasonLength:        "LENGTH",
	relaymodel.FinishReasonContentFilter: "CONTENT_FILTERED",
}

func titanCompletionReason(reason relaymodel.FinishReason) string {
	if mapped, ok := titanCompletionReasonInverse[reason]; ok {
		return mapped
	}
	return string(reason)
}

// CanonicalResponseToTitan reshapes a canonical response into the Bedrock
// Titan response body.
func CanonicalResponseToTitan(resp *relaymodel.ChatCompletionResponse) *titan.Response {
	out := &titan.Response{}
	if resp.Usage != nil {
		out.InputTextTokenCount = resp.Usage.PromptTokens
	}
	if len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	result := titan.Result{
		OutputText:       choice.Message.StringContent(),
		CompletionReason: titanCompletionReason(choice.FinishReason),
	}
	if resp.Usage != nil {
		result.TokenCount = resp.Usage.CompletionTokens
	}
	out.Results = []titan.Result{result}
	return out
}

// CanonicalChunkToTitanEvent reshapes one canonical chunk into the flat Titan
// stream record.
func CanonicalChunkToTitanEvent(chunk *relaymodel.ChatCompletionChunk) *titan.StreamEvent {
	event := &titan.StreamEvent{}
	if len(chunk.Choices) > 0 {
		event.OutputText = chunk.Choices[0].Delta.Content
		event.Index = chunk.Choices[0].Index
	}
	if reason := chunk.FinishReason(); reason != nil {
		event.CompletionReason = titanCompletionReason(*reason)
	}
	if chunk.Usage != nil {
		event.InputTextTokenCount = chunk.Usage.PromptTokens
		event.TotalOutputTextTokenCount = chunk.Usage.CompletionTokens
	}
	return event
}
