// Package titan translates the canonical chat protocol to the Amazon Titan
// text protocol. Titan has no chat schema; conversations are rendered into a
// "User:"/"Bot:" prompt.
package titan

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/common/helper"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/prompt"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

var promptTemplate = prompt.Template{
	RolePrefix: map[string]string{
		relaymodel.RoleUser:      "User: ",
		relaymodel.RoleAssistant: "Bot: ",
	},
	Separator: "\n",
	Cue:       "Bot:",
}

type Strategy struct {
	defaults config.ProviderDefaults
}

func NewStrategy(defaults config.ProviderDefaults) *Strategy {
	return &Strategy{defaults: defaults}
}

func (s *Strategy) Name() string { return "titan" }

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	if request.HasTools() {
		return nil, apierr.New(apierr.KindUnsupportedFeature, "titan models do not support tool calling")
	}

	system, rest := prompt.MergeSystem(request.Messages)
	titanReq := &Request{
		InputText: prompt.Render(system, rest, promptTemplate),
		TextGenerationConfig: TextGenerationConfig{
			MaxTokenCount: request.MaxTokens,
			Temperature:   request.Temperature,
			TopP:          request.TopP,
			StopSequences: request.StopSequences(),
		},
	}
	if titanReq.TextGenerationConfig.MaxTokenCount == 0 {
		titanReq.TextGenerationConfig.MaxTokenCount = s.defaults.MaxTokens
	}
	if titanReq.TextGenerationConfig.Temperature == nil {
		t := s.defaults.Temperature
		titanReq.TextGenerationConfig.Temperature = &t
	}

	payload, err := json.Marshal(titanReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal titan request")
	}
	return payload, nil
}

// completionReasonMapping is the Titan completion vocabulary; unmapped values
// pass through unchanged.
var completionReasonMapping = map[string]relaymodel.FinishReason{
	"FINISH":           relaymodel.FinishReasonStop,
	"LENGTH":           relaymodel.FinishReasonLength,
	"CONTENT_FILTERED": relaymodel.FinishReasonContentFilter,
}

func mapCompletionReason(reason string) relaymodel.FinishReason {
	if mapped, ok := completionReasonMapping[reason]; ok {
		return mapped
	}
	return relaymodel.FinishReason(reason)
}

func (s *Strategy) ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	var titanResp Response
	if err := json.Unmarshal(body, &titanResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal titan response")
	}
	if len(titanResp.Results) == 0 {
		return nil, apierr.New(apierr.KindAPIRequest, "titan response carries no results")
	}

	result := titanResp.Results[0]
	usage := &relaymodel.Usage{
		PromptTokens:     titanResp.InputTextTokenCount,
		CompletionTokens: result.TokenCount,
		TotalTokens:      titanResp.InputTextTokenCount + result.TokenCount,
	}

	return &relaymodel.ChatCompletionResponse{
		Id:      helper.ChatCompletionID(),
		Object:  relaymodel.ObjectChatCompletion,
		Created: helper.GetTimestamp(),
		Model:   request.Model,
		Choices: []relaymodel.Choice{{
			Index: 0,
			Message: relaymodel.Message{
				Role:    relaymodel.RoleAssistant,
				Content: relaymodel.TextContent(result.OutputText),
			},
			FinishReason: mapCompletionReason(result.CompletionReason),
		}},
		Usage: usage,
	}, nil
}

func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal(event, &streamEvent); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal titan stream event")
	}

	chunk := &relaymodel.ChatCompletionChunk{
		Id:      streamID,
		Object:  relaymodel.ObjectChatCompletionChunk,
		Created: streamCreated,
		Model:   request.Model,
	}
	if streamEvent.InvocationMetrics != nil {
		chunk.Usage = &relaymodel.Usage{
			PromptTokens:     streamEvent.InvocationMetrics.InputTokenCount,
			CompletionTokens: streamEvent.InvocationMetrics.OutputTokenCount,
			TotalTokens:      streamEvent.InvocationMetrics.InputTokenCount + streamEvent.InvocationMetrics.OutputTokenCount,
		}
	}

	if streamEvent.OutputText == "" && streamEvent.CompletionReason == "" {
		// Metrics-only trailer; the relay filters chunks with no choices.
		return chunk, nil
	}

	choice := relaymodel.ChunkChoice{
		Index: 0,
		Delta: relaymodel.Delta{Content: streamEvent.OutputText},
	}
	if streamEvent.CompletionReason != "" {
		reason := mapCompletionReason(streamEvent.CompletionReason)
		choice.FinishReason = &reason
	}
	chunk.Choices = []relaymodel.ChunkChoice{choice}
	return chunk, nil
}
