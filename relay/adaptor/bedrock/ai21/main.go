// Package ai21 translates the canonical chat protocol to the AI21 Jurassic-2
// completion protocol.
package ai21

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
		relaymodel.RoleAssistant: "Assistant: ",
	},
	Separator: "\n",
	Cue:       "Assistant:",
}

type Strategy struct {
	defaults config.ProviderDefaults
}

func NewStrategy(defaults config.ProviderDefaults) *Strategy {
	return &Strategy{defaults: defaults}
}

func (s *Strategy) Name() string { return "ai21" }

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	if request.HasTools() {
		return nil, apierr.New(apierr.KindUnsupportedFeature, "ai21 models do not support tool calling")
	}

	system, rest := prompt.MergeSystem(request.Messages)
	ai21Req := &Request{
		Prompt:        prompt.Render(system, rest, promptTemplate),
		MaxTokens:     request.MaxTokens,
		Temperature:   request.Temperature,
		TopP:          request.TopP,
		StopSequences: request.StopSequences(),
		NumResults:    1,
	}
	if ai21Req.MaxTokens == 0 {
		ai21Req.MaxTokens = s.defaults.MaxTokens
	}
	if ai21Req.Temperature == nil {
		t := s.defaults.Temperature
		ai21Req.Temperature = &t
	}

	payload, err := json.Marshal(ai21Req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal ai21 request")
	}
	return payload, nil
}

var finishReasonMapping = map[string]relaymodel.FinishReason{
	"endoftext": relaymodel.FinishReasonStop,
	"stop":      relaymodel.FinishReasonStop,
	"length":    relaymodel.FinishReasonLength,
}

func mapFinishReason(reason string) relaymodel.FinishReason {
	if mapped, ok := finishReasonMapping[reason]; ok {
		return mapped
	}
	return relaymodel.FinishReason(reason)
}

func (s *Strategy) ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	var ai21Resp Response
	if err := json.Unmarshal(body, &ai21Resp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal ai21 response")
	}
	if len(ai21Resp.Completions) == 0 {
		return nil, apierr.New(apierr.KindAPIRequest, "ai21 response carries no completions")
	}

	completion := ai21Resp.Completions[0]
	return &relaymodel.ChatCompletionResponse{
		Id:      helper.ChatCompletionID(),
		Object:  relaymodel.ObjectChatCompletion,
		Created: helper.GetTimestamp(),
		Model:   request.Model,
		Choices: []relaymodel.Choice{{
			Index: 0,
			Message: relaymodel.Message{
				Role:    relaymodel.RoleAssistant,
				Content: relaymodel.TextContent(completion.Data.Text),
			},
			FinishReason: mapFinishReason(completion.FinishReason.Reason),
		}},
		Usage: &relaymodel.Usage{},
	}, nil
}

func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal(event, &streamEvent); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal ai21 stream event")
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

	if len(streamEvent.Completions) == 0 {
		return chunk, nil
	}

	completion := streamEvent.Completions[0]
	choice := relaymodel.ChunkChoice{
		Index: 0,
		Delta: relaymodel.Delta{Content: completion.Data.Text},
	}
	if completion.FinishReason.Reason != "" {
		reason := mapFinishReason(completion.FinishReason.Reason)
		choice.FinishReason = &reason
	}
	chunk.Choices = []relaymodel.ChunkChoice{choice}
	return chunk, nil
}
