// Package cohere translates the canonical chat protocol to the Cohere Command
// completion protocol.
package cohere

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
		relaymodel.RoleAssistant: "Chatbot: ",
	},
	Separator: "\n",
	Cue:       "Chatbot:",
}

type Strategy struct {
	defaults config.ProviderDefaults
}

func NewStrategy(defaults config.ProviderDefaults) *Strategy {
	return &Strategy{defaults: defaults}
}

func (s *Strategy) Name() string { return "cohere" }

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	if request.HasTools() {
		return nil, apierr.New(apierr.KindUnsupportedFeature, "cohere command models do not support tool calling")
	}

	system, rest := prompt.MergeSystem(request.Messages)
	cohereReq := &Request{
		Prompt:        prompt.Render(system, rest, promptTemplate),
		MaxTokens:     request.MaxTokens,
		Temperature:   request.Temperature,
		P:             request.TopP,
		StopSequences: request.StopSequences(),
		Stream:        request.Stream,
	}
	if cohereReq.MaxTokens == 0 {
		cohereReq.MaxTokens = s.defaults.MaxTokens
	}
	if cohereReq.Temperature == nil {
		t := s.defaults.Temperature
		cohereReq.Temperature = &t
	}

	payload, err := json.Marshal(cohereReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal cohere request")
	}
	return payload, nil
}

var finishReasonMapping = map[string]relaymodel.FinishReason{
	"COMPLETE":    relaymodel.FinishReasonStop,
	"MAX_TOKENS":  relaymodel.FinishReasonLength,
	"ERROR_TOXIC": relaymodel.FinishReasonContentFilter,
}

func mapFinishReason(reason string) relaymodel.FinishReason {
	if mapped, ok := finishReasonMapping[reason]; ok {
		return mapped
	}
	return relaymodel.FinishReason(reason)
}

func (s *Strategy) ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	var cohereResp Response
	if err := json.Unmarshal(body, &cohereResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal cohere response")
	}
	if len(cohereResp.Generations) == 0 {
		return nil, apierr.New(apierr.KindAPIRequest, "cohere response carries no generations")
	}

	generation := cohereResp.Generations[0]
	return &relaymodel.ChatCompletionResponse{
		Id:      helper.ChatCompletionID(),
		Object:  relaymodel.ObjectChatCompletion,
		Created: helper.GetTimestamp(),
		Model:   request.Model,
		Choices: []relaymodel.Choice{{
			Index: 0,
			Message: relaymodel.Message{
				Role:    relaymodel.RoleAssistant,
				Content: relaymodel.TextContent(generation.Text),
			},
			FinishReason: mapFinishReason(generation.FinishReason),
		}},
		Usage: &relaymodel.Usage{},
	}, nil
}

func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal(event, &streamEvent); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal cohere stream event")
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

	if streamEvent.Text == "" && !streamEvent.IsFinished {
		return chunk, nil
	}

	choice := relaymodel.ChunkChoice{
		Index: 0,
		Delta: relaymodel.Delta{Content: streamEvent.Text},
	}
	if streamEvent.IsFinished {
		reason := mapFinishReason(streamEvent.FinishReason)
		choice.FinishReason = &reason
	}
	chunk.Choices = []relaymodel.ChunkChoice{choice}
	return chunk, nil
}
