// Package writer translates the canonical chat protocol to the Writer Palmyra
// completion protocol.
package writer

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

func (s *Strategy) Name() string { return "writer" }

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	if request.HasTools() {
		return nil, apierr.New(apierr.KindUnsupportedFeature, "writer palmyra models do not support tool calling")
	}

	system, rest := prompt.MergeSystem(request.Messages)
	writerReq := &Request{
		Prompt:      prompt.Render(system, rest, promptTemplate),
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
		TopP:        request.TopP,
		Stop:        request.StopSequences(),
	}
	if writerReq.MaxTokens == 0 {
		writerReq.MaxTokens = s.defaults.MaxTokens
	}
	if writerReq.Temperature == nil {
		t := s.defaults.Temperature
		writerReq.Temperature = &t
	}

	payload, err := json.Marshal(writerReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal writer request")
	}
	return payload, nil
}

var finishReasonMapping = map[string]relaymodel.FinishReason{
	"stop":   relaymodel.FinishReasonStop,
	"length": relaymodel.FinishReasonLength,
}

func mapFinishReason(reason string) relaymodel.FinishReason {
	if mapped, ok := finishReasonMapping[reason]; ok {
		return mapped
	}
	return relaymodel.FinishReason(reason)
}

func (s *Strategy) ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	var writerResp Response
	if err := json.Unmarshal(body, &writerResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal writer response")
	}
	if len(writerResp.Choices) == 0 {
		return nil, apierr.New(apierr.KindAPIRequest, "writer response carries no choices")
	}

	choice := writerResp.Choices[0]
	return &relaymodel.ChatCompletionResponse{
		Id:      helper.ChatCompletionID(),
		Object:  relaymodel.ObjectChatCompletion,
		Created: helper.GetTimestamp(),
		Model:   request.Model,
		Choices: []relaymodel.Choice{{
			Index: 0,
			Message: relaymodel.Message{
				Role:    relaymodel.RoleAssistant,
				Content: relaymodel.TextContent(choice.Text),
			},
			FinishReason: mapFinishReason(choice.FinishReason),
		}},
		Usage: &relaymodel.Usage{},
	}, nil
}

func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal(event, &streamEvent); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal writer stream event")
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

	if len(streamEvent.Choices) == 0 {
		return chunk, nil
	}

	choice := streamEvent.Choices[0]
	chunkChoice := relaymodel.ChunkChoice{
		Index: 0,
		Delta: relaymodel.Delta{Content: choice.Text},
	}
	if choice.FinishReason != "" {
		reason := mapFinishReason(choice.FinishReason)
		chunkChoice.FinishReason = &reason
	}
	chunk.Choices = []relaymodel.ChunkChoice{chunkChoice}
	return chunk, nil
}
