// Package mistral translates the canonical chat protocol to the Mistral text
// protocol. Conversations are rendered into the [INST] instruction template.
package mistral

import (
	"encoding/json"
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/common/helper"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/prompt"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

type Strategy struct {
	defaults config.ProviderDefaults
}

func NewStrategy(defaults config.ProviderDefaults) *Strategy {
	return &Strategy{defaults: defaults}
}

func (s *Strategy) Name() string { return "mistral" }

// RenderPrompt renders messages into the Mistral instruction template. System
// content is folded into the first instruction block; assistant turns are
// closed with </s>.
func RenderPrompt(system string, messages []relaymodel.Message) string {
	var sb strings.Builder
	sb.WriteString("<s>")
	pendingSystem := system
	for _, message := range messages {
		switch message.Role {
		case relaymodel.RoleUser:
			sb.WriteString("[INST] ")
			if pendingSystem != "" {
				sb.WriteString(pendingSystem)
				sb.WriteString("\n")
				pendingSystem = ""
			}
			sb.WriteString(message.StringContent())
			sb.WriteString(" [/INST]")
		case relaymodel.RoleAssistant:
			sb.WriteString(" ")
			sb.WriteString(message.StringContent())
			sb.WriteString("</s>")
		}
	}
	return sb.String()
}

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	if request.HasTools() {
		return nil, apierr.New(apierr.KindUnsupportedFeature, "mistral text models do not support tool calling")
	}

	system, rest := prompt.MergeSystem(request.Messages)
	mistralReq := &Request{
		Prompt:      RenderPrompt(system, rest),
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
		TopP:        request.TopP,
		Stop:        request.StopSequences(),
	}
	if mistralReq.MaxTokens == 0 {
		mistralReq.MaxTokens = s.defaults.MaxTokens
	}
	if mistralReq.Temperature == nil {
		t := s.defaults.Temperature
		mistralReq.Temperature = &t
	}

	payload, err := json.Marshal(mistralReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal mistral request")
	}
	return payload, nil
}

var stopReasonMapping = map[string]relaymodel.FinishReason{
	"stop":   relaymodel.FinishReasonStop,
	"length": relaymodel.FinishReasonLength,
}

func mapStopReason(reason string) relaymodel.FinishReason {
	if mapped, ok := stopReasonMapping[reason]; ok {
		return mapped
	}
	return relaymodel.FinishReason(reason)
}

func (s *Strategy) ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	var mistralResp Response
	if err := json.Unmarshal(body, &mistralResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal mistral response")
	}
	if len(mistralResp.Outputs) == 0 {
		return nil, apierr.New(apierr.KindAPIRequest, "mistral response carries no outputs")
	}

	output := mistralResp.Outputs[0]
	return &relaymodel.ChatCompletionResponse{
		Id:      helper.ChatCompletionID(),
		Object:  relaymodel.ObjectChatCompletion,
		Created: helper.GetTimestamp(),
		Model:   request.Model,
		Choices: []relaymodel.Choice{{
			Index: 0,
			Message: relaymodel.Message{
				Role:    relaymodel.RoleAssistant,
				Content: relaymodel.TextContent(output.Text),
			},
			FinishReason: mapStopReason(output.StopReason),
		}},
		Usage: &relaymodel.Usage{},
	}, nil
}

func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal(event, &streamEvent); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal mistral stream event")
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

	if len(streamEvent.Outputs) == 0 {
		return chunk, nil
	}

	output := streamEvent.Outputs[0]
	choice := relaymodel.ChunkChoice{
		Index: 0,
		Delta: relaymodel.Delta{Content: output.Text},
	}
	if output.StopReason != "" {
		reason := mapStopReason(output.StopReason)
		choice.FinishReason = &reason
	}
	chunk.Choices = []relaymodel.ChunkChoice{choice}
	return chunk, nil
}
