// Package meta translates the canonical chat protocol to the Meta Llama text
// protocol. Conversations are rendered into the Llama 3 instruction template.
package meta

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

func (s *Strategy) Name() string { return "meta" }

// RenderPrompt renders messages into the Llama 3 instruction template.
// System messages merge into one leading system header block; the trailing
// assistant header cues the model to answer.
func RenderPrompt(messages []relaymodel.Message) string {
	system, rest := prompt.MergeSystem(messages)

	var sb strings.Builder
	sb.WriteString("<|begin_of_text|>")
	if system != "" {
		writeBlock(&sb, relaymodel.RoleSystem, system)
	}
	for i := range rest {
		writeBlock(&sb, rest[i].Role, rest[i].StringContent())
	}
	sb.WriteString("<|start_header_id|>assistant<|end_header_id|>")
	return sb.String()
}

func writeBlock(sb *strings.Builder, role, content string) {
	sb.WriteString("<|start_header_id|>")
	sb.WriteString(role)
	sb.WriteString("<|end_header_id|>")
	sb.WriteString(content)
	sb.WriteString("<|eot_id|>")
}

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	if request.HasTools() {
		return nil, apierr.New(apierr.KindUnsupportedFeature, "meta llama models do not support tool calling")
	}

	metaReq := &Request{
		Prompt:      RenderPrompt(request.Messages),
		MaxGenLen:   request.MaxTokens,
		Temperature: request.Temperature,
		TopP:        request.TopP,
	}
	if metaReq.MaxGenLen == 0 {
		metaReq.MaxGenLen = s.defaults.MaxTokens
	}
	if metaReq.Temperature == nil {
		t := s.defaults.Temperature
		metaReq.Temperature = &t
	}

	payload, err := json.Marshal(metaReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal meta request")
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
	var metaResp Response
	if err := json.Unmarshal(body, &metaResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal meta response")
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
				Content: relaymodel.TextContent(metaResp.Generation),
			},
			FinishReason: mapStopReason(metaResp.StopReason),
		}},
		Usage: &relaymodel.Usage{
			PromptTokens:     metaResp.PromptTokenCount,
			CompletionTokens: metaResp.GenerationTokenCount,
			TotalTokens:      metaResp.PromptTokenCount + metaResp.GenerationTokenCount,
		},
	}, nil
}

func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal(event, &streamEvent); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal meta stream event")
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

	if streamEvent.Generation == "" && streamEvent.StopReason == "" {
		return chunk, nil
	}

	choice := relaymodel.ChunkChoice{
		Index: 0,
		Delta: relaymodel.Delta{Content: streamEvent.Generation},
	}
	if streamEvent.StopReason != "" {
		reason := mapStopReason(streamEvent.StopReason)
		choice.FinishReason = &reason
	}
	chunk.Choices = []relaymodel.ChunkChoice{choice}
	return chunk, nil
}
