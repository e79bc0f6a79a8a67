// Package nova translates the canonical chat protocol to the Amazon Nova
// messages protocol.
package nova

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/common/helper"
	"github.com/polyrelay/polyrelay/common/image"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/prompt"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

const schemaVersion = "messages-v1"

type Strategy struct {
	defaults config.ProviderDefaults
}

func NewStrategy(defaults config.ProviderDefaults) *Strategy {
	return &Strategy{defaults: defaults}
}

func (s *Strategy) Name() string { return "nova" }

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	if request.HasTools() {
		return nil, apierr.New(apierr.KindUnsupportedFeature, "nova models do not support tool calling")
	}

	system, rest := prompt.MergeSystem(request.Messages)
	novaReq := &Request{
		SchemaVersion: schemaVersion,
		InferenceConfig: &InferenceConfig{
			MaxTokens:     request.MaxTokens,
			Temperature:   request.Temperature,
			TopP:          request.TopP,
			TopK:          request.TopK,
			StopSequences: request.StopSequences(),
		},
	}
	if system != "" {
		novaReq.System = []SystemMessage{{Text: system}}
	}
	if novaReq.InferenceConfig.MaxTokens == 0 {
		novaReq.InferenceConfig.MaxTokens = s.defaults.MaxTokens
	}
	if novaReq.InferenceConfig.Temperature == nil {
		t := s.defaults.Temperature
		novaReq.InferenceConfig.Temperature = &t
	}

	for i := range rest {
		msg, err := convertMessage(&rest[i])
		if err != nil {
			return nil, errors.Wrapf(err, "convert messages[%d]", i)
		}
		novaReq.Messages = append(novaReq.Messages, msg)
	}

	payload, err := json.Marshal(novaReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal nova request")
	}
	return payload, nil
}

func convertMessage(msg *relaymodel.Message) (Message, error) {
	out := Message{Role: msg.Role}
	if msg.Content == nil {
		return out, nil
	}
	if msg.Content.IsText() {
		out.Content = []ContentBlock{{Text: msg.Content.PlainText()}}
		return out, nil
	}
	for _, part := range msg.Content.Parts() {
		switch part.Type {
		case relaymodel.PartTypeText:
			out.Content = append(out.Content, ContentBlock{Text: part.Text})
		case relaymodel.PartTypeImageURL:
			if part.ImageURL == nil || !strings.HasPrefix(part.ImageURL.URL, "data:") {
				return Message{}, errors.New("nova image parts require a base64 data URI")
			}
			mediaType, data, err := image.ParseDataURI(part.ImageURL.URL)
			if err != nil {
				return Message{}, errors.Wrap(err, "parse image data URI")
			}
			out.Content = append(out.Content, ContentBlock{
				Image: &ImageBlock{
					Format: strings.TrimPrefix(mediaType, "image/"),
					Source: ImageSource{Bytes: base64Encode(data)},
				},
			})
		default:
			return Message{}, errors.Errorf("unsupported content part type %q", part.Type)
		}
	}
	return out, nil
}

func base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// stopReasonMapping is the Nova stop vocabulary; unmapped values pass through
// unchanged.
var stopReasonMapping = map[string]relaymodel.FinishReason{
	"end_turn":      relaymodel.FinishReasonStop,
	"max_tokens":    relaymodel.FinishReasonLength,
	"stop_sequence": relaymodel.FinishReasonStop,
}

func mapStopReason(reason string) relaymodel.FinishReason {
	if mapped, ok := stopReasonMapping[reason]; ok {
		return mapped
	}
	return relaymodel.FinishReason(reason)
}

func (s *Strategy) ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	var novaResp Response
	if err := json.Unmarshal(body, &novaResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal nova response")
	}
	if len(novaResp.Output.Message.Content) == 0 {
		return nil, apierr.New(apierr.KindAPIRequest, "nova response carries no content")
	}

	var texts []string
	for _, block := range novaResp.Output.Message.Content {
		if block.Text != "" {
			texts = append(texts, block.Text)
		}
	}

	usage := &relaymodel.Usage{
		PromptTokens:     novaResp.Usage.InputTokens,
		CompletionTokens: novaResp.Usage.OutputTokens,
		TotalTokens:      novaResp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
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
				Content: relaymodel.TextContent(strings.Join(texts, "")),
			},
			FinishReason: mapStopReason(novaResp.StopReason),
		}},
		Usage: usage,
	}, nil
}

func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal(event, &streamEvent); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal nova stream event")
	}

	chunk := &relaymodel.ChatCompletionChunk{
		Id:      streamID,
		Object:  relaymodel.ObjectChatCompletionChunk,
		Created: streamCreated,
		Model:   request.Model,
	}

	switch {
	case streamEvent.MessageStart != nil:
		chunk.Choices = []relaymodel.ChunkChoice{{
			Index: 0,
			Delta: relaymodel.Delta{Role: relaymodel.RoleAssistant},
		}}

	case streamEvent.ContentBlockDelta != nil:
		chunk.Choices = []relaymodel.ChunkChoice{{
			Index: 0,
			Delta: relaymodel.Delta{Content: streamEvent.ContentBlockDelta.Delta.Text},
		}}

	case streamEvent.MessageStop != nil:
		reason := mapStopReason(streamEvent.MessageStop.StopReason)
		chunk.Choices = []relaymodel.ChunkChoice{{
			Index:        0,
			Delta:        relaymodel.Delta{},
			FinishReason: &reason,
		}}

	case streamEvent.Metadata != nil:
		chunk.Usage = &relaymodel.Usage{
			PromptTokens:     streamEvent.Metadata.Usage.InputTokens,
			CompletionTokens: streamEvent.Metadata.Usage.OutputTokens,
			TotalTokens:      streamEvent.Metadata.Usage.TotalTokens,
		}
	}

	return chunk, nil
}
