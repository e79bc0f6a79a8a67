// Package claude translates the canonical chat protocol to the Bedrock
// Anthropic Claude messages protocol, including native tool calling.
package claude

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

const anthropicVersion = "bedrock-2023-05-31"

type Strategy struct {
	defaults config.ProviderDefaults
}

func NewStrategy(defaults config.ProviderDefaults) *Strategy {
	return &Strategy{defaults: defaults}
}

func (s *Strategy) Name() string { return "claude" }

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	system, rest := prompt.MergeSystem(request.Messages)

	claudeReq := &Request{
		AnthropicVersion: anthropicVersion,
		System:           system,
		MaxTokens:        request.MaxTokens,
		Temperature:      request.Temperature,
		TopP:             request.TopP,
		TopK:             request.TopK,
		StopSequences:    request.StopSequences(),
	}
	if claudeReq.MaxTokens == 0 {
		claudeReq.MaxTokens = s.defaults.MaxTokens
	}
	if claudeReq.Temperature == nil {
		t := s.defaults.Temperature
		claudeReq.Temperature = &t
	}
	// Claude rejects requests carrying both temperature and top_p.
	if request.Temperature != nil && request.TopP != nil {
		claudeReq.TopP = nil
	}

	for i := range request.Tools {
		fn := request.Tools[i].Function
		claudeReq.Tools = append(claudeReq.Tools, Tool{
			Name:        fn.Name,
			Description: fn.Description,
			InputSchema: fn.Parameters,
		})
	}
	claudeReq.ToolChoice = convertToolChoice(request.ToolChoice)

	for i := range rest {
		msg, err := convertMessage(&rest[i])
		if err != nil {
			return nil, errors.Wrapf(err, "convert messages[%d]", i)
		}
		claudeReq.Messages = append(claudeReq.Messages, msg)
	}

	payload, err := json.Marshal(claudeReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal claude request")
	}
	return payload, nil
}

func convertToolChoice(choice any) any {
	switch v := choice.(type) {
	case string:
		switch v {
		case "auto":
			return map[string]any{"type": "auto"}
		case "required":
			return map[string]any{"type": "any"}
		case "none":
			return nil
		}
	case map[string]any:
		if fn, ok := v["function"].(map[string]any); ok {
			if name, ok := fn["name"].(string); ok {
				return map[string]any{"type": "tool", "name": name}
			}
		}
	}
	return nil
}

func convertMessage(msg *relaymodel.Message) (Message, error) {
	if msg.Role == relaymodel.RoleTool {
		return Message{
			Role: relaymodel.RoleUser,
			Content: []ContentBlock{{
				Type:      "tool_result",
				ToolUseId: msg.ToolCallId,
				Content:   msg.StringContent(),
			}},
		}, nil
	}

	out := Message{Role: msg.Role}
	if msg.Content != nil {
		if msg.Content.IsText() {
			out.Content = append(out.Content, ContentBlock{Type: "text", Text: msg.Content.PlainText()})
		} else {
			for _, part := range msg.Content.Parts() {
				block, err := convertPart(part)
				if err != nil {
					return Message{}, err
				}
				out.Content = append(out.Content, block)
			}
		}
	}
	for i := range msg.ToolCalls {
		tc := &msg.ToolCalls[i]
		out.Content = append(out.Content, ContentBlock{
			Type:  "tool_use",
			Id:    tc.Id,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

func convertPart(part relaymodel.Part) (ContentBlock, error) {
	switch part.Type {
	case relaymodel.PartTypeText:
		return ContentBlock{Type: "text", Text: part.Text}, nil
	case relaymodel.PartTypeImageURL:
		if part.ImageURL == nil || !strings.HasPrefix(part.ImageURL.URL, "data:") {
			return ContentBlock{}, errors.New("claude image parts require a base64 data URI")
		}
		mediaType, data, err := image.ParseDataURI(part.ImageURL.URL)
		if err != nil {
			return ContentBlock{}, errors.Wrap(err, "parse image data URI")
		}
		return ContentBlock{
			Type: "image",
			Source: &ImageSource{
				Type:      "base64",
				MediaType: mediaType,
				Data:      base64.StdEncoding.EncodeToString(data),
			},
		}, nil
	case relaymodel.PartTypeToolUse:
		return ContentBlock{
			Type:  "tool_use",
			Id:    part.ToolUse.Id,
			Name:  part.ToolUse.Name,
			Input: part.ToolUse.Input,
		}, nil
	default:
		return ContentBlock{}, errors.Errorf("unsupported content part type %q", part.Type)
	}
}

// stopReasonMapping is the Claude stop vocabulary; unmapped values pass
// through unchanged.
var stopReasonMapping = map[string]relaymodel.FinishReason{
	"end_turn":      relaymodel.FinishReasonStop,
	"max_tokens":    relaymodel.FinishReasonLength,
	"stop_sequence": relaymodel.FinishReasonStop,
	"tool_use":      relaymodel.FinishReasonToolCalls,
}

func mapStopReason(reason string) relaymodel.FinishReason {
	if mapped, ok := stopReasonMapping[reason]; ok {
		return mapped
	}
	return relaymodel.FinishReason(reason)
}

// finishReason resolves the canonical reason with one explicit priority rule:
// a provider stop_reason of tool_use always wins; otherwise, when the parsed
// message carries tool calls and the content-derived reason is not length,
// the reason is tool_calls.
func finishReason(stopReason string, hasToolCalls bool) relaymodel.FinishReason {
	if stopReason == "tool_use" {
		return relaymodel.FinishReasonToolCalls
	}
	mapped := mapStopReason(stopReason)
	if hasToolCalls && mapped != relaymodel.FinishReasonLength {
		return relaymodel.FinishReasonToolCalls
	}
	return mapped
}

func (s *Strategy) ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	var claudeResp Response
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal claude response")
	}
	if len(claudeResp.Content) == 0 {
		return nil, apierr.New(apierr.KindAPIRequest, "claude response carries no content")
	}

	var texts []string
	var toolCalls []relaymodel.ToolCall
	for i := range claudeResp.Content {
		block := &claudeResp.Content[i]
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			toolCalls = append(toolCalls, relaymodel.ToolCall{
				Id:   block.Id,
				Type: "function",
				Function: relaymodel.ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	message := relaymodel.Message{
		Role:      relaymodel.RoleAssistant,
		Content:   relaymodel.TextContent(strings.Join(texts, "")),
		ToolCalls: toolCalls,
	}
	usage := &relaymodel.Usage{
		PromptTokens:     claudeResp.Usage.InputTokens,
		CompletionTokens: claudeResp.Usage.OutputTokens,
		TotalTokens:      claudeResp.Usage.InputTokens + claudeResp.Usage.OutputTokens,
	}

	return &relaymodel.ChatCompletionResponse{
		Id:      helper.ChatCompletionID(),
		Object:  relaymodel.ObjectChatCompletion,
		Created: helper.GetTimestamp(),
		Model:   request.Model,
		Choices: []relaymodel.Choice{{
			Index:        0,
			Message:      message,
			FinishReason: finishReason(claudeResp.StopReason, len(toolCalls) > 0),
		}},
		Usage: usage,
	}, nil
}

func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var streamEvent StreamEvent
	if err := json.Unmarshal(event, &streamEvent); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal claude stream event")
	}

	chunk := &relaymodel.ChatCompletionChunk{
		Id:      streamID,
		Object:  relaymodel.ObjectChatCompletionChunk,
		Created: streamCreated,
		Model:   request.Model,
	}

	switch streamEvent.Type {
	case "message_start":
		chunk.Choices = []relaymodel.ChunkChoice{{
			Index: 0,
			Delta: relaymodel.Delta{Role: relaymodel.RoleAssistant},
		}}
		if streamEvent.Message != nil {
			chunk.Usage = &relaymodel.Usage{PromptTokens: streamEvent.Message.Usage.InputTokens}
		}

	case "content_block_start":
		if streamEvent.ContentBlock != nil && streamEvent.ContentBlock.Type == "tool_use" {
			index := blockIndex(streamEvent.Index)
			chunk.Choices = []relaymodel.ChunkChoice{{
				Index: 0,
				Delta: relaymodel.Delta{
					ToolCalls: []relaymodel.ToolCall{{
						Index: &index,
						Id:    streamEvent.ContentBlock.Id,
						Type:  "function",
						Function: relaymodel.ToolCallFunction{
							Name: streamEvent.ContentBlock.Name,
						},
					}},
				},
			}}
		}

	case "content_block_delta":
		if streamEvent.Delta == nil {
			break
		}
		switch streamEvent.Delta.Type {
		case "text_delta":
			chunk.Choices = []relaymodel.ChunkChoice{{
				Index: 0,
				Delta: relaymodel.Delta{Content: streamEvent.Delta.Text},
			}}
		case "input_json_delta":
			index := blockIndex(streamEvent.Index)
			chunk.Choices = []relaymodel.ChunkChoice{{
				Index: 0,
				Delta: relaymodel.Delta{
					ToolCalls: []relaymodel.ToolCall{{
						Index: &index,
						Function: relaymodel.ToolCallFunction{
							Arguments: streamEvent.Delta.PartialJSON,
						},
					}},
				},
			}}
		}

	case "message_delta":
		if streamEvent.Delta != nil && streamEvent.Delta.StopReason != "" {
			reason := finishReason(streamEvent.Delta.StopReason, false)
			chunk.Choices = []relaymodel.ChunkChoice{{
				Index:        0,
				Delta:        relaymodel.Delta{},
				FinishReason: &reason,
			}}
		}
		if streamEvent.Usage != nil {
			chunk.Usage = &relaymodel.Usage{CompletionTokens: streamEvent.Usage.OutputTokens}
		}

	default:
		// ping, content_block_stop, message_stop: metadata only, the relay
		// filters chunks with no choices.
	}

	return chunk, nil
}

func blockIndex(idx *int) int {
	if idx == nil {
		return 0
	}
	return *idx
}
