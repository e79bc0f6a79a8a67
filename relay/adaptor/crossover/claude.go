// Package crossover converts Bedrock-shaped requests into the canonical model
// and canonical results back into Bedrock shapes, so Bedrock-native callers
// can be served by a different backend. The routing layer composes these
// conversions around the executing adaptor.
package crossover

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"github.com/polyrelay/polyrelay/common/helper"
	"github.com/polyrelay/polyrelay/common/image"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/claude"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

// ClaudeRequestToCanonical parses a Bedrock-Claude payload into the canonical
// request. The model id comes from routing, not the payload.
func ClaudeRequestToCanonical(raw []byte, model string) (*relaymodel.ChatCompletionRequest, error) {
	var claudeReq claude.Request
	if err := json.Unmarshal(raw, &claudeReq); err != nil {
		return nil, apierr.Wrap(err, apierr.KindValidation, "unmarshal claude request")
	}

	out := &relaymodel.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   claudeReq.MaxTokens,
		Temperature: claudeReq.Temperature,
		TopP:        claudeReq.TopP,
		TopK:        claudeReq.TopK,
	}
	if len(claudeReq.StopSequences) > 0 {
		out.Stop = claudeReq.StopSequences
	}
	if claudeReq.System != "" {
		out.Messages = append(out.Messages, relaymodel.Message{
			Role:    relaymodel.RoleSystem,
			Content: relaymodel.TextContent(claudeReq.System),
		})
	}

	for i := range claudeReq.Messages {
		converted, err := claudeMessageToCanonical(&claudeReq.Messages[i])
		if err != nil {
			return nil, errors.Wrapf(err, "convert messages[%d]", i)
		}
		out.Messages = append(out.Messages, converted...)
	}

	for _, tool := range claudeReq.Tools {
		out.Tools = append(out.Tools, relaymodel.Tool{
			Type: "function",
			Function: &relaymodel.Function{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	return out, nil
}

// claudeMessageToCanonical may split one Claude message into several
// canonical ones: tool_result blocks become standalone tool-role messages.
func claudeMessageToCanonical(msg *claude.Message) ([]relaymodel.Message, error) {
	var parts []relaymodel.Part
	var toolCalls []relaymodel.ToolCall
	var toolResults []relaymodel.Message

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			parts = append(parts, relaymodel.Part{Type: relaymodel.PartTypeText, Text: block.Text})
		case "image":
			if block.Source == nil {
				return nil, errors.New("image block missing source")
			}
			parts = append(parts, relaymodel.Part{
				Type: relaymodel.PartTypeImageURL,
				ImageURL: &relaymodel.ImageURL{
					URL: image.BuildDataURIFromBase64(block.Source.MediaType, block.Source.Data),
				},
			})
		case "tool_use":
			toolCalls = append(toolCalls, relaymodel.ToolCall{
				Id:   block.Id,
				Type: "function",
				Function: relaymodel.ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		case "tool_result":
			toolResults = append(toolResults, relaymodel.Message{
				Role:       relaymodel.RoleTool,
				ToolCallId: block.ToolUseId,
				Content:    relaymodel.TextContent(block.Content),
			})
		default:
			return nil, errors.Errorf("unsupported content block type %q", block.Type)
		}
	}

	var out []relaymodel.Message
	if len(parts) > 0 || len(toolCalls) > 0 {
		message := relaymodel.Message{Role: msg.Role, ToolCalls: toolCalls}
		if len(parts) == 1 && parts[0].Type == relaymodel.PartTypeText {
			message.Content = relaymodel.TextContent(parts[0].Text)
		} else if len(parts) > 0 {
			message.Content = relaymodel.BlockContent(parts)
		}
		out = append(out, message)
	}
	return append(out, toolResults...), nil
}

// claudeStopReasonInverse maps the canonical vocabulary back to Claude's.
// Unmapped values pass through unchanged.
var claudeStopReasonInverse = map[relaymodel.FinishReason]string{
	relaymodel.FinishReasonStop:      "end_turn",
	relaymodel.FinishReasonLength:    "max_tokens",
	relaymodel.FinishReasonToolCalls: "tool_use",
}

func claudeStopReason(reason relaymodel.FinishReason) string {
	if mapped, ok := claudeStopReasonInverse[reason]; ok {
		return mapped
	}
	return string(reason)
}

// CanonicalResponseToClaude reshapes a canonical response into the Bedrock
// Claude response body.
func CanonicalResponseToClaude(resp *relaymodel.ChatCompletionResponse) *claude.Response {
	out := &claude.Response{
		Id:    helper.BedrockInvocationID(),
		Type:  "message",
		Role:  relaymodel.RoleAssistant,
		Model: resp.Model,
	}
	if len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	if text := choice.Message.StringContent(); text != "" {
		out.Content = append(out.Content, claude.ContentBlock{Type: "text", Text: text})
	}
	for i := range choice.Message.ToolCalls {
		tc := &choice.Message.ToolCalls[i]
		out.Content = append(out.Content, claude.ContentBlock{
			Type:  "tool_use",
			Id:    tc.Id,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}
	out.StopReason = claudeStopReason(choice.FinishReason)
	if resp.Usage != nil {
		out.Usage = claude.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}
	return out
}

// CanonicalChunkToClaudeEvent reshapes one canonical chunk into one Bedrock
// Claude stream event: content deltas become content_block_delta, tool-call
// deltas become content_block_start (id+name) or input_json_delta (argument
// fragments), and the terminal chunk becomes message_delta with the inverse
// stop reason.
func CanonicalChunkToClaudeEvent(chunk *relaymodel.ChatCompletionChunk) *claude.StreamEvent {
	if reason := chunk.FinishReason(); reason != nil {
		event := &claude.StreamEvent{
			Type:  "message_delta",
			Delta: &claude.StreamDelta{StopReason: claudeStopReason(*reason)},
		}
		if chunk.Usage != nil {
			event.Usage = &claude.Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
			}
		}
		return event
	}

	if len(chunk.Choices) > 0 {
		if calls := chunk.Choices[0].Delta.ToolCalls; len(calls) > 0 {
			return toolCallDeltaToClaudeEvent(&calls[0])
		}
	}

	index := 0
	var text string
	if len(chunk.Choices) > 0 {
		text = chunk.Choices[0].Delta.Content
	}
	return &claude.StreamEvent{
		Type:  "content_block_delta",
		Index: &index,
		Delta: &claude.StreamDelta{Type: "text_delta", Text: text},
	}
}

// toolCallDeltaToClaudeEvent mirrors the claude strategy's forward mapping:
// the canonical tool-call index is the Claude content-block index. A delta
// carrying the call's id or name opens the block; argument fragments continue
// it.
func toolCallDeltaToClaudeEvent(call *relaymodel.ToolCall) *claude.StreamEvent {
	index := 0
	if call.Index != nil {
		index = *call.Index
	}
	if call.Id != "" || call.Function.Name != "" {
		return &claude.StreamEvent{
			Type:  "content_block_start",
			Index: &index,
			ContentBlock: &claude.ContentBlock{
				Type: "tool_use",
				Id:   call.Id,
				Name: call.Function.Name,
			},
		}
	}
	return &claude.StreamEvent{
		Type:  "content_block_delta",
		Index: &index,
		Delta: &claude.StreamDelta{Type: "input_json_delta", PartialJSON: call.Function.Arguments},
	}
}
