package openai

import (
	"sort"
	"strings"

	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

// ToolCallAccumulator reassembles streamed tool calls. A single call's id,
// name and argument fragments may arrive in separate chunks; they are merged
// by the delta's integer index, never by position or role.
type ToolCallAccumulator struct {
	calls map[int]*relaymodel.ToolCall
	texts []string
}

func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{calls: make(map[int]*relaymodel.ToolCall)}
}

// Feed folds one chunk's deltas into the accumulator.
func (a *ToolCallAccumulator) Feed(chunk *relaymodel.ChatCompletionChunk) {
	for i := range chunk.Choices {
		delta := &chunk.Choices[i].Delta
		if delta.Content != "" {
			a.texts = append(a.texts, delta.Content)
		}
		for j := range delta.ToolCalls {
			a.feedToolCall(&delta.ToolCalls[j])
		}
	}
}

func (a *ToolCallAccumulator) feedToolCall(delta *relaymodel.ToolCall) {
	index := 0
	if delta.Index != nil {
		index = *delta.Index
	}
	call, ok := a.calls[index]
	if !ok {
		call = &relaymodel.ToolCall{Index: delta.Index}
		a.calls[index] = call
	}
	if delta.Id != "" {
		call.Id = delta.Id
	}
	if delta.Type != "" {
		call.Type = delta.Type
	}
	if delta.Function.Name != "" {
		call.Function.Name = delta.Function.Name
	}
	call.Function.Arguments += delta.Function.Arguments
}

// Text returns the concatenated content deltas.
func (a *ToolCallAccumulator) Text() string {
	return strings.Join(a.texts, "")
}

// Validate checks every reassembled call against the message invariants.
// Individual deltas are exempt from validation; whole calls are not.
func (a *ToolCallAccumulator) Validate() error {
	calls := a.ToolCalls()
	for i := range calls {
		if err := calls[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ToolCalls returns the reassembled calls in index order.
func (a *ToolCallAccumulator) ToolCalls() []relaymodel.ToolCall {
	if len(a.calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.calls))
	for index := range a.calls {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	out := make([]relaymodel.ToolCall, 0, len(indexes))
	for _, index := range indexes {
		out = append(out, *a.calls[index])
	}
	return out
}
