// Package openai implements the native OpenAI adaptor. The canonical wire
// shapes coincide with OpenAI's, so conversion is mostly pass-through; the
// interesting part is reassembling streamed tool-call deltas by index.
package openai

import (
	"context"
	"encoding/json"
	"io"

	"github.com/polyrelay/polyrelay/relay/adaptor"
	"github.com/polyrelay/polyrelay/relay/apierr"
	"github.com/polyrelay/polyrelay/relay/invoker"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

type Adaptor struct {
	invoke invoker.OpenAI
}

func NewAdaptor(invoke invoker.OpenAI) *Adaptor {
	return &Adaptor{invoke: invoke}
}

func (a *Adaptor) Name() string { return "openai" }

func (a *Adaptor) ChatCompletion(ctx context.Context, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	if request.Stream {
		return nil, apierr.New(apierr.KindAPIRequest, "blocking endpoint called with stream=true")
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "marshal openai request")
	}
	body, err := a.invoke.ChatCompletion(ctx, payload)
	if err != nil {
		return nil, err
	}

	var resp relaymodel.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIServer, "unmarshal openai response")
	}
	if len(resp.Choices) == 0 {
		return nil, apierr.New(apierr.KindAPIServer, "openai response carries no choices")
	}
	return &resp, nil
}

func (a *Adaptor) StreamChatCompletion(ctx context.Context, request *relaymodel.ChatCompletionRequest) (adaptor.ChunkStream, error) {
	streaming := *request
	streaming.Stream = true

	payload, err := json.Marshal(&streaming)
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "marshal openai request")
	}
	events, err := a.invoke.ChatCompletionStream(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &chunkStream{events: events, calls: NewToolCallAccumulator()}, nil
}

// chunkStream decodes native OpenAI SSE payloads, which already match the
// canonical chunk shape. Streamed tool-call deltas are reassembled by index
// on the side so the completed calls can be validated when the stream ends.
type chunkStream struct {
	events invoker.EventStream
	calls  *ToolCallAccumulator
	done   bool
}

func (s *chunkStream) Recv(ctx context.Context) (*relaymodel.ChatCompletionChunk, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		event, err := s.events.Next(ctx)
		if err == io.EOF {
			s.done = true
			if verr := s.calls.Validate(); verr != nil {
				return nil, apierr.Wrap(verr, apierr.KindStreaming, "upstream stream ended with an incomplete tool call")
			}
			return nil, io.EOF
		}
		if err != nil {
			s.done = true
			return nil, apierr.From(err, apierr.KindStreaming)
		}

		var chunk relaymodel.ChatCompletionChunk
		if err := json.Unmarshal(event, &chunk); err != nil {
			s.done = true
			return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal openai stream chunk")
		}
		if chunk.IsMetadataOnly() && chunk.Usage == nil {
			continue
		}
		if hasToolCallDeltas(&chunk) {
			s.calls.Feed(&chunk)
		}
		return &chunk, nil
	}
}

func hasToolCallDeltas(chunk *relaymodel.ChatCompletionChunk) bool {
	for i := range chunk.Choices {
		if len(chunk.Choices[i].Delta.ToolCalls) > 0 {
			return true
		}
	}
	return false
}

func (s *chunkStream) Close() error {
	s.done = true
	return s.events.Close()
}
