package bedrock

import (
	"context"
	"io"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/common/helper"
	"github.com/polyrelay/polyrelay/relay/adaptor"
	"github.com/polyrelay/polyrelay/relay/apierr"
	"github.com/polyrelay/polyrelay/relay/invoker"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

// Adaptor serves one Bedrock model family through its resolved strategy.
type Adaptor struct {
	model    string
	strategy Strategy
	invoke   invoker.Bedrock
}

func NewAdaptor(model string, defaults config.ProviderDefaults, invoke invoker.Bedrock) (*Adaptor, error) {
	strategy, err := ResolveStrategy(model, defaults)
	if err != nil {
		return nil, err
	}
	return &Adaptor{model: model, strategy: strategy, invoke: invoke}, nil
}

func (a *Adaptor) Name() string { return "bedrock/" + a.strategy.Name() }

func (a *Adaptor) ChatCompletion(ctx context.Context, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	if request.Stream {
		return nil, apierr.New(apierr.KindAPIRequest, "blocking endpoint called with stream=true")
	}

	payload, err := a.strategy.PrepareRequestPayload(request)
	if err != nil {
		return nil, err
	}
	body, err := a.invoke.Invoke(ctx, request.Model, payload)
	if err != nil {
		return nil, err
	}
	return a.strategy.ParseResponse(body, request)
}

func (a *Adaptor) StreamChatCompletion(ctx context.Context, request *relaymodel.ChatCompletionRequest) (adaptor.ChunkStream, error) {
	streaming := *request
	streaming.Stream = true

	payload, err := a.strategy.PrepareRequestPayload(&streaming)
	if err != nil {
		return nil, err
	}
	events, err := a.invoke.InvokeStream(ctx, streaming.Model, payload)
	if err != nil {
		return nil, err
	}
	return &chunkStream{
		strategy: a.strategy,
		request:  &streaming,
		events:   events,
		id:       helper.ChatCompletionID(),
		created:  helper.GetTimestamp(),
	}, nil
}

// chunkStream pulls provider events, translates them through the strategy,
// and drops metadata-only chunks so callers only ever see content or a
// finish_reason. Usage from dropped metadata events is folded into the next
// surfaced chunk. If the provider closes the stream without a terminal
// reason, a final stop chunk is synthesized so every stream carries exactly
// one finish_reason.
type chunkStream struct {
	strategy Strategy
	request  *relaymodel.ChatCompletionRequest
	events   invoker.EventStream
	id       string
	created  int64

	pendingUsage *relaymodel.Usage
	finishSent   bool
	done         bool
}

func (s *chunkStream) Recv(ctx context.Context) (*relaymodel.ChatCompletionChunk, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		event, err := s.events.Next(ctx)
		if err == io.EOF {
			s.done = true
			if !s.finishSent {
				return s.syntheticFinish(), nil
			}
			return nil, io.EOF
		}
		if err != nil {
			s.done = true
			return nil, apierr.From(err, apierr.KindStreaming)
		}

		chunk, err := s.strategy.HandleStreamChunk(event, s.request, s.id, s.created)
		if err != nil {
			s.done = true
			return nil, err
		}
		if chunk.Usage != nil {
			s.absorbUsage(chunk.Usage)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if s.pendingUsage != nil {
			chunk.Usage = s.pendingUsage
			s.pendingUsage = nil
		}
		if chunk.FinishReason() != nil {
			s.finishSent = true
		}
		return chunk, nil
	}
}

func (s *chunkStream) absorbUsage(usage *relaymodel.Usage) {
	if s.pendingUsage == nil {
		s.pendingUsage = &relaymodel.Usage{}
	}
	s.pendingUsage.Add(usage)
}

func (s *chunkStream) syntheticFinish() *relaymodel.ChatCompletionChunk {
	reason := relaymodel.FinishReasonStop
	chunk := &relaymodel.ChatCompletionChunk{
		Id:      s.id,
		Object:  relaymodel.ObjectChatCompletionChunk,
		Created: s.created,
		Model:   s.request.Model,
		Choices: []relaymodel.ChunkChoice{{
			Index:        0,
			Delta:        relaymodel.Delta{},
			FinishReason: &reason,
		}},
	}
	chunk.Usage = s.pendingUsage
	s.finishSent = true
	return chunk
}

func (s *chunkStream) Close() error {
	s.done = true
	return s.events.Close()
}
