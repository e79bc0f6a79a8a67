// Package adaptor defines the uniform provider contract the routing layer
// dispatches to, plus the process-wide adaptor registry.
package adaptor

import (
	"context"

	"github.com/polyrelay/polyrelay/relay/model"
)

// ChunkStream is a pull-driven sequence of canonical chunks. Recv returns
// io.EOF after the last chunk. Close releases the provider stream and must be
// called on early termination.
type ChunkStream interface {
	Recv(ctx context.Context) (*model.ChatCompletionChunk, error)
	Close() error
}

// Adaptor is the uniform interface every provider implements.
// ChatCompletion rejects requests with stream=true; StreamChatCompletion
// forces streaming regardless of the request flag.
type Adaptor interface {
	Name() string
	ChatCompletion(ctx context.Context, request *model.ChatCompletionRequest) (*model.ChatCompletionResponse, error)
	StreamChatCompletion(ctx context.Context, request *model.ChatCompletionRequest) (ChunkStream, error)
}
