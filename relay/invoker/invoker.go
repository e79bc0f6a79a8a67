// Package invoker wraps the provider SDK calls behind a minimal contract:
// a blocking invoke returning one JSON body, and a streaming invoke returning
// a pull-driven sequence of JSON fragments. Retry, backoff and auth internals
// live behind this boundary; the rest of the relay only depends on the
// contract and the apierr taxonomy raised from it.
package invoker

import "context"

// EventStream is a pull-driven sequence of provider JSON fragments.
// Next returns io.EOF after the last event. Close releases the underlying
// connection and must be called on early termination.
type EventStream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Bedrock invokes an AWS Bedrock model with a provider-shaped JSON body.
type Bedrock interface {
	Invoke(ctx context.Context, modelID string, payload []byte) ([]byte, error)
	InvokeStream(ctx context.Context, modelID string, payload []byte) (EventStream, error)
}

// OpenAI invokes the native OpenAI chat-completion endpoint.
type OpenAI interface {
	ChatCompletion(ctx context.Context, payload []byte) ([]byte, error)
	ChatCompletionStream(ctx context.Context, payload []byte) (EventStream, error)
}
