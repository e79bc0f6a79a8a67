// Package enhance defines the pre-dispatch request enhancement collaborators:
// knowledge-base context augmentation and file-context splicing. Failures in
// either are logged at the routing layer and degrade to dispatching the
// unmodified request.
package enhance

import (
	"context"
	"strings"

	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

// KnowledgeBase augments a request with retrieved context. Enhance returns
// either a (possibly rewritten) request to dispatch, or a fully-formed
// response for direct-RAG mode, which bypasses normal dispatch entirely.
type KnowledgeBase interface {
	Enhance(ctx context.Context, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionRequest, *relaymodel.ChatCompletionResponse, error)
}

// FileContext resolves file ids to a text blob spliced into the conversation.
type FileContext interface {
	Fetch(ctx context.Context, fileIDs []string) (string, error)
}

// NoopKnowledgeBase passes every request through unmodified.
type NoopKnowledgeBase struct{}

func (NoopKnowledgeBase) Enhance(ctx context.Context, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionRequest, *relaymodel.ChatCompletionResponse, error) {
	return request, nil, nil
}

// NoopFileContext resolves every file list to no context.
type NoopFileContext struct{}

func (NoopFileContext) Fetch(ctx context.Context, fileIDs []string) (string, error) {
	return "", nil
}

// SpliceFileContext prepends the fetched blob to the first user message, or
// inserts a new system message when no user turn exists. The request is
// copied; the caller's messages are never mutated.
func SpliceFileContext(request *relaymodel.ChatCompletionRequest, blob string) *relaymodel.ChatCompletionRequest {
	if strings.TrimSpace(blob) == "" {
		return request
	}

	out := *request
	out.Messages = make([]relaymodel.Message, len(request.Messages))
	copy(out.Messages, request.Messages)

	for i := range out.Messages {
		if out.Messages[i].Role != relaymodel.RoleUser {
			continue
		}
		combined := blob + "\n\n" + out.Messages[i].StringContent()
		out.Messages[i].Content = relaymodel.TextContent(combined)
		return &out
	}

	out.Messages = append([]relaymodel.Message{{
		Role:    relaymodel.RoleSystem,
		Content: relaymodel.TextContent(blob),
	}}, out.Messages...)
	return &out
}
