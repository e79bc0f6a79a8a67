// Package stability translates the canonical chat protocol to the Stability
// SDXL image protocol. Conversation turns are rendered into one weighted text
// prompt; generated images come back to the caller as markdown data URIs.
package stability

import (
	"encoding/json"
	"fmt"

	"github.com/Laisky/errors/v2"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/common/helper"
	"github.com/polyrelay/polyrelay/common/image"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/prompt"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

var promptTemplate = prompt.Template{
	RolePrefix: map[string]string{
		relaymodel.RoleUser:      "",
		relaymodel.RoleAssistant: "",
	},
	Separator: "\n",
}

type Strategy struct {
	defaults config.ProviderDefaults
}

func NewStrategy(defaults config.ProviderDefaults) *Strategy {
	return &Strategy{defaults: defaults}
}

func (s *Strategy) Name() string { return "stability" }

func (s *Strategy) PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error) {
	if request.HasTools() {
		return nil, apierr.New(apierr.KindUnsupportedFeature, "stability models do not support tool calling")
	}

	system, rest := prompt.MergeSystem(request.Messages)
	stabilityReq := &Request{
		TextPrompts: []TextPrompt{{Text: prompt.Render(system, rest, promptTemplate)}},
	}
	// SDXL maps temperature onto cfg_scale inversely: hotter sampling means
	// looser prompt adherence.
	if request.Temperature != nil {
		cfg := 10.0 - *request.Temperature*4.0
		stabilityReq.CfgScale = &cfg
	}

	payload, err := json.Marshal(stabilityReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal stability request")
	}
	return payload, nil
}

var finishReasonMapping = map[string]relaymodel.FinishReason{
	"SUCCESS":          relaymodel.FinishReasonStop,
	"CONTENT_FILTERED": relaymodel.FinishReasonContentFilter,
}

func mapFinishReason(reason string) relaymodel.FinishReason {
	if mapped, ok := finishReasonMapping[reason]; ok {
		return mapped
	}
	return relaymodel.FinishReason(reason)
}

func artifactMarkdown(artifact Artifact) string {
	return fmt.Sprintf("![generated image](%s)", image.BuildDataURIFromBase64("image/png", artifact.Base64))
}

func (s *Strategy) ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	var stabilityResp Response
	if err := json.Unmarshal(body, &stabilityResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "unmarshal stability response")
	}
	if len(stabilityResp.Artifacts) == 0 {
		return nil, apierr.New(apierr.KindAPIRequest, "stability response carries no artifacts")
	}

	artifact := stabilityResp.Artifacts[0]
	return &relaymodel.ChatCompletionResponse{
		Id:      helper.ChatCompletionID(),
		Object:  relaymodel.ObjectChatCompletion,
		Created: helper.GetTimestamp(),
		Model:   request.Model,
		Choices: []relaymodel.Choice{{
			Index: 0,
			Message: relaymodel.Message{
				Role:    relaymodel.RoleAssistant,
				Content: relaymodel.TextContent(artifactMarkdown(artifact)),
			},
			FinishReason: mapFinishReason(artifact.FinishReason),
		}},
		Usage: &relaymodel.Usage{},
	}, nil
}

// HandleStreamChunk handles the single-event stream Bedrock produces for
// image models: the whole response arrives in one chunk.
func (s *Strategy) HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error) {
	var stabilityResp Response
	if err := json.Unmarshal(event, &stabilityResp); err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "unmarshal stability stream event")
	}

	chunk := &relaymodel.ChatCompletionChunk{
		Id:      streamID,
		Object:  relaymodel.ObjectChatCompletionChunk,
		Created: streamCreated,
		Model:   request.Model,
	}
	if len(stabilityResp.Artifacts) == 0 {
		return chunk, nil
	}

	artifact := stabilityResp.Artifacts[0]
	reason := mapFinishReason(artifact.FinishReason)
	chunk.Choices = []relaymodel.ChunkChoice{{
		Index:        0,
		Delta:        relaymodel.Delta{Content: artifactMarkdown(artifact)},
		FinishReason: &reason,
	}}
	return chunk, nil
}
