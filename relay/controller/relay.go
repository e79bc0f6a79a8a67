// Package controller drives the unified dispatch pipeline: detect the inbound
// wire shape, parse it into the canonical request, route to a provider
// adaptor, optionally enhance the request, then respond blocking or as SSE.
package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/common/ctxkey"
	"github.com/polyrelay/polyrelay/common/helper"
	"github.com/polyrelay/polyrelay/common/logger"
	"github.com/polyrelay/polyrelay/common/render"
	"github.com/polyrelay/polyrelay/monitor"
	"github.com/polyrelay/polyrelay/relay/adaptor"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock"
	"github.com/polyrelay/polyrelay/relay/adaptor/crossover"
	"github.com/polyrelay/polyrelay/relay/adaptor/openai"
	"github.com/polyrelay/polyrelay/relay/apierr"
	"github.com/polyrelay/polyrelay/relay/enhance"
	"github.com/polyrelay/polyrelay/relay/format"
	"github.com/polyrelay/polyrelay/relay/invoker"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

// Relay owns the adaptor registry and the enhancement collaborators.
type Relay struct {
	registry *adaptor.Registry
	kb       enhance.KnowledgeBase
	files    enhance.FileContext
	defaults config.ProviderDefaults
}

type Option func(*Relay)

func WithKnowledgeBase(kb enhance.KnowledgeBase) Option {
	return func(r *Relay) { r.kb = kb }
}

func WithFileContext(files enhance.FileContext) Option {
	return func(r *Relay) { r.files = files }
}

// WithRegistry replaces the adaptor registry. Tests use this to inject fake
// builders.
func WithRegistry(registry *adaptor.Registry) Option {
	return func(r *Relay) { r.registry = registry }
}

func NewRelay(bedrockInvoker invoker.Bedrock, openaiInvoker invoker.OpenAI, opts ...Option) *Relay {
	r := &Relay{
		kb:       enhance.NoopKnowledgeBase{},
		files:    enhance.NoopFileContext{},
		defaults: config.DefaultProviderDefaults(),
	}
	r.registry = adaptor.NewRegistry(func(provider, model string, defaults config.ProviderDefaults) (adaptor.Adaptor, error) {
		switch provider {
		case ProviderBedrock:
			return bedrock.NewAdaptor(model, defaults, bedrockInvoker)
		case ProviderOpenAI:
			return openai.NewAdaptor(openaiInvoker), nil
		default:
			return nil, apierr.New(apierr.KindModelNotFound, "unknown provider %q", provider)
		}
	})
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveProvider classifies a model id: Bedrock provider-dotted ids go to
// the Bedrock adaptor, everything else to the native OpenAI adaptor.
func ResolveProvider(model string) string {
	for _, prefix := range bedrock.SupportedPrefixes() {
		if strings.HasPrefix(model, prefix) {
			return ProviderBedrock
		}
	}
	return ProviderOpenAI
}

// ChatCompletions is the single relay endpoint. The inbound shape is
// detected from the body; the output shape comes from the ?format= query
// parameter, defaulting to the OpenAI shape.
func (r *Relay) ChatCompletions(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWithError(c, apierr.Wrap(err, apierr.KindAPIRequest, "read request body"))
		return
	}

	detected := format.DetectBytes(body)
	c.Set(ctxkey.RequestFormat, string(detected))

	request, err := parseCanonical(body, detected, c.Query("model"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Set(ctxkey.RequestModel, request.Model)

	// Bedrock-shaped bodies cannot express streaming in-band; the native
	// InvokeModel surface selects it by route, which the alias routes express
	// as a query parameter.
	if detected != format.OpenAI && c.Query("stream") == "true" {
		request.Stream = true
	}

	outFormat, err := resolveOutputFormat(c.Query("format"), detected)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Set(ctxkey.ResponseFormat, string(outFormat))

	provider := ResolveProvider(request.Model)
	c.Set(ctxkey.Provider, provider)

	instance, err := r.registry.Get(provider, request.Model, r.defaults)
	if err != nil {
		abortWithError(c, err)
		return
	}

	monitor.RecordPromptTokens(provider, request.Model, estimatePromptTokens(request))

	request, direct := r.enhanceRequest(c, request)
	if direct != nil {
		respondBlocking(c, direct, outFormat)
		monitor.RecordRequest(provider, request.Model, http.StatusOK, time.Since(start))
		return
	}

	if request.Stream {
		r.streamRespond(c, instance, request, provider, outFormat)
	} else {
		r.blockingRespond(c, instance, request, outFormat)
	}
	monitor.RecordRequest(provider, request.Model, c.Writer.Status(), time.Since(start))
	logger.Logger.Debug("relay request completed",
		zap.String("request_id", c.GetString(ctxkey.RequestId)),
		zap.String("model", c.GetString(ctxkey.RequestModel)),
		zap.Int("status", c.Writer.Status()),
		zap.Int64("elapsed_ms", helper.CalcElapsedTime(start)))
}

// parseCanonical builds the canonical request from the detected wire shape.
// Bedrock-shaped bodies carry no model field; it must come from the query.
func parseCanonical(body []byte, detected format.Format, queryModel string) (*relaymodel.ChatCompletionRequest, error) {
	var request *relaymodel.ChatCompletionRequest
	switch detected {
	case format.BedrockClaude:
		if queryModel == "" {
			return nil, apierr.New(apierr.KindAPIRequest, "bedrock-shaped requests require the model query parameter")
		}
		parsed, err := crossover.ClaudeRequestToCanonical(body, queryModel)
		if err != nil {
			return nil, err
		}
		request = parsed
	case format.BedrockTitan:
		if queryModel == "" {
			return nil, apierr.New(apierr.KindAPIRequest, "bedrock-shaped requests require the model query parameter")
		}
		parsed, err := crossover.TitanRequestToCanonical(body, queryModel)
		if err != nil {
			return nil, err
		}
		request = parsed
	default:
		request = &relaymodel.ChatCompletionRequest{}
		if err := json.Unmarshal(body, request); err != nil {
			return nil, apierr.Wrap(err, apierr.KindValidation, "unmarshal request")
		}
	}

	if err := request.Validate(); err != nil {
		return nil, apierr.Wrap(err, apierr.KindValidation, "invalid request")
	}
	return request, nil
}

func resolveOutputFormat(param string, detected format.Format) (format.Format, error) {
	switch param {
	case "", "openai":
		return format.OpenAI, nil
	case "input":
		return detected, nil
	case "bedrock-claude":
		return format.BedrockClaude, nil
	case "bedrock-titan":
		return format.BedrockTitan, nil
	default:
		return "", apierr.New(apierr.KindAPIRequest, "unknown output format %q", param)
	}
}

// enhanceRequest runs the optional knowledge-base and file-context steps.
// Failures degrade to dispatching the unmodified request; a direct-RAG
// response short-circuits dispatch entirely.
func (r *Relay) enhanceRequest(c *gin.Context, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionRequest, *relaymodel.ChatCompletionResponse) {
	ctx := c.Request.Context()

	if len(request.FileIds) > 0 {
		blob, err := r.files.Fetch(ctx, request.FileIds)
		if err != nil {
			logger.Logger.Warn("file context fetch failed, continuing without enhancement",
				zap.Strings("file_ids", request.FileIds), zap.Error(err))
		} else {
			request = enhance.SpliceFileContext(request, blob)
		}
	}

	if request.KnowledgeBaseId != "" || request.AutoKB {
		enhanced, direct, err := r.kb.Enhance(ctx, request)
		if err != nil {
			logger.Logger.Warn("knowledge base enhancement failed, continuing without enhancement",
				zap.String("knowledge_base_id", request.KnowledgeBaseId), zap.Error(err))
		} else if direct != nil {
			return request, direct
		} else if enhanced != nil {
			request = enhanced
		}
	}
	return request, nil
}

func (r *Relay) blockingRespond(c *gin.Context, instance adaptor.Adaptor, request *relaymodel.ChatCompletionRequest, outFormat format.Format) {
	resp, err := instance.ChatCompletion(c.Request.Context(), request)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondBlocking(c, resp, outFormat)
}

func respondBlocking(c *gin.Context, resp *relaymodel.ChatCompletionResponse, outFormat format.Format) {
	switch outFormat {
	case format.BedrockClaude:
		c.JSON(http.StatusOK, crossover.CanonicalResponseToClaude(resp))
	case format.BedrockTitan:
		c.JSON(http.StatusOK, crossover.CanonicalResponseToTitan(resp))
	default:
		c.JSON(http.StatusOK, resp)
	}
}

func (r *Relay) streamRespond(c *gin.Context, instance adaptor.Adaptor, request *relaymodel.ChatCompletionRequest, provider string, outFormat format.Format) {
	stream, err := instance.StreamChatCompletion(c.Request.Context(), request)
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer stream.Close()

	render.SetEventStreamHeaders(c)
	firstChunk := true
	c.Stream(func(w io.Writer) bool {
		chunk, err := stream.Recv(c.Request.Context())
		if err == io.EOF {
			if outFormat == format.OpenAI {
				c.Render(-1, render.CustomEvent{Data: "data: [DONE]"})
			}
			return false
		}
		if err != nil {
			// Headers are committed; the error travels as a final data frame.
			renderStreamError(c, err)
			return false
		}

		if firstChunk {
			firstChunk = false
			// The reverse-conversion path may resolve a more specific model
			// id than the one used to pick the adaptor; record it for the
			// remainder of the stream.
			if chunk.Model != "" && chunk.Model != request.Model {
				c.Set(ctxkey.RequestModel, chunk.Model)
				logger.Logger.Debug("resolved model corrected mid-stream",
					zap.String("routed", request.Model), zap.String("resolved", chunk.Model))
			}
		}

		payload, merr := marshalChunk(chunk, outFormat)
		if merr != nil {
			renderStreamError(c, merr)
			return false
		}
		monitor.RecordStreamChunk(provider, request.Model)
		c.Render(-1, render.CustomEvent{Data: "data: " + string(payload)})
		return true
	})
}

func marshalChunk(chunk *relaymodel.ChatCompletionChunk, outFormat format.Format) ([]byte, error) {
	var payload any
	switch outFormat {
	case format.BedrockClaude:
		payload = crossover.CanonicalChunkToClaudeEvent(chunk)
	case format.BedrockTitan:
		payload = crossover.CanonicalChunkToTitanEvent(chunk)
	default:
		payload = chunk
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindStreaming, "marshal stream chunk")
	}
	return data, nil
}

// abortWithError is the single place classified errors become HTTP responses.
func abortWithError(c *gin.Context, err error) {
	wire := apierr.ToWire(err)
	logger.Logger.Warn("relay request failed",
		zap.String("request_id", c.GetString(ctxkey.RequestId)),
		zap.Int("status", wire.StatusCode),
		zap.Error(err))
	c.JSON(wire.StatusCode, gin.H{"error": wire.Error})
}

func renderStreamError(c *gin.Context, err error) {
	wire := apierr.ToWire(err)
	logger.Logger.Warn("stream failed mid-flight",
		zap.String("request_id", c.GetString(ctxkey.RequestId)),
		zap.Error(err))
	payload, merr := json.Marshal(gin.H{"error": wire.Error})
	if merr != nil {
		logger.Logger.Error("marshal stream error frame", zap.Error(merr))
		return
	}
	c.Render(-1, render.CustomEvent{Data: "data: " + string(payload)})
}

// Models lists the model id prefixes this gateway can route, in the OpenAI
// list shape.
func Models(c *gin.Context) {
	type entry struct {
		Id      string `json:"id"`
		Object  string `json:"object"`
		Created int64  `json:"created"`
		OwnedBy string `json:"owned_by"`
	}
	created := helper.GetTimestamp()
	data := []entry{{Id: "gpt-*", Object: "model", Created: created, OwnedBy: ProviderOpenAI}}
	for _, prefix := range bedrock.SupportedPrefixes() {
		data = append(data, entry{Id: prefix + "*", Object: "model", Created: created, OwnedBy: ProviderBedrock})
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}
