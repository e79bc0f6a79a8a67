package router_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/adaptor"
	"github.com/polyrelay/polyrelay/relay/controller"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
	"github.com/polyrelay/polyrelay/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAdaptor struct {
	resp   *relaymodel.ChatCompletionResponse
	chunks []*relaymodel.ChatCompletionChunk
}

func (f *fakeAdaptor) Name() string { return "fake" }

func (f *fakeAdaptor) ChatCompletion(ctx context.Context, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error) {
	return f.resp, nil
}

func (f *fakeAdaptor) StreamChatCompletion(ctx context.Context, request *relaymodel.ChatCompletionRequest) (adaptor.ChunkStream, error) {
	return &fakeChunkStream{chunks: f.chunks}, nil
}

type fakeChunkStream struct {
	chunks []*relaymodel.ChatCompletionChunk
	pos    int
}

func (f *fakeChunkStream) Recv(ctx context.Context) (*relaymodel.ChatCompletionChunk, error) {
	if f.pos >= len(f.chunks) {
		return nil, io.EOF
	}
	chunk := f.chunks[f.pos]
	f.pos++
	return chunk, nil
}

func (f *fakeChunkStream) Close() error { return nil }

func newTestServer(fake *fakeAdaptor) *gin.Engine {
	registry := adaptor.NewRegistry(func(provider, model string, defaults config.ProviderDefaults) (adaptor.Adaptor, error) {
		return fake, nil
	})
	relay := controller.NewRelay(nil, nil, controller.WithRegistry(registry))
	server := gin.New()
	router.SetRouter(server, relay)
	return server
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&fakeAdaptor{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}

func TestModelsListing(t *testing.T) {
	server := newTestServer(&fakeAdaptor{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Object string `json:"object"`
		Data   []struct {
			Id      string `json:"id"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, "list", listing.Object)

	var ids []string
	for _, entry := range listing.Data {
		ids = append(ids, entry.Id)
	}
	require.Contains(t, ids, "anthropic.claude*")
	require.Contains(t, ids, "amazon.titan*")
}

func TestBedrockInvokeAliasMirrorsInputShape(t *testing.T) {
	server := newTestServer(&fakeAdaptor{resp: &relaymodel.ChatCompletionResponse{
		Id:      "chatcmpl-test",
		Object:  relaymodel.ObjectChatCompletion,
		Created: 1700000000,
		Model:   "gpt-4o",
		Choices: []relaymodel.Choice{{
			Message: relaymodel.Message{
				Role:    relaymodel.RoleAssistant,
				Content: relaymodel.TextContent("Paris"),
			},
			FinishReason: relaymodel.FinishReasonStop,
		}},
		Usage: &relaymodel.Usage{PromptTokens: 7, CompletionTokens: 1, TotalTokens: 8},
	}})

	body := `{"inputText":"User: Capital of France?\nBot:","textGenerationConfig":{"maxTokenCount":10}}`
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/v1/model/gpt-4o/invoke", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	// The caller sent a Titan-shaped body, so the response comes back
	// Titan-shaped as well.
	require.Contains(t, w.Body.String(), `"completionReason":"FINISH"`)
	require.Contains(t, w.Body.String(), `"outputText":"Paris"`)
}

func TestBedrockInvokeStreamAliasForcesStreaming(t *testing.T) {
	reason := relaymodel.FinishReasonStop
	server := newTestServer(&fakeAdaptor{chunks: []*relaymodel.ChatCompletionChunk{
		{
			Id: "chatcmpl-test", Object: relaymodel.ObjectChatCompletionChunk,
			Created: 1700000000, Model: "gpt-4o",
			Choices: []relaymodel.ChunkChoice{{
				Delta: relaymodel.Delta{Content: "Paris"},
			}},
		},
		{
			Id: "chatcmpl-test", Object: relaymodel.ObjectChatCompletionChunk,
			Created: 1700000000, Model: "gpt-4o",
			Choices: []relaymodel.ChunkChoice{{
				FinishReason: &reason,
			}},
		},
	}})

	body := `{"inputText":"User: Capital of France?\nBot:","textGenerationConfig":{"maxTokenCount":10}}`
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		"/v1/model/gpt-4o/invoke-with-response-stream", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), `"outputText":"Paris"`)
	// Non-OpenAI output shapes carry no [DONE] sentinel.
	require.NotContains(t, w.Body.String(), "[DONE]")
}
