package invoker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/apierr"
)

const chatCompletionsPath = "/v1/chat/completions"

type openaiInvoker struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOpenAI builds the native OpenAI invoker from process configuration.
func NewOpenAI() (OpenAI, error) {
	if config.OpenAIAPIKey == "" {
		return nil, apierr.New(apierr.KindConfiguration, "OPENAI_API_KEY is not configured")
	}
	client := &http.Client{}
	if config.RelayTimeout > 0 {
		client.Timeout = time.Duration(config.RelayTimeout) * time.Second
	}
	return &openaiInvoker{
		baseURL: config.OpenAIBaseURL,
		apiKey:  config.OpenAIAPIKey,
		client:  client,
	}, nil
}

// NewOpenAIWithEndpoint overrides endpoint and key, used by tests.
func NewOpenAIWithEndpoint(baseURL, apiKey string) OpenAI {
	return &openaiInvoker{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: &http.Client{}}
}

func (o *openaiInvoker) do(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIRequest, "build upstream request")
	}
	req.Header.Set("Content-Type", jsonContentType)
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIConnection, "call openai")
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, classifyOpenAIStatus(resp)
	}
	return resp, nil
}

func (o *openaiInvoker) ChatCompletion(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := o.do(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindAPIConnection, "read openai response")
	}
	return body, nil
}

func (o *openaiInvoker) ChatCompletionStream(ctx context.Context, payload []byte) (EventStream, error) {
	resp, err := o.do(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &sseEventStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

// sseEventStream pulls "data:" frames off an upstream SSE body. The OpenAI
// terminal sentinel "[DONE]" maps to io.EOF.
type sseEventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func (s *sseEventStream) Next(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, apierr.Wrap(ctx.Err(), apierr.KindStreaming, "stream canceled")
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, apierr.Wrap(err, apierr.KindStreaming, "read openai stream")
			}
			return nil, io.EOF
		}
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return nil, io.EOF
		}
		return []byte(data), nil
	}
}

func (s *sseEventStream) Close() error {
	return s.body.Close()
}

func classifyOpenAIStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	message := strings.TrimSpace(string(body))
	var wireErr struct {
		Error struct {
			Message string `json:"message"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wireErr); err == nil && wireErr.Error.Message != "" {
		message = wireErr.Error.Message
	}

	kind := apierr.KindAPIRequest
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = apierr.KindAuthentication
	case resp.StatusCode == http.StatusNotFound:
		kind = apierr.KindModelNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		kind = apierr.KindRateLimit
	case resp.StatusCode >= 500:
		kind = apierr.KindAPIServer
	}
	return apierr.Wrap(errors.Errorf("openai returned %d", resp.StatusCode), kind, "%s", message)
}
