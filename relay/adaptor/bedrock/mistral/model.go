package mistral

// Request is the Mistral text-completion payload.
//
// https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-mistral-text-completion.html
type Request struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type Output struct {
	Text       string `json:"text"`
	StopReason string `json:"stop_reason"`
}

// Response is the Mistral blocking response.
type Response struct {
	Outputs []Output `json:"outputs"`
}

// StreamEvent shares the blocking shape; each event carries one fragment in
// outputs[0], the terminal event sets stop_reason.
type StreamEvent struct {
	Outputs           []Output           `json:"outputs,omitempty"`
	InvocationMetrics *InvocationMetrics `json:"amazon-bedrock-invocationMetrics,omitempty"`
}

type InvocationMetrics struct {
	InputTokenCount  int `json:"inputTokenCount"`
	OutputTokenCount int `json:"outputTokenCount"`
}
