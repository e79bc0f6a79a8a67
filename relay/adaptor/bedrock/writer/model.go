package writer

// Request is the Writer Palmyra completion payload.
type Request struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type Choice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// Response is the Palmyra blocking response.
type Response struct {
	Choices []Choice `json:"choices"`
}

// StreamEvent shares the blocking shape; each event carries one fragment in
// choices[0].
type StreamEvent struct {
	Choices           []Choice           `json:"choices,omitempty"`
	InvocationMetrics *InvocationMetrics `json:"amazon-bedrock-invocationMetrics,omitempty"`
}

type InvocationMetrics struct {
	InputTokenCount  int `json:"inputTokenCount"`
	OutputTokenCount int `json:"outputTokenCount"`
}
