package meta

// Request is the Meta Llama text-generation payload.
//
// https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-meta.html
type Request struct {
	Prompt      string   `json:"prompt"`
	MaxGenLen   int      `json:"max_gen_len,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

// Response is the Llama blocking response.
type Response struct {
	Generation           string `json:"generation"`
	PromptTokenCount     int    `json:"prompt_token_count"`
	GenerationTokenCount int    `json:"generation_token_count"`
	StopReason           string `json:"stop_reason"`
}

// StreamEvent is one Llama stream frame; the shape matches the blocking
// response with per-event generation fragments.
type StreamEvent struct {
	Generation           string             `json:"generation"`
	PromptTokenCount     int                `json:"prompt_token_count,omitempty"`
	GenerationTokenCount int                `json:"generation_token_count,omitempty"`
	StopReason           string             `json:"stop_reason,omitempty"`
	InvocationMetrics    *InvocationMetrics `json:"amazon-bedrock-invocationMetrics,omitempty"`
}

type InvocationMetrics struct {
	InputTokenCount  int `json:"inputTokenCount"`
	OutputTokenCount int `json:"outputTokenCount"`
}
