package ai21

// Request is the AI21 Jurassic-2 payload.
//
// https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-jurassic2.html
type Request struct {
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"maxTokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
	NumResults    int      `json:"numResults,omitempty"`
}

type FinishReason struct {
	Reason string `json:"reason"`
}

type CompletionData struct {
	Text string `json:"text"`
}

type Completion struct {
	Data         CompletionData `json:"data"`
	FinishReason FinishReason   `json:"finishReason"`
}

// Response is the Jurassic-2 blocking response.
type Response struct {
	Id          any          `json:"id"`
	Completions []Completion `json:"completions"`
}

// StreamEvent mirrors the response fragment shape emitted per stream event;
// trailing events may carry only invocation metrics.
type StreamEvent struct {
	Completions       []Completion       `json:"completions,omitempty"`
	InvocationMetrics *InvocationMetrics `json:"amazon-bedrock-invocationMetrics,omitempty"`
}

type InvocationMetrics struct {
	InputTokenCount  int `json:"inputTokenCount"`
	OutputTokenCount int `json:"outputTokenCount"`
}
