package cohere

// Request is the Cohere Command payload.
//
// https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-cohere-command.html
type Request struct {
	Prompt         string   `json:"prompt"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	P              *float64 `json:"p,omitempty"`
	K              *int     `json:"k,omitempty"`
	StopSequences  []string `json:"stop_sequences,omitempty"`
	Stream         bool     `json:"stream,omitempty"`
	NumGenerations int      `json:"num_generations,omitempty"`
}

type Generation struct {
	Id           string `json:"id"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// Response is the Cohere blocking response.
type Response struct {
	Id          string       `json:"id"`
	Generations []Generation `json:"generations"`
}

// StreamEvent is one Cohere stream frame. Intermediate frames carry text,
// the terminal frame sets is_finished with a finish_reason.
type StreamEvent struct {
	Text              string             `json:"text,omitempty"`
	IsFinished        bool               `json:"is_finished"`
	FinishReason      string             `json:"finish_reason,omitempty"`
	InvocationMetrics *InvocationMetrics `json:"amazon-bedrock-invocationMetrics,omitempty"`
}

type InvocationMetrics struct {
	InputTokenCount  int `json:"inputTokenCount"`
	OutputTokenCount int `json:"outputTokenCount"`
}
