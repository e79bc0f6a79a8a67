package titan

// Request is the Amazon Titan text payload.
//
// https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-titan-text.html
type Request struct {
	InputText            string               `json:"inputText"`
	TextGenerationConfig TextGenerationConfig `json:"textGenerationConfig"`
}

type TextGenerationConfig struct {
	MaxTokenCount int      `json:"maxTokenCount,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

type Result struct {
	TokenCount       int    `json:"tokenCount"`
	OutputText       string `json:"outputText"`
	CompletionReason string `json:"completionReason"`
}

// Response is the Titan blocking response.
type Response struct {
	InputTextTokenCount int      `json:"inputTextTokenCount"`
	Results             []Result `json:"results"`
}

// StreamEvent is one Titan stream fragment. Trailing events may carry only
// invocation metrics.
type StreamEvent struct {
	OutputText                string             `json:"outputText"`
	Index                     int                `json:"index"`
	InputTextTokenCount       int                `json:"inputTextTokenCount"`
	TotalOutputTextTokenCount int                `json:"totalOutputTextTokenCount"`
	CompletionReason          string             `json:"completionReason"`
	InvocationMetrics         *InvocationMetrics `json:"amazon-bedrock-invocationMetrics,omitempty"`
}

type InvocationMetrics struct {
	InputTokenCount   int `json:"inputTokenCount"`
	OutputTokenCount  int `json:"outputTokenCount"`
	InvocationLatency int `json:"invocationLatency"`
	FirstByteLatency  int `json:"firstByteLatency"`
}
