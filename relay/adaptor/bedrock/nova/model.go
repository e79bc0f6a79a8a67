package nova

// Request is the Amazon Nova messages payload.
//
// https://docs.aws.amazon.com/nova/latest/userguide/complete-request-schema.html
type Request struct {
	SchemaVersion   string           `json:"schemaVersion"`
	System          []SystemMessage  `json:"system,omitempty"`
	Messages        []Message        `json:"messages"`
	InferenceConfig *InferenceConfig `json:"inferenceConfig,omitempty"`
}

type SystemMessage struct {
	Text string `json:"text"`
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Text  string      `json:"text,omitempty"`
	Image *ImageBlock `json:"image,omitempty"`
}

type ImageBlock struct {
	Format string      `json:"format"`
	Source ImageSource `json:"source"`
}

type ImageSource struct {
	Bytes string `json:"bytes"`
}

type InferenceConfig struct {
	MaxTokens     int      `json:"maxTokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
	TopK          *int     `json:"topK,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Response is the Nova blocking response.
type Response struct {
	Output     Output `json:"output"`
	StopReason string `json:"stopReason"`
	Usage      Usage  `json:"usage"`
}

type Output struct {
	Message Message `json:"message"`
}

// StreamEvent is the union of Nova stream event shapes.
type StreamEvent struct {
	MessageStart      *MessageStart      `json:"messageStart,omitempty"`
	ContentBlockDelta *ContentBlockDelta `json:"contentBlockDelta,omitempty"`
	MessageStop       *MessageStop       `json:"messageStop,omitempty"`
	Metadata          *Metadata          `json:"metadata,omitempty"`
}

type MessageStart struct {
	Role string `json:"role"`
}

type ContentBlockDelta struct {
	Delta             ContentDelta `json:"delta"`
	ContentBlockIndex int          `json:"contentBlockIndex"`
}

type ContentDelta struct {
	Text string `json:"text"`
}

type MessageStop struct {
	StopReason string `json:"stopReason"`
}

type Metadata struct {
	Usage Usage `json:"usage"`
}
