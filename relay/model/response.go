package model

// Choice is one completion alternative in a blocking response.
type Choice struct {
	Index        int          `json:"index"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
}

// ChatCompletionResponse is the canonical blocking response.
type ChatCompletionResponse struct {
	Id      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Delta carries the partial message fields of one streamed increment.
type Delta struct {
	Role      string     `json:"role,omitempty"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// IsEmpty reports whether the delta carries no payload at all.
func (d *Delta) IsEmpty() bool {
	return d.Role == "" && d.Content == "" && len(d.ToolCalls) == 0
}

// ChunkChoice is one choice of a streamed chunk. FinishReason is null on all
// chunks except the terminal content-bearing one.
type ChunkChoice struct {
	Index        int           `json:"index"`
	Delta        Delta         `json:"delta"`
	FinishReason *FinishReason `json:"finish_reason"`
}

// ChatCompletionChunk is one streamed increment. Id and Created are stable
// across a whole stream.
type ChatCompletionChunk struct {
	Id      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"`
}

// FinishReason returns the finish reason carried by this chunk, if any.
func (c *ChatCompletionChunk) FinishReason() *FinishReason {
	for i := range c.Choices {
		if c.Choices[i].FinishReason != nil {
			return c.Choices[i].FinishReason
		}
	}
	return nil
}

// IsMetadataOnly reports whether the chunk carries no choices. Strategies
// translate provider events that only carry metadata (for example a trailing
// invocation-metrics event) into such chunks; the relay drops them before
// they reach the caller.
func (c *ChatCompletionChunk) IsMetadataOnly() bool {
	return len(c.Choices) == 0
}

const (
	ObjectChatCompletion      = "chat.completion"
	ObjectChatCompletionChunk = "chat.completion.chunk"
)
