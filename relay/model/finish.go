package model

// FinishReason is the canonical closed-set reason a generation stopped.
// Every provider's native stop vocabulary maps into this set; values a
// strategy does not recognize pass through unchanged.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonEndTurn       FinishReason = "end_turn"
	FinishReasonMaxTokens     FinishReason = "max_tokens"
	FinishReasonStopSequence  FinishReason = "stop_sequence"
)

// Ptr is a convenience for chunk choices, whose finish_reason is nullable.
func (f FinishReason) Ptr() *FinishReason {
	return &f
}
