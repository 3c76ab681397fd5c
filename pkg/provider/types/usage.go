package types

// Usage is the canonical token usage carried on a Finish event.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// FinishReason is the canonical finish reason alphabet.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonLength    FinishReason = "length"
	FinishReasonError     FinishReason = "error"
	FinishReasonOther     FinishReason = "other"
)
