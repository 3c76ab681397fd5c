package providerutils

import "github.com/hushhenry/ai-gateway/pkg/provider/types"

// MapOpenAIFinishReason maps an OpenAI-compatible finish_reason string to the
// canonical finish reason alphabet: stop→stop, length→length,
// tool_calls→tool_calls, anything else→other.
func MapOpenAIFinishReason(reason string) types.FinishReason {
	switch reason {
	case "stop":
		return types.FinishReasonStop
	case "length":
		return types.FinishReasonLength
	case "tool_calls", "function_call":
		return types.FinishReasonToolCalls
	default:
		return types.FinishReasonOther
	}
}

// MapAnthropicStopReason maps an Anthropic stop_reason to the canonical
// finish reason alphabet.
func MapAnthropicStopReason(reason string) types.FinishReason {
	switch reason {
	case "tool_use":
		return types.FinishReasonToolCalls
	case "end_turn":
		return types.FinishReasonStop
	case "max_tokens":
		return types.FinishReasonLength
	default:
		return types.FinishReasonOther
	}
}

// MapGoogleFinishReason maps a Gemini candidate finishReason to the
// canonical finish reason alphabet. SAFETY, RECITATION and every other
// non-terminal-stop value fold into "other"; the gateway does not expose a
// distinct content-filter reason.
func MapGoogleFinishReason(reason string) types.FinishReason {
	switch reason {
	case "STOP":
		return types.FinishReasonStop
	case "MAX_TOKENS":
		return types.FinishReasonLength
	default:
		return types.FinishReasonOther
	}
}
