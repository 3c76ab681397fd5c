// Package provider defines the uniform LanguageModel handle every adapter
// implements and the canonical stream event alphabet adapters emit.
package provider

import (
	"context"
	"io"

	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

// LanguageModel is the uniform handle the registry hands back for any bound
// provider id. Adapters never leak their wire format past this interface.
type LanguageModel interface {
	Provider() string // registered provider id, e.g. "openai", "anthropic"
	ModelID() string  // opaque upstream model id

	// DoGenerate issues a single non-streaming call.
	DoGenerate(ctx context.Context, opts *GenerateOptions) (*types.GenerateResult, error)

	// DoStream issues a streaming call; the returned EventStream produces
	// canonical stream events until Finish or Error.
	DoStream(ctx context.Context, opts *GenerateOptions) (EventStream, error)
}

// GenerateOptions is the internal generation request.
type GenerateOptions struct {
	Prompt types.Prompt

	Temperature   *float64
	TopP          *float64
	MaxTokens     *int
	StopSequences []string

	Tools      []types.Tool
	ToolChoice types.ToolChoice

	// Stream distinguishes the two DoGenerate/DoStream call shapes when an
	// adapter needs to know up front (e.g. to set the wire "stream" field).
	Stream bool
}

// EventStream produces canonical stream events for one request.
// Next returns io.EOF once a Finish or Error event has been returned.
type EventStream interface {
	io.Closer
	Next() (*StreamChunk, error)
}

// StreamChunk is the Go realization of the canonical stream event alphabet:
// TextDelta, ToolCall, Finish, Error.
type StreamChunk struct {
	Type ChunkType

	Text string // set when Type == ChunkTypeText

	ToolCall *types.ToolCall // set when Type == ChunkTypeToolCall

	FinishReason types.FinishReason // set when Type == ChunkTypeFinish
	Usage        *types.Usage       // set when Type == ChunkTypeFinish

	ErrMessage string // set when Type == ChunkTypeError
}

// ChunkType names a canonical stream event variant.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeToolCall ChunkType = "tool-call"
	ChunkTypeFinish   ChunkType = "finish"
	ChunkTypeError    ChunkType = "error"
)
