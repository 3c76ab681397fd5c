// Package types holds the canonical data shapes shared by the registry,
// converters, and every provider adapter.
package types

// MessageRole is one of the four canonical roles.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message is a canonical message: a role plus an ordered list of content parts.
// Within one assistant message, text parts precede tool_call parts in the
// order produced. A tool message carries only tool_result parts.
type Message struct {
	Role    MessageRole
	Content []ContentPart
}

// ContentPart is one of text, image, tool_call, tool_result.
type ContentPart struct {
	Type PartType

	Text string // PartTypeText

	ImageData     []byte // PartTypeImage; always raw decoded bytes, never base64 text or a URL
	ImageMimeType string // PartTypeImage

	ToolCallID   string // PartTypeToolCall / PartTypeToolResult
	ToolName     string // PartTypeToolCall
	ToolArgsJSON string // PartTypeToolCall

	ToolResultText string // PartTypeToolResult
}

// PartType names a canonical content part variant.
type PartType string

const (
	PartTypeText       PartType = "text"
	PartTypeImage      PartType = "image"
	PartTypeToolCall   PartType = "tool_call"
	PartTypeToolResult PartType = "tool_result"
)

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

func ImagePart(data []byte, mimeType string) ContentPart {
	return ContentPart{Type: PartTypeImage, ImageData: data, ImageMimeType: mimeType}
}

func ToolCallPart(id, name, argsJSON string) ContentPart {
	return ContentPart{Type: PartTypeToolCall, ToolCallID: id, ToolName: name, ToolArgsJSON: argsJSON}
}

func ToolResultPart(id, contentText string) ContentPart {
	return ContentPart{Type: PartTypeToolResult, ToolCallID: id, ToolResultText: contentText}
}

// TextContent returns the concatenation of all text parts in the message.
func (m Message) TextContent() string {
	var out string
	for _, p := range m.Content {
		if p.Type == PartTypeText {
			out += p.Text
		}
	}
	return out
}

// Prompt is the input to a generation call: either simple text or a full
// canonical message list, with an optional system prompt.
type Prompt struct {
	Text     string
	Messages []Message
	System   string
}

func (p Prompt) IsSimple() bool   { return len(p.Messages) == 0 }
func (p Prompt) IsMessages() bool { return len(p.Messages) > 0 }
