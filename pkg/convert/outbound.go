package convert

import (
	"github.com/hushhenry/ai-gateway/pkg/internal/imageutil"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils"
)

// ToOpenAIMessages rewrites the canonical message list into the
// Chat-Completions wire array, prepending a system message when system is
// non-empty. Used by the Bearer/OpenAI-compatible adapter family.
func ToOpenAIMessages(messages []types.Message, system string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(messages)+1)
	if system != "" {
		out = append(out, map[string]interface{}{"role": "system", "content": system})
	}

	for _, m := range messages {
		if m.Role == types.RoleTool {
			for _, p := range m.Content {
				out = append(out, map[string]interface{}{
					"role":         "tool",
					"tool_call_id": p.ToolCallID,
					"content":      p.ToolResultText,
				})
			}
			continue
		}

		msg := map[string]interface{}{"role": string(m.Role)}

		var text string
		var toolCalls []map[string]interface{}
		var imageBlocks []map[string]interface{}
		for _, p := range m.Content {
			switch p.Type {
			case types.PartTypeText:
				text += p.Text
			case types.PartTypeToolCall:
				toolCalls = append(toolCalls, map[string]interface{}{
					"id":   p.ToolCallID,
					"type": "function",
					"function": map[string]interface{}{
						"name":      p.ToolName,
						"arguments": p.ToolArgsJSON,
					},
				})
			case types.PartTypeImage:
				imageBlocks = append(imageBlocks, map[string]interface{}{
					"type":      "image_url",
					"image_url": map[string]interface{}{"url": imageutil.ConvertToDataURI(p.ImageData, p.ImageMimeType)},
				})
			}
		}

		if len(imageBlocks) > 0 {
			blocks := imageBlocks
			if text != "" {
				blocks = append([]map[string]interface{}{{"type": "text", "text": text}}, blocks...)
			}
			msg["content"] = blocks
		} else {
			msg["content"] = text
		}
		if len(toolCalls) > 0 {
			msg["tool_calls"] = toolCalls
		}
		out = append(out, msg)
	}
	return out
}

// ToAnthropicMessages rewrites the canonical message list into the Messages
// wire array, coalescing consecutive tool-role messages into a single
// user-role turn of tool_result blocks. Used by the Anthropic-compatible
// adapter family.
func ToAnthropicMessages(messages []types.Message) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(messages))

	i := 0
	for i < len(messages) {
		m := messages[i]

		if m.Role == types.RoleTool {
			var blocks []map[string]interface{}
			for i < len(messages) && messages[i].Role == types.RoleTool {
				for _, p := range messages[i].Content {
					blocks = append(blocks, map[string]interface{}{
						"type":        "tool_result",
						"tool_use_id": p.ToolCallID,
						"content":     p.ToolResultText,
					})
				}
				i++
			}
			out = append(out, map[string]interface{}{"role": "user", "content": blocks})
			continue
		}

		var blocks []map[string]interface{}
		for _, p := range m.Content {
			switch p.Type {
			case types.PartTypeText:
				blocks = append(blocks, map[string]interface{}{"type": "text", "text": p.Text})
			case types.PartTypeImage:
				blocks = append(blocks, map[string]interface{}{
					"type": "image",
					"source": map[string]interface{}{
						"type":       "base64",
						"media_type": p.ImageMimeType,
						"data":       imageutil.EncodeToBase64(p.ImageData),
					},
				})
			case types.PartTypeToolCall:
				args := providerutils.DecodeToolArgs(p.ToolArgsJSON)
				blocks = append(blocks, map[string]interface{}{
					"type":  "tool_use",
					"id":    p.ToolCallID,
					"name":  p.ToolName,
					"input": args,
				})
			}
		}
		out = append(out, map[string]interface{}{"role": string(m.Role), "content": blocks})
		i++
	}
	return out
}
