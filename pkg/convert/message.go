// Package convert implements translation between the Chat-Completions wire
// surface, the Messages (Anthropic) wire surface, and the canonical
// message/tool form every provider adapter consumes.
package convert

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hushhenry/ai-gateway/pkg/internal/fileutil"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

// ChatMessage is the wire shape of one Chat-Completions inbound message.
type ChatMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	ToolCalls  []ChatToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type ChatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ChatCompletionsToCanonical converts inbound Chat-Completions messages to
// canonical form: each inbound message becomes one canonical message of
// identical role. String content
// becomes a single text part; array content is passed through 1:1 as
// text/image parts; assistant tool_calls become tool_call parts; a tool
// message with tool_call_id and string content becomes a single tool_result
// part.
func ChatCompletionsToCanonical(ctx context.Context, messages []ChatMessage) ([]types.Message, error) {
	out := make([]types.Message, 0, len(messages))
	for _, m := range messages {
		role := types.MessageRole(m.Role)
		switch role {
		case types.RoleTool:
			var text string
			if err := json.Unmarshal(m.Content, &text); err != nil {
				return nil, providererrors.NewBadRequestError("tool message content must be a string", err)
			}
			out = append(out, types.Message{
				Role:    types.RoleTool,
				Content: []types.ContentPart{types.ToolResultPart(m.ToolCallID, text)},
			})
			continue
		}

		var parts []types.ContentPart
		if len(m.Content) > 0 {
			var asString string
			if err := json.Unmarshal(m.Content, &asString); err == nil {
				parts = append(parts, types.TextPart(asString))
			} else {
				var arr []chatContentBlock
				if err := json.Unmarshal(m.Content, &arr); err != nil {
					return nil, providererrors.NewBadRequestError("message content must be a string or array", err)
				}
				for _, b := range arr {
					part, err := chatContentBlockToPart(ctx, b)
					if err != nil {
						return nil, err
					}
					parts = append(parts, part)
				}
			}
		}

		for _, tc := range m.ToolCalls {
			parts = append(parts, types.ToolCallPart(tc.ID, tc.Function.Name, tc.Function.Arguments))
		}

		out = append(out, types.Message{Role: role, Content: parts})
	}
	return out, nil
}

type chatContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

func chatContentBlockToPart(ctx context.Context, b chatContentBlock) (types.ContentPart, error) {
	switch b.Type {
	case "text":
		return types.TextPart(b.Text), nil
	case "image_url":
		if b.ImageURL == nil {
			return types.ContentPart{}, providererrors.NewBadRequestError("image_url block missing image_url", nil)
		}
		data, mimeType, err := resolveImageURL(ctx, b.ImageURL.URL)
		if err != nil {
			return types.ContentPart{}, err
		}
		return types.ImagePart(data, mimeType), nil
	default:
		return types.ContentPart{}, providererrors.NewBadRequestError(fmt.Sprintf("unsupported content block type %q", b.Type), nil)
	}
}

// resolveImageURL turns an inbound image_url value into raw decoded bytes
// plus its media type: a data: URL is decoded in place, anything else is
// fetched over HTTP.
func resolveImageURL(ctx context.Context, url string) ([]byte, string, error) {
	if strings.HasPrefix(url, "data:") {
		mimeType, encoding, payload, err := fileutil.SplitDataURL(url)
		if err != nil {
			return nil, "", providererrors.NewBadRequestError("malformed data: image URL", err)
		}
		if !strings.Contains(encoding, "base64") {
			return nil, "", providererrors.NewBadRequestError(fmt.Sprintf("unsupported data: URL encoding %q", encoding), nil)
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", providererrors.NewBadRequestError("malformed base64 in data: image URL", err)
		}
		return data, mimeType, nil
	}

	data, mimeType, err := fileutil.Download(ctx, url, fileutil.DefaultDownloadOptions())
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

// AnthropicMessage is the wire shape of one Messages-surface inbound message.
type AnthropicMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`

	Text string `json:"text"`

	Source *struct {
		MediaType string `json:"media_type"`
		Data      string `json:"data"`
	} `json:"source"`

	ID    string                 `json:"id"`    // tool_use
	Name  string                 `json:"name"`  // tool_use
	Input map[string]interface{} `json:"input"` // tool_use

	ToolUseID string          `json:"tool_use_id"` // tool_result
	Content   json.RawMessage `json:"content"`     // tool_result (string or block array)
}

// AnthropicToCanonical converts inbound Messages-surface messages to
// canonical form. A user message whose content is an array is split: tool_result blocks become standalone
// canonical tool messages (one per block, in order) emitted BEFORE a single
// canonical user message collecting that input message's text/image blocks.
// System may arrive as a string or an array of text blocks (concatenated
// with "\n"). Assistant text/tool_use blocks convert to text/tool_call parts;
// thinking blocks are dropped silently.
func AnthropicToCanonical(messages []AnthropicMessage) ([]types.Message, error) {
	var out []types.Message
	for _, m := range messages {
		role := types.MessageRole(m.Role)

		var asString string
		if err := json.Unmarshal(m.Content, &asString); err == nil {
			out = append(out, types.Message{Role: role, Content: []types.ContentPart{types.TextPart(asString)}})
			continue
		}

		var blocks []anthropicContentBlock
		if err := json.Unmarshal(m.Content, &blocks); err != nil {
			return nil, providererrors.NewBadRequestError("message content must be a string or array", err)
		}

		if role == types.RoleUser {
			var toolMessages []types.Message
			var userParts []types.ContentPart
			for _, b := range blocks {
				switch b.Type {
				case "tool_result":
					text, err := anthropicToolResultText(b.Content)
					if err != nil {
						return nil, err
					}
					toolMessages = append(toolMessages, types.Message{
						Role:    types.RoleTool,
						Content: []types.ContentPart{types.ToolResultPart(b.ToolUseID, text)},
					})
				case "text":
					userParts = append(userParts, types.TextPart(b.Text))
				case "image":
					if b.Source != nil {
						data, err := base64.StdEncoding.DecodeString(b.Source.Data)
						if err != nil {
							return nil, providererrors.NewBadRequestError("malformed base64 in image source", err)
						}
						userParts = append(userParts, types.ImagePart(data, b.Source.MediaType))
					}
				}
			}
			out = append(out, toolMessages...)
			if len(userParts) > 0 {
				out = append(out, types.Message{Role: types.RoleUser, Content: userParts})
			}
			continue
		}

		// Assistant (or system-as-array, handled the same way for text).
		var parts []types.ContentPart
		for _, b := range blocks {
			switch b.Type {
			case "text":
				parts = append(parts, types.TextPart(b.Text))
			case "tool_use":
				argsJSON, err := json.Marshal(b.Input)
				if err != nil {
					return nil, providererrors.NewBadRequestError("tool_use input not serializable", err)
				}
				parts = append(parts, types.ToolCallPart(b.ID, b.Name, string(argsJSON)))
			case "thinking":
				// dropped silently
			}
		}
		out = append(out, types.Message{Role: role, Content: parts})
	}
	return out, nil
}

func anthropicToolResultText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", providererrors.NewBadRequestError("tool_result content must be a string or block array", err)
	}
	var out string
	for _, b := range blocks {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out, nil
}

// AnthropicSystemToCanonical concatenates a string-or-array system field with
// "\n" when it arrives as an array of text blocks.
func AnthropicSystemToCanonical(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", providererrors.NewBadRequestError("system must be a string or array of text blocks", err)
	}
	var out string
	for i, b := range blocks {
		if i > 0 {
			out += "\n"
		}
		out += b.Text
	}
	return out, nil
}
