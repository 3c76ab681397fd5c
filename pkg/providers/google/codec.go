package google

import (
	"github.com/hushhenry/ai-gateway/pkg/convert"
	"github.com/hushhenry/ai-gateway/pkg/internal/imageutil"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils"
)

// Content is one turn in Gemini's content schema, shared by the public
// Gemini API and the Code-Assist internal RPC.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *InlineData       `json:"inlineData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// InlineData carries an image (or other binary blob) inline in a Part, the
// way Gemini's wire format embeds non-text content.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded
}

type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
	ID   string                 `json:"id,omitempty"`
}

type FunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
	ID       string                 `json:"id,omitempty"`
}

// ToGeminiContents rewrites the canonical message list into Gemini's
// contents array: assistant -> "model", tool results -> functionResponse
// parts on a "user"-role content entry, tool calls -> functionCall parts,
// images -> inlineData parts.
func ToGeminiContents(messages []types.Message) []Content {
	out := make([]Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == types.RoleAssistant {
			role = "model"
		}

		var parts []Part
		for _, p := range m.Content {
			switch p.Type {
			case types.PartTypeText:
				parts = append(parts, Part{Text: p.Text})
			case types.PartTypeImage:
				parts = append(parts, Part{InlineData: &InlineData{
					MimeType: p.ImageMimeType,
					Data:     imageutil.EncodeToBase64(p.ImageData),
				}})
			case types.PartTypeToolCall:
				args := providerutils.DecodeToolArgs(p.ToolArgsJSON)
				parts = append(parts, Part{FunctionCall: &FunctionCall{Name: p.ToolName, Args: args, ID: p.ToolCallID}})
			case types.PartTypeToolResult:
				// Google keys functionResponse by tool name, which the
				// canonical tool_result part does not carry; the call id
				// is the best available substitute.
				parts = append(parts, Part{FunctionResponse: &FunctionResponse{
					Name:     p.ToolCallID,
					Response: map[string]interface{}{"output": p.ToolResultText},
					ID:       p.ToolCallID,
				}})
			}
		}
		out = append(out, Content{Role: role, Parts: parts})
	}
	return out
}

// BuildGenerationConfig projects GenerateOptions onto Gemini's
// generationConfig object.
func BuildGenerationConfig(opts *provider.GenerateOptions) map[string]interface{} {
	cfg := map[string]interface{}{}
	if opts.Temperature != nil {
		cfg["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		cfg["maxOutputTokens"] = *opts.MaxTokens
	}
	if opts.TopP != nil {
		cfg["topP"] = *opts.TopP
	}
	if len(opts.StopSequences) > 0 {
		cfg["stopSequences"] = opts.StopSequences
	}
	return cfg
}

// BuildTools projects canonical tool declarations onto Gemini's
// tools/functionDeclarations shape, plus the tool-choice-derived
// toolConfig.functionCallingConfig.mode.
func BuildTools(opts *provider.GenerateOptions) (tools []map[string]interface{}, toolConfig map[string]interface{}) {
	if len(opts.Tools) == 0 {
		return nil, nil
	}
	tools = []map[string]interface{}{{"functionDeclarations": convert.ToGoogleFunctionDeclarations(opts.Tools)}}
	toolConfig = map[string]interface{}{
		"functionCallingConfig": map[string]interface{}{"mode": convert.ToolChoiceToGoogle(opts.ToolChoice)},
	}
	return tools, toolConfig
}
