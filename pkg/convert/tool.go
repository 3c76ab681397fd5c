package convert

import (
	"encoding/json"

	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

// ChatToolDecl is the Chat-Completions tool declaration wire shape.
type ChatToolDecl struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		Parameters  map[string]interface{} `json:"parameters"`
	} `json:"function"`
}

// AnthropicToolDecl is the Anthropic tool declaration wire shape.
type AnthropicToolDecl struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ChatToolDeclToCanonical projects a Chat-Completions tool declaration onto
// the canonical shape.
func ChatToolDeclToCanonical(d ChatToolDecl) types.Tool {
	return types.Tool{
		Name:                 d.Function.Name,
		Description:          d.Function.Description,
		ParametersJSONSchema: d.Function.Parameters,
	}
}

// AnthropicToolDeclToCanonical projects an Anthropic tool declaration onto
// the canonical shape.
func AnthropicToolDeclToCanonical(d AnthropicToolDecl) types.Tool {
	return types.Tool{
		Name:                 d.Name,
		Description:          d.Description,
		ParametersJSONSchema: d.InputSchema,
	}
}

// ToOpenAIToolFormat rewrites a canonical tool declaration into OpenAI's
// native function-calling schema.
func ToOpenAIToolFormat(tools []types.Tool) []map[string]interface{} {
	out := make([]map[string]interface{}, len(tools))
	for i, t := range tools {
		out[i] = map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.ParametersJSONSchema,
			},
		}
	}
	return out
}

// ToAnthropicToolFormat rewrites a canonical tool declaration into
// Anthropic's native tools schema.
func ToAnthropicToolFormat(tools []types.Tool) []map[string]interface{} {
	out := make([]map[string]interface{}, len(tools))
	for i, t := range tools {
		out[i] = map[string]interface{}{
			"name":         t.Name,
			"description":  t.Description,
			"input_schema": t.ParametersJSONSchema,
		}
	}
	return out
}

// ToGoogleFunctionDeclarations rewrites canonical tool declarations into
// Google's functionDeclarations schema (used by both the public Gemini API
// and the Code-Assist adapter).
func ToGoogleFunctionDeclarations(tools []types.Tool) []map[string]interface{} {
	out := make([]map[string]interface{}, len(tools))
	for i, t := range tools {
		out[i] = map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"parameters":  t.ParametersJSONSchema,
		}
	}
	return out
}

// ChatToolChoiceToCanonical maps a Chat-Completions tool_choice value
// (string "auto"/"none"/"required", or {type:"function",function:{name}})
// onto the canonical tool-choice.
func ChatToolChoiceToCanonical(raw json.RawMessage) types.ToolChoice {
	if len(raw) == 0 {
		return types.ToolChoiceAutoValue()
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch asString {
		case "none":
			return types.ToolChoiceNoneValue()
		case "required":
			return types.ToolChoiceRequiredValue()
		default:
			return types.ToolChoiceAutoValue()
		}
	}
	var named struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	}
	if err := json.Unmarshal(raw, &named); err == nil && named.Function.Name != "" {
		return types.ToolChoiceNamed(named.Function.Name)
	}
	return types.ToolChoiceAutoValue()
}

// AnthropicToolChoiceToCanonical maps an Anthropic tool_choice value onto
// the canonical tool-choice.
func AnthropicToolChoiceToCanonical(raw json.RawMessage) types.ToolChoice {
	if len(raw) == 0 {
		return types.ToolChoiceAutoValue()
	}
	var v struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return types.ToolChoiceAutoValue()
	}
	switch v.Type {
	case "any":
		return types.ToolChoiceRequiredValue()
	case "tool":
		return types.ToolChoiceNamed(v.Name)
	default:
		return types.ToolChoiceAutoValue()
	}
}

// ToolChoiceToOpenAI rewrites the canonical tool-choice into OpenAI's
// tool_choice wire value.
func ToolChoiceToOpenAI(choice types.ToolChoice) interface{} {
	switch choice.Type {
	case types.ToolChoiceNone:
		return "none"
	case types.ToolChoiceRequired:
		return "required"
	case types.ToolChoiceTool:
		return map[string]interface{}{
			"type":     "function",
			"function": map[string]interface{}{"name": choice.ToolName},
		}
	default:
		return "auto"
	}
}

// ToolChoiceToAnthropic rewrites the canonical tool-choice into Anthropic's
// tool_choice wire value. Anthropic has no explicit "none"; omit the field.
func ToolChoiceToAnthropic(choice types.ToolChoice) interface{} {
	switch choice.Type {
	case types.ToolChoiceNone:
		return nil
	case types.ToolChoiceRequired:
		return map[string]interface{}{"type": "any"}
	case types.ToolChoiceTool:
		return map[string]interface{}{"type": "tool", "name": choice.ToolName}
	default:
		return map[string]interface{}{"type": "auto"}
	}
}

// ToolChoiceToGoogle rewrites the canonical tool-choice into Google's
// function_calling_config.mode wire value.
func ToolChoiceToGoogle(choice types.ToolChoice) string {
	switch choice.Type {
	case types.ToolChoiceNone:
		return "NONE"
	case types.ToolChoiceRequired:
		return "ANY"
	default:
		return "AUTO"
	}
}
