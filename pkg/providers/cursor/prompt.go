package cursor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

// buildStdinPrompt serializes the canonical message list into the labeled
// plain-text sections cursor-agent expects on stdin: one
// SYSTEM/USER/ASSISTANT/TOOL_RESULT block per message, with a trailing
// continuation marker when the conversation ends on a tool result (telling
// the subprocess to keep going rather than treat the transcript as done).
func buildStdinPrompt(system string, messages []types.Message, tools []types.Tool, toolsAttached bool) string {
	var b strings.Builder

	if system != "" {
		writeSection(&b, "SYSTEM", system)
	}
	if toolsAttached {
		writeSection(&b, "SYSTEM", buildToolDescriptionBlock(tools))
	}

	endsOnToolResult := false
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			writeSection(&b, "SYSTEM", m.TextContent())
			endsOnToolResult = false
		case types.RoleUser:
			writeSection(&b, "USER", m.TextContent())
			endsOnToolResult = false
		case types.RoleAssistant:
			writeSection(&b, "ASSISTANT", m.TextContent())
			endsOnToolResult = false
		case types.RoleTool:
			for _, p := range m.Content {
				if p.Type == types.PartTypeToolResult {
					writeSection(&b, "TOOL_RESULT", p.ToolResultText)
				}
			}
			endsOnToolResult = true
		}
	}

	if endsOnToolResult {
		b.WriteString("CONTINUE\n")
	}

	return b.String()
}

func writeSection(b *strings.Builder, label, body string) {
	fmt.Fprintf(b, "%s:\n%s\n\n", label, body)
}

// buildToolDescriptionBlock renders the caller's tool declarations as a
// textual SYSTEM block, since cursor-agent has no native structured tool
// schema input channel over stdin.
func buildToolDescriptionBlock(tools []types.Tool) string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, t := range tools {
		schema, _ := json.Marshal(t.ParametersJSONSchema)
		fmt.Fprintf(&b, "- %s: %s\n  schema: %s\n", t.Name, t.Description, string(schema))
	}
	return b.String()
}
