package cursor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

func TestBuildStdinPrompt_LabelsSections(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart("hi")}},
		{Role: types.RoleAssistant, Content: []types.ContentPart{types.TextPart("hello")}},
	}
	out := buildStdinPrompt("", messages, nil, false)
	assert.True(t, strings.Contains(out, "USER:\nhi"))
	assert.True(t, strings.Contains(out, "ASSISTANT:\nhello"))
}

func TestBuildStdinPrompt_TrailingToolResultGetsContinueMarker(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart("read a.go")}},
		{Role: types.RoleTool, Content: []types.ContentPart{types.ToolResultPart("call_1", "file contents")}},
	}
	out := buildStdinPrompt("", messages, nil, false)
	assert.True(t, strings.Contains(out, "TOOL_RESULT:\nfile contents"))
	assert.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), "CONTINUE"))
}
