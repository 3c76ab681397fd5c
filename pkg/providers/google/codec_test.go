package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

func TestToGeminiContents_AssistantRoleBecomesModel(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart("hi")}},
		{Role: types.RoleAssistant, Content: []types.ContentPart{types.TextPart("hello")}},
	}
	out := ToGeminiContents(messages)
	require.Len(t, out, 2)
	assert.Equal(t, "user", out[0].Role)
	assert.Equal(t, "model", out[1].Role)
}

func TestToGeminiContents_ImageBecomesInlineDataPart(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: []types.ContentPart{types.ImagePart([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png")}},
	}
	out := ToGeminiContents(messages)
	require.Len(t, out, 1)
	require.Len(t, out[0].Parts, 1)
	require.NotNil(t, out[0].Parts[0].InlineData)
	assert.Equal(t, "image/png", out[0].Parts[0].InlineData.MimeType)
	assert.Equal(t, "iVBORw==", out[0].Parts[0].InlineData.Data)
}

func TestToGeminiContents_ToolCallBecomesFunctionCallPart(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleAssistant, Content: []types.ContentPart{
			types.ToolCallPart("call_1", "get_weather", `{"location":"Tokyo"}`),
		}},
	}
	out := ToGeminiContents(messages)
	require.Len(t, out, 1)
	require.Len(t, out[0].Parts, 1)
	require.NotNil(t, out[0].Parts[0].FunctionCall)
	assert.Equal(t, "get_weather", out[0].Parts[0].FunctionCall.Name)
	assert.Equal(t, "Tokyo", out[0].Parts[0].FunctionCall.Args["location"])
}
