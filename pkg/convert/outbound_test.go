package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

func TestToOpenAIMessages_ImageEncodedAsDataURI(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: []types.ContentPart{types.ImagePart([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png")}},
	}
	out := ToOpenAIMessages(messages, "")
	require.Len(t, out, 1)
	content, ok := out[0]["content"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)
	imageURL := content[0]["image_url"].(map[string]interface{})["url"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "data:image/png;base64,"))
}

func TestToAnthropicMessages_ImageBase64Encoded(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: []types.ContentPart{types.ImagePart([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png")}},
	}
	out := ToAnthropicMessages(messages)
	require.Len(t, out, 1)
	blocks := out[0]["content"].([]map[string]interface{})
	require.Len(t, blocks, 1)
	source := blocks[0]["source"].(map[string]interface{})
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, "iVBORw==", source["data"])
}
