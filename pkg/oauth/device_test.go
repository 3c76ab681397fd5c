package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCopilotProxyEndpoint(t *testing.T) {
	token := "tid=abc;exp=1700000000;proxy-ep=proxy.individual.githubcopilot.com;sku=free"
	assert.Equal(t, "https://api.individual.githubcopilot.com", parseCopilotProxyEndpoint(token))
}

func TestParseCopilotProxyEndpointMissing(t *testing.T) {
	assert.Equal(t, "", parseCopilotProxyEndpoint("tid=abc;exp=1700000000"))
}

func TestNormalizeQwenBaseURL(t *testing.T) {
	assert.Equal(t, "https://dashscope.aliyuncs.com/v1", normalizeQwenBaseURL("https://dashscope.aliyuncs.com"))
	assert.Equal(t, "https://dashscope.aliyuncs.com/v1", normalizeQwenBaseURL("https://dashscope.aliyuncs.com/v1"))
	assert.Equal(t, "https://dashscope.aliyuncs.com/v1", normalizeQwenBaseURL("https://dashscope.aliyuncs.com/v1/"))
}
