package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

func TestChatToolChoiceToCanonical(t *testing.T) {
	cases := []struct {
		raw  string
		want types.ToolChoice
	}{
		{`"auto"`, types.ToolChoiceAutoValue()},
		{`"none"`, types.ToolChoiceNoneValue()},
		{`"required"`, types.ToolChoiceRequiredValue()},
		{`{"type":"function","function":{"name":"get_weather"}}`, types.ToolChoiceNamed("get_weather")},
	}
	for _, c := range cases {
		got := ChatToolChoiceToCanonical(json.RawMessage(c.raw))
		assert.Equal(t, c.want, got)
	}
}

func TestAnthropicToolChoiceToCanonical(t *testing.T) {
	cases := []struct {
		raw  string
		want types.ToolChoice
	}{
		{`{"type":"auto"}`, types.ToolChoiceAutoValue()},
		{`{"type":"any"}`, types.ToolChoiceRequiredValue()},
		{`{"type":"tool","name":"get_weather"}`, types.ToolChoiceNamed("get_weather")},
	}
	for _, c := range cases {
		got := AnthropicToolChoiceToCanonical(json.RawMessage(c.raw))
		assert.Equal(t, c.want, got)
	}
}

func TestToolChoiceToOpenAI_Named(t *testing.T) {
	got := ToolChoiceToOpenAI(types.ToolChoiceNamed("get_weather"))
	m, ok := got.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "function", m["type"])
}

func TestToolChoiceToAnthropic_None(t *testing.T) {
	assert.Nil(t, ToolChoiceToAnthropic(types.ToolChoiceNoneValue()))
}
