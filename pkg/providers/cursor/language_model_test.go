package cursor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

// fakeCursorAgent writes a shell script that ignores its stdin prompt and
// emits a fixed NDJSON transcript on stdout, standing in for cursor-agent.
func fakeCursorAgent(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cursor-agent")
	contents := "#!/bin/sh\ncat >/dev/null\n" + script
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o755))
	return path
}

func TestDoStream_AssistantTextDeltaAndStop(t *testing.T) {
	script := `
echo '{"type":"assistant","text":"hel"}'
echo '{"type":"assistant","text":"hello"}'
`
	p := New(Config{Binary: fakeCursorAgent(t, script)})
	m := p.LanguageModel("cursor-default")

	es, err := m.DoStream(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "hi"}, Stream: true})
	require.NoError(t, err)
	defer es.Close()

	var chunks []*provider.StreamChunk
	for {
		c, err := es.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, c)
	}

	require.Len(t, chunks, 3)
	assert.Equal(t, "hel", chunks[0].Text)
	assert.Equal(t, "lo", chunks[1].Text)
	assert.Equal(t, provider.ChunkTypeFinish, chunks[2].Type)
	assert.Equal(t, types.FinishReasonStop, chunks[2].FinishReason)
}

func TestDoStream_MatchedToolCallEmitsToolCallAndFinishReason(t *testing.T) {
	script := `echo '{"type":"tool_call","readToolCall":{"call_id":"call_1","args":{"path":"a.go"}}}'`
	p := New(Config{Binary: fakeCursorAgent(t, script)})
	m := p.LanguageModel("cursor-default")

	tools := []types.Tool{{Name: "Read", Description: "reads a file"}}
	es, err := m.DoStream(context.Background(), &provider.GenerateOptions{
		Prompt: types.Prompt{Text: "read a.go"},
		Tools:  tools,
		Stream: true,
	})
	require.NoError(t, err)
	defer es.Close()

	var chunks []*provider.StreamChunk
	for {
		c, err := es.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, c)
	}

	require.Len(t, chunks, 2)
	assert.Equal(t, provider.ChunkTypeToolCall, chunks[0].Type)
	assert.Equal(t, "Read", chunks[0].ToolCall.ToolName)
	assert.Equal(t, "call_1", chunks[0].ToolCall.ID)
	assert.Equal(t, provider.ChunkTypeFinish, chunks[1].Type)
	assert.Equal(t, types.FinishReasonToolCalls, chunks[1].FinishReason)
}

func TestDoStream_UnmatchedInternalToolCallIsIgnored(t *testing.T) {
	script := `
echo '{"type":"tool_call","editToolCall":{"call_id":"call_9","args":{}}}'
echo '{"type":"assistant","text":"done"}'
`
	p := New(Config{Binary: fakeCursorAgent(t, script)})
	m := p.LanguageModel("cursor-default")

	es, err := m.DoStream(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "hi"}, Stream: true})
	require.NoError(t, err)
	defer es.Close()

	var chunks []*provider.StreamChunk
	for {
		c, err := es.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, c)
	}

	require.Len(t, chunks, 2)
	assert.Equal(t, provider.ChunkTypeText, chunks[0].Type)
	assert.Equal(t, "done", chunks[0].Text)
	assert.Equal(t, provider.ChunkTypeFinish, chunks[1].Type)
	assert.Equal(t, types.FinishReasonStop, chunks[1].FinishReason)
}

func TestResolveToolName_StripsToolCallSuffix(t *testing.T) {
	assert.Equal(t, "read", resolveToolName("readToolCall"))
	assert.True(t, matchesCallerTool(resolveToolName("readToolCall"), "Read"))
}
