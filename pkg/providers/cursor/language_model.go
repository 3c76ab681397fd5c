package cursor

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

const subprocessTimeout = 120 * time.Second

type LanguageModel struct {
	binary  string
	modelID string
}

func (m *LanguageModel) Provider() string { return "cursor" }
func (m *LanguageModel) ModelID() string  { return m.modelID }

// DoGenerate drains the streaming subprocess adapter and assembles a single
// result, since cursor-agent has no separate non-streaming mode.
func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	es, err := m.DoStream(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer es.Close()

	result := &types.GenerateResult{}
	for {
		chunk, err := es.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch chunk.Type {
		case provider.ChunkTypeText:
			result.Text += chunk.Text
		case provider.ChunkTypeToolCall:
			result.ToolCalls = append(result.ToolCalls, *chunk.ToolCall)
		case provider.ChunkTypeFinish:
			result.FinishReason = chunk.FinishReason
		case provider.ChunkTypeError:
			return nil, providererrors.NewSubprocessFailedError(-1, chunk.ErrMessage)
		}
	}
	return result, nil
}

func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error) {
	var messages []types.Message
	if opts.Prompt.IsMessages() {
		messages = opts.Prompt.Messages
	} else {
		messages = []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart(opts.Prompt.Text)}}}
	}

	toolsAttached := len(opts.Tools) > 0
	stdinPrompt := buildStdinPrompt(opts.Prompt.System, messages, opts.Tools, toolsAttached)

	args := []string{"--print", "--output-format", "stream-json", "--stream-partial-output", "--force", "--model", m.modelID}
	if toolsAttached {
		// Default mode lets cursor-agent invoke tools; interception below
		// filters for the ones the caller actually declared.
	} else {
		args = append(args, "--mode", "ask")
	}

	childCtx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	cmd := exec.CommandContext(childCtx, m.binary, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, providererrors.NewSubprocessFailedError(-1, err.Error())
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, providererrors.NewSubprocessFailedError(-1, err.Error())
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, providererrors.NewSubprocessFailedError(-1, err.Error())
	}

	go func() {
		defer stdin.Close()
		_, _ = stdin.Write([]byte(stdinPrompt))
	}()

	return newEventStream(cmd, stdout, opts.Tools, cancel), nil
}

// eventStream parses cursor-agent's NDJSON stdout, tracking cumulative
// assistant text to compute TextDelta, and intercepting tool_call events
// whose de-camelCased key matches a caller-declared tool.
type eventStream struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	reader *bufio.Scanner

	callerTools []types.Tool
	lastText    string
	sawToolCall bool

	queue    []*provider.StreamChunk
	finished bool
	closeOnce sync.Once
}

func newEventStream(cmd *exec.Cmd, stdout io.Reader, callerTools []types.Tool, cancel context.CancelFunc) *eventStream {
	scanner := bufio.NewScanner(stdout)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)
	return &eventStream{cmd: cmd, cancel: cancel, reader: scanner, callerTools: callerTools}
}

func (s *eventStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.cmd.Wait()
	})
	return nil
}

func (s *eventStream) Next() (*provider.StreamChunk, error) {
	for {
		if len(s.queue) > 0 {
			c := s.queue[0]
			s.queue = s.queue[1:]
			return c, nil
		}
		if s.finished {
			return nil, io.EOF
		}

		if !s.reader.Scan() {
			if err := s.reader.Err(); err != nil {
				s.finished = true
				return &provider.StreamChunk{Type: provider.ChunkTypeError, ErrMessage: err.Error()}, nil
			}
			waitErr := s.cmd.Wait()
			s.cancel()
			if s.cmd.ProcessState != nil && !s.cmd.ProcessState.Success() {
				reason := ""
				if waitErr != nil {
					reason = waitErr.Error()
				}
				s.finished = true
				return &provider.StreamChunk{Type: provider.ChunkTypeError, ErrMessage: "cursor-agent exited with an error: " + reason}, nil
			}
			finishReason := types.FinishReasonStop
			if s.sawToolCall {
				finishReason = types.FinishReasonToolCalls
			}
			s.finished = true
			return &provider.StreamChunk{Type: provider.ChunkTypeFinish, FinishReason: finishReason}, nil
		}

		line := s.reader.Bytes()
		if len(line) == 0 {
			continue
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(line, &envelope); err != nil {
			continue
		}
		var eventType string
		if raw, ok := envelope["type"]; ok {
			_ = json.Unmarshal(raw, &eventType)
		}

		switch eventType {
		case "assistant":
			var text string
			if raw, ok := envelope["text"]; ok {
				_ = json.Unmarshal(raw, &text)
			}
			if len(text) > len(s.lastText) {
				delta := text[len(s.lastText):]
				s.lastText = text
				return &provider.StreamChunk{Type: provider.ChunkTypeText, Text: delta}, nil
			}

		case "tool_call":
			for key, raw := range envelope {
				if key == "type" {
					continue
				}
				resolved := resolveToolName(key)
				var matched *types.Tool
				for i := range s.callerTools {
					if matchesCallerTool(resolved, s.callerTools[i].Name) {
						matched = &s.callerTools[i]
						break
					}
				}
				if matched == nil {
					continue
				}

				var payload struct {
					CallID string                 `json:"call_id"`
					Args   map[string]interface{} `json:"args"`
				}
				if err := json.Unmarshal(raw, &payload); err != nil {
					continue
				}
				s.sawToolCall = true
				return &provider.StreamChunk{
					Type: provider.ChunkTypeToolCall,
					ToolCall: &types.ToolCall{
						ID:        payload.CallID,
						ToolName:  matched.Name,
						Arguments: payload.Args,
					},
				}, nil
			}
		}
	}
}
