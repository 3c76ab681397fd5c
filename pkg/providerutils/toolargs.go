package providerutils

import (
	"encoding/json"

	"github.com/hushhenry/ai-gateway/pkg/internal/jsonutil"
)

// DecodeToolArgs parses accumulated tool-call argument JSON. Some upstreams
// truncate or otherwise mangle the final fragment of a streamed call, so a
// strict decode failure falls back to jsonutil's object streaming parser,
// which extracts whatever top-level fields closed out cleanly before the
// fragment broke.
func DecodeToolArgs(raw string) map[string]interface{} {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args
	}
	parser := jsonutil.NewObjectStreamingParser()
	parser.Append(raw)
	fields := parser.GetFields()
	if len(fields) == 0 {
		return nil
	}
	return fields
}
