package cursor

import "strings"

// resolveToolName strips the ToolCall suffix cursor-agent's internal tool
// keys carry (readToolCall -> read) so the result can be matched against a
// caller-provided tool name.
func resolveToolName(key string) string {
	return strings.TrimSuffix(key, "ToolCall")
}

// matchesCallerTool compares two tool names case-insensitively and ignoring
// everything but letters and digits, so readToolCall matches a caller tool
// declared as "Read" or "read_file_tool".
func matchesCallerTool(resolvedName, callerToolName string) bool {
	return alphanumericLower(resolvedName) == alphanumericLower(callerToolName)
}

func alphanumericLower(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
