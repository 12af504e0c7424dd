package ai

import (
	"context"
	"strings"
)

// Extractor is an opaque text generation capability. The instruction is sent
// as the system prompt and text as the user message.
type Extractor interface {
	Extract(ctx context.Context, instruction, text string) (string, error)
}

// StripCodeFence removes markdown code fences that models like to wrap
// structured output in.
func StripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
