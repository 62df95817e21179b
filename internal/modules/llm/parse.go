package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Model responses are untrusted text: they may wrap JSON in code fences or
// chat around it. These helpers locate and decode the payload; failure is an
// error value the caller handles, never a panic.

// UnmarshalObject decodes the first top-level JSON object in raw into out,
// using greedy brace matching after stripping code fences.
func UnmarshalObject(raw string, out interface{}) error {
	cleaned := stripFences(raw)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("invalid JSON object in AI response")
}

// FirstJSONArray returns the first top-level JSON array in raw, located by
// bracket-depth scanning after stripping code fences.
func FirstJSONArray(raw string) (string, bool) {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		ch := cleaned[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return cleaned[start : i+1], true
			}
		}
	}
	return "", false
}

func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
