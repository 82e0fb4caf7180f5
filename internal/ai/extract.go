package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when a model reply contains no parseable JSON object.
var ErrNoJSON = errors.New("no JSON object found in reply")

// ExtractJSON pulls a JSON object out of a model reply. Models are instructed
// to reply with JSON only, but in practice replies arrive three ways: a bare
// object, an object inside a ```json fence, or an object surrounded by prose.
// All three are handled; the extracted object is syntax-checked before return.
func ExtractJSON(reply string) (string, error) {
	reply = strings.TrimSpace(reply)

	// Bare JSON object.
	if candidate, ok := validObject(reply); ok {
		return candidate, nil
	}

	// Fenced code block.
	if idx := strings.Index(reply, "```"); idx >= 0 {
		rest := reply[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			if candidate, ok := validObject(strings.TrimSpace(rest[:end])); ok {
				return candidate, nil
			}
		}
	}

	// Outermost braces in surrounding prose.
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start >= 0 && end > start {
		if candidate, ok := validObject(reply[start : end+1]); ok {
			return candidate, nil
		}
	}

	return "", ErrNoJSON
}

func validObject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return "", false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return "", false
	}
	return s, true
}
