// Package structured extracts JSON objects from model replies.
package structured

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject is returned when a reply contains no JSON object.
var ErrNoObject = errors.New("no JSON object in reply")

// Extract decodes the JSON object in text. Models often wrap it in a
// markdown fence or surround it with prose, so the outermost braces win.
func Extract(text string) (map[string]any, error) {
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, ErrNoObject
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(body[start:end+1]), &out); err != nil {
		return nil, err
	}
	return out, nil
}
