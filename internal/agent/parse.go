package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"tiger-trader/internal/model"
)

// cleanModelOutput strips markdown code fences and surrounding prose from a
// model completion, leaving the outermost JSON value. Reasoning models wrap
// JSON in ```json fences or prepend commentary; both are tolerated.
func cleanModelOutput(raw string, wantList bool) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.ReplaceAll(s, "```", "")
		s = strings.TrimSpace(s)
	}

	open, close := "{", "}"
	if wantList {
		open, close = "[", "]"
	}
	start := strings.Index(s, open)
	end := strings.LastIndex(s, close)
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

// decodeObject decodes one JSON object out of a completion.
func decodeObject(raw string, v interface{}) error {
	cleaned := cleanModelOutput(raw, false)
	if cleaned == "" {
		return fmt.Errorf("%w: empty completion", model.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	return nil
}

// decodeList decodes one JSON array out of a completion.
func decodeList(raw string, v interface{}) error {
	cleaned := cleanModelOutput(raw, true)
	if cleaned == "" {
		return fmt.Errorf("%w: empty completion", model.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	return nil
}
