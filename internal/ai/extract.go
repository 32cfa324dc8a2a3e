package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a model answer holds no JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

// ExtractJSON returns the text from the first '{' to the last '}' of s.
// Models often wrap JSON in prose or code fences.
func ExtractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// DecodeJSON extracts the JSON object in s and decodes it into v.
func DecodeJSON(s string, v any) error {
	raw, ok := ExtractJSON(s)
	if !ok {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding model output: %w", err)
	}
	return nil
}
