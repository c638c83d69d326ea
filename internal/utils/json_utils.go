package utils

import (
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when a model response contains no JSON object
var ErrNoJSONObject = errors.New("no JSON object in response")

// ExtractJSONObject returns the outermost {...} object of a model response,
// ignoring code fences and any surrounding prose
func ExtractJSONObject(text string) (string, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return s[start : end+1], nil
}
