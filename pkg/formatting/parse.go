package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse unmarshals content as JSON into T. Model output often wraps the
// payload, so Parse falls back to the first markdown code fence and then
// to the outermost bracketed span before giving up.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	candidates := []string{content}
	if m := jsonBlockRegex.FindStringSubmatch(content); len(m) >= 2 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if span, ok := bracketed(content); ok {
		candidates = append(candidates, span)
	}

	var lastErr error
	for _, c := range candidates {
		var v T
		if lastErr = json.Unmarshal([]byte(c), &v); lastErr == nil {
			return v, nil
		}
	}

	return result, fmt.Errorf("%w: %v", ErrParseFailed, lastErr)
}

// bracketed returns the text from the first opening bracket to the last
// matching closing bracket of the same kind.
func bracketed(s string) (string, bool) {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", false
	}

	closer := "]"
	if s[start] == '{' {
		closer = "}"
	}

	end := strings.LastIndex(s, closer)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
