package recommend

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// StripFences removes markdown code fences around model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// outermost slices s from the first opening bracket to the last matching
// closing bracket of the same kind.
func outermost(s string) (string, bool) {
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

func repairTrailingCommas(s string) string {
	return trailingComma.ReplaceAllString(s, "$1")
}

// ParseLenient recovers a JSON document from model output. It strips code
// fences, then tries the text as is, the outermost bracketed slice, and
// finally both again with trailing commas removed.
func ParseLenient(content string) (json.RawMessage, bool) {
	s := StripFences(content)
	if s == "" {
		return nil, false
	}
	candidates := []string{s}
	if sl, ok := outermost(s); ok && sl != s {
		candidates = append(candidates, sl)
	}
	for _, c := range candidates {
		if fixed := repairTrailingCommas(c); fixed != c {
			candidates = append(candidates, fixed)
		}
	}
	for _, c := range candidates {
		if json.Valid([]byte(c)) {
			return json.RawMessage(c), true
		}
	}
	return nil, false
}
