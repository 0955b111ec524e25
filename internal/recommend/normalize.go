package recommend

import (
	"encoding/json"
	"strconv"

	"readinghub/pkg/models"
)

const (
	DefaultAuthor   = "Unknown Author"
	DefaultCategory = "General"
	DefaultRating   = 4.5
)

// DefaultPages is the placeholder page count for the idx-th candidate.
func DefaultPages(idx int) int {
	return 280 + (idx%5)*40
}

// candidateList accepts a bare array or an object with a books array.
func candidateList(raw json.RawMessage) []any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		if books, ok := t["books"].([]any); ok {
			return books
		}
	}
	return nil
}

// NormalizeCandidates fills every field of every decoded entry, using query
// where a title or description is missing.
func NormalizeCandidates(raw json.RawMessage, query string) []models.BookCandidate {
	list := candidateList(raw)
	out := make([]models.BookCandidate, 0, len(list))
	for idx, entry := range list {
		b, _ := entry.(map[string]any)
		c := models.BookCandidate{
			Title:      text(b["title"], query),
			Author:     text(b["author"], DefaultAuthor),
			Category:   text(b["category"], DefaultCategory),
			Rating:     DefaultRating,
			TotalPages: DefaultPages(idx),
		}
		if r, ok := b["rating"].(float64); ok {
			c.Rating = r
		}
		switch {
		case isString(b["description"]):
			c.Description = b["description"].(string)
		case isString(b["reason"]):
			c.Description = b["reason"].(string)
		default:
			c.Description = `Recommended book related to "` + query + `".`
		}
		if p, ok := b["totalPages"].(float64); ok && p > 0 {
			c.TotalPages = int(p)
		}
		out = append(out, c)
	}
	return out
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// text renders a decoded JSON scalar, falling back for empty or falsy values.
func text(v any, fallback string) string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		if t != 0 {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	case bool:
		if t {
			return "true"
		}
	case nil:
	default:
		b, err := json.Marshal(t)
		if err == nil {
			return string(b)
		}
	}
	return fallback
}
