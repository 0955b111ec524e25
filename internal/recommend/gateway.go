// Package recommend builds book recommendations and reading plans from a
// text generation backend whose output is not guaranteed to be valid JSON.
package recommend

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"readinghub/internal/apperr"
	"readinghub/pkg/models"
)

type SearchResult struct {
	Books   []models.BookCandidate `json:"books"`
	RawText string                 `json:"rawText,omitempty"`
}

type PlanResult struct {
	Plan    *models.ReadingPlan `json:"plan,omitempty"`
	RawText string              `json:"rawText,omitempty"`
}

type Gateway struct {
	Search TextGenerator
	Plan   TextGenerator
	Log    *zap.SugaredLogger
}

// NewGateway uses gen for both searches and plans. A nil gen leaves the
// gateway disabled.
func NewGateway(gen TextGenerator, log *zap.SugaredLogger) *Gateway {
	return &Gateway{Search: gen, Plan: gen, Log: log}
}

func (g *Gateway) Enabled() bool {
	return g != nil && g.Search != nil && g.Plan != nil
}

// SearchBooks asks for books matching query. Output that cannot be
// recovered is returned as RawText with no books and no error.
func (g *Gateway) SearchBooks(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, apperr.Validation("Query is required")
	}
	if !g.Enabled() {
		return SearchResult{}, apperr.Unavailable("Book search is not configured")
	}

	content, err := g.Search.Generate(ctx, searchPrompt(query))
	if err != nil {
		return SearchResult{}, apperr.Upstream("Failed to search books", err)
	}
	content = strings.TrimSpace(content)
	g.Log.Debugw("search raw content", "query", query, "content", content)

	empty := SearchResult{Books: []models.BookCandidate{}, RawText: content}
	raw, ok := ParseLenient(content)
	if !ok {
		g.Log.Warnw("search output not recoverable", "query", query)
		return empty, nil
	}
	books := NormalizeCandidates(raw, query)
	if len(books) == 0 {
		return empty, nil
	}
	return SearchResult{Books: books}, nil
}

// ReadingPlan asks for a staged plan on topic. Unrecoverable output is
// returned as RawText.
func (g *Gateway) ReadingPlan(ctx context.Context, topic string) (PlanResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return PlanResult{}, apperr.Validation("Topic is required")
	}
	if !g.Enabled() {
		return PlanResult{}, apperr.Unavailable("Reading plans are not configured")
	}

	content, err := g.Plan.Generate(ctx, planPrompt(topic))
	if err != nil {
		return PlanResult{}, apperr.Upstream("Failed to generate reading plan", err)
	}
	content = StripFences(content)

	raw, ok := ParseLenient(content)
	if !ok {
		g.Log.Warnw("plan output not recoverable", "topic", topic)
		return PlanResult{RawText: content}, nil
	}
	var plan models.ReadingPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		g.Log.Warnw("plan output has unexpected shape", "topic", topic, "err", err)
		return PlanResult{RawText: content}, nil
	}
	if plan.Topic == "" {
		plan.Topic = topic
	}
	if plan.Subtopics == nil {
		plan.Subtopics = []models.PlanSubtopic{}
	}
	return PlanResult{Plan: &plan}, nil
}
