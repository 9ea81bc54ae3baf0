package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stridehq/stride/internal/config"
	"github.com/stridehq/stride/internal/goal"
)

// FindMatch pairs a goal with its similarity to the query.
type FindMatch struct {
	Goal  *goal.Goal `json:"goal"`
	Score float64    `json:"score"`
}

// FindResult is the response for semantic search.
type FindResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Hint    string      `json:"hint,omitempty"`
	Query   string      `json:"query"`
	Matches []FindMatch `json:"matches,omitempty"`
}

// FindOptions configures semantic search.
type FindOptions struct {
	Query string // Required free-text query
	Limit int    // Max matches; 0 uses the configured limit
}

// Find searches stored goals by embedding similarity. Goals without a stored
// vector fall back to substring matching on the title so a degraded index
// still finds exact names.
func (a *GoalApp) Find(ctx context.Context, opts FindOptions) (*FindResult, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return &FindResult{Success: false, Message: "query is required"}, nil
	}

	cfg := config.LoadFindConfig()
	limit := opts.Limit
	if limit <= 0 {
		limit = cfg.Limit
	}

	matches, err := a.semanticMatches(ctx, query, cfg.MinSimilarity)
	if err != nil {
		var esErr *goal.ExternalServiceError
		if errors.As(err, &esErr) {
			// Similarity is unavailable; title search still works.
			matches = nil
		} else {
			return nil, err
		}
	}
	matches = append(matches, a.titleMatches(query, matches)...)

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}

	res := &FindResult{Success: true, Query: query, Matches: matches}
	if len(matches) == 0 {
		res.Message = fmt.Sprintf("No goals match %q.", query)
		res.Hint = "Try a broader query, or 'stride list' to browse everything."
	}
	return res, nil
}

// semanticMatches scores stored goal vectors against the embedded query.
func (a *GoalApp) semanticMatches(ctx context.Context, query string, minScore float64) ([]FindMatch, error) {
	if a.ctx.Embedder == nil || a.ctx.DB == nil {
		return nil, nil
	}
	vectors, err := a.ctx.DB.Embeddings()
	if err != nil {
		return nil, fmt.Errorf("load goal vectors: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	queries, err := a.ctx.Embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, goal.NewExternalServiceError("embedding", "embed query", true, err)
	}
	if len(queries) == 0 {
		return nil, nil
	}

	var out []FindMatch
	for goalID, vec := range vectors {
		score := cosineSimilarity(queries[0], vec)
		if score < minScore {
			continue
		}
		gl, ok := a.ctx.Graph.Get(goalID)
		if !ok || gl.IsStep() {
			continue
		}
		out = append(out, FindMatch{Goal: gl, Score: score})
	}
	return out, nil
}

// titleMatches finds goals whose title contains the query, skipping goals
// already matched semantically.
func (a *GoalApp) titleMatches(query string, seen []FindMatch) []FindMatch {
	matched := make(map[string]bool, len(seen))
	for _, m := range seen {
		matched[m.Goal.ID] = true
	}
	needle := strings.ToLower(query)

	var out []FindMatch
	for _, gl := range a.ctx.Graph.AllGoals() {
		if matched[gl.ID] || gl.IsStep() {
			continue
		}
		if strings.Contains(strings.ToLower(gl.Title), needle) {
			// Below any semantic score so vector hits rank first.
			out = append(out, FindMatch{Goal: gl, Score: 0.25})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Goal.Title < out[j].Goal.Title })
	return out
}
