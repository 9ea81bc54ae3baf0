package app

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/stridehq/stride/internal/goal"
)

// saveEmbeddings stores vectors for the given goals. Best-effort: a failed
// embedding call only disables similarity features for those goals.
func (c *Context) saveEmbeddings(ctx context.Context, goals ...*goal.Goal) {
	if c.Embedder == nil || c.DB == nil || len(goals) == 0 {
		return
	}
	texts := make([]string, len(goals))
	for i, gl := range goals {
		texts[i] = embeddingText(gl)
	}
	vectors, err := c.Embedder.EmbedStrings(ctx, texts)
	if err != nil || len(vectors) != len(goals) {
		slog.Debug("goal embedding skipped", "count", len(goals), "error", err)
		return
	}
	model := c.Config.LLM.EmbeddingModel
	for i, gl := range goals {
		vec := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec[j] = float32(v)
		}
		if err := c.DB.SaveEmbedding(gl.ID, model, vec); err != nil {
			slog.Debug("goal embedding not saved", "goal", gl.ID, "error", err)
		}
	}
}

// embeddingText is the text a goal is indexed under.
func embeddingText(gl *goal.Goal) string {
	return strings.TrimSpace(gl.Title + "\n" + gl.Body)
}

// cosineSimilarity compares a fresh query vector against a stored goal
// vector. Stored vectors are float32; math runs in float64.
func cosineSimilarity(a []float64, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		bv := float64(b[i])
		dot += a[i] * bv
		normA += a[i] * a[i]
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
