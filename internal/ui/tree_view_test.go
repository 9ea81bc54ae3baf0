package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stridehq/stride/internal/breakdown"
)

func TestRenderBreakdownTree(t *testing.T) {
	tree := &breakdown.Tree{
		Nodes: []breakdown.Node{
			{
				ExternalID:    "n1",
				Title:         "Research venues",
				EstimateHours: 3,
				Children: []breakdown.Node{
					{ExternalID: "n1a", Title: "Shortlist five options", Atomic: true},
					{ExternalID: "n1b", Title: "Visit the top two", Atomic: true},
				},
			},
			{
				ExternalID:    "n2",
				Title:         "Book the caterer",
				EstimateHours: 1.5,
				Dependencies:  []string{"n1"},
				Atomic:        true,
			},
		},
		TotalEstimateHours: 4.5,
	}

	out := RenderBreakdownTree(tree)

	assert.Contains(t, out, "Research venues")
	assert.Contains(t, out, "Shortlist five options")
	assert.Contains(t, out, "Book the caterer")
	// Connectors and metadata.
	assert.Contains(t, out, "├─")
	assert.Contains(t, out, "└─")
	assert.Contains(t, out, "(3h)")
	assert.Contains(t, out, "(1.5h)")
	assert.Contains(t, out, "·atomic")
	assert.Contains(t, out, "⇠ n1")
	assert.Contains(t, out, "total estimate: 4.5h")
}

func TestRenderBreakdownTree_RecommendedOrder(t *testing.T) {
	tree := &breakdown.Tree{
		Nodes: []breakdown.Node{
			{ExternalID: "b", Title: "Second in suggestion"},
			{ExternalID: "a", Title: "First in suggestion"},
		},
		RecommendedOrder: []string{"a", "b"},
	}

	out := RenderBreakdownTree(tree)

	assert.True(t, strings.Index(out, "First in suggestion") < strings.Index(out, "Second in suggestion"),
		"recommended order should drive top-level rendering")
}

func TestRenderBreakdownTree_Empty(t *testing.T) {
	assert.Contains(t, RenderBreakdownTree(nil), "empty proposal")
	assert.Contains(t, RenderBreakdownTree(&breakdown.Tree{}), "empty proposal")
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "3h", formatHours(3))
	assert.Equal(t, "1.5h", formatHours(1.5))
	assert.Equal(t, "0.3h", formatHours(0.33)) // rounded for display
}
