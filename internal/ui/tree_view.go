package ui

import (
	"fmt"
	"strings"

	"github.com/stridehq/stride/internal/breakdown"
)

// RenderBreakdownTree renders a proposed decomposition for review before it
// is accepted. Top-level nodes appear in the order Apply would create them.
func RenderBreakdownTree(tree *breakdown.Tree) string {
	if tree == nil || len(tree.Nodes) == 0 {
		return StyleSubtle.Render(" (empty proposal)") + "\n"
	}

	var sb strings.Builder
	nodes := breakdown.OrderedTopLevel(tree)
	for i, n := range nodes {
		renderNode(&sb, n, "", i == len(nodes)-1)
	}

	if tree.TotalEstimateHours > 0 {
		sb.WriteString(StyleSubtle.Render(fmt.Sprintf(" total estimate: %s", formatHours(tree.TotalEstimateHours))) + "\n")
	}
	return sb.String()
}

func renderNode(sb *strings.Builder, n breakdown.Node, prefix string, last bool) {
	connector := "├─"
	childPrefix := prefix + "│  "
	if last {
		connector = "└─"
		childPrefix = prefix + "   "
	}

	line := prefix + StyleSubtle.Render(connector) + " " + StyleTitle.Render(n.Title)
	if n.EstimateHours > 0 {
		line += " " + StyleSubtle.Render("("+formatHours(n.EstimateHours)+")")
	}
	if n.Atomic {
		line += " " + StyleSelectBadge.Render("·atomic")
	}
	if len(n.Dependencies) > 0 {
		line += " " + StyleWarning.Render("⇠ "+strings.Join(n.Dependencies, ", "))
	}
	sb.WriteString(line + "\n")

	for i, child := range n.Children {
		renderNode(sb, child, childPrefix, i == len(n.Children)-1)
	}
}

func formatHours(h float64) string {
	if h == float64(int(h)) {
		return fmt.Sprintf("%dh", int(h))
	}
	return fmt.Sprintf("%.1fh", h)
}
