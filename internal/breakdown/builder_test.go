package breakdown

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stridehq/stride/internal/goal"
)

func newTarget(t *testing.T) (*goal.Graph, *goal.Goal) {
	t.Helper()
	g := goal.NewGraph()
	target := goal.New("Ship the launch", "everything before go-live", "product", goal.KindEvent)
	if err := g.Insert(target, ""); err != nil {
		t.Fatalf("insert target: %v", err)
	}
	return g, target
}

func TestApply_DesignImplementationScenario(t *testing.T) {
	g, target := newTarget(t)

	tree := &Tree{
		Nodes: []Node{
			{
				ExternalID: "design",
				Title:      "Design",
				Children: []Node{
					{ExternalID: "d1", Title: "Wireframes"},
					{ExternalID: "d2", Title: "Visual pass"},
				},
			},
			{
				ExternalID:   "impl",
				Title:        "Implementation",
				Dependencies: []string{"design"},
				Children: []Node{
					{ExternalID: "i1", Title: "Backend"},
					{ExternalID: "i2", Title: "Frontend"},
				},
			},
		},
	}

	res, err := NewBuilder(g).Apply(target.ID, tree)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if res.CreatedGoals != 6 {
		t.Errorf("CreatedGoals = %d, want 6", res.CreatedGoals)
	}
	if res.AtomicTaskCount != 4 {
		t.Errorf("AtomicTaskCount = %d, want 4", res.AtomicTaskCount)
	}
	if res.DependencyCount != 1 {
		t.Errorf("DependencyCount = %d, want 1", res.DependencyCount)
	}
	if len(res.AssignedIdentifiers) != 6 {
		t.Errorf("AssignedIdentifiers has %d entries, want 6", len(res.AssignedIdentifiers))
	}

	seen := make(map[string]bool)
	for ext, id := range res.AssignedIdentifiers {
		if seen[id] {
			t.Errorf("identifier %s assigned twice", id)
		}
		seen[id] = true
		if _, ok := g.Get(id); !ok {
			t.Errorf("assigned id for %q not found in graph", ext)
		}
	}

	// The declared dependency landed as a finish-to-start edge.
	incoming, _, err := g.EdgesOf(res.AssignedIdentifiers["impl"])
	if err != nil {
		t.Fatal(err)
	}
	if len(incoming) != 1 || incoming[0].Kind != goal.FinishToStart {
		t.Errorf("impl incoming edges = %+v, want one finish-to-start", incoming)
	}

	got, _ := g.Get(target.ID)
	if !got.BrokenDown {
		t.Error("target not marked broken down")
	}
}

func TestApply_DuplicateExternalIDRejectedWithoutWrites(t *testing.T) {
	g, target := newTarget(t)
	tree := &Tree{Nodes: []Node{
		{ExternalID: "a", Title: "First"},
		{ExternalID: "b", Title: "Parent", Children: []Node{
			{ExternalID: "a", Title: "Duplicate handle"},
		}},
	}}

	_, err := NewBuilder(g).Apply(target.ID, tree)
	if err == nil || !strings.Contains(err.Error(), "duplicate identifier") {
		t.Fatalf("Apply error = %v, want duplicate identifier rejection", err)
	}
	if g.Len() != 1 {
		t.Errorf("graph has %d goals after rejected breakdown, want 1", g.Len())
	}
	got, _ := g.Get(target.ID)
	if got.BrokenDown {
		t.Error("target marked broken down by a rejected breakdown")
	}
}

func TestApply_UnknownDependencyRejectedWithoutWrites(t *testing.T) {
	g, target := newTarget(t)
	tree := &Tree{Nodes: []Node{
		{ExternalID: "a", Title: "Alpha", Dependencies: []string{"ghost"}},
	}}

	_, err := NewBuilder(g).Apply(target.ID, tree)
	if err == nil || !strings.Contains(err.Error(), "unknown identifier") {
		t.Fatalf("Apply error = %v, want unknown identifier rejection", err)
	}
	if g.Len() != 1 {
		t.Errorf("graph has %d goals after rejected breakdown, want 1", g.Len())
	}
}

func TestApply_SelfDependencyRejectedWithoutWrites(t *testing.T) {
	g, target := newTarget(t)
	tree := &Tree{Nodes: []Node{
		{ExternalID: "a", Title: "Alpha", Dependencies: []string{"a"}},
	}}

	_, err := NewBuilder(g).Apply(target.ID, tree)
	if err == nil || !strings.Contains(err.Error(), "depend on itself") {
		t.Fatalf("Apply error = %v, want self dependency rejection", err)
	}
	if g.Len() != 1 {
		t.Errorf("graph has %d goals after rejected breakdown, want 1", g.Len())
	}
}

func TestApply_RecommendedOrderControlsTopLevelSort(t *testing.T) {
	g, target := newTarget(t)
	tree := &Tree{
		Nodes: []Node{
			{ExternalID: "a", Title: "Alpha"},
			{ExternalID: "b", Title: "Beta"},
			{ExternalID: "c", Title: "Gamma"},
		},
		RecommendedOrder: []string{"c", "a"},
	}

	if _, err := NewBuilder(g).Apply(target.ID, tree); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	children := g.Children(target.ID)
	var titles []string
	for _, c := range children {
		titles = append(titles, c.Title)
	}
	// Listed ids first in recommended order, unlisted keep tree order after.
	want := []string{"Gamma", "Alpha", "Beta"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("top-level order = %v, want %v", titles, want)
		}
	}
}

func TestApply_InheritsCategoryAndCarriesNodeFields(t *testing.T) {
	g, target := newTarget(t)
	tree := &Tree{Nodes: []Node{
		{ExternalID: "a", Title: "Alpha", Description: "the first", EstimateHours: 3.5, Difficulty: "hard"},
	}}

	res, err := NewBuilder(g).Apply(target.ID, tree)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	created, _ := g.Get(res.AssignedIdentifiers["a"])
	if created.Category != "product" {
		t.Errorf("Category = %q, want inherited %q", created.Category, "product")
	}
	if created.Priority != goal.PriorityLater {
		t.Errorf("Priority = %q, want default later", created.Priority)
	}
	if created.Body != "the first" {
		t.Errorf("Body = %q, want description carried", created.Body)
	}
	if created.EstimateHours != 3.5 || created.Difficulty != "hard" {
		t.Errorf("estimate/difficulty = %v/%q, want 3.5/hard", created.EstimateHours, created.Difficulty)
	}
	if created.Status != goal.StatusDraft {
		t.Errorf("Status = %q, want draft", created.Status)
	}
}

func TestApply_CycleClosingEdgeSkippedNotFatal(t *testing.T) {
	g, target := newTarget(t)
	// a waits on b and b waits on a: the second edge closes a cycle and must
	// be dropped while the rest of the breakdown lands.
	tree := &Tree{Nodes: []Node{
		{ExternalID: "a", Title: "Alpha", Dependencies: []string{"b"}},
		{ExternalID: "b", Title: "Beta", Dependencies: []string{"a"}},
	}}

	res, err := NewBuilder(g).Apply(target.ID, tree)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if res.CreatedGoals != 2 {
		t.Errorf("CreatedGoals = %d, want 2", res.CreatedGoals)
	}
	if res.DependencyCount != 1 {
		t.Errorf("DependencyCount = %d, want 1 (cycle edge skipped)", res.DependencyCount)
	}
	if edges := g.AllEdges(); len(edges) != 1 {
		t.Errorf("graph has %d edges, want 1", len(edges))
	}
}

func TestApply_AtomicCountsFlaggedAndChildless(t *testing.T) {
	g, target := newTarget(t)
	// Flagged parent counts even with children; its leaf child counts too.
	tree := &Tree{Nodes: []Node{
		{ExternalID: "p", Title: "Flagged parent", Atomic: true, Children: []Node{
			{ExternalID: "c", Title: "Leaf child"},
		}},
		{ExternalID: "q", Title: "Plain parent", Children: []Node{
			{ExternalID: "d", Title: "Another leaf"},
		}},
	}}

	res, err := NewBuilder(g).Apply(target.ID, tree)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if res.AtomicTaskCount != 3 {
		t.Errorf("AtomicTaskCount = %d, want 3 (flagged parent + two leaves)", res.AtomicTaskCount)
	}
}

func TestApply_MissingTargetRejected(t *testing.T) {
	g := goal.NewGraph()
	tree := &Tree{Nodes: []Node{{ExternalID: "a", Title: "Alpha"}}}

	_, err := NewBuilder(g).Apply("c9bf9e57-1685-4c89-bafb-ff5af830be8a", tree)
	if !errors.Is(err, goal.ErrNotFound) {
		t.Errorf("Apply on missing target error = %v, want ErrNotFound", err)
	}
}

func TestApply_LargeTreeAssignsUniqueIdentifiers(t *testing.T) {
	g, target := newTarget(t)

	var nodes []Node
	declared := 0
	for i := 0; i < 8; i++ {
		n := Node{ExternalID: fmt.Sprintf("n%d", i), Title: fmt.Sprintf("Node %d", i)}
		if i > 0 {
			n.Dependencies = []string{fmt.Sprintf("n%d", i-1)}
			declared++
		}
		for j := 0; j < 3; j++ {
			n.Children = append(n.Children, Node{
				ExternalID: fmt.Sprintf("n%d-%d", i, j),
				Title:      fmt.Sprintf("Node %d.%d", i, j),
			})
		}
		nodes = append(nodes, n)
	}
	tree := &Tree{Nodes: nodes}

	res, err := NewBuilder(g).Apply(target.ID, tree)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	wantNodes := 8 * 4
	if res.CreatedGoals != wantNodes {
		t.Errorf("CreatedGoals = %d, want %d", res.CreatedGoals, wantNodes)
	}
	if len(res.AssignedIdentifiers) != wantNodes {
		t.Errorf("AssignedIdentifiers has %d entries, want %d", len(res.AssignedIdentifiers), wantNodes)
	}
	ids := make(map[string]bool)
	for _, id := range res.AssignedIdentifiers {
		if ids[id] {
			t.Fatalf("identifier %s assigned twice", id)
		}
		ids[id] = true
	}
	if res.DependencyCount > declared {
		t.Errorf("DependencyCount = %d exceeds %d declarations", res.DependencyCount, declared)
	}
	if res.DependencyCount != declared {
		t.Errorf("DependencyCount = %d, want %d (chain has no cycles)", res.DependencyCount, declared)
	}
}
