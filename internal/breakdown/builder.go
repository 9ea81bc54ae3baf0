// Package breakdown materializes an externally proposed decomposition tree
// into goals and dependency edges on the graph. Validation happens before any
// write; creation and edge resolution run in one batch window so readers see
// all-or-nothing state.
package breakdown

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/stridehq/stride/internal/goal"
)

// Node is one proposed goal in a decomposition tree. ExternalID is the
// proposal-local handle used by Dependencies; it never leaks into the graph.
type Node struct {
	ExternalID    string   `json:"externalId" validate:"required,min=1"`
	Title         string   `json:"title" validate:"required,min=1,max=255"`
	Description   string   `json:"description,omitempty"`
	EstimateHours float64  `json:"estimateHours,omitempty" validate:"gte=0"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"` // ExternalIDs that must finish first
	Children      []Node   `json:"children,omitempty" validate:"omitempty,dive"`
	Atomic        bool     `json:"atomic,omitempty"`
}

// Tree is a complete decomposition proposal for one target goal.
type Tree struct {
	Nodes []Node `json:"nodes" validate:"required,min=1,dive"`

	// RecommendedOrder lists top-level ExternalIDs in suggested execution
	// order. Nodes it omits keep their tree order after the listed ones.
	RecommendedOrder   []string `json:"recommendedOrder,omitempty"`
	TotalEstimateHours float64  `json:"totalEstimateHours,omitempty" validate:"gte=0"`
}

// Count returns the total number of nodes across all levels.
func (t *Tree) Count() int {
	var walk func(nodes []Node) int
	walk = func(nodes []Node) int {
		n := len(nodes)
		for _, node := range nodes {
			n += walk(node.Children)
		}
		return n
	}
	return walk(t.Nodes)
}

// Result reports what a breakdown actually materialized.
type Result struct {
	CreatedGoals    int `json:"createdGoals"`
	AtomicTaskCount int `json:"atomicTaskCount"`
	DependencyCount int `json:"dependencyCount"`

	// AssignedIdentifiers maps every ExternalID to the goal id it became.
	AssignedIdentifiers map[string]string `json:"assignedIdentifiers"`
}

// Builder turns decomposition trees into subtrees of an existing goal.
type Builder struct {
	graph *goal.Graph
}

// NewBuilder returns a builder writing into the given graph.
func NewBuilder(g *goal.Graph) *Builder {
	return &Builder{graph: g}
}

// Apply materializes the tree under the target goal. The whole tree is
// validated first and rejected without writes on duplicate ExternalIDs or
// dependencies naming unknown ExternalIDs. Nodes are created in pre-order,
// then dependencies are resolved as finish-to-start edges; an edge that would
// close a cycle is skipped and logged rather than failing the breakdown.
func (b *Builder) Apply(targetID string, tree *Tree) (*Result, error) {
	if tree == nil || len(tree.Nodes) == 0 {
		return nil, fmt.Errorf("apply breakdown: empty tree")
	}
	if err := goal.ValidateStruct(tree); err != nil {
		return nil, fmt.Errorf("apply breakdown: %w", err)
	}
	if err := validateTree(tree); err != nil {
		return nil, fmt.Errorf("apply breakdown: %w", err)
	}

	res := &Result{AssignedIdentifiers: make(map[string]string)}

	err := b.graph.Batch(func(batch *goal.Batch) error {
		target, ok := batch.Get(targetID)
		if !ok {
			return goal.NotFound(targetID)
		}

		// Pass 1: create every node pre-order. Top-level order follows
		// RecommendedOrder, nested children keep tree order; Insert hands out
		// sort indices in insertion order.
		var create func(nodes []Node, parentID string) error
		create = func(nodes []Node, parentID string) error {
			for _, n := range nodes {
				gl := goal.New(n.Title, n.Description, target.Category, target.Kind)
				gl.Priority = goal.PriorityLater
				gl.EstimateHours = n.EstimateHours
				gl.Difficulty = n.Difficulty
				if err := batch.Insert(gl, parentID); err != nil {
					return fmt.Errorf("create %q: %w", n.ExternalID, err)
				}
				res.AssignedIdentifiers[n.ExternalID] = gl.ID
				res.CreatedGoals++
				if n.Atomic || len(n.Children) == 0 {
					res.AtomicTaskCount++
				}
				if err := create(n.Children, gl.ID); err != nil {
					return err
				}
			}
			return nil
		}
		if err := create(OrderedTopLevel(tree), targetID); err != nil {
			return err
		}

		// Pass 2: every node exists now, resolve declared dependencies as
		// finish-to-start edges. DAG violations are skipped, not fatal.
		var link func(nodes []Node) error
		link = func(nodes []Node) error {
			for _, n := range nodes {
				depID := res.AssignedIdentifiers[n.ExternalID]
				for _, prereqExt := range n.Dependencies {
					prereqID := res.AssignedIdentifiers[prereqExt]
					if _, err := batch.AddDependency(prereqID, depID, goal.FinishToStart, ""); err != nil {
						var cycleErr *goal.CycleError
						switch {
						case errors.As(err, &cycleErr):
							slog.Warn("skipping dependency that would close a cycle",
								"prerequisite", prereqExt, "dependent", n.ExternalID)
							continue
						case errors.Is(err, goal.ErrDuplicateDependency):
							slog.Debug("skipping dependency declared twice",
								"prerequisite", prereqExt, "dependent", n.ExternalID)
							continue
						default:
							return fmt.Errorf("link %q -> %q: %w", prereqExt, n.ExternalID, err)
						}
					}
					res.DependencyCount++
				}
				if err := link(n.Children); err != nil {
					return err
				}
			}
			return nil
		}
		if err := link(tree.Nodes); err != nil {
			return err
		}

		return batch.Update(targetID, func(g *goal.Goal) error {
			g.BrokenDown = true
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("breakdown materialized",
		"target", targetID,
		"created", res.CreatedGoals,
		"atomic", res.AtomicTaskCount,
		"dependencies", res.DependencyCount)
	return res, nil
}

// validateTree rejects duplicate ExternalIDs anywhere in the tree and
// dependencies that reference ExternalIDs absent from it.
func validateTree(tree *Tree) error {
	seen := make(map[string]bool)
	var collect func(nodes []Node) error
	collect = func(nodes []Node) error {
		for _, n := range nodes {
			if seen[n.ExternalID] {
				return fmt.Errorf("duplicate identifier %q", n.ExternalID)
			}
			seen[n.ExternalID] = true
			if err := collect(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(tree.Nodes); err != nil {
		return err
	}

	var check func(nodes []Node) error
	check = func(nodes []Node) error {
		for _, n := range nodes {
			for _, dep := range n.Dependencies {
				if !seen[dep] {
					return fmt.Errorf("node %q depends on unknown identifier %q", n.ExternalID, dep)
				}
				if dep == n.ExternalID {
					return fmt.Errorf("node %q cannot depend on itself", n.ExternalID)
				}
			}
			if err := check(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return check(tree.Nodes)
}

// OrderedTopLevel returns the top-level nodes sorted by their position in
// RecommendedOrder. Unlisted nodes sort after listed ones, keeping tree order
// among themselves. Apply creates goals in this order; views preview it.
func OrderedTopLevel(tree *Tree) []Node {
	if len(tree.RecommendedOrder) == 0 {
		return tree.Nodes
	}
	rank := make(map[string]int, len(tree.RecommendedOrder))
	for i, ext := range tree.RecommendedOrder {
		if _, ok := rank[ext]; !ok {
			rank[ext] = i
		}
	}
	ordered := append([]Node(nil), tree.Nodes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, okI := rank[ordered[i].ExternalID]
		rj, okJ := rank[ordered[j].ExternalID]
		if okI && okJ {
			return ri < rj
		}
		return okI && !okJ
	})
	return ordered
}
