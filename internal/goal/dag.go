package goal

import "sort"

// Dependency-graph walks. All methods here expect the graph lock to be held
// by the caller.

// successors returns the goal ids directly unlocked by id, i.e. the
// dependents of every edge where id is the prerequisite. Sorted for
// deterministic traversal order.
func (g *Graph) successors(id string) []string {
	edgeIDs := g.outgoing[id]
	if len(edgeIDs) == 0 {
		return nil
	}
	out := make([]string, 0, len(edgeIDs))
	for _, eid := range edgeIDs {
		if e, ok := g.edges[eid]; ok {
			out = append(out, e.DependentID)
		}
	}
	sort.Strings(out)
	return out
}

// dependencyPath returns the ids along a path from -> ... -> to following
// prerequisite->dependent edges, or nil when to is unreachable. A visited set
// bounds the walk so it terminates even on corrupted state.
func (g *Graph) dependencyPath(from, to string) []string {
	visited := make(map[string]bool)
	var walk func(id string, path []string) []string
	walk = func(id string, path []string) []string {
		if visited[id] {
			return nil
		}
		visited[id] = true
		path = append(path, id)
		if id == to {
			return path
		}
		for _, next := range g.successors(id) {
			if found := walk(next, path); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(from, nil)
}

// isAncestor reports whether ancestorID appears on the parent chain above
// nodeID. The visited set guards against a corrupted parent cycle.
func (g *Graph) isAncestor(ancestorID, nodeID string) bool {
	visited := make(map[string]bool)
	cur := nodeID
	for cur != "" && !visited[cur] {
		visited[cur] = true
		gl, ok := g.goals[cur]
		if !ok {
			return false
		}
		if gl.ParentID == ancestorID {
			return true
		}
		cur = gl.ParentID
	}
	return false
}

// ExecutionOrder returns the direct subgoals of parentID ("" for top level)
// ordered so every prerequisite comes before its dependents, considering only
// dependency edges between the siblings themselves. Ties keep sort-index
// order. Siblings stuck in a cycle (not reachable through the public API) are
// appended in sort order rather than dropped.
func (g *Graph) ExecutionOrder(parentID string) ([]*Goal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if parentID != "" {
		if _, ok := g.goals[parentID]; !ok {
			return nil, NotFound(parentID)
		}
	}

	ids := g.children[parentID]
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}

	indegree := make(map[string]int, len(ids))
	for _, id := range ids {
		for _, eid := range g.incoming[id] {
			e, ok := g.edges[eid]
			if !ok {
				continue
			}
			if _, sibling := position[e.PrerequisiteID]; sibling {
				indegree[id]++
			}
		}
	}

	ready := make([]string, 0, len(ids))
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	var orderedIDs []string
	placed := make(map[string]bool, len(ids))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
		id := ready[0]
		ready = ready[1:]
		orderedIDs = append(orderedIDs, id)
		placed[id] = true
		for _, eid := range g.outgoing[id] {
			e, ok := g.edges[eid]
			if !ok {
				continue
			}
			if _, sibling := position[e.DependentID]; !sibling {
				continue
			}
			indegree[e.DependentID]--
			if indegree[e.DependentID] == 0 {
				ready = append(ready, e.DependentID)
			}
		}
	}
	for _, id := range ids {
		if !placed[id] {
			orderedIDs = append(orderedIDs, id)
		}
	}

	out := make([]*Goal, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		if gl, ok := g.goals[id]; ok {
			out = append(out, gl.Clone())
		}
	}
	return out, nil
}

// VerifyDAG checks that the dependency edges form a DAG, returning a
// CycleError naming the first cycle found. Used after bulk load to refuse
// rehydrating corrupted state.
func (g *Graph) VerifyDAG() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var checkCycle func(id string, path []string) *CycleError
	checkCycle = func(id string, path []string) *CycleError {
		visited[id] = true
		recursionStack[id] = true
		path = append(path, id)

		for _, next := range g.successors(id) {
			if recursionStack[next] {
				return NewCycleError(append(path, next))
			}
			if !visited[next] {
				if err := checkCycle(next, path); err != nil {
					return err
				}
			}
		}

		recursionStack[id] = false
		return nil
	}

	ids := make([]string, 0, len(g.goals))
	for id := range g.goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !visited[id] {
			if err := checkCycle(id, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
