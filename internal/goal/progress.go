package goal

// Progress computes the goal's effective completion fraction on demand:
//
//   - no subgoals: the stored scalar
//   - subgoals, free dependency graph: arithmetic mean over every leaf
//     descendant, each leaf weighted equally regardless of depth
//   - sequential roadmap: completed steps / total steps
//
// Nothing is cached, so a read after any leaf mutation reflects the new value
// without an explicit recompute.
func (g *Graph) Progress(goalID string) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	gl, ok := g.goals[goalID]
	if !ok {
		return 0, NotFound(goalID)
	}
	return g.progressLocked(gl), nil
}

func (g *Graph) progressLocked(gl *Goal) float64 {
	if gl.SequentialSteps {
		stepIDs := g.children[gl.ID]
		if len(stepIDs) == 0 {
			return clamp01(gl.Progress)
		}
		completed := 0
		for _, sid := range stepIDs {
			if s, ok := g.goals[sid]; ok && s.StepStatus == StepCompleted {
				completed++
			}
		}
		return float64(completed) / float64(len(stepIDs))
	}

	if len(g.children[gl.ID]) == 0 {
		return clamp01(gl.Progress)
	}

	// Leaf average. Non-leaf descendants contribute nothing of their own; a
	// leaf nested three levels down weighs the same as a direct child.
	var sum float64
	count := 0
	for _, id := range g.subtreeIDsLocked(gl.ID, false) {
		if len(g.children[id]) != 0 {
			continue
		}
		leaf, ok := g.goals[id]
		if !ok {
			continue
		}
		sum += clamp01(leaf.Progress)
		count++
	}
	if count == 0 {
		return clamp01(gl.Progress)
	}
	return sum / float64(count)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
