package app

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/stridehq/stride/internal/goal"
)

// minPrefixLen is the shortest id prefix accepted as a reference. Anything
// shorter matches too many UUIDs to be meaningful.
const minPrefixLen = 4

// Resolve maps a user-supplied reference to a goal. Tried in order: exact id,
// unique id prefix, exact title under Unicode case folding, then unique title
// substring. An ambiguous reference is an error naming the match count.
func (c *Context) Resolve(ref string) (*goal.Goal, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty goal reference")
	}

	if gl, ok := c.Graph.Get(ref); ok {
		return gl, nil
	}

	all := c.Graph.AllGoals()
	lowered := strings.ToLower(ref)

	if len(ref) >= minPrefixLen {
		var matches []*goal.Goal
		for _, gl := range all {
			if strings.HasPrefix(strings.ToLower(gl.ID), lowered) {
				matches = append(matches, gl)
			}
		}
		if len(matches) == 1 {
			return matches[0], nil
		}
		if len(matches) > 1 {
			return nil, fmt.Errorf("reference %q matches %d goal ids; use more characters", ref, len(matches))
		}
	}

	folded := foldRef(ref)
	var exact, partial []*goal.Goal
	for _, gl := range all {
		title := foldRef(gl.Title)
		if title == folded {
			exact = append(exact, gl)
		} else if strings.Contains(title, folded) {
			partial = append(partial, gl)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	if len(exact) > 1 {
		return nil, fmt.Errorf("reference %q matches %d goal titles; use the id", ref, len(exact))
	}
	if len(partial) == 1 {
		return partial[0], nil
	}
	if len(partial) > 1 {
		return nil, fmt.Errorf("reference %q matches %d goal titles; use the id", ref, len(partial))
	}

	return nil, fmt.Errorf("reference %q: %w", ref, goal.ErrNotFound)
}

// foldRef normalizes text for reference comparison. Casers are stateful, so
// each call gets its own.
func foldRef(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
