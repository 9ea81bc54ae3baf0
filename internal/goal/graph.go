package goal

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Graph holds the goal arena and both edge tables: the parent/child ownership
// relation and the typed dependency edges. Goals are addressed by id, never
// by object reference, so the two relations stay independent.
//
// Concurrency model: one logical writer. Every mutating method takes the
// write lock; Batch holds it across a multi-step mutation so readers never
// observe edges referencing not-yet-created goals. Reads return deep copies
// and may run concurrently.
type Graph struct {
	mu sync.RWMutex

	goals map[string]*Goal

	// children maps a parent id (or "" for top-level) to child ids ordered by
	// stored SortIndex.
	children map[string][]string

	edges    map[string]*Edge
	outgoing map[string][]string // prerequisite goal id -> edge ids
	incoming map[string][]string // dependent goal id -> edge ids

	// Incremental-persistence bookkeeping.
	dirty      map[string]struct{}
	removed    map[string]struct{}
	edgesDirty bool
}

// NewGraph returns an empty goal graph.
func NewGraph() *Graph {
	return &Graph{
		goals:    make(map[string]*Goal),
		children: make(map[string][]string),
		edges:    make(map[string]*Edge),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		dirty:    make(map[string]struct{}),
		removed:  make(map[string]struct{}),
	}
}

// Insert adds a goal to the graph. With a parent id, the goal is appended to
// the parent's ordered children with the next sort index. Returns CycleError
// if the parent is a descendant of the goal (only reachable via reparenting,
// still checked).
func (g *Graph) Insert(gl *Goal, parentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insertLocked(gl, parentID)
}

func (g *Graph) insertLocked(gl *Goal, parentID string) error {
	if gl == nil {
		return fmt.Errorf("insert: nil goal")
	}
	if err := gl.Validate(); err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	if _, exists := g.goals[gl.ID]; exists {
		return fmt.Errorf("insert goal %s: %w", gl.ID, ErrDuplicateID)
	}
	if parentID != "" {
		if _, ok := g.goals[parentID]; !ok {
			return fmt.Errorf("insert goal %s: parent %s: %w", gl.ID, parentID, ErrNotFound)
		}
		if parentID == gl.ID || g.isAncestor(gl.ID, parentID) {
			return NewCycleError([]string{gl.ID, parentID, gl.ID})
		}
	}

	stored := gl.Clone()
	stored.ParentID = parentID
	stored.SortIndex = g.nextSortIndexLocked(parentID)

	g.goals[stored.ID] = stored
	g.children[parentID] = append(g.children[parentID], stored.ID)
	g.markDirtyLocked(stored.ID)

	// Reflect assigned fields back to the caller's value.
	gl.ParentID = stored.ParentID
	gl.SortIndex = stored.SortIndex
	return nil
}

func (g *Graph) nextSortIndexLocked(parentID string) int {
	next := 0
	for _, cid := range g.children[parentID] {
		if c, ok := g.goals[cid]; ok && c.SortIndex >= next {
			next = c.SortIndex + 1
		}
	}
	return next
}

func (g *Graph) sortChildrenLocked(parentID string) {
	ids := g.children[parentID]
	sort.SliceStable(ids, func(i, j int) bool {
		a, okA := g.goals[ids[i]]
		b, okB := g.goals[ids[j]]
		if !okA || !okB {
			return okA
		}
		if a.SortIndex != b.SortIndex {
			return a.SortIndex < b.SortIndex
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Reparent moves a goal under a new parent (or to top level with an empty
// id). Fails with CycleError when the new parent sits inside the goal's own
// subtree.
func (g *Graph) Reparent(goalID, newParentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gl, ok := g.goals[goalID]
	if !ok {
		return NotFound(goalID)
	}
	if newParentID != "" {
		if _, ok := g.goals[newParentID]; !ok {
			return fmt.Errorf("reparent goal %s: parent %s: %w", goalID, newParentID, ErrNotFound)
		}
		if newParentID == goalID || g.isAncestor(goalID, newParentID) {
			return NewCycleError([]string{goalID, newParentID, goalID})
		}
	}
	if gl.ParentID == newParentID {
		return nil
	}

	g.children[gl.ParentID] = removeID(g.children[gl.ParentID], goalID)
	gl.ParentID = newParentID
	gl.SortIndex = g.nextSortIndexLocked(newParentID)
	gl.UpdatedAt = time.Now().UTC()
	g.children[newParentID] = append(g.children[newParentID], goalID)
	g.markDirtyLocked(goalID)
	return nil
}

// AddDependency records a typed edge from prerequisite to dependent. Fails
// with SelfDependencyError when both are the same goal, and with CycleError
// when the dependent already reaches the prerequisite through existing edges.
// The edge set is unchanged on any failure.
func (g *Graph) AddDependency(prereqID, depID string, kind DependencyKind, note string) (*Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addDependencyLocked(prereqID, depID, kind, note)
}

func (g *Graph) addDependencyLocked(prereqID, depID string, kind DependencyKind, note string) (*Edge, error) {
	if prereqID == depID {
		return nil, &SelfDependencyError{ID: prereqID}
	}
	if _, ok := g.goals[prereqID]; !ok {
		return nil, fmt.Errorf("add dependency: prerequisite %s: %w", prereqID, ErrNotFound)
	}
	if _, ok := g.goals[depID]; !ok {
		return nil, fmt.Errorf("add dependency: dependent %s: %w", depID, ErrNotFound)
	}
	for _, eid := range g.outgoing[prereqID] {
		if e, ok := g.edges[eid]; ok && e.DependentID == depID && e.Kind == kind {
			return nil, fmt.Errorf("add dependency %s -> %s (%s): %w", prereqID, depID, kind, ErrDuplicateDependency)
		}
	}
	if path := g.dependencyPath(depID, prereqID); path != nil {
		return nil, NewCycleError(append(path, depID))
	}

	e := &Edge{
		ID:             uuid.NewString(),
		PrerequisiteID: prereqID,
		DependentID:    depID,
		Kind:           kind,
		Note:           note,
		CreatedAt:      time.Now().UTC(),
	}
	g.edges[e.ID] = e
	g.outgoing[prereqID] = append(g.outgoing[prereqID], e.ID)
	g.incoming[depID] = append(g.incoming[depID], e.ID)
	g.edgesDirty = true

	c := *e
	return &c, nil
}

// Delete removes a goal and cascades over its whole subtree in pre-order,
// dropping every dependency edge that touches a deleted goal. Idempotent:
// deleting an unknown id removes nothing and returns an empty list.
func (g *Graph) Delete(goalID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deleteLocked(goalID)
}

func (g *Graph) deleteLocked(goalID string) []string {
	root, ok := g.goals[goalID]
	if !ok {
		return nil
	}

	doomed := g.subtreeIDsLocked(goalID, true)

	// Detach the subtree root from its parent's ordered children.
	g.children[root.ParentID] = removeID(g.children[root.ParentID], goalID)

	for _, id := range doomed {
		for _, eid := range append(append([]string(nil), g.incoming[id]...), g.outgoing[id]...) {
			g.removeEdgeLocked(eid)
		}
		delete(g.goals, id)
		delete(g.children, id)
		delete(g.dirty, id)
		g.removed[id] = struct{}{}
	}
	return doomed
}

func (g *Graph) removeEdgeLocked(edgeID string) {
	e, ok := g.edges[edgeID]
	if !ok {
		return
	}
	g.outgoing[e.PrerequisiteID] = removeID(g.outgoing[e.PrerequisiteID], edgeID)
	g.incoming[e.DependentID] = removeID(g.incoming[e.DependentID], edgeID)
	delete(g.edges, edgeID)
	g.edgesDirty = true
}

// subtreeIDsLocked walks the subtree in pre-order with a visited guard, so it
// terminates with partial results even if the hierarchy was somehow corrupted
// into a cycle.
func (g *Graph) subtreeIDsLocked(rootID string, includeSelf bool) []string {
	visited := make(map[string]bool)
	var out []string
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		out = append(out, id)
		for _, cid := range g.children[id] {
			walk(cid)
		}
	}
	walk(rootID)
	if !includeSelf && len(out) > 0 {
		out = out[1:]
	}
	return out
}

// Update applies fn to a working copy of the goal and commits it atomically.
// Structural rules are enforced on commit: a goal locked on entry keeps its
// title, body, and progress (LockedError otherwise), revision history may
// only grow, and parent/id changes are rejected (use Reparent).
func (g *Graph) Update(goalID string, fn func(*Goal) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updateLocked(goalID, fn)
}

func (g *Graph) updateLocked(goalID string, fn func(*Goal) error) error {
	live, ok := g.goals[goalID]
	if !ok {
		return NotFound(goalID)
	}

	lockedBefore := live.Locked
	titleBefore, bodyBefore := live.Title, live.Body
	progressBefore := live.Progress
	revCountBefore := len(live.Revisions)
	sortBefore := live.SortIndex

	work := live.Clone()
	if err := fn(work); err != nil {
		return err
	}

	if work.ID != live.ID {
		return fmt.Errorf("update goal %s: id is immutable", goalID)
	}
	if work.ParentID != live.ParentID {
		return fmt.Errorf("update goal %s: parent cannot change here, use Reparent", goalID)
	}
	if lockedBefore && (work.Title != titleBefore || work.Body != bodyBefore) {
		return &LockedError{ID: goalID, Op: "content edit"}
	}
	if lockedBefore && work.Progress != progressBefore {
		return &LockedError{ID: goalID, Op: "progress change"}
	}
	if len(work.Revisions) < revCountBefore {
		return fmt.Errorf("update goal %s: revision history cannot shrink", goalID)
	}
	work.UpdatedAt = time.Now().UTC()
	if err := work.Validate(); err != nil {
		return fmt.Errorf("update goal %s: %w", goalID, err)
	}

	g.goals[goalID] = work
	if work.SortIndex != sortBefore {
		g.sortChildrenLocked(work.ParentID)
	}
	g.markDirtyLocked(goalID)
	return nil
}

// Batch runs fn while holding the write lock, giving multi-step mutations
// (breakdown materialization, step advancement) a single atomic window.
func (g *Graph) Batch(fn func(*Batch) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(&Batch{g: g})
}

// Batch exposes the mutating operations inside a Graph.Batch window. Not
// valid outside the callback.
type Batch struct {
	g *Graph
}

// Insert behaves like Graph.Insert under the already-held lock.
func (b *Batch) Insert(gl *Goal, parentID string) error {
	return b.g.insertLocked(gl, parentID)
}

// AddDependency behaves like Graph.AddDependency under the already-held lock.
func (b *Batch) AddDependency(prereqID, depID string, kind DependencyKind, note string) (*Edge, error) {
	return b.g.addDependencyLocked(prereqID, depID, kind, note)
}

// Update behaves like Graph.Update under the already-held lock.
func (b *Batch) Update(goalID string, fn func(*Goal) error) error {
	return b.g.updateLocked(goalID, fn)
}

// Delete behaves like Graph.Delete under the already-held lock.
func (b *Batch) Delete(goalID string) []string {
	return b.g.deleteLocked(goalID)
}

// Get returns a copy of a goal inside the batch window.
func (b *Batch) Get(goalID string) (*Goal, bool) {
	gl, ok := b.g.goals[goalID]
	if !ok {
		return nil, false
	}
	return gl.Clone(), true
}

// Children returns copies of the ordered children inside the batch window.
func (b *Batch) Children(goalID string) []*Goal {
	return b.g.childrenLocked(goalID)
}

// Get returns a deep copy of the goal, so callers can never mutate
// graph-owned state.
func (g *Graph) Get(goalID string) (*Goal, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	gl, ok := g.goals[goalID]
	if !ok {
		return nil, false
	}
	return gl.Clone(), true
}

// Len returns the number of goals in the graph.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.goals)
}

// TopLevel returns copies of the goals with no parent, in sort order.
func (g *Graph) TopLevel() []*Goal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.childrenLocked("")
}

// Children returns copies of the goal's direct children in sort order.
func (g *Graph) Children(goalID string) []*Goal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.childrenLocked(goalID)
}

func (g *Graph) childrenLocked(goalID string) []*Goal {
	ids := g.children[goalID]
	out := make([]*Goal, 0, len(ids))
	for _, id := range ids {
		if gl, ok := g.goals[id]; ok {
			out = append(out, gl.Clone())
		}
	}
	return out
}

// Descendants returns the subtree below the goal in pre-order. The traversal
// carries a visited set and returns partial results rather than looping on
// corrupted state.
func (g *Graph) Descendants(goalID string, includeSelf bool) ([]*Goal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.goals[goalID]; !ok {
		return nil, NotFound(goalID)
	}
	ids := g.subtreeIDsLocked(goalID, includeSelf)
	out := make([]*Goal, 0, len(ids))
	for _, id := range ids {
		if gl, ok := g.goals[id]; ok {
			out = append(out, gl.Clone())
		}
	}
	return out, nil
}

// Leaves returns the childless goals of the subtree. A childless root is its
// own single leaf.
func (g *Graph) Leaves(goalID string) ([]*Goal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.goals[goalID]; !ok {
		return nil, NotFound(goalID)
	}
	return g.leavesLocked(goalID), nil
}

func (g *Graph) leavesLocked(goalID string) []*Goal {
	var out []*Goal
	for _, id := range g.subtreeIDsLocked(goalID, true) {
		if len(g.children[id]) == 0 {
			if gl, ok := g.goals[id]; ok {
				out = append(out, gl.Clone())
			}
		}
	}
	return out
}

// Revisions returns a copy of the goal's append-only audit trail.
func (g *Graph) Revisions(goalID string) ([]Revision, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	gl, ok := g.goals[goalID]
	if !ok {
		return nil, NotFound(goalID)
	}
	return cloneRevisions(gl.Revisions), nil
}

// EdgesOf returns copies of the dependency edges touching the goal: incoming
// (the goal is the dependent) and outgoing (the goal is the prerequisite).
func (g *Graph) EdgesOf(goalID string) (incoming, outgoing []*Edge, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.goals[goalID]; !ok {
		return nil, nil, NotFound(goalID)
	}
	for _, eid := range g.incoming[goalID] {
		if e, ok := g.edges[eid]; ok {
			c := *e
			incoming = append(incoming, &c)
		}
	}
	for _, eid := range g.outgoing[goalID] {
		if e, ok := g.edges[eid]; ok {
			c := *e
			outgoing = append(outgoing, &c)
		}
	}
	return incoming, outgoing, nil
}

// AllGoals returns copies of every goal, ordered by creation time then id.
func (g *Graph) AllGoals() []*Goal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Goal, 0, len(g.goals))
	for _, gl := range g.goals {
		out = append(out, gl.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AllEdges returns copies of every dependency edge, ordered by creation time
// then id.
func (g *Graph) AllEdges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ChangeSet describes the mutations since the last Flush, for incremental
// persistence.
type ChangeSet struct {
	Goals        []*Goal  // Changed or inserted goals
	RemovedIDs   []string // Goals deleted since the last flush
	Edges        []*Edge  // Full edge set, populated when EdgesChanged
	EdgesChanged bool
	At           time.Time
}

// Empty reports whether the change set carries no work.
func (c *ChangeSet) Empty() bool {
	return len(c.Goals) == 0 && len(c.RemovedIDs) == 0 && !c.EdgesChanged
}

// Flush returns the accumulated changes and resets the dirty bookkeeping.
// Callers hand the change set to the persistence layer.
func (g *Graph) Flush() *ChangeSet {
	g.mu.Lock()
	defer g.mu.Unlock()

	cs := &ChangeSet{At: time.Now().UTC(), EdgesChanged: g.edgesDirty}
	for id := range g.dirty {
		if gl, ok := g.goals[id]; ok {
			cs.Goals = append(cs.Goals, gl.Clone())
		}
	}
	sort.Slice(cs.Goals, func(i, j int) bool { return cs.Goals[i].ID < cs.Goals[j].ID })
	for id := range g.removed {
		cs.RemovedIDs = append(cs.RemovedIDs, id)
	}
	sort.Strings(cs.RemovedIDs)
	if g.edgesDirty {
		for _, e := range g.edges {
			c := *e
			cs.Edges = append(cs.Edges, &c)
		}
		sort.Slice(cs.Edges, func(i, j int) bool { return cs.Edges[i].ID < cs.Edges[j].ID })
	}

	g.dirty = make(map[string]struct{})
	g.removed = make(map[string]struct{})
	g.edgesDirty = false
	return cs
}

// Load rehydrates the graph from persisted goals and edges, replacing any
// current state. Referential problems are rejected rather than repaired.
func (g *Graph) Load(goals []*Goal, edges []*Edge) error {
	g.mu.Lock()

	g.goals = make(map[string]*Goal, len(goals))
	g.children = make(map[string][]string)
	g.edges = make(map[string]*Edge, len(edges))
	g.outgoing = make(map[string][]string)
	g.incoming = make(map[string][]string)
	g.dirty = make(map[string]struct{})
	g.removed = make(map[string]struct{})
	g.edgesDirty = false

	for _, gl := range goals {
		if gl == nil {
			continue
		}
		if _, exists := g.goals[gl.ID]; exists {
			g.mu.Unlock()
			return fmt.Errorf("load: goal %s: %w", gl.ID, ErrDuplicateID)
		}
		g.goals[gl.ID] = gl.Clone()
	}
	for id, gl := range g.goals {
		if gl.ParentID != "" {
			if _, ok := g.goals[gl.ParentID]; !ok {
				g.mu.Unlock()
				return fmt.Errorf("load: goal %s references missing parent %s", id, gl.ParentID)
			}
		}
		g.children[gl.ParentID] = append(g.children[gl.ParentID], id)
	}
	for pid := range g.children {
		g.sortChildrenLocked(pid)
	}
	for id := range g.goals {
		visited := make(map[string]bool)
		cur := id
		for cur != "" {
			if visited[cur] {
				g.mu.Unlock()
				return fmt.Errorf("load: parent cycle through goal %s", cur)
			}
			visited[cur] = true
			gl, ok := g.goals[cur]
			if !ok {
				break
			}
			cur = gl.ParentID
		}
	}
	for _, e := range edges {
		if e == nil {
			continue
		}
		if _, ok := g.goals[e.PrerequisiteID]; !ok {
			g.mu.Unlock()
			return fmt.Errorf("load: edge %s references missing prerequisite %s", e.ID, e.PrerequisiteID)
		}
		if _, ok := g.goals[e.DependentID]; !ok {
			g.mu.Unlock()
			return fmt.Errorf("load: edge %s references missing dependent %s", e.ID, e.DependentID)
		}
		c := *e
		g.edges[c.ID] = &c
		g.outgoing[c.PrerequisiteID] = append(g.outgoing[c.PrerequisiteID], c.ID)
		g.incoming[c.DependentID] = append(g.incoming[c.DependentID], c.ID)
	}
	g.mu.Unlock()

	if err := g.VerifyDAG(); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

func (g *Graph) markDirtyLocked(ids ...string) {
	for _, id := range ids {
		g.dirty[id] = struct{}{}
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
