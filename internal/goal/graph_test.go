package goal

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func mustInsert(t *testing.T, g *Graph, title, parentID string) *Goal {
	t.Helper()
	gl := New(title, "body of "+title, "testing", KindEvent)
	if err := g.Insert(gl, parentID); err != nil {
		t.Fatalf("Insert(%q) error: %v", title, err)
	}
	return gl
}

func TestInsert_AssignsSequentialSortIndexes(t *testing.T) {
	g := NewGraph()
	parent := mustInsert(t, g, "Parent", "")

	a := mustInsert(t, g, "A", parent.ID)
	b := mustInsert(t, g, "B", parent.ID)
	c := mustInsert(t, g, "C", parent.ID)

	if a.SortIndex != 0 || b.SortIndex != 1 || c.SortIndex != 2 {
		t.Errorf("sort indexes = %d,%d,%d; want 0,1,2", a.SortIndex, b.SortIndex, c.SortIndex)
	}

	children := g.Children(parent.ID)
	if len(children) != 3 {
		t.Fatalf("Children() returned %d goals, want 3", len(children))
	}
	for i, want := range []string{"A", "B", "C"} {
		if children[i].Title != want {
			t.Errorf("children[%d].Title = %q, want %q", i, children[i].Title, want)
		}
	}
}

func TestInsert_DuplicateIDRejected(t *testing.T) {
	g := NewGraph()
	gl := mustInsert(t, g, "Original", "")

	dup := New("Impostor", "", "", KindEvent)
	dup.ID = gl.ID
	err := g.Insert(dup, "")
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Insert duplicate id error = %v, want ErrDuplicateID", err)
	}
	if g.Len() != 1 {
		t.Errorf("graph has %d goals after rejected insert, want 1", g.Len())
	}
}

func TestInsert_MissingParentRejected(t *testing.T) {
	g := NewGraph()
	gl := New("Orphan", "", "", KindEvent)
	err := g.Insert(gl, "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Insert with missing parent error = %v, want ErrNotFound", err)
	}
}

func TestReparent_IntoOwnSubtreeRejected(t *testing.T) {
	g := NewGraph()
	root := mustInsert(t, g, "Root", "")
	mid := mustInsert(t, g, "Mid", root.ID)
	leaf := mustInsert(t, g, "Leaf", mid.ID)

	err := g.Reparent(root.ID, leaf.ID)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Reparent into own subtree error = %v, want CycleError", err)
	}

	// The hierarchy must be unchanged.
	got, _ := g.Get(root.ID)
	if got.ParentID != "" {
		t.Errorf("root.ParentID = %q after rejected reparent, want empty", got.ParentID)
	}
}

func TestReparent_MovesAndReindexes(t *testing.T) {
	g := NewGraph()
	a := mustInsert(t, g, "A", "")
	b := mustInsert(t, g, "B", "")
	child := mustInsert(t, g, "Child", a.ID)

	if err := g.Reparent(child.ID, b.ID); err != nil {
		t.Fatalf("Reparent() error: %v", err)
	}
	if got := g.Children(a.ID); len(got) != 0 {
		t.Errorf("old parent still has %d children", len(got))
	}
	got := g.Children(b.ID)
	if len(got) != 1 || got[0].ID != child.ID {
		t.Fatalf("new parent children = %v, want the moved child", got)
	}
	if got[0].SortIndex != 0 {
		t.Errorf("moved child SortIndex = %d, want 0", got[0].SortIndex)
	}
}

func TestAddDependency_SelfRejected(t *testing.T) {
	g := NewGraph()
	a := mustInsert(t, g, "A", "")

	_, err := g.AddDependency(a.ID, a.ID, FinishToStart, "")
	var selfErr *SelfDependencyError
	if !errors.As(err, &selfErr) {
		t.Errorf("self dependency error = %v, want SelfDependencyError", err)
	}
}

func TestAddDependency_CycleRejectedEdgeSetUnchanged(t *testing.T) {
	g := NewGraph()
	a := mustInsert(t, g, "A", "")
	b := mustInsert(t, g, "B", "")
	c := mustInsert(t, g, "C", "")

	// A -> B -> C, then closing C -> A must fail.
	if _, err := g.AddDependency(a.ID, b.ID, FinishToStart, ""); err != nil {
		t.Fatalf("AddDependency(A,B) error: %v", err)
	}
	if _, err := g.AddDependency(b.ID, c.ID, FinishToStart, ""); err != nil {
		t.Fatalf("AddDependency(B,C) error: %v", err)
	}

	before := len(g.AllEdges())
	_, err := g.AddDependency(c.ID, a.ID, FinishToStart, "")
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("closing edge error = %v, want CycleError", err)
	}
	if len(cycleErr.Path) < 3 {
		t.Errorf("CycleError path %v too short to describe the cycle", cycleErr.Path)
	}
	if after := len(g.AllEdges()); after != before {
		t.Errorf("edge count changed on rejected insert: %d -> %d", before, after)
	}
}

func TestAddDependency_DuplicateRejected(t *testing.T) {
	g := NewGraph()
	a := mustInsert(t, g, "A", "")
	b := mustInsert(t, g, "B", "")

	if _, err := g.AddDependency(a.ID, b.ID, FinishToStart, ""); err != nil {
		t.Fatalf("first AddDependency error: %v", err)
	}
	_, err := g.AddDependency(a.ID, b.ID, FinishToStart, "again")
	if !errors.Is(err, ErrDuplicateDependency) {
		t.Errorf("duplicate edge error = %v, want ErrDuplicateDependency", err)
	}

	// A different kind between the same pair is a distinct relation.
	if _, err := g.AddDependency(a.ID, b.ID, StartToStart, ""); err != nil {
		t.Errorf("same pair different kind error = %v, want nil", err)
	}
}

func TestDelete_CascadesSubtreeAndEdges(t *testing.T) {
	g := NewGraph()
	root := mustInsert(t, g, "Root", "")
	mid := mustInsert(t, g, "Mid", root.ID)
	leaf := mustInsert(t, g, "Leaf", mid.ID)
	outside := mustInsert(t, g, "Outside", "")

	// Edge crossing into the doomed subtree must disappear with it.
	if _, err := g.AddDependency(outside.ID, leaf.ID, FinishToStart, ""); err != nil {
		t.Fatalf("AddDependency error: %v", err)
	}

	deleted := g.Delete(mid.ID)
	if len(deleted) != 2 {
		t.Fatalf("Delete removed %d goals, want 2 (mid + leaf)", len(deleted))
	}
	if deleted[0] != mid.ID {
		t.Errorf("cascade order starts with %s, want pre-order root %s", deleted[0], mid.ID)
	}
	if _, ok := g.Get(leaf.ID); ok {
		t.Error("leaf still present after cascade delete")
	}
	if edges := g.AllEdges(); len(edges) != 0 {
		t.Errorf("%d dangling edges remain after delete", len(edges))
	}
	_, outgoing, err := g.EdgesOf(outside.ID)
	if err != nil {
		t.Fatalf("EdgesOf error: %v", err)
	}
	if len(outgoing) != 0 {
		t.Errorf("survivor still lists %d outgoing edges", len(outgoing))
	}

	// Idempotent: deleting again is a no-op.
	if again := g.Delete(mid.ID); len(again) != 0 {
		t.Errorf("second delete removed %d goals, want 0", len(again))
	}
}

func TestUpdate_LockedContentImmutable(t *testing.T) {
	g := NewGraph()
	gl := mustInsert(t, g, "Locked goal", "")

	if err := g.Update(gl.ID, func(w *Goal) error {
		w.Locked = true
		w.LockSnapshot = w.ContentSnapshot("locked by user")
		return nil
	}); err != nil {
		t.Fatalf("lock update error: %v", err)
	}

	err := g.Update(gl.ID, func(w *Goal) error {
		w.Title = "Rewritten"
		return nil
	})
	var lockErr *LockedError
	if !errors.As(err, &lockErr) {
		t.Fatalf("title edit on locked goal error = %v, want LockedError", err)
	}
	got, _ := g.Get(gl.ID)
	if got.Title != "Locked goal" {
		t.Errorf("title mutated to %q despite lock", got.Title)
	}

	// Progress is frozen too.
	err = g.Update(gl.ID, func(w *Goal) error {
		w.Progress = 0.9
		return nil
	})
	if !errors.As(err, &lockErr) {
		t.Errorf("progress edit on locked goal error = %v, want LockedError", err)
	}

	// Audit fields still append while locked.
	if err := g.Update(gl.ID, func(w *Goal) error {
		w.AppendRevision("Note", "still auditable", nil, nil)
		return nil
	}); err != nil {
		t.Errorf("revision append on locked goal error = %v, want nil", err)
	}
}

func TestUpdate_RevisionHistoryNeverShrinks(t *testing.T) {
	g := NewGraph()
	gl := mustInsert(t, g, "Audited", "")

	if err := g.Update(gl.ID, func(w *Goal) error {
		w.AppendRevision("First", "", nil, nil)
		return nil
	}); err != nil {
		t.Fatalf("append revision error: %v", err)
	}

	err := g.Update(gl.ID, func(w *Goal) error {
		w.Revisions = nil
		return nil
	})
	if err == nil {
		t.Fatal("dropping revisions succeeded, want rejection")
	}
	revs, _ := g.Revisions(gl.ID)
	if len(revs) != 1 {
		t.Errorf("revision count = %d after rejected truncation, want 1", len(revs))
	}
}

func TestDescendantsAndLeaves(t *testing.T) {
	g := NewGraph()
	root := mustInsert(t, g, "Root", "")
	a := mustInsert(t, g, "A", root.ID)
	mustInsert(t, g, "A1", a.ID)
	mustInsert(t, g, "A2", a.ID)
	mustInsert(t, g, "B", root.ID)

	all, err := g.Descendants(root.ID, false)
	if err != nil {
		t.Fatalf("Descendants error: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Descendants returned %d goals, want 4", len(all))
	}

	leaves, err := g.Leaves(root.ID)
	if err != nil {
		t.Fatalf("Leaves error: %v", err)
	}
	if len(leaves) != 3 {
		t.Errorf("Leaves returned %d goals, want 3 (A1, A2, B)", len(leaves))
	}

	if _, err := g.Descendants("c9bf9e57-1685-4c89-bafb-ff5af830be8a", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Descendants of missing goal error = %v, want ErrNotFound", err)
	}
}

func TestExecutionOrder_RespectsDependencies(t *testing.T) {
	g := NewGraph()
	parent := mustInsert(t, g, "Parent", "")
	design := mustInsert(t, g, "Design", parent.ID)
	impl := mustInsert(t, g, "Implementation", parent.ID)
	docs := mustInsert(t, g, "Docs", parent.ID)

	// Implementation waits on Design; Docs waits on Implementation.
	if _, err := g.AddDependency(design.ID, impl.ID, FinishToStart, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddDependency(impl.ID, docs.ID, FinishToStart, ""); err != nil {
		t.Fatal(err)
	}

	ordered, err := g.ExecutionOrder(parent.ID)
	if err != nil {
		t.Fatalf("ExecutionOrder error: %v", err)
	}
	var titles []string
	for _, gl := range ordered {
		titles = append(titles, gl.Title)
	}
	want := []string{"Design", "Implementation", "Docs"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", titles, want)
		}
	}
}

func TestGetReturnsDeepCopies(t *testing.T) {
	g := NewGraph()
	gl := mustInsert(t, g, "Shared", "")

	snap, _ := g.Get(gl.ID)
	snap.Title = "Mutated copy"
	snap.Revisions = append(snap.Revisions, Revision{Summary: "fake"})

	fresh, _ := g.Get(gl.ID)
	if fresh.Title != "Shared" {
		t.Errorf("graph state leaked through a read copy: title = %q", fresh.Title)
	}
	if len(fresh.Revisions) != 0 {
		t.Errorf("graph revisions grew through a read copy: %d", len(fresh.Revisions))
	}
}

func TestFlush_TracksDirtyAndRemoved(t *testing.T) {
	g := NewGraph()
	a := mustInsert(t, g, "A", "")
	b := mustInsert(t, g, "B", "")
	if _, err := g.AddDependency(a.ID, b.ID, FinishToStart, ""); err != nil {
		t.Fatal(err)
	}

	cs := g.Flush()
	if len(cs.Goals) != 2 {
		t.Errorf("first flush carries %d goals, want 2", len(cs.Goals))
	}
	if !cs.EdgesChanged || len(cs.Edges) != 1 {
		t.Errorf("first flush edges = %d (changed=%v), want 1 edge", len(cs.Edges), cs.EdgesChanged)
	}

	// Nothing happened since: the next flush is empty.
	if cs := g.Flush(); !cs.Empty() {
		t.Errorf("idle flush not empty: %+v", cs)
	}

	g.Delete(b.ID)
	cs = g.Flush()
	if len(cs.RemovedIDs) != 1 || cs.RemovedIDs[0] != b.ID {
		t.Errorf("flush after delete removed ids = %v, want [%s]", cs.RemovedIDs, b.ID)
	}
	if !cs.EdgesChanged {
		t.Error("edge removal not reflected in flush")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	g := NewGraph()
	root := mustInsert(t, g, "Root", "")
	child := mustInsert(t, g, "Child", root.ID)
	other := mustInsert(t, g, "Other", "")
	if _, err := g.AddDependency(child.ID, other.ID, FinishToFinish, "note"); err != nil {
		t.Fatal(err)
	}

	reloaded := NewGraph()
	if err := reloaded.Load(g.AllGoals(), g.AllEdges()); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Len() != 3 {
		t.Errorf("reloaded graph has %d goals, want 3", reloaded.Len())
	}
	children := reloaded.Children(root.ID)
	if len(children) != 1 || children[0].ID != child.ID {
		t.Errorf("reloaded children of root = %v", children)
	}
	incoming, _, err := reloaded.EdgesOf(other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(incoming) != 1 || incoming[0].Note != "note" {
		t.Errorf("reloaded edge lost data: %+v", incoming)
	}
}

func TestLoad_RejectsDependencyCycle(t *testing.T) {
	a := New("A", "", "", KindEvent)
	b := New("B", "", "", KindEvent)
	edges := []*Edge{
		{ID: "11111111-1111-4111-8111-111111111111", PrerequisiteID: a.ID, DependentID: b.ID, Kind: FinishToStart},
		{ID: "22222222-2222-4222-8222-222222222222", PrerequisiteID: b.ID, DependentID: a.ID, Kind: FinishToStart},
	}
	g := NewGraph()
	err := g.Load([]*Goal{a, b}, edges)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Errorf("Load with cyclic edges error = %v, want CycleError", err)
	}
}

func TestLoad_RejectsParentCycle(t *testing.T) {
	a := New("A", "", "", KindEvent)
	b := New("B", "", "", KindEvent)
	a.ParentID = b.ID
	b.ParentID = a.ID

	g := NewGraph()
	if err := g.Load([]*Goal{a, b}, nil); err == nil {
		t.Error("Load accepted a parent cycle")
	}
}

func TestConcurrentReadsDuringBatch(t *testing.T) {
	g := NewGraph()
	root := mustInsert(t, g, "Root", "")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// Readers must never observe a child without its goal or an
				// edge without both endpoints.
				for _, c := range g.Children(root.ID) {
					if _, ok := g.Get(c.ID); !ok {
						t.Error("child listed but goal missing")
						return
					}
				}
				if _, err := g.Descendants(root.ID, true); err != nil {
					t.Errorf("Descendants error: %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		i := i
		err := g.Batch(func(b *Batch) error {
			gl := New(fmt.Sprintf("Child %d", i), "", "", KindEvent)
			if err := b.Insert(gl, root.ID); err != nil {
				return err
			}
			siblings := b.Children(root.ID)
			if len(siblings) >= 2 {
				prev := siblings[len(siblings)-2]
				if _, err := b.AddDependency(prev.ID, gl.ID, FinishToStart, ""); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("batch %d error: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()

	if got := len(g.Children(root.ID)); got != 50 {
		t.Errorf("children after batches = %d, want 50", got)
	}
}
