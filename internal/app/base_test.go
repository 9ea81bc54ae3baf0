package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridehq/stride/internal/breakdown"
	"github.com/stridehq/stride/internal/calendar"
	"github.com/stridehq/stride/internal/config"
	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/reasoning"
	"github.com/stridehq/stride/internal/store"
	"github.com/stridehq/stride/internal/workspace"
)

// stubReasoner scripts every collaborator surface. Step proposals are
// consumed from the queue first so successive advances can differ.
type stubReasoner struct {
	tree      *breakdown.Tree
	treeErr   error
	treeCalls int

	regen    *reasoning.RegenerationProposal
	regenErr error

	plan    []reasoning.Session
	planErr error

	steps     []*reasoning.StepProposal
	step      *reasoning.StepProposal
	stepErr   error
	stepCalls int

	rationale    string
	rationaleErr error
}

func (r *stubReasoner) RequestBreakdown(ctx context.Context, req reasoning.BreakdownRequest) (*breakdown.Tree, error) {
	r.treeCalls++
	if r.treeErr != nil {
		return nil, r.treeErr
	}
	return r.tree, nil
}

func (r *stubReasoner) RequestRegeneration(ctx context.Context, req reasoning.RegenerationRequest) (*reasoning.RegenerationProposal, error) {
	if r.regenErr != nil {
		return nil, r.regenErr
	}
	return r.regen, nil
}

func (r *stubReasoner) RequestActivationPlan(ctx context.Context, req reasoning.ActivationPlanRequest) ([]reasoning.Session, error) {
	if r.planErr != nil {
		return nil, r.planErr
	}
	return r.plan, nil
}

func (r *stubReasoner) RequestNextStep(ctx context.Context, req reasoning.NextStepRequest) (*reasoning.StepProposal, error) {
	r.stepCalls++
	if r.stepErr != nil {
		return nil, r.stepErr
	}
	if len(r.steps) > 0 {
		next := r.steps[0]
		r.steps = r.steps[1:]
		return next, nil
	}
	return r.step, nil
}

func (r *stubReasoner) RequestLockRationale(ctx context.Context, req reasoning.LockRationaleRequest) (string, error) {
	if r.rationaleErr != nil {
		return "", r.rationaleErr
	}
	return r.rationale, nil
}

// stubEmbedder returns scripted vectors by exact text, or a fallback vector
// for anything unscripted.
type stubEmbedder struct {
	vectors  map[string][]float64
	fallback []float64
	err      error
}

func (e *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := e.vectors[text]; ok {
			out[i] = v
			continue
		}
		if e.fallback != nil {
			out[i] = e.fallback
			continue
		}
		out[i] = []float64{0, 0, 1}
	}
	return out, nil
}

// stubCalendar fails on the scripted call and records everything else.
type stubCalendar struct {
	createdTitles []string
	cancelledIDs  []string
	failAtCall    int // 1-based CreateEvent call that fails; 0 = never
	calls         int
}

func (c *stubCalendar) CreateEvent(ctx context.Context, title string, start time.Time, duration time.Duration, notes string) (string, error) {
	c.calls++
	if c.failAtCall > 0 && c.calls == c.failAtCall {
		return "", errors.New("calendar unreachable")
	}
	c.createdTitles = append(c.createdTitles, title)
	return fmt.Sprintf("evt-%d", c.calls), nil
}

func (c *stubCalendar) CancelEvent(ctx context.Context, eventID string) error {
	c.cancelledIDs = append(c.cancelledIDs, eventID)
	return nil
}

// newTestContext wires a Context over a real sqlite store in a temp dir. The
// reasoner is scripted per test; policy and embedder stay off unless a test
// sets them.
func newTestContext(t *testing.T) (*Context, *stubReasoner) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewSQLiteStore(filepath.Join(dir, "stride.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := &stubReasoner{}
	c := &Context{
		Workspace: workspace.Workspace{Root: dir, Dir: filepath.Join(dir, ".stride")},
		Config: &config.Config{
			Store: config.StoreConfig{Backend: store.BackendSQLite},
			LLM:   config.LLMConfig{EmbeddingModel: "stub-embedder"},
		},
		Store:    db,
		DB:       db,
		Graph:    goal.NewGraph(),
		Reasoner: r,
		Calendar: calendar.NewLocal(db),
	}
	return c, r
}

// seedGoal inserts a draft goal directly into the graph and persists it.
func seedGoal(t *testing.T, c *Context, title string) *goal.Goal {
	t.Helper()
	gl := goal.New(title, "", "", goal.KindEvent)
	require.NoError(t, c.Graph.Insert(gl, ""))
	require.NoError(t, c.Save())
	return gl
}

func TestSave_PersistsThroughStore(t *testing.T) {
	c, _ := newTestContext(t)
	gl := seedGoal(t, c, "Ship the beta")

	goals, _, err := c.Store.Load()
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, gl.ID, goals[0].ID)

	// A save with nothing dirty applies nothing.
	require.NoError(t, c.Save())
}

func TestSave_CarriesDeletes(t *testing.T) {
	c, _ := newTestContext(t)
	gl := seedGoal(t, c, "Throwaway")

	c.Graph.Delete(gl.ID)
	require.NoError(t, c.Save())

	goals, _, err := c.Store.Load()
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestActiveCount_IgnoresStepsAndNonActive(t *testing.T) {
	c, _ := newTestContext(t)
	active := seedGoal(t, c, "Active goal")
	require.NoError(t, c.Graph.Update(active.ID, func(w *goal.Goal) error {
		w.Status = goal.StatusActive
		return nil
	}))
	seedGoal(t, c, "Still a draft")

	step := goal.New("Step one", "", "", goal.KindEvent)
	step.StepStatus = goal.StepCurrent
	step.Status = goal.StatusActive
	require.NoError(t, c.Graph.Insert(step, active.ID))

	assert.Equal(t, 1, c.ActiveCount())
}

func TestUnavailableReasoner_FailsEveryRequest(t *testing.T) {
	u := &unavailableReasoner{err: errors.New("no api key")}

	_, err := u.RequestBreakdown(context.Background(), reasoning.BreakdownRequest{})
	var svcErr *goal.ExternalServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "reasoning", svcErr.Service)
	assert.False(t, svcErr.Recoverable)

	_, err = u.RequestLockRationale(context.Background(), reasoning.LockRationaleRequest{})
	assert.Error(t, err)
}
