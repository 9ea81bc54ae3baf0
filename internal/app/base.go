// Package app is the operations layer shared by the CLI and the MCP server.
// Every operation lives here once: handlers on both surfaces are thin
// adapters over the same App methods, so behavior never diverges between
// them. A Context carries the open store, the hydrated graph, and the
// collaborators; mutating operations flush the graph back through the store
// before returning.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/spf13/afero"

	"github.com/stridehq/stride/internal/breakdown"
	"github.com/stridehq/stride/internal/calendar"
	"github.com/stridehq/stride/internal/config"
	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/lifecycle"
	"github.com/stridehq/stride/internal/policy"
	"github.com/stridehq/stride/internal/reasoning"
	"github.com/stridehq/stride/internal/store"
	"github.com/stridehq/stride/internal/workspace"
)

// Context holds shared dependencies for all app services.
type Context struct {
	Workspace workspace.Workspace
	Config    *config.Config

	// Store persists the goal graph. DB carries the calendar journal and
	// embedding vectors; on the sqlite backend it is the store itself, on the
	// file backend it is a sidecar database next to the data file.
	Store store.Store
	DB    *store.SQLiteStore
	Graph *goal.Graph

	// Watcher signals external writes to the data file. Only set for the
	// file backend.
	Watcher *store.Watcher

	// Policy is nil when guardrails are disabled or failed to load; nil
	// means every operation is allowed.
	Policy *policy.Engine

	// Reasoner is never nil: when no collaborator could be constructed it is
	// an unavailableReasoner, so degradable operations (lock) still work and
	// the rest fail with the construction error.
	Reasoner reasoning.Collaborator

	Calendar lifecycle.Calendar

	// Embedder is nil when the provider has no embedding support configured;
	// find and the duplicate warning degrade.
	Embedder embedding.Embedder
}

// NewContext opens the workspace's store, hydrates the graph, and constructs
// the collaborators. Reasoning and embedding construction is best-effort:
// a missing API key disables those features without blocking the rest.
func NewContext(ctx context.Context, ws workspace.Workspace) (*Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	path := ws.DatabaseFile()
	if cfg.Store.Backend == store.BackendFile {
		path = cfg.Store.File
		if path == "" {
			path = ws.DataFile(cfg.Store.Format)
		}
	}
	st, err := store.Open(cfg.Store.Backend, path, cfg.Store.Format)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	goals, edges, err := st.Load()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load goal graph: %w", err)
	}
	graph := goal.NewGraph()
	if err := graph.Load(goals, edges); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load goal graph: %w", err)
	}

	db, ok := st.(*store.SQLiteStore)
	if !ok {
		db, err = store.NewSQLiteStore(ws.DatabaseFile())
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("open journal database: %w", err)
		}
	}

	var watcher *store.Watcher
	if cfg.Store.Backend == store.BackendFile {
		watcher, err = store.NewWatcher(path)
		if err != nil {
			slog.Warn("file watcher unavailable, external changes will not be detected", "error", err)
			watcher = nil
		}
	}

	var policyEngine *policy.Engine
	if cfg.Policy.Enabled {
		dir := cfg.Policy.Dir
		if dir == "" {
			dir = ws.PolicyDir()
		}
		policyEngine, err = policy.NewEngine(policy.EngineConfig{PoliciesDir: dir, Fs: afero.NewOsFs()})
		if err != nil {
			slog.Warn("policy engine failed to load, guardrails will NOT be enforced", "error", err)
			policyEngine = nil
		}
	}

	var collaborator reasoning.Collaborator
	var embedder embedding.Embedder
	modelCfg, rerr := config.ReasoningConfig()
	if rerr == nil {
		client, cerr := reasoning.NewClient(ctx, modelCfg, ws.TemplatesDir())
		if cerr != nil {
			rerr = cerr
		} else {
			collaborator = client
		}
		if emb, eerr := reasoning.NewEmbedder(ctx, modelCfg); eerr == nil {
			embedder = emb
		} else {
			slog.Debug("embedder unavailable, similarity features disabled", "error", eerr)
		}
	}
	if collaborator == nil {
		slog.Debug("reasoning collaborator unavailable", "error", rerr)
		collaborator = &unavailableReasoner{err: rerr}
	}

	return &Context{
		Workspace: ws,
		Config:    cfg,
		Store:     st,
		DB:        db,
		Graph:     graph,
		Watcher:   watcher,
		Policy:    policyEngine,
		Reasoner:  collaborator,
		Calendar:  calendar.NewLocal(db),
		Embedder:  embedder,
	}, nil
}

// Save flushes dirty graph state through the store. The watcher is told about
// the write so it only signals foreign changes.
func (c *Context) Save() error {
	cs := c.Graph.Flush()
	if cs.Empty() {
		return nil
	}
	if err := c.Store.Apply(cs); err != nil {
		return fmt.Errorf("persist changes: %w", err)
	}
	if c.Watcher != nil {
		c.Watcher.MarkSeen()
	}
	return nil
}

// Reload rehydrates the graph from the store, replacing in-memory state.
// Called by long-running surfaces when the watcher reports a foreign write.
func (c *Context) Reload() error {
	goals, edges, err := c.Store.Load()
	if err != nil {
		return fmt.Errorf("reload goal graph: %w", err)
	}
	if err := c.Graph.Load(goals, edges); err != nil {
		return fmt.Errorf("reload goal graph: %w", err)
	}
	return nil
}

// Close releases the watcher, the store, and the sidecar database.
func (c *Context) Close() error {
	var errs []error
	if c.Watcher != nil {
		errs = append(errs, c.Watcher.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.DB != nil && store.Store(c.DB) != c.Store {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}

// ActiveCount returns how many non-step goals are active, the number the
// activation guardrail gates on.
func (c *Context) ActiveCount() int {
	count := 0
	for _, gl := range c.Graph.AllGoals() {
		if gl.Status == goal.StatusActive && !gl.IsStep() {
			count++
		}
	}
	return count
}

// goalCalendar scopes journal attribution to one goal when the calendar
// supports it.
func (c *Context) goalCalendar(goalID string) lifecycle.Calendar {
	if local, ok := c.Calendar.(*calendar.Local); ok {
		return local.ForGoal(goalID)
	}
	return c.Calendar
}

// unavailableReasoner stands in when no collaborator could be constructed.
// Every request fails with the construction error wrapped as a non-recoverable
// external service failure.
type unavailableReasoner struct {
	err error
}

var _ reasoning.Collaborator = (*unavailableReasoner)(nil)

func (u *unavailableReasoner) failure(op string) error {
	err := u.err
	if err == nil {
		err = errors.New("no reasoning provider configured")
	}
	return goal.NewExternalServiceError("reasoning", op, false, err)
}

func (u *unavailableReasoner) RequestBreakdown(context.Context, reasoning.BreakdownRequest) (*breakdown.Tree, error) {
	return nil, u.failure("breakdown")
}

func (u *unavailableReasoner) RequestRegeneration(context.Context, reasoning.RegenerationRequest) (*reasoning.RegenerationProposal, error) {
	return nil, u.failure("regeneration")
}

func (u *unavailableReasoner) RequestActivationPlan(context.Context, reasoning.ActivationPlanRequest) ([]reasoning.Session, error) {
	return nil, u.failure("activation planning")
}

func (u *unavailableReasoner) RequestNextStep(context.Context, reasoning.NextStepRequest) (*reasoning.StepProposal, error) {
	return nil, u.failure("next step")
}

func (u *unavailableReasoner) RequestLockRationale(context.Context, reasoning.LockRationaleRequest) (string, error) {
	return "", u.failure("lock rationale")
}
