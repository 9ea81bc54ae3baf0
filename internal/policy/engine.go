package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/spf13/afero"

	"github.com/stridehq/stride/internal/goal"
)

// DefaultPolicyPackage is the Rego package queried for deny and warn rules.
const DefaultPolicyPackage = "stride.policy"

// DefaultPolicyName is the name reserved for the embedded policy. A workspace
// file named default.rego replaces it instead of stacking a second copy.
const DefaultPolicyName = "default"

// defaultPolicyRego ships with the binary so the guardrails hold even in
// workspaces that never configured a policies directory.
const defaultPolicyRego = `package stride.policy

import rego.v1

# More active goals than this and none of them get real attention.
max_active := 3

deny contains msg if {
	input.action == "activate"
	input.graph.active_count >= max_active
	msg := sprintf("%d goals are already active (limit %d); finish or deactivate one first", [input.graph.active_count, max_active])
}

deny contains msg if {
	input.action == "delete"
	input.goal.locked
	msg := sprintf("goal %q is locked; unlock it before deleting", [input.goal.title])
}

deny contains msg if {
	input.action == "delete"
	some d in input.graph.descendants
	d.locked
	msg := sprintf("subtree contains locked goal %q; unlock it before deleting", [d.title])
}

warn contains msg if {
	input.action == "delete"
	input.goal.status == "active"
	msg := sprintf("goal %q is active; deleting it abandons its schedule", [input.goal.title])
}
`

// Engine evaluates loaded Rego policies against operation inputs.
type Engine struct {
	policies      []*PolicyFile
	policyPackage string
}

// EngineConfig configures engine construction.
type EngineConfig struct {
	// PoliciesDir is the directory scanned for .rego files. Empty means no
	// workspace policies, embedded default only.
	PoliciesDir string
	// PolicyPackage overrides DefaultPolicyPackage when set.
	PolicyPackage string
	// Fs is the filesystem abstraction. Defaults to the OS filesystem.
	Fs afero.Fs
	// SkipEmbedded drops the built-in default policy.
	SkipEmbedded bool
}

// NewEngine loads workspace policies and seeds the embedded default.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	pkg := cfg.PolicyPackage
	if pkg == "" {
		pkg = DefaultPolicyPackage
	}

	var policies []*PolicyFile
	if cfg.PoliciesDir != "" {
		loaded, err := NewLoader(fs, cfg.PoliciesDir).LoadAll()
		if err != nil {
			return nil, fmt.Errorf("load policies: %w", err)
		}
		policies = loaded
	}

	if !cfg.SkipEmbedded && !hasPolicy(policies, DefaultPolicyName) {
		policies = append([]*PolicyFile{embeddedDefault()}, policies...)
	}

	return &Engine{
		policies:      policies,
		policyPackage: pkg,
	}, nil
}

// NewEngineWithPolicies builds an engine over an explicit policy set.
func NewEngineWithPolicies(policies []*PolicyFile) *Engine {
	return &Engine{
		policies:      policies,
		policyPackage: DefaultPolicyPackage,
	}
}

func embeddedDefault() *PolicyFile {
	return &PolicyFile{
		Name:    DefaultPolicyName,
		Path:    DefaultPolicyName + ".rego",
		Content: defaultPolicyRego,
	}
}

func hasPolicy(policies []*PolicyFile, name string) bool {
	for _, p := range policies {
		if p.Name == name {
			return true
		}
	}
	return false
}

// PolicyCount reports how many policies the engine compiled in.
func (e *Engine) PolicyCount() int { return len(e.policies) }

// PolicyNames lists the loaded policies in load order.
func (e *Engine) PolicyNames() []string {
	names := make([]string, 0, len(e.policies))
	for _, p := range e.policies {
		names = append(names, p.Name)
	}
	return names
}

// Evaluate runs every loaded policy against the input and collects the deny
// and warn rule sets. Deny strings become violations and flip the result to
// deny; warn strings are carried on the decision without blocking. With no
// policies loaded everything is allowed.
func (e *Engine) Evaluate(ctx context.Context, input any) (*Decision, error) {
	decision := &Decision{
		DecisionID:  uuid.New().String(),
		PolicyPath:  e.policyPackage,
		Result:      ResultAllow,
		Input:       input,
		EvaluatedAt: time.Now().UTC(),
	}
	if len(e.policies) == 0 {
		return decision, nil
	}

	violations, err := e.ruleStrings(ctx, "deny", input)
	if err != nil {
		return nil, fmt.Errorf("evaluate deny rules: %w", err)
	}
	if len(violations) > 0 {
		decision.Result = ResultDeny
		decision.Violations = violations
	}

	// Warn rules are optional; a package without them is fine.
	if warnings, werr := e.ruleStrings(ctx, "warn", input); werr == nil {
		decision.Warnings = warnings
	}

	return decision, nil
}

// ruleStrings evaluates one set-generating rule (deny or warn) across all
// loaded policies and returns its string members. A package that never
// defines the rule yields nil.
func (e *Engine) ruleStrings(ctx context.Context, rule string, input any) ([]string, error) {
	opts := make([]func(*rego.Rego), 0, len(e.policies)+2)
	opts = append(opts,
		rego.Query(fmt.Sprintf("data.%s.%s", e.policyPackage, rule)),
		rego.Input(input),
	)
	for _, p := range e.policies {
		opts = append(opts, rego.Module(p.Path, p.Content))
	}

	rs, err := rego.New(opts...).Eval(ctx)
	switch {
	case err == nil:
	case strings.Contains(err.Error(), "undefined"):
		return nil, nil
	default:
		return nil, err
	}

	var out []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			set, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, member := range set {
				if s, ok := member.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out, nil
}

// EvaluateActivation checks whether confirming activation of g is allowed,
// given how many goals are already active.
func (e *Engine) EvaluateActivation(ctx context.Context, g *goal.Goal, activeCount int) (*Decision, error) {
	input := &Input{
		Action: ActionActivate,
		Goal:   GoalDocument(g),
		Graph:  &GraphInput{ActiveCount: activeCount},
	}
	decision, err := e.Evaluate(ctx, input)
	if err != nil {
		return nil, err
	}
	if g != nil {
		decision.GoalID = g.ID
	}
	return decision, nil
}

// EvaluateDeletion checks whether deleting g together with its descendants
// is allowed.
func (e *Engine) EvaluateDeletion(ctx context.Context, g *goal.Goal, descendants []*goal.Goal) (*Decision, error) {
	docs := make([]GoalInput, 0, len(descendants))
	for _, d := range descendants {
		if doc := GoalDocument(d); doc != nil {
			docs = append(docs, *doc)
		}
	}
	input := &Input{
		Action: ActionDelete,
		Goal:   GoalDocument(g),
		Graph:  &GraphInput{Descendants: docs},
	}
	decision, err := e.Evaluate(ctx, input)
	if err != nil {
		return nil, err
	}
	if g != nil {
		decision.GoalID = g.ID
	}
	return decision, nil
}

// ValidatePolicy checks that content parses and compiles as Rego.
func ValidatePolicy(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("policy content is empty")
	}
	r := rego.New(
		rego.Query("data"),
		rego.Module("validate.rego", content),
	)
	if _, err := r.PrepareForEval(context.Background()); err != nil {
		return fmt.Errorf("compile policy: %w", err)
	}
	return nil
}
