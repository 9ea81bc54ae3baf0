package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/stridehq/stride/internal/breakdown"
	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/logger"
	"github.com/stridehq/stride/prompts"
)

// DefaultSessionDuration fills in when a plan session omits its length.
const DefaultSessionDuration = 60 * time.Minute

// Client implements Collaborator over an Eino chat model. All methods are
// plain request/response; the caller owns retries and degradation.
type Client struct {
	model        model.BaseChatModel
	templatesDir string
}

// NewClient constructs the chat model for cfg and wraps it. templatesDir
// points at the workspace prompt override directory; empty means built-in
// prompts only.
func NewClient(ctx context.Context, cfg ModelConfig, templatesDir string) (*Client, error) {
	m, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &Client{model: m, templatesDir: templatesDir}, nil
}

// NewClientWithModel wraps an already constructed chat model. Used by tests
// and by callers that manage model lifecycle themselves.
func NewClientWithModel(m model.BaseChatModel, templatesDir string) *Client {
	return &Client{model: m, templatesDir: templatesDir}
}

var _ Collaborator = (*Client)(nil)

// RequestBreakdown asks the model to decompose the goal into a subgoal tree.
func (c *Client) RequestBreakdown(ctx context.Context, req BreakdownRequest) (*breakdown.Tree, error) {
	var b strings.Builder
	writeGoalContext(&b, req.Goal)
	if strings.TrimSpace(req.Notes) != "" {
		fmt.Fprintf(&b, "\nSteering notes from the user:\n%s\n", req.Notes)
	}

	raw, err := c.generate(ctx, "breakdown", prompts.KeyBreakdown, b.String())
	if err != nil {
		return nil, err
	}
	tree, err := decodeResponse[breakdown.Tree](raw)
	if err != nil {
		return nil, &goal.ExternalServiceError{Service: "reasoning", Op: "breakdown", Recoverable: true, Err: err}
	}
	if len(tree.Nodes) == 0 {
		return nil, fmt.Errorf("breakdown response contained no nodes")
	}
	return &tree, nil
}

// RequestRegeneration asks the model for a replacement framing of the goal.
func (c *Client) RequestRegeneration(ctx context.Context, req RegenerationRequest) (*RegenerationProposal, error) {
	var b strings.Builder
	writeGoalContext(&b, req.Goal)
	fmt.Fprintf(&b, "\nMeasured progress: %.0f%%\n", req.Progress*100)
	if len(req.Subgoals) > 0 {
		b.WriteString("\nSubgoals:\n")
		for _, sg := range req.Subgoals {
			writeGoalLine(&b, sg)
		}
	}

	raw, err := c.generate(ctx, "regenerate", prompts.KeyRegenerate, b.String())
	if err != nil {
		return nil, err
	}
	proposal, err := decodeResponse[RegenerationProposal](raw)
	if err != nil {
		return nil, &goal.ExternalServiceError{Service: "reasoning", Op: "regenerate", Recoverable: true, Err: err}
	}
	if strings.TrimSpace(proposal.Title) == "" {
		return nil, fmt.Errorf("regeneration response had an empty title")
	}
	return &proposal, nil
}

// RequestActivationPlan asks the model for the calendar sessions to schedule
// when the goal activates.
func (c *Client) RequestActivationPlan(ctx context.Context, req ActivationPlanRequest) ([]Session, error) {
	var b strings.Builder
	writeGoalContext(&b, req.Goal)
	fmt.Fprintf(&b, "\nScheduling window starts: %s\n", req.From.Format(time.RFC3339))
	if len(req.AllGoals) > 0 {
		b.WriteString("\nOther goals on the user's plate:\n")
		for _, other := range req.AllGoals {
			if req.Goal != nil && other.ID == req.Goal.ID {
				continue
			}
			writeGoalLine(&b, other)
		}
	}

	raw, err := c.generate(ctx, "activation plan", prompts.KeyActivationPlan, b.String())
	if err != nil {
		return nil, err
	}
	parsed, err := decodeResponse[activationPlanResponse](raw)
	if err != nil {
		return nil, &goal.ExternalServiceError{Service: "reasoning", Op: "activation plan", Recoverable: true, Err: err}
	}

	sessions := make([]Session, 0, len(parsed.Sessions))
	for _, s := range parsed.Sessions {
		if strings.TrimSpace(s.Title) == "" || s.Start.IsZero() {
			slog.Warn("dropping unusable plan session", "title", s.Title, "start", s.Start)
			continue
		}
		dur := time.Duration(s.DurationMinutes) * time.Minute
		if dur <= 0 {
			dur = DefaultSessionDuration
		}
		sessions = append(sessions, Session{
			Title:    strings.TrimSpace(s.Title),
			Notes:    s.Notes,
			Start:    s.Start,
			Duration: dur,
		})
	}
	return sessions, nil
}

// RequestNextStep asks the model for the roadmap step following the one just
// completed.
func (c *Client) RequestNextStep(ctx context.Context, req NextStepRequest) (*StepProposal, error) {
	var b strings.Builder
	writeGoalContext(&b, req.Goal)
	if req.CompletedStep != nil {
		fmt.Fprintf(&b, "\nJust completed step: %s\n", req.CompletedStep.Title)
		if strings.TrimSpace(req.CompletedStep.Body) != "" {
			fmt.Fprintf(&b, "Its guidance was: %s\n", req.CompletedStep.Body)
		}
	}
	if len(req.PriorSteps) > 0 {
		b.WriteString("\nEvery step so far:\n")
		for _, step := range req.PriorSteps {
			fmt.Fprintf(&b, "- %s (%s)\n", step.Title, step.StepStatus)
		}
	}

	raw, err := c.generate(ctx, "next step", prompts.KeyNextStep, b.String())
	if err != nil {
		return nil, err
	}
	proposal, err := decodeResponse[StepProposal](raw)
	if err != nil {
		return nil, &goal.ExternalServiceError{Service: "reasoning", Op: "next step", Recoverable: true, Err: err}
	}
	return &proposal, nil
}

// RequestLockRationale asks the model for the one-liner stored on a lock
// snapshot. A plain-text reply is accepted when JSON parsing fails.
func (c *Client) RequestLockRationale(ctx context.Context, req LockRationaleRequest) (string, error) {
	var b strings.Builder
	writeGoalContext(&b, req.Goal)

	raw, err := c.generate(ctx, "lock rationale", prompts.KeyLockRationale, b.String())
	if err != nil {
		return "", err
	}
	parsed, derr := decodeResponse[lockRationaleResponse](raw)
	if derr == nil && strings.TrimSpace(parsed.Rationale) != "" {
		return strings.TrimSpace(parsed.Rationale), nil
	}

	line := firstLine(stripFences(raw))
	if line == "" {
		return "", fmt.Errorf("lock rationale response was empty")
	}
	return line, nil
}

type activationPlanResponse struct {
	Sessions []planSessionResponse `json:"sessions"`
}

type planSessionResponse struct {
	Title           string    `json:"title"`
	Notes           string    `json:"notes,omitempty"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
}

type lockRationaleResponse struct {
	Rationale string `json:"rationale"`
}

// generate loads the system prompt for key, sends it with the rendered user
// content, and returns the raw response text.
func (c *Client) generate(ctx context.Context, op string, key prompts.PromptKey, userContent string) (string, error) {
	system, err := prompts.GetPrompt(key, c.templatesDir)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", key, err)
	}

	// A crash mid-call should show what the model was asked.
	logger.RecordPrompt(op, userContent)

	resp, err := c.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(userContent),
	})
	if err != nil {
		return "", &goal.ExternalServiceError{Service: "reasoning", Op: op, Recoverable: true, Err: err}
	}
	return resp.Content, nil
}

func writeGoalContext(b *strings.Builder, gl *goal.Goal) {
	if gl == nil {
		return
	}
	fmt.Fprintf(b, "Goal: %s\n", gl.Title)
	fmt.Fprintf(b, "Kind: %s\n", gl.Kind)
	if gl.Category != "" {
		fmt.Fprintf(b, "Category: %s\n", gl.Category)
	}
	if strings.TrimSpace(gl.Body) != "" {
		fmt.Fprintf(b, "Description:\n%s\n", gl.Body)
	}
	if gl.Metric != nil {
		fmt.Fprintf(b, "Target metric: %s from %v to %v", gl.Metric.Label, gl.Metric.Baseline, gl.Metric.Target)
		if gl.Metric.Unit != "" {
			fmt.Fprintf(b, " %s", gl.Metric.Unit)
		}
		b.WriteString("\n")
	}
	if gl.TargetDate != nil {
		fmt.Fprintf(b, "Target date: %s\n", gl.TargetDate.Format("2006-01-02"))
	}
}

func writeGoalLine(b *strings.Builder, gl *goal.Goal) {
	fmt.Fprintf(b, "- %s (%s, %.0f%% done)\n", gl.Title, gl.Status, gl.Progress*100)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
