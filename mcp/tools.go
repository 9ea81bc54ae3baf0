/*
Copyright © 2026 Stride contributors
*/
package mcp

// Tool handlers. Every handler is a thin adapter over the app layer: resolve
// arguments, call the same method the CLI calls, translate the result. A
// Success=false result becomes a structured tool error so clients see the
// hint without parsing prose.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stridehq/stride/internal/app"
)

// failure converts a Success=false app result into a tool error.
func failure(code, message, hint string) error {
	var details map[string]any
	if hint != "" {
		details = map[string]any{"hint": hint}
	}
	return NewError(code, message, details)
}

// policyFailure surfaces guardrail denials with the individual rule messages.
func policyFailure(message string, violations []string) error {
	return NewError("POLICY_VIOLATION", message, map[string]any{
		"violations": violations,
	})
}

func result[T any](text string, structured T) *mcpsdk.CallToolResultFor[T] {
	return &mcpsdk.CallToolResultFor[T]{
		Content:           []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		StructuredContent: structured,
		IsError:           false,
	}
}

func listGoalsHandler(ac *app.Context) mcpsdk.ToolHandlerFor[ListParams, ListResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ListParams]) (*mcpsdk.CallToolResultFor[ListResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_list", "status", args.Status, "kind", args.Kind)

		goals, err := app.NewGoalApp(ac).List(ctx, app.ListOptions{
			Status:       args.Status,
			Kind:         args.Kind,
			IncludeSteps: args.IncludeSteps,
		})
		if err != nil {
			return nil, failure("LIST_FAILED", err.Error(), "")
		}

		resp := ListResponse{Goals: goalsToSummaries(goals), Count: len(goals)}
		return result(fmt.Sprintf("%d goal(s)", resp.Count), resp), nil
	}
}

func showGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[ShowParams, ShowResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ShowParams]) (*mcpsdk.CallToolResultFor[ShowResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_show", "ref", args.Ref)

		res, err := app.NewGoalApp(ac).Show(ctx, args.Ref)
		if err != nil {
			return nil, failure("SHOW_FAILED", err.Error(), "")
		}
		if !res.Success {
			return nil, failure("GOAL_NOT_FOUND", res.Message, res.Hint)
		}

		resp := ShowResponse{
			Goal:     goalToSummary(res.Goal),
			Progress: res.Progress,
			Subgoals: goalsToSummaries(res.Subgoals),
		}
		return result(fmt.Sprintf("%q (%s, %.0f%%)", res.Goal.Title, res.Goal.Status, res.Progress*100), resp), nil
	}
}

func createGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[CreateParams, CreateResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[CreateParams]) (*mcpsdk.CallToolResultFor[CreateResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_create", "title", args.Title)

		if strings.TrimSpace(args.Title) == "" {
			return nil, NewError("MISSING_TITLE", "Goal title is required", map[string]any{"field": "title"})
		}

		opts := app.CreateOptions{
			Title:     args.Title,
			Body:      args.Body,
			Category:  args.Category,
			Kind:      args.Kind,
			Priority:  args.Priority,
			ParentRef: args.ParentRef,
		}
		if args.TargetDate != "" {
			td, err := time.Parse("2006-01-02", args.TargetDate)
			if err != nil {
				return nil, NewError("INVALID_DATE", fmt.Sprintf("targetDate %q is not YYYY-MM-DD", args.TargetDate), nil)
			}
			opts.TargetDate = &td
		}

		res, err := app.NewGoalApp(ac).Create(ctx, opts)
		if err != nil {
			return nil, failure("CREATE_FAILED", err.Error(), "")
		}
		if !res.Success {
			return nil, failure("CREATE_REJECTED", res.Message, res.Hint)
		}

		resp := CreateResponse{
			Goal:         goalToSummary(res.Goal),
			SimilarID:    res.SimilarID,
			SimilarTitle: res.SimilarTitle,
		}
		text := fmt.Sprintf("Created %q with id %s", res.Goal.Title, res.Goal.ID)
		if res.SimilarID != "" {
			text += fmt.Sprintf(" (similar to existing %q)", res.SimilarTitle)
		}
		return result(text, resp), nil
	}
}

func breakdownGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[BreakdownParams, BreakdownResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[BreakdownParams]) (*mcpsdk.CallToolResultFor[BreakdownResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_breakdown", "ref", args.Ref)

		res, err := app.NewBreakdownApp(ac).Run(ctx, app.BreakdownOptions{Ref: args.Ref, Notes: args.Notes})
		if err != nil {
			return nil, failure("BREAKDOWN_FAILED", err.Error(), "")
		}
		if !res.Success {
			return nil, failure("BREAKDOWN_REJECTED", res.Message, res.Hint)
		}

		resp := BreakdownResponse{
			Goal:     goalToSummary(res.Goal),
			Subgoals: goalsToSummaries(res.Subgoals),
		}
		if res.Applied != nil {
			resp.CreatedCount = res.Applied.CreatedGoals
			resp.AtomicCount = res.Applied.AtomicTaskCount
			resp.EdgeCount = res.Applied.DependencyCount
		}
		return result(fmt.Sprintf("Broke %q into %d subgoal(s)", res.Goal.Title, resp.CreatedCount), resp), nil
	}
}

func planGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[PlanParams, PlanResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[PlanParams]) (*mcpsdk.CallToolResultFor[PlanResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_plan", "ref", args.Ref)

		res, err := app.NewLifecycleApp(ac).Plan(ctx, args.Ref)
		if err != nil {
			return nil, failure("PLAN_FAILED", err.Error(), "")
		}
		if !res.Success {
			if res.PolicyViolation {
				return nil, policyFailure(res.Message, res.PolicyErrors)
			}
			return nil, failure("PLAN_REJECTED", res.Message, res.Hint)
		}

		resp := PlanResponse{
			Goal:     goalToSummary(res.Goal),
			Sessions: sessionsToSummaries(res.Sessions),
		}
		return result(fmt.Sprintf("Proposed %d session(s) for %q", len(resp.Sessions), res.Goal.Title), resp), nil
	}
}

func activateGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[ActivateParams, ActivateResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ActivateParams]) (*mcpsdk.CallToolResultFor[ActivateResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_activate", "ref", args.Ref)

		res, err := app.NewLifecycleApp(ac).Activate(ctx, app.ActivateOptions{Ref: args.Ref})
		if err != nil {
			return nil, failure("ACTIVATE_FAILED", err.Error(), "")
		}
		if !res.Success {
			if res.PolicyViolation {
				return nil, policyFailure(res.Message, res.PolicyErrors)
			}
			if res.FailedSession != "" {
				return nil, NewError("PARTIAL_ACTIVATION", res.Message, map[string]any{
					"hint":           res.Hint,
					"confirmed":      len(res.PartialConfirmed),
					"failed_session": res.FailedSession,
				})
			}
			return nil, failure("ACTIVATE_REJECTED", res.Message, res.Hint)
		}

		resp := ActivateResponse{
			Goal:      goalToSummary(res.Goal),
			Sessions:  sessionsToSummaries(res.Sessions),
			Confirmed: len(res.Goal.Events),
		}
		return result(res.Message, resp), nil
	}
}

func advanceGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[AdvanceParams, AdvanceResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[AdvanceParams]) (*mcpsdk.CallToolResultFor[AdvanceResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_advance", "ref", args.Ref)

		res, err := app.NewStepApp(ac).Advance(ctx, args.Ref)
		if err != nil {
			return nil, failure("ADVANCE_FAILED", err.Error(), "")
		}
		if !res.Success {
			return nil, failure("ADVANCE_REJECTED", res.Message, res.Hint)
		}

		resp := AdvanceResponse{
			Goal:      goalToSummary(res.Goal),
			Completed: goalToSummaryPtr(res.Completed),
			Next:      goalToSummaryPtr(res.Next),
			Warning:   res.Warning,
		}
		if res.Advance != nil {
			resp.Finished = res.Advance.RoadmapDone
		}
		return result(res.Message, resp), nil
	}
}

func completeGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[CompleteParams, StatusResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[CompleteParams]) (*mcpsdk.CallToolResultFor[StatusResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_complete", "ref", args.Ref)

		res, err := app.NewLifecycleApp(ac).Complete(ctx, args.Ref)
		if err != nil {
			return nil, failure("COMPLETE_FAILED", err.Error(), "")
		}
		if !res.Success {
			return nil, failure("COMPLETE_REJECTED", res.Message, res.Hint)
		}
		return result(res.Message, StatusResponse{Goal: goalToSummary(res.Goal)}), nil
	}
}

func lockGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[LockParams, LockResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[LockParams]) (*mcpsdk.CallToolResultFor[LockResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_lock", "ref", args.Ref)

		res, err := app.NewLifecycleApp(ac).Lock(ctx, args.Ref)
		if err != nil {
			return nil, failure("LOCK_FAILED", err.Error(), "")
		}
		if !res.Success {
			return nil, failure("LOCK_REJECTED", res.Message, res.Hint)
		}

		resp := LockResponse{Goal: goalToSummary(res.Goal)}
		if res.Snapshot != nil {
			resp.Rationale = res.Snapshot.Rationale
		}
		return result(res.Message, resp), nil
	}
}

func unlockGoalHandler(ac *app.Context) mcpsdk.ToolHandlerFor[UnlockParams, StatusResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[UnlockParams]) (*mcpsdk.CallToolResultFor[StatusResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_unlock", "ref", args.Ref)

		res, err := app.NewLifecycleApp(ac).Unlock(ctx, args.Ref, args.Reason)
		if err != nil {
			return nil, failure("UNLOCK_FAILED", err.Error(), "")
		}
		if !res.Success {
			return nil, failure("UNLOCK_REJECTED", res.Message, res.Hint)
		}
		return result(res.Message, StatusResponse{Goal: goalToSummary(res.Goal)}), nil
	}
}

func timelineHandler(ac *app.Context) mcpsdk.ToolHandlerFor[TimelineParams, TimelineResponse] {
	return func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[TimelineParams]) (*mcpsdk.CallToolResultFor[TimelineResponse], error) {
		args := params.Arguments
		slog.Debug("mcp tool", "name", "goal_timeline", "ref", args.Ref, "days", args.Days)

		opts := app.TimelineOptions{Ref: args.Ref, Days: args.Days}
		if args.From != "" {
			from, err := time.Parse("2006-01-02", args.From)
			if err != nil {
				return nil, NewError("INVALID_DATE", fmt.Sprintf("from %q is not YYYY-MM-DD", args.From), nil)
			}
			opts.From = from
		}

		res, err := app.NewTimelineApp(ac).Window(ctx, opts)
		if err != nil {
			return nil, failure("TIMELINE_FAILED", err.Error(), "")
		}
		if !res.Success {
			return nil, failure("TIMELINE_REJECTED", res.Message, res.Hint)
		}

		resp := TimelineResponse{
			Start:   res.Horizon.Start.Format("2006-01-02"),
			End:     res.Horizon.End.Format("2006-01-02"),
			Entries: entriesToWire(res.Entries),
		}
		return result(fmt.Sprintf("%d timeline entr(ies) between %s and %s", len(resp.Entries), resp.Start, resp.End), resp), nil
	}
}
