/*
Copyright © 2026 Stride contributors
*/

// Package mcp exposes the goal engine to Model Context Protocol clients.
// Tools mirror the CLI one to one; both sit on the same app layer, so a goal
// created over MCP looks exactly like one created with `stride add`.
package mcp

import (
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stridehq/stride/internal/app"
)

// RegisterTools registers every stride tool on the server. Handlers close
// over the shared app context; the caller owns its lifetime.
func RegisterTools(server *mcpsdk.Server, ac *app.Context) error {
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_list",
		Description: "List goals with optional filters. Args: status [draft|active|completed|archived], kind [event|campaign|hybrid], includeSteps (bool). Returns goals+count. Call this first to see what exists.",
	}, listGoalsHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_show",
		Description: "Get one goal by id, unique id prefix, or title. Returns full detail with rolled-up progress, subgoals, and dependency edges.",
	}, showGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_create",
		Description: "Create a draft goal: title (required), body, category, kind [event|campaign|hybrid], priority [now|next|later], parentRef, targetDate (YYYY-MM-DD). Warns when a near-duplicate already exists.",
	}, createGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_breakdown",
		Description: "Decompose a goal into an ordered subgoal tree with dependencies, using the reasoning collaborator. Applies immediately; pass notes to steer the proposal.",
	}, breakdownGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_plan",
		Description: "Preview the working sessions activation would schedule, without changing anything. Use before goal_activate to inspect the plan.",
	}, planGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_activate",
		Description: "Activate a draft goal: plans working sessions and confirms them onto the calendar. Subject to activation policy; fails with POLICY_VIOLATION when a guardrail blocks it.",
	}, activateGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_advance",
		Description: "Finish the current step of a sequential roadmap goal. Proposes and installs the next step unless the finished one was final.",
	}, advanceGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_complete",
		Description: "Mark a goal completed. Progress snaps to 100% and rolls up to ancestors; remaining calendar events are released.",
	}, completeGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_lock",
		Description: "Freeze a goal's wording with a snapshot and a collaborator-written rationale. Locked goals reject content edits, regeneration, and activation until unlocked.",
	}, lockGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_unlock",
		Description: "Release a locked goal. Pass reason to record why in the revision trail.",
	}, unlockGoalHandler(ac))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "goal_timeline",
		Description: "Project goals onto a date window: scheduled sessions, completion forecasts, roadmap phases, and metric checkpoints. Args: ref (optional), from (YYYY-MM-DD), days.",
	}, timelineHandler(ac))

	return nil
}
