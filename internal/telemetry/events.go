package telemetry

import "time"

// Event names. Properties never carry goal titles, bodies, or any other
// workspace content.
const (
	EventCommandExecuted     = "command_executed"
	EventBreakdownComplete   = "breakdown_complete"
	EventActivationConfirmed = "activation_confirmed"
	EventGoalCompleted       = "goal_completed"
	EventMCPSessionStart     = "mcp_session_start"
)

// TrackCommand records one CLI command execution.
func TrackCommand(c Client, command string, duration time.Duration, success bool, errorType string) {
	if c == nil {
		return
	}
	props := Properties{
		"command":     command,
		"duration_ms": duration.Milliseconds(),
		"success":     success,
	}
	if errorType != "" {
		props["error_type"] = errorType
	}
	c.Track(EventCommandExecuted, props)
}

// TrackBreakdown records a completed breakdown without its content.
func TrackBreakdown(c Client, provider string, nodeCount int, accepted bool) {
	if c == nil {
		return
	}
	c.Track(EventBreakdownComplete, Properties{
		"provider":   provider,
		"node_count": nodeCount,
		"accepted":   accepted,
	})
}
