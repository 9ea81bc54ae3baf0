package goal

import (
	"fmt"
	"strings"
)

// ParsePriority resolves shorthands and aliases to a canonical Priority.
// Blank input passes through so callers can pick their own default.
func ParsePriority(input string) (Priority, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", nil
	}

	switch s {
	case "now", "next", "later":
		return Priority(s), nil
	case "n", "urgent", "asap", "immediate", "today", "p1":
		return PriorityNow, nil
	case "soon", "upcoming", "p2":
		return PriorityNext, nil
	case "l", "someday", "backlog", "eventually", "p3":
		return PriorityLater, nil
	}

	return "", fmt.Errorf("unknown priority %q (use now, next, or later)", input)
}

// ParseKind resolves kind aliases to a canonical Kind. Blank input passes
// through unchanged.
func ParseKind(input string) (Kind, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", nil
	}

	switch s {
	case "event", "campaign", "hybrid":
		return Kind(s), nil
	case "e", "date", "deadline", "milestone":
		return KindEvent, nil
	case "c", "metric", "push":
		return KindCampaign, nil
	case "h", "both":
		return KindHybrid, nil
	}

	return "", fmt.Errorf("unknown kind %q (use event, campaign, or hybrid)", input)
}
