// Package calendar provides the default calendar collaborator. It records
// events in the workspace journal instead of an external scheduling service,
// so activation works offline and leaves an auditable trail.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stridehq/stride/internal/lifecycle"
	"github.com/stridehq/stride/internal/store"
)

// Journal is the storage the local calendar writes through.
type Journal interface {
	RecordEvent(e store.JournalEntry) error
	CancelEvent(id string) error
}

// Local is a calendar backed by the workspace journal. It assigns its own
// event ids and never talks to the network.
type Local struct {
	journal Journal
	goalID  string
}

var _ lifecycle.Calendar = (*Local)(nil)

// NewLocal returns a local calendar writing through the given journal.
func NewLocal(journal Journal) *Local {
	return &Local{journal: journal}
}

// ForGoal returns a calendar whose recorded events are attributed to the
// given goal in the journal.
func (l *Local) ForGoal(goalID string) *Local {
	return &Local{journal: l.journal, goalID: goalID}
}

// CreateEvent records a scheduled event and returns its id.
func (l *Local) CreateEvent(ctx context.Context, title string, start time.Time, duration time.Duration, notes string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	entry := store.JournalEntry{
		ID:       id,
		GoalID:   l.goalID,
		Title:    title,
		Notes:    notes,
		Start:    start,
		Duration: duration,
	}
	if err := l.journal.RecordEvent(entry); err != nil {
		return "", fmt.Errorf("record calendar event: %w", err)
	}

	slog.Debug("calendar event recorded", "event", id, "title", title, "start", start)
	return id, nil
}

// CancelEvent marks a previously recorded event cancelled.
func (l *Local) CancelEvent(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.journal.CancelEvent(eventID); err != nil {
		return fmt.Errorf("cancel calendar event: %w", err)
	}

	slog.Debug("calendar event cancelled", "event", eventID)
	return nil
}
