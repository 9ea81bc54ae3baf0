package app

import (
	"errors"

	"github.com/stridehq/stride/internal/goal"
)

// domainFailure classifies an error as user-facing or infrastructural.
// User-facing errors become Success=false results with a hint; everything
// else propagates as a real error.
func domainFailure(err error) (message, hint string, ok bool) {
	var lockedErr *goal.LockedError
	var cycleErr *goal.CycleError
	var selfErr *goal.SelfDependencyError
	var limitErr *goal.StepLimitError
	var dupStepErr *goal.DuplicateStepError
	var svcErr *goal.ExternalServiceError

	switch {
	case errors.Is(err, goal.ErrNotFound):
		return err.Error(), "Run 'stride list' to see goal ids.", true
	case errors.As(err, &lockedErr):
		return err.Error(), "Unlock it first with 'stride unlock " + shortID(lockedErr.ID) + "'.", true
	case errors.Is(err, goal.ErrNothingToLock):
		return err.Error(), "Give the goal a title or body before locking.", true
	case errors.Is(err, goal.ErrAlreadyBrokenDown):
		return err.Error(), "Use 'stride show' to see the existing subgoals, or delete them first.", true
	case errors.Is(err, goal.ErrNotSequential):
		return err.Error(), "Start a roadmap with 'stride step start'.", true
	case errors.Is(err, goal.ErrNoCurrentStep):
		return err.Error(), "Re-seed the roadmap with 'stride step start'.", true
	case errors.As(err, &limitErr):
		return err.Error(), "Complete the goal or split the remaining work into a new one.", true
	case errors.As(err, &dupStepErr):
		return err.Error(), "", true
	case errors.As(err, &cycleErr), errors.As(err, &selfErr):
		return err.Error(), "", true
	case errors.As(err, &svcErr):
		if svcErr.Service == "reasoning" {
			return err.Error(), "Check the LLM provider configuration ('stride config get llm.provider').", true
		}
		return err.Error(), "", true
	}
	return "", "", false
}

// shortID returns a compact 8-char prefix of a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
