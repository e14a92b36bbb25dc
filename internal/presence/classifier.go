// Package presence derives a worker's live status from their schedule window.
package presence

import (
	"wardsync/internal/model"
)

// Classify maps (now, window, assignment present) to exactly one presence
// status. Pure and total: same inputs always produce the same output, and
// every input tuple resolves to a status.
//
// Precedence, first match wins:
//  1. Before work start: waiting to start.
//  2. Inside the break window: on break. Break pre-empts everything else
//     once the shift has begun, including time past the nominal work end.
//  3. At or past work end: overtime when assigned, offline otherwise.
//  4. Inside the work window: working when assigned, available otherwise.
//  5. Fallback: available.
//
// All comparisons use minute-truncated times with start-inclusive,
// end-exclusive interval bounds, so a status never flickers at a boundary.
func Classify(now model.TimeOfDay, window model.ScheduleWindow, hasAssignment bool) model.PresenceStatus {
	if now < window.WorkStart {
		return model.StatusWaitingToStart
	}
	if window.InBreak(now) {
		return model.StatusOnBreak
	}
	if now >= window.WorkEnd {
		if hasAssignment {
			return model.StatusOvertime
		}
		return model.StatusOffline
	}
	if now >= window.WorkStart && now < window.WorkEnd {
		if hasAssignment {
			return model.StatusWorking
		}
		return model.StatusAvailable
	}
	return model.StatusAvailable
}
