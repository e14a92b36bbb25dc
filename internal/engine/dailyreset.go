package engine

import (
	"context"
	"time"

	"wardsync/internal/model"
	"wardsync/pkg/logger"
	"wardsync/pkg/metrics"

	"github.com/google/uuid"
)

// DailyReset coordinates the exactly-once-per-day clearing of room
// occupancy. The guard is the persisted last-reset-date marker: the reset
// runs only when today's date differs from the stored one, no matter how
// many triggers fire (engine start, midnight timer, manual request).
type DailyReset struct {
	ec *Context
}

// NewDailyReset creates the reset coordinator.
func NewDailyReset(ec *Context) *DailyReset {
	return &DailyReset{ec: ec}
}

// Execute runs the reset for today's date. With force set the marker check
// is bypassed; a manual operator trigger uses that after re-confirmation.
// A reset failure is returned to the caller with full detail and is not
// auto-retried.
func (d *DailyReset) Execute(ctx context.Context, force bool) (model.ResetSummary, error) {
	today := d.ec.WorkDate()

	if !force {
		last, err := d.ec.Markers.LastResetDate(ctx, d.ec.StationID)
		if err != nil {
			// An unreadable marker degrades to "not reset yet"; the worst
			// outcome is one extra reset execution.
			logger.Warnf("daily reset: marker read failed for station %s: %v", d.ec.StationID, err)
		}
		if last == today {
			logger.Debugf("daily reset: already done for %s on station %s, skipping", today, d.ec.StationID)
			metrics.ResetExecutionsTotal.WithLabelValues("skipped").Inc()
			return model.ResetSummary{Skipped: true}, nil
		}
	}

	runID := uuid.NewString()
	summary, err := d.ec.API.ResetDaily(ctx, today)
	if err != nil {
		metrics.ResetExecutionsTotal.WithLabelValues("error").Inc()
		logger.Errorf("daily reset: upstream reset failed for station %s (run %s): %v", d.ec.StationID, runID, err)
		return model.ResetSummary{}, err
	}
	summary.RunID = runID

	if err := d.ec.Markers.SetLastResetDate(ctx, d.ec.StationID, today); err != nil {
		logger.Warnf("daily reset: marker write failed for station %s: %v", d.ec.StationID, err)
	}

	metrics.ResetExecutionsTotal.WithLabelValues("executed").Inc()
	if summary.StaffOnShift == 0 {
		logger.Infof("daily reset: completed for %s with no staff on shift (cleared %d)", today, summary.ResetCount)
	} else {
		logger.Infof("daily reset: completed for %s: cleared=%d reassigned=%d rooms=%d staff=%d errors=%d",
			today, summary.ResetCount, summary.AutoAssignCount, summary.RoomsProcessed, summary.StaffOnShift, len(summary.Errors))
	}
	return summary, nil
}

// MidnightJob adapts the coordinator into a self-rescheduling single-shot
// job: it fires at the next local midnight, executes the marker-guarded
// reset, and is then consulted again for the following midnight.
type MidnightJob struct {
	reset *DailyReset
}

// NewMidnightJob creates the midnight trigger for a reset coordinator.
func NewMidnightJob(reset *DailyReset) *MidnightJob {
	return &MidnightJob{reset: reset}
}

func (j *MidnightJob) Name() string { return "daily-reset-midnight" }

// Interval is unused for single-shot jobs but satisfies the Job interface.
func (j *MidnightJob) Interval() time.Duration { return 24 * time.Hour }

// NextRun returns the next local midnight after now.
func (j *MidnightJob) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return next.AddDate(0, 0, 1)
}

func (j *MidnightJob) Run(ctx context.Context) error {
	_, err := j.reset.Execute(ctx, false)
	return err
}
