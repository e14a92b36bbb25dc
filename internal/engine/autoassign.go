package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wardsync/internal/model"
	"wardsync/internal/presence"
	"wardsync/pkg/logger"
	"wardsync/pkg/metrics"

	"github.com/google/uuid"
)

// CoverageView exposes which rooms are currently held by a break
// substitution, so the auto-assignment cycle excludes them from its vacancy
// set and the two drivers never race on the same room.
type CoverageView interface {
	CoveredRooms() map[string]bool
}

type noCoverage struct{}

func (noCoverage) CoveredRooms() map[string]bool { return nil }

// AutoAssign is the recurring driver that binds idle on-shift workers to
// vacant rooms. Doctors match deterministically by their room number hint;
// staff take the first vacancy that still needs coverage.
type AutoAssign struct {
	ec       *Context
	interval time.Duration
	coverage CoverageView

	mu          sync.Mutex
	lastMinute  string
	lastSummary model.AssignSummary
}

// NewAutoAssign creates the auto-assignment driver. coverage may be nil
// when no break monitor runs alongside it.
func NewAutoAssign(ec *Context, interval time.Duration, coverage CoverageView) *AutoAssign {
	if coverage == nil {
		coverage = noCoverage{}
	}
	return &AutoAssign{ec: ec, interval: interval, coverage: coverage}
}

func (a *AutoAssign) Name() string { return "auto-assign" }

func (a *AutoAssign) Interval() time.Duration { return a.interval }

// Run executes one cycle behind the minute-level dedupe guard.
func (a *AutoAssign) Run(ctx context.Context) error {
	_, err := a.RunCycle(ctx)
	return err
}

// RunCycle fetches eligible workers and vacant rooms and attempts to bind
// them, returning the per-worker outcome summary. Re-running with unchanged
// input state produces the same assignment set: bindings are issued through
// idempotent upstream mutations and nothing is cached between cycles.
//
// A dedupe guard keyed by the truncated minute suppresses a second cycle
// within the same clock minute, so overlapping timers cannot double-run.
func (a *AutoAssign) RunCycle(ctx context.Context) (model.AssignSummary, error) {
	minute := a.ec.Clock.Now().Format("2006-01-02 15:04")

	a.mu.Lock()
	if a.lastMinute == minute {
		a.mu.Unlock()
		logger.Debugf("auto-assign: cycle already ran in minute %s, skipping", minute)
		metrics.CyclesTotal.WithLabelValues(a.Name(), "skipped").Inc()
		return model.AssignSummary{}, nil
	}
	a.lastMinute = minute
	a.mu.Unlock()

	workers, err := a.ec.API.GetUnassignedWorkers(ctx, a.ec.StationID, a.ec.WorkDate())
	if err != nil {
		metrics.CyclesTotal.WithLabelValues(a.Name(), "error").Inc()
		logger.Warnf("auto-assign: fetch workers failed for station %s: %v", a.ec.StationID, err)
		return model.AssignSummary{}, nil
	}
	rooms, err := a.ec.API.GetVacantRooms(ctx, a.ec.StationID)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues(a.Name(), "error").Inc()
		logger.Warnf("auto-assign: fetch rooms failed for station %s: %v", a.ec.StationID, err)
		return model.AssignSummary{}, nil
	}

	summary := a.bind(ctx, workers, rooms)
	summary.CycleID = uuid.NewString()

	a.mu.Lock()
	a.lastSummary = summary
	a.mu.Unlock()

	metrics.CyclesTotal.WithLabelValues(a.Name(), "ok").Inc()
	if summary.Assigned > 0 || summary.Failed > 0 {
		logger.Infof("auto-assign: station %s cycle %s assigned=%d failed=%d", a.ec.StationID, summary.CycleID, summary.Assigned, summary.Failed)
	}
	return summary, nil
}

func (a *AutoAssign) bind(ctx context.Context, workers []model.Worker, rooms []model.Room) model.AssignSummary {
	covered := a.coverage.CoveredRooms()
	now := a.ec.NowOfDay()

	byNumber := make(map[string]model.Room, len(rooms))
	free := make([]model.Room, 0, len(rooms))
	taken := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		if covered[r.ID] {
			continue
		}
		byNumber[r.Number] = r
		free = append(free, r)
	}

	var summary model.AssignSummary
	for _, w := range workers {
		// Eligibility: the worker must be on shift and idle right now.
		if presence.Classify(now, w.Window, false) != model.StatusAvailable {
			continue
		}

		outcome := a.bindOne(ctx, w, byNumber, free, taken)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.OK {
			summary.Assigned++
			taken[outcome.RoomID] = true
			metrics.AssignmentsTotal.WithLabelValues("assigned").Inc()
		} else if outcome.RoomID != "" {
			summary.Failed++
			metrics.AssignmentsTotal.WithLabelValues("failed").Inc()
		} else {
			metrics.AssignmentsTotal.WithLabelValues("skipped").Inc()
		}
	}
	return summary
}

func (a *AutoAssign) bindOne(ctx context.Context, w model.Worker, byNumber map[string]model.Room, free []model.Room, taken map[string]bool) model.AssignOutcome {
	var room model.Room
	var found bool

	if w.Role == model.RoleDoctor {
		// Doctors bind only to the room matching their number hint.
		room, found = byNumber[w.RoomNumberHint]
		if found && taken[room.ID] {
			found = false
		}
		if !found {
			logger.Infof("auto-assign: no vacant room with number %q for doctor %s, skipping this cycle", w.RoomNumberHint, w.ID)
			return model.AssignOutcome{WorkerID: w.ID, Reason: fmt.Sprintf("no vacant room with number %q", w.RoomNumberHint)}
		}
	} else {
		for _, r := range free {
			if !taken[r.ID] {
				room, found = r, true
				break
			}
		}
		if !found {
			return model.AssignOutcome{WorkerID: w.ID, Reason: "no vacant room"}
		}
	}

	if err := a.ec.API.Assign(ctx, w.ID, room.ID); err != nil {
		logger.Warnf("auto-assign: binding %s -> %s failed: %v", w.ID, room.ID, err)
		return model.AssignOutcome{WorkerID: w.ID, RoomID: room.ID, Reason: err.Error()}
	}
	return model.AssignOutcome{WorkerID: w.ID, RoomID: room.ID, OK: true}
}

// LastSummary returns the summary of the most recent completed cycle.
func (a *AutoAssign) LastSummary() model.AssignSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSummary
}
