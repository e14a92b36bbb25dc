package engine

import (
	"context"
	"sync"
	"time"

	"wardsync/internal/model"
	"wardsync/internal/presence"
	"wardsync/pkg/logger"
	"wardsync/pkg/metrics"
)

// substitution records one break coverage in effect. RoomID is the room the
// original worker held before the substitution, so restoration puts back
// exactly that room.
type substitution struct {
	OriginalID   string
	SubstituteID string
	RoomID       string
	StartedAt    time.Time
}

// BreakWatch is the recurring driver that covers rooms during break windows.
// On break entry it moves the room assignment to an available substitute; on
// break exit it moves it back. A break with no available substitute leaves
// the room uncovered, which is an accepted degraded state.
type BreakWatch struct {
	ec       *Context
	interval time.Duration

	mu     sync.Mutex
	active map[string]substitution // keyed by original worker id
}

// NewBreakWatch creates the break coverage driver.
func NewBreakWatch(ec *Context, interval time.Duration) *BreakWatch {
	return &BreakWatch{
		ec:       ec,
		interval: interval,
		active:   make(map[string]substitution),
	}
}

func (b *BreakWatch) Name() string { return "break-watch" }

func (b *BreakWatch) Interval() time.Duration { return b.interval }

// CoveredRooms returns the rooms currently held by a substitution.
func (b *BreakWatch) CoveredRooms() map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	covered := make(map[string]bool, len(b.active))
	for _, sub := range b.active {
		covered[sub.RoomID] = true
	}
	return covered
}

// Run executes one detection cycle: restorations first, then new
// substitutions, so a substitute freed this cycle can cover another break.
func (b *BreakWatch) Run(ctx context.Context) error {
	workers, err := b.ec.API.GetPresenceList(ctx, b.ec.StationID, b.ec.WorkDate())
	if err != nil {
		metrics.CyclesTotal.WithLabelValues(b.Name(), "error").Inc()
		logger.Warnf("break watch: fetch failed for station %s: %v", b.ec.StationID, err)
		return nil
	}

	now := b.ec.NowOfDay()
	byID := make(map[string]model.Worker, len(workers))
	for _, w := range workers {
		byID[w.ID] = w
	}

	b.restoreEnded(ctx, now, byID)
	b.coverNew(ctx, now, workers, byID)

	metrics.CyclesTotal.WithLabelValues(b.Name(), "ok").Inc()
	return nil
}

// restoreEnded undoes substitutions whose original worker's break is over.
func (b *BreakWatch) restoreEnded(ctx context.Context, now model.TimeOfDay, byID map[string]model.Worker) {
	for originalID, sub := range b.snapshotActive() {
		original, known := byID[originalID]
		if known && !original.Window.BreakOver(now) {
			continue
		}
		// An original no longer on the roster is restored as well, so a
		// substitution never outlives its worker record.

		if err := b.ec.API.Replace(ctx, sub.SubstituteID, originalID, sub.RoomID); err != nil {
			logger.Warnf("break watch: restore of %s to room %s failed, retrying next cycle: %v", originalID, sub.RoomID, err)
			continue
		}

		b.mu.Lock()
		delete(b.active, originalID)
		b.mu.Unlock()
		metrics.SubstitutionsActive.Dec()
		logger.Infof("break watch: restored %s to room %s, released substitute %s", originalID, sub.RoomID, sub.SubstituteID)
	}
}

// coverNew substitutes for workers who just entered their break while
// holding a room.
func (b *BreakWatch) coverNew(ctx context.Context, now model.TimeOfDay, workers []model.Worker, byID map[string]model.Worker) {
	for _, w := range workers {
		if !w.Assigned() || !w.Window.InBreak(now) {
			continue
		}
		if b.isCovering(w.ID) || b.isCovered(w.ID) {
			continue
		}

		sub, ok := b.findSubstitute(now, workers)
		if !ok {
			metrics.UncoveredBreaksTotal.Inc()
			logger.Warnf("break watch: no substitute available for %s, room %s stays uncovered", w.ID, w.RoomID)
			continue
		}

		if err := b.ec.API.Replace(ctx, w.ID, sub.ID, w.RoomID); err != nil {
			logger.Warnf("break watch: substitution %s -> %s for room %s failed: %v", w.ID, sub.ID, w.RoomID, err)
			continue
		}

		b.mu.Lock()
		b.active[w.ID] = substitution{
			OriginalID:   w.ID,
			SubstituteID: sub.ID,
			RoomID:       w.RoomID,
			StartedAt:    b.ec.Clock.Now(),
		}
		b.mu.Unlock()
		metrics.SubstitutionsActive.Inc()
		logger.Infof("break watch: %s covers room %s while %s is on break", sub.ID, w.RoomID, w.ID)
	}
}

// findSubstitute picks the first currently available worker not already
// involved in a substitution.
func (b *BreakWatch) findSubstitute(now model.TimeOfDay, workers []model.Worker) (model.Worker, bool) {
	for _, candidate := range workers {
		if presence.Classify(now, candidate.Window, candidate.Assigned()) != model.StatusAvailable {
			continue
		}
		if b.isCovering(candidate.ID) || b.isCovered(candidate.ID) {
			continue
		}
		return candidate, true
	}
	return model.Worker{}, false
}

func (b *BreakWatch) snapshotActive() map[string]substitution {
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := make(map[string]substitution, len(b.active))
	for k, v := range b.active {
		copied[k] = v
	}
	return copied
}

func (b *BreakWatch) isCovering(workerID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.active {
		if sub.SubstituteID == workerID {
			return true
		}
	}
	return false
}

func (b *BreakWatch) isCovered(workerID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.active[workerID]
	return ok
}

// ActiveSubstitutions returns the number of substitutions in effect.
func (b *BreakWatch) ActiveSubstitutions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active)
}
