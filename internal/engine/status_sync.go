package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wardsync/internal/model"
	"wardsync/internal/presence"
	"wardsync/pkg/logger"
	"wardsync/pkg/metrics"
)

// StatusSync is the recurring driver that classifies every worker on the
// station and fans the result out: once to UI observers, once back to the
// upstream service for audit history. A failed cycle is logged and retried
// on the next tick, never raised.
type StatusSync struct {
	ec       *Context
	interval time.Duration
	seq      atomic.Uint64

	mu   sync.RWMutex
	last *model.PresenceSnapshot
}

// NewStatusSync creates the status synchronization driver.
func NewStatusSync(ec *Context, interval time.Duration) *StatusSync {
	return &StatusSync{ec: ec, interval: interval}
}

func (s *StatusSync) Name() string { return "status-sync" }

func (s *StatusSync) Interval() time.Duration { return s.interval }

// Run executes one sync cycle.
func (s *StatusSync) Run(ctx context.Context) error {
	workers, err := s.ec.API.GetPresenceList(ctx, s.ec.StationID, s.ec.WorkDate())
	if err != nil {
		metrics.CyclesTotal.WithLabelValues(s.Name(), "error").Inc()
		logger.Warnf("status sync: fetch failed for station %s: %v", s.ec.StationID, err)
		return nil
	}

	snapshot := s.buildSnapshot(workers)
	s.apply(snapshot)
	s.ec.publisher().PublishSnapshot(snapshot)
	metrics.SnapshotsPublished.Inc()

	updates := make([]model.StatusUpdate, 0, len(snapshot.Records))
	for _, r := range snapshot.Records {
		updates = append(updates, model.StatusUpdate{WorkerID: r.Worker.ID, Status: r.Status})
	}
	if _, err := s.ec.API.PushStatusBatch(ctx, s.ec.StationID, snapshot.WorkDate, updates); err != nil {
		// The snapshot already reached observers; only the audit write is
		// retried next tick.
		metrics.CyclesTotal.WithLabelValues(s.Name(), "error").Inc()
		logger.Warnf("status sync: persist failed for station %s: %v", s.ec.StationID, err)
		return nil
	}

	metrics.CyclesTotal.WithLabelValues(s.Name(), "ok").Inc()
	return nil
}

func (s *StatusSync) buildSnapshot(workers []model.Worker) model.PresenceSnapshot {
	now := s.ec.NowOfDay()
	records := make([]model.PresenceRecord, 0, len(workers))
	for _, w := range workers {
		records = append(records, model.PresenceRecord{
			Worker: w,
			Status: presence.Classify(now, w.Window, w.Assigned()),
		})
	}
	return model.PresenceSnapshot{
		StationID: s.ec.StationID,
		WorkDate:  s.ec.WorkDate(),
		Records:   records,
		Counts:    model.CountByStatus(records),
		Seq:       s.seq.Add(1),
		TakenAt:   s.ec.Clock.Now(),
	}
}

// ApplyExternal runs worker records delivered by the live sync transport
// through the same classify-and-publish pipeline as a sync cycle, so push
// frames and poll responses update viewers identically.
func (s *StatusSync) ApplyExternal(workers []model.Worker) {
	snapshot := s.buildSnapshot(workers)
	s.apply(snapshot)
	s.ec.publisher().PublishSnapshot(snapshot)
	metrics.SnapshotsPublished.Inc()
}

// apply caches the snapshot for pull consumers. Snapshots carry a monotonic
// Seq; a slow cycle completing after a newer one is dropped here.
func (s *StatusSync) apply(snapshot model.PresenceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil && snapshot.Seq <= s.last.Seq {
		logger.Debugf("status sync: dropping stale snapshot seq %d (have %d)", snapshot.Seq, s.last.Seq)
		return
	}
	s.last = &snapshot
}

// LastSnapshot returns the most recently applied snapshot, or nil before
// the first successful cycle.
func (s *StatusSync) LastSnapshot() *model.PresenceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
