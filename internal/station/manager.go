// Package station owns the lifecycle of per-station engines: every driver
// and transport a station needs is created when the station is selected and
// torn down when it is deselected, so no orphaned timer keeps operating on
// a station nobody is viewing.
package station

import (
	"context"
	"sync"
	"time"

	"wardsync/internal/engine"
	"wardsync/internal/jobs"
	"wardsync/internal/model"
	"wardsync/pkg/clock"
	"wardsync/pkg/config"
	"wardsync/pkg/livesync"
	"wardsync/pkg/logger"
	"wardsync/pkg/marker"
	"wardsync/pkg/scheduleapi"
)

// Upstream is the full contract the station engines need from the
// scheduling service, including the push channel address.
type Upstream interface {
	scheduleapi.API
	StreamURL(stationID string) string
}

// Engine bundles everything one selected station runs.
type Engine struct {
	StationID  string
	StatusSync *engine.StatusSync
	AutoAssign *engine.AutoAssign
	BreakWatch *engine.BreakWatch
	DailyReset *engine.DailyReset

	jobs      *jobs.Manager
	transport *livesync.Supervisor
}

// Status is the observable state of one running engine.
type Status struct {
	StationID     string    `json:"station_id"`
	PushActive    bool      `json:"push_active"`
	LastMessageAt time.Time `json:"last_message_at"`
	SnapshotSeq   uint64    `json:"snapshot_seq"`
	Substitutions int       `json:"substitutions_active"`
}

// Manager creates and tears down station engines.
type Manager struct {
	parent   context.Context
	upstream Upstream
	markers  marker.Store
	pub      engine.Publisher
	clk      clock.Clock
	cfg      config.EngineConfig

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewManager creates the station manager. pub receives every station's
// snapshots; the hub routes them to the right viewers by station id.
func NewManager(parent context.Context, upstream Upstream, markers marker.Store, pub engine.Publisher, clk clock.Clock, cfg config.EngineConfig) *Manager {
	if clk == nil {
		clk = clock.System()
	}
	return &Manager{
		parent:   parent,
		upstream: upstream,
		markers:  markers,
		pub:      pub,
		clk:      clk,
		cfg:      cfg,
		engines:  make(map[string]*Engine),
	}
}

// Select starts an engine for the station. Selecting an already selected
// station is a no-op, so repeated UI events cannot double-start timers.
func (m *Manager) Select(stationID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eng, ok := m.engines[stationID]; ok {
		return eng
	}

	ec := &engine.Context{
		StationID: stationID,
		Clock:     m.clk,
		API:       m.upstream,
		Markers:   m.markers,
		Publisher: m.pub,
	}

	statusSync := engine.NewStatusSync(ec, m.cfg.StatusSyncInterval())
	breakWatch := engine.NewBreakWatch(ec, m.cfg.BreakWatchInterval())
	autoAssign := engine.NewAutoAssign(ec, m.cfg.AutoAssignInterval(), breakWatch)
	dailyReset := engine.NewDailyReset(ec)

	manager := jobs.NewManager(m.parent)
	manager.Register(statusSync)
	manager.Register(breakWatch)
	manager.Register(autoAssign)
	manager.Register(engine.NewMidnightJob(dailyReset))
	manager.Start()

	transport := livesync.NewSupervisor(m.parent, livesync.Options{
		StationID:        stationID,
		StreamURL:        m.upstream.StreamURL(stationID),
		Poller:           m.upstream,
		Clock:            m.clk,
		PollInterval:     m.cfg.PollFallbackInterval(),
		HeartbeatCheck:   m.cfg.HeartbeatInterval(),
		HeartbeatTimeout: m.cfg.HeartbeatTimeout(),
		Apply: func(detail model.StationDetail) {
			statusSync.ApplyExternal(detail.Workers)
		},
	})
	transport.Start()

	eng := &Engine{
		StationID:  stationID,
		StatusSync: statusSync,
		AutoAssign: autoAssign,
		BreakWatch: breakWatch,
		DailyReset: dailyReset,
		jobs:       manager,
		transport:  transport,
	}
	m.engines[stationID] = eng

	// Startup trigger for the marker-guarded reset; the guard makes this
	// safe no matter how often the station is reselected.
	go func() {
		if _, err := dailyReset.Execute(m.parent, false); err != nil {
			logger.Warnf("station %s: startup reset failed: %v", stationID, err)
		}
	}()

	logger.Infof("station %s selected, engine started", stationID)
	return eng
}

// Deselect stops the station's engine and all of its timers.
func (m *Manager) Deselect(stationID string) bool {
	m.mu.Lock()
	eng, ok := m.engines[stationID]
	if ok {
		delete(m.engines, stationID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	eng.stop()
	logger.Infof("station %s deselected, engine stopped", stationID)
	return true
}

// Get returns the running engine for a station, if selected.
func (m *Manager) Get(stationID string) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eng, ok := m.engines[stationID]
	return eng, ok
}

// Statuses reports every running engine.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, eng := range m.engines {
		engines = append(engines, eng)
	}
	m.mu.Unlock()

	out := make([]Status, 0, len(engines))
	for _, eng := range engines {
		status := Status{
			StationID:     eng.StationID,
			PushActive:    eng.transport.PushActive(),
			LastMessageAt: eng.transport.LastMessageAt(),
			Substitutions: eng.BreakWatch.ActiveSubstitutions(),
		}
		if snap := eng.StatusSync.LastSnapshot(); snap != nil {
			status.SnapshotSeq = snap.Seq
		}
		out = append(out, status)
	}
	return out
}

// StopAll tears down every engine; used at shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	engines := m.engines
	m.engines = make(map[string]*Engine)
	m.mu.Unlock()

	for _, eng := range engines {
		eng.stop()
	}
}

func (e *Engine) stop() {
	e.jobs.Stop()
	e.transport.Stop()
	e.jobs.Wait()
}
