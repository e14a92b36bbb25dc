// Package engine implements the recurring drivers that keep a station's
// live presence and room occupancy correct: status synchronization,
// auto-assignment, break coverage, and the daily reset.
package engine

import (
	"wardsync/internal/model"
	"wardsync/pkg/clock"
	"wardsync/pkg/marker"
	"wardsync/pkg/scheduleapi"
)

// Publisher receives the full classified snapshot once per sync cycle.
// A publisher with no subscribers is a valid no-op.
type Publisher interface {
	PublishSnapshot(snapshot model.PresenceSnapshot)
}

// NopPublisher discards snapshots.
type NopPublisher struct{}

func (NopPublisher) PublishSnapshot(model.PresenceSnapshot) {}

// Context carries everything a driver needs for one station: identity,
// time source, the upstream contract and the marker store. Drivers hold no
// global state; constructing a new Context per selected station keeps
// concurrent stations isolated.
type Context struct {
	StationID string
	Clock     clock.Clock
	API       scheduleapi.API
	Markers   marker.Store
	Publisher Publisher
}

// WorkDate returns the current calendar date string used to key assignments
// and the reset marker.
func (c *Context) WorkDate() string {
	return c.Clock.Now().Format("2006-01-02")
}

// NowOfDay returns the minute-truncated current time of day.
func (c *Context) NowOfDay() model.TimeOfDay {
	return model.TimeOfDayFrom(c.Clock.Now())
}

func (c *Context) publisher() Publisher {
	if c.Publisher == nil {
		return NopPublisher{}
	}
	return c.Publisher
}
