package model

import "time"

// PresenceStatus live status derived from a worker's schedule window
type PresenceStatus string

const (
	StatusWaitingToStart PresenceStatus = "WAITING_TO_START" // Before work start
	StatusAvailable      PresenceStatus = "AVAILABLE"        // On shift, no room assignment
	StatusWorking        PresenceStatus = "WORKING"          // On shift, assigned to a room
	StatusOnBreak        PresenceStatus = "ON_BREAK"         // Inside the break window
	StatusOvertime       PresenceStatus = "OVERTIME"         // Past work end, still assigned
	StatusOffline        PresenceStatus = "OFFLINE"          // Past work end, unassigned
)

// AllStatuses lists every presence status, in display order.
var AllStatuses = []PresenceStatus{
	StatusWaitingToStart,
	StatusAvailable,
	StatusWorking,
	StatusOnBreak,
	StatusOvertime,
	StatusOffline,
}

// PresenceRecord is one worker's classified status for the current cycle.
type PresenceRecord struct {
	Worker Worker         `json:"worker"`
	Status PresenceStatus `json:"status"`
}

// PresenceSnapshot is the full classified view of a station for one sync
// cycle. Seq is a per-engine monotonic counter; consumers drop snapshots
// whose Seq is not newer than the last one they applied, so a slow early
// response cannot overwrite fresher state.
type PresenceSnapshot struct {
	StationID string                 `json:"station_id"`
	WorkDate  string                 `json:"work_date"`
	Records   []PresenceRecord       `json:"records"`
	Counts    map[PresenceStatus]int `json:"counts"`
	Seq       uint64                 `json:"seq"`
	TakenAt   time.Time              `json:"taken_at"`
}

// CountByStatus tallies records per status.
func CountByStatus(records []PresenceRecord) map[PresenceStatus]int {
	counts := make(map[PresenceStatus]int, len(AllStatuses))
	for _, r := range records {
		counts[r.Status]++
	}
	return counts
}

// StatusUpdate is the per-worker status written back to the upstream service
// for audit and history.
type StatusUpdate struct {
	WorkerID string         `json:"worker_id"`
	Status   PresenceStatus `json:"status"`
}
