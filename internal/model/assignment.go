package model

// Assignment binds a worker to a room for one work date. A worker holds at
// most one active assignment per work date. CoveringForID is set when the
// assignment was created by break substitution and points at the worker
// being covered, so the substitution can be undone.
type Assignment struct {
	WorkerID      string `json:"worker_id"`
	RoomID        string `json:"room_id"`
	WorkDate      string `json:"work_date"`
	CoveringForID string `json:"covering_for_id,omitempty"`
}

// AssignOutcome is the result of one attempted binding within a cycle.
type AssignOutcome struct {
	WorkerID string `json:"worker_id"`
	RoomID   string `json:"room_id,omitempty"`
	OK       bool   `json:"ok"`
	Reason   string `json:"reason,omitempty"` // Why the binding was skipped or failed
}

// AssignSummary aggregates one auto-assignment cycle. CycleID correlates
// the summary with the log lines emitted during that cycle.
type AssignSummary struct {
	CycleID  string          `json:"cycle_id,omitempty"`
	Assigned int             `json:"assigned"`
	Failed   int             `json:"failed"`
	Outcomes []AssignOutcome `json:"outcomes,omitempty"`
}

// ResetSummary is the structured result of a daily reset. Skipped is true
// when the marker guard suppressed the reset (already done for this date);
// no upstream call is made in that case. StaffOnShift == 0 is informational,
// not an error.
type ResetSummary struct {
	RunID           string   `json:"run_id,omitempty"`
	ResetCount      int      `json:"reset_count"`
	AutoAssignCount int      `json:"auto_assign_count"`
	RoomsProcessed  int      `json:"rooms_processed"`
	StaffOnShift    int      `json:"staff_on_shift"`
	Errors          []string `json:"errors,omitempty"`
	AssignmentLog   []string `json:"assignment_log,omitempty"`
	Skipped         bool     `json:"skipped,omitempty"`
}
