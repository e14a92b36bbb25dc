package model

// Role worker role on the floor
type Role string

const (
	RoleStaff  Role = "STAFF"  // General floor staff - matched to any vacant room
	RoleDoctor Role = "DOCTOR" // Doctor - matched deterministically by room number hint
)

// Worker is one staff member or doctor with a daily schedule window.
// Records are owned by the upstream scheduling service; the engine never
// caches them beyond a single cycle.
type Worker struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Role           Role           `json:"role"`
	Window         ScheduleWindow `json:"schedule_window"`
	RoomID         string         `json:"assigned_room_id,omitempty"` // Current assignment, empty when unassigned
	RoomNumberHint string         `json:"room_number_hint,omitempty"` // Doctors only
}

// Assigned reports whether the worker currently holds a room assignment.
func (w Worker) Assigned() bool {
	return w.RoomID != ""
}
