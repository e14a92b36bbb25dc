package model

// Room is one room within a station.
type Room struct {
	ID          string   `json:"id"`
	StationID   string   `json:"station_id"`
	Number      string   `json:"room_number"` // Used for doctor hint matching
	OccupantIDs []string `json:"occupant_ids,omitempty"`
}

// Vacant reports whether the room has no occupants.
func (r Room) Vacant() bool {
	return len(r.OccupantIDs) == 0
}

// StationDetail is the full station view delivered over the push channel and
// returned by the polling fallback endpoint.
type StationDetail struct {
	StationID string   `json:"station_id"`
	WorkDate  string   `json:"work_date"`
	Workers   []Worker `json:"workers"`
	Rooms     []Room   `json:"rooms"`
}
