package entity

// Push event types
const (
	EventSeatUpdate = "SEAT_UPDATE"
	EventConnected  = "connected"
	EventHeartbeat  = "heartbeat"
)

// SeatUpdateEvent replaces the seat count of one schedule. Sequence is zero
// when the transport does not number its events.
type SeatUpdateEvent struct {
	Type           string `json:"type"`
	ScheduleID     int64  `json:"scheduleId"`
	AvailableSeats int    `json:"availableSeats"`
	Sequence       uint64 `json:"sequence,omitempty"`
	Timestamp      int64  `json:"timestamp,omitempty"`
}
