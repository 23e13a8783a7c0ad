// Package queue defines message payloads exchanged over the message broker.
package queue

// EventType names the queue operation behind a QueueEvent.
type EventType string

const (
	EventEnqueue EventType = "ENQUEUE" // reservation joined at the rear
	EventDequeue EventType = "DEQUEUE" // staff approved a reservation
	EventCancel  EventType = "CANCEL"  // user cancelled their reservation
	EventRemove  EventType = "REMOVE"  // staff removed a reservation
)

// QueueEvent is published after every successful queue mutation.  It
// carries enough information for downstream consumers to audit the desk
// without asking the service for state.
type QueueEvent struct {
	Type          EventType `json:"type"`
	QueueNumber   int       `json:"queue_number"`
	ReservationID string    `json:"reservation_id"`
	Name          string    `json:"name"`
	Room          string    `json:"room"`
	TimeSlot      string    `json:"time_slot"`
	Status        string    `json:"status"`
	RoomFull      bool      `json:"room_full,omitempty"`
	QueueLength   int       `json:"queue_length"`
	OccurredAt    string    `json:"occurred_at"`
}
