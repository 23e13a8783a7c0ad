package model

import (
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a queued reservation.
// Removal (cancel or staff removal) is not a status: the entry simply
// leaves the live queue.
type ReservationStatus string

const (
	StatusWaiting  ReservationStatus = "WAITING"
	StatusApproved ReservationStatus = "APPROVED"
)

// Reservation records one walk-in request for a room and time slot.
// Identity fields are fixed at creation; only Status changes, and only
// once (WAITING to APPROVED).
//
// Fields:
//  QueueNumber   – process-wide, strictly increasing, never reused. The
//                  sole ordering key of the queue.
//  ReservationID – display id derived from QueueNumber ("R0007").
//  Room/TimeSlot – the seat catalog key the reservation was made against.
//  JoinedAt      – when the reservation entered the queue.
type Reservation struct {
	QueueNumber   int               `json:"queue_number"`
	ReservationID string            `json:"reservation_id"`
	Name          string            `json:"name"`
	ContactNumber string            `json:"contact_number"`
	Age           int               `json:"age"`
	Room          string            `json:"room"`
	TimeSlot      string            `json:"time_slot"`
	Status        ReservationStatus `json:"status"`
	JoinedAt      time.Time         `json:"joined_at"`
}

// NewReservation builds a WAITING reservation for the given queue number.
func NewReservation(queueNumber int, name, contact string, age int, room, timeSlot string, joinedAt time.Time) Reservation {
	return Reservation{
		QueueNumber:   queueNumber,
		ReservationID: FormatReservationID(queueNumber),
		Name:          name,
		ContactNumber: contact,
		Age:           age,
		Room:          room,
		TimeSlot:      timeSlot,
		Status:        StatusWaiting,
		JoinedAt:      joinedAt,
	}
}

// FormatReservationID renders the display id for a queue number.
func FormatReservationID(queueNumber int) string {
	return fmt.Sprintf("R%04d", queueNumber)
}

// Ticket is the "Q-7" label used in log lines and staff views.
func (r Reservation) Ticket() string {
	return fmt.Sprintf("Q-%d", r.QueueNumber)
}

// IsWaiting reports whether the reservation still waits for service.
func (r Reservation) IsWaiting() bool {
	return r.Status == StatusWaiting
}
