package model

// Seat describes one bookable room during one time slot.  A seat entry is
// uniquely identified by its room code and time slot; the same room may
// appear several times with different slots.
//
// Fields:
//  RoomCode       – room label such as "A-201".
//  Building       – building the room belongs to.
//  TimeSlot       – free-form slot label, "HH:MM - HH:MM".
//  Capacity       – fixed number of places in the room.
//  AvailableSeats – places still free; never negative, never restored.
//  Features       – descriptive text shown on the catalog card.
type Seat struct {
	RoomCode       string `json:"room_code"`
	Building       string `json:"building"`
	TimeSlot       string `json:"time_slot"`
	Capacity       int    `json:"capacity"`
	AvailableSeats int    `json:"available_seats"`
	Features       string `json:"features"`
}

// SeatKey is the identity of a Seat entry.
type SeatKey struct {
	RoomCode string
	TimeSlot string
}

// Key returns the identity of the seat entry.
func (s Seat) Key() SeatKey {
	return SeatKey{RoomCode: s.RoomCode, TimeSlot: s.TimeSlot}
}

// IsFull reports whether no places are left.
func (s Seat) IsFull() bool {
	return s.AvailableSeats <= 0
}
