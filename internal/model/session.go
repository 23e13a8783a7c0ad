package model

import "time"

// Session carries the identity of the person using one desk client.  It
// replaces the single process-wide "current user" so that the queue core
// never reads ambient state.
type Session struct {
	ID            string    `json:"id"`
	UserName      string    `json:"user_name"`
	ContactNumber string    `json:"contact_number"`
	Age           int       `json:"age"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasIdentity reports whether the user has saved their information yet.
// Joining the queue requires it.
func (s Session) HasIdentity() bool {
	return s.UserName != "" && s.ContactNumber != ""
}

// Notice is the "it's your turn" projection for one user.
type Notice struct {
	Visible     bool   `json:"visible"`
	UserName    string `json:"user_name,omitempty"`
	Room        string `json:"room,omitempty"`
	TimeSlot    string `json:"time_slot,omitempty"`
	QueueNumber int    `json:"queue_number,omitempty"`
	Message     string `json:"message,omitempty"`
}
