// Package repository holds the in-memory collections behind the desk:
// the live queue, the approved history, the seat catalog and the two audit
// logs.  It also defines the error values reused across the service and
// handler layers.  Handlers translate them into HTTP statuses: for example
// ErrAlreadyInQueue becomes 409 and ErrNotInQueue becomes 404.
package repository

import "errors"

// ErrAlreadyInQueue is returned when a user who already has a WAITING
// reservation tries to join again.
var ErrAlreadyInQueue = errors.New("already in queue")

// ErrNotInQueue is returned when a cancel, approval or removal targets a
// reservation that is not in the live queue.
var ErrNotInQueue = errors.New("not in queue")

// ErrInvalidInput covers empty fields, non-numeric contact numbers and ages
// outside 1–150.  It is usually wrapped with the offending field.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidCredentials is returned by the staff gate on a password
// mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrSeatNotFound is returned when a room and time slot pair is not in the
// catalog.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSessionNotFound is returned for unknown or closed session ids.
var ErrSessionNotFound = errors.New("session not found")
