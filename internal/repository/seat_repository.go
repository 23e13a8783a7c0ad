package repository // repository defines the in-memory seat catalog

import (
	"strings" // case-insensitive matching for catalog search
	"sync"    // guards the availability counters

	"github.com/iliyamo/flowdesk/internal/model" // shared domain types
)

// AllFilter is the catalog filter value meaning "no restriction".
const AllFilter = "All"

// SeatFilter narrows a catalog search.  Query is matched as a
// case-insensitive substring against room code, building, time slot and
// features.  Building and TimeSlot are exact (case-insensitive) filters;
// empty or "All" disables them.
type SeatFilter struct {
	Query    string
	Building string
	TimeSlot string
}

// SeatRepo is the room/time slot inventory.  Entries keep catalog order so
// listings are stable.  It is safe for concurrent use.
type SeatRepo struct {
	mu    sync.RWMutex
	seats []model.Seat          // catalog order
	index map[model.SeatKey]int // key -> position in seats
}

// NewSeatRepo constructs a SeatRepo holding the given entries.  A later
// entry with the same room and time slot replaces the earlier one.
func NewSeatRepo(seats []model.Seat) *SeatRepo {
	r := &SeatRepo{index: make(map[model.SeatKey]int, len(seats))}
	for _, s := range seats {
		if s.AvailableSeats < 0 {
			s.AvailableSeats = 0
		}
		if i, ok := r.index[s.Key()]; ok {
			r.seats[i] = s
			continue
		}
		r.index[s.Key()] = len(r.seats)
		r.seats = append(r.seats, s)
	}
	return r
}

// DefaultCatalog returns the rooms offered by the desk out of the box.
func DefaultCatalog() []model.Seat {
	return []model.Seat{
		{RoomCode: "A-201", Building: "Main Building", TimeSlot: "10:00 - 12:00", Capacity: 10, AvailableSeats: 0, Features: "PC • Airconditioned"},
		{RoomCode: "A-102", Building: "Main Building", TimeSlot: "14:00 - 16:00", Capacity: 8, AvailableSeats: 0, Features: "Silent Zone"},
		{RoomCode: "B-101", Building: "Annex", TimeSlot: "13:00 - 15:00", Capacity: 6, AvailableSeats: 2, Features: "Near Window"},
		{RoomCode: "B-202", Building: "Annex", TimeSlot: "09:00 - 11:00", Capacity: 12, AvailableSeats: 4, Features: "Group Study"},
		{RoomCode: "C-301", Building: "Library Wing", TimeSlot: "15:00 - 17:00", Capacity: 20, AvailableSeats: 8, Features: "PC • Projector"},
		{RoomCode: "C-105", Building: "Library Wing", TimeSlot: "08:00 - 10:00", Capacity: 5, AvailableSeats: 0, Features: "Silent Zone • Individual"},
	}
}

// Get returns the seat entry for a room and time slot.  Matching is exact.
func (r *SeatRepo) Get(room, timeSlot string) (model.Seat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[model.SeatKey{RoomCode: room, TimeSlot: timeSlot}]
	if !ok {
		return model.Seat{}, ErrSeatNotFound
	}
	return r.seats[i], nil
}

// HasAvailableSeats reports whether the entry exists and still has free
// places.  Unknown entries report false.
func (r *SeatRepo) HasAvailableSeats(room, timeSlot string) bool {
	s, err := r.Get(room, timeSlot)
	return err == nil && s.AvailableSeats > 0
}

// DecreaseAvailability takes one place from the entry.  It is a no-op when
// the entry is unknown or already at zero.  There is no way to give a place
// back.
func (r *SeatRepo) DecreaseAvailability(room, timeSlot string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[model.SeatKey{RoomCode: room, TimeSlot: timeSlot}]
	if !ok {
		return
	}
	if r.seats[i].AvailableSeats > 0 {
		r.seats[i].AvailableSeats--
	}
}

// List returns a snapshot of every entry in catalog order.
func (r *SeatRepo) List() []model.Seat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Seat, len(r.seats))
	copy(out, r.seats)
	return out
}

// Search returns the entries matching f in catalog order.
func (r *SeatRepo) Search(f SeatFilter) []model.Seat {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]model.Seat, 0)
	for _, s := range r.List() {
		if q != "" && !matchesQuery(s, q) {
			continue
		}
		if !matchesFilter(s.Building, f.Building) || !matchesFilter(s.TimeSlot, f.TimeSlot) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matchesQuery(s model.Seat, q string) bool {
	return strings.Contains(strings.ToLower(s.RoomCode), q) ||
		strings.Contains(strings.ToLower(s.Building), q) ||
		strings.Contains(strings.ToLower(s.TimeSlot), q) ||
		strings.Contains(strings.ToLower(s.Features), q)
}

func matchesFilter(value, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == AllFilter {
		return true
	}
	return strings.EqualFold(value, filter)
}
