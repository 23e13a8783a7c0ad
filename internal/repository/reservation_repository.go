package repository

import (
	"container/list"
	"strings"

	"github.com/iliyamo/flowdesk/internal/model"
)

// QueueRepo is the live queue: WAITING reservations in arrival order.
// Entries are keyed by queue number so a reservation can leave from any
// position in O(1) without renumbering the others.  A second index maps
// the trimmed name to the queue number for duplicate checks and lookups.
//
// QueueRepo is not safe for concurrent use; the queue engine serialises
// every access under its own lock.
type QueueRepo struct {
	order  *list.List            // *model.Reservation, front = oldest
	byNum  map[int]*list.Element // queue number -> element
	byName map[string]int        // trimmed name -> queue number
}

// NewQueueRepo returns an empty queue.
func NewQueueRepo() *QueueRepo {
	return &QueueRepo{
		order:  list.New(),
		byNum:  make(map[int]*list.Element),
		byName: make(map[string]int),
	}
}

// Enqueue appends r at the rear.  The caller guarantees that the queue
// number is new and that no entry with the same name is waiting.
func (q *QueueRepo) Enqueue(r model.Reservation) {
	rc := r
	q.byNum[r.QueueNumber] = q.order.PushBack(&rc)
	q.byName[strings.TrimSpace(r.Name)] = r.QueueNumber
}

// Get returns the entry with the given queue number.
func (q *QueueRepo) Get(queueNumber int) (model.Reservation, bool) {
	el, ok := q.byNum[queueNumber]
	if !ok {
		return model.Reservation{}, false
	}
	return *el.Value.(*model.Reservation), true
}

// FindByName returns the entry whose trimmed name equals the trimmed
// query.  Matching is case-sensitive.
func (q *QueueRepo) FindByName(name string) (model.Reservation, bool) {
	num, ok := q.byName[strings.TrimSpace(name)]
	if !ok {
		return model.Reservation{}, false
	}
	return q.Get(num)
}

// Remove takes the entry with the given queue number out of the queue and
// returns it.
func (q *QueueRepo) Remove(queueNumber int) (model.Reservation, bool) {
	el, ok := q.byNum[queueNumber]
	if !ok {
		return model.Reservation{}, false
	}
	r := *q.order.Remove(el).(*model.Reservation)
	delete(q.byNum, queueNumber)
	key := strings.TrimSpace(r.Name)
	if q.byName[key] == queueNumber {
		delete(q.byName, key)
	}
	return r, true
}

// CountWaitingBefore counts WAITING entries whose queue number is lower
// than queueNumber.
func (q *QueueRepo) CountWaitingBefore(queueNumber int) int {
	n := 0
	for el := q.order.Front(); el != nil; el = el.Next() {
		r := el.Value.(*model.Reservation)
		if r.QueueNumber < queueNumber && r.IsWaiting() {
			n++
		}
	}
	return n
}

// Len reports the number of entries in the queue.
func (q *QueueRepo) Len() int { return q.order.Len() }

// Snapshot copies the queue in FIFO order.
func (q *QueueRepo) Snapshot() []model.Reservation {
	out := make([]model.Reservation, 0, q.order.Len())
	for el := q.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*model.Reservation))
	}
	return out
}

// ApprovedRepo keeps approved reservations for the staff history view.
// Entries are never changed after being added.  Not safe for concurrent
// use.
type ApprovedRepo struct {
	items []model.Reservation
}

// NewApprovedRepo returns an empty history.
func NewApprovedRepo() *ApprovedRepo { return &ApprovedRepo{} }

// Add appends r to the history.
func (a *ApprovedRepo) Add(r model.Reservation) { a.items = append(a.items, r) }

// Len reports the number of approved reservations.
func (a *ApprovedRepo) Len() int { return len(a.items) }

// Snapshot copies the history in approval order.
func (a *ApprovedRepo) Snapshot() []model.Reservation {
	out := make([]model.Reservation, len(a.items))
	copy(out, a.items)
	return out
}
