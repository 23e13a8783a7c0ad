package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/flowdesk/internal/clock"
	"github.com/iliyamo/flowdesk/internal/model"
	"github.com/iliyamo/flowdesk/internal/queue"
	"github.com/iliyamo/flowdesk/internal/repository"
)

// EventPublisher receives one event per successful queue mutation.  It is
// called after the engine lock is released; a failure is logged and never
// rolls the mutation back.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.QueueEvent) error
}

// UserInfo is what a person fills in before joining the queue.
type UserInfo struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact_number" validate:"required,number"`
	Age     int    `json:"age" validate:"min=1,max=150"`
}

func (u UserInfo) normalized() UserInfo {
	u.Name = strings.TrimSpace(u.Name)
	u.Contact = strings.TrimSpace(u.Contact)
	return u
}

// JoinRequest asks for a place in the queue for one room and time slot.
type JoinRequest struct {
	Name     string `json:"name" validate:"required"`
	Contact  string `json:"contact_number" validate:"required,number"`
	Age      int    `json:"age" validate:"min=1,max=150"`
	Room     string `json:"room" validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
}

func (r JoinRequest) normalized() JoinRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Contact = strings.TrimSpace(r.Contact)
	r.Room = strings.TrimSpace(r.Room)
	r.TimeSlot = strings.TrimSpace(r.TimeSlot)
	return r
}

// JoinResult reports the outcome of Join.  When AlreadyQueued is set the
// Reservation is the caller's existing WAITING entry and nothing changed.
// RoomFull marks a join made while the seat entry had no places left; the
// reservation still waits in the queue.
type JoinResult struct {
	Reservation   model.Reservation `json:"reservation"`
	AlreadyQueued bool              `json:"already_queued"`
	RoomFull      bool              `json:"room_full"`
}

// QueueStatus is a consistent read of one reservation and its position.
type QueueStatus struct {
	Reservation model.Reservation `json:"reservation"`
	Position    int               `json:"position"`
	QueueLength int               `json:"queue_length"`
}

const turnMessage = "IT'S YOUR TURN NOW! Please proceed to %s at %s"

// DefaultPublishTimeout bounds how long a mutation waits for its event to
// be handed to the publisher.
const DefaultPublishTimeout = 2 * time.Second

// QueueEngine owns the walk-in queue.  One RWMutex covers the queue, the
// approved history, the queue number counter, the seat counters touched
// by a join and the log lines written by a mutation, so readers never see
// half of a mutation.  Change listeners and the event publisher run after
// the lock is released.
type QueueEngine struct {
	mu              sync.RWMutex
	queue           *repository.QueueRepo
	approved        *repository.ApprovedRepo
	seats           *repository.SeatRepo
	transactions    *repository.TransactionRepo
	systemLogs      *repository.SystemLogRepo
	nextQueueNumber int

	clock    clock.Clock
	validate *validator.Validate
	log      logrus.FieldLogger
	events   EventPublisher
	pubWait  time.Duration

	lmu          sync.Mutex
	listeners    map[int]func()
	nextListener int
}

// EngineOption customises a QueueEngine.
type EngineOption func(*QueueEngine)

// WithClock overrides the time source used for audit timestamps.
func WithClock(c clock.Clock) EngineOption {
	return func(e *QueueEngine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the logger used for operational messages.
func WithLogger(l logrus.FieldLogger) EngineOption {
	return func(e *QueueEngine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEventPublisher forwards queue events to p.
func WithEventPublisher(p EventPublisher) EngineOption {
	return func(e *QueueEngine) { e.events = p }
}

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) EngineOption {
	return func(e *QueueEngine) {
		if d > 0 {
			e.pubWait = d
		}
	}
}

// WithSystemLogCap changes how many system log lines are retained.
func WithSystemLogCap(n int) EngineOption {
	return func(e *QueueEngine) { e.systemLogs = repository.NewSystemLogRepo(n) }
}

// NewQueueEngine builds an engine over the given seat catalog.  Queue
// numbers start at 1.
func NewQueueEngine(seats *repository.SeatRepo, opts ...EngineOption) *QueueEngine {
	if seats == nil {
		seats = repository.NewSeatRepo(nil)
	}
	e := &QueueEngine{
		queue:           repository.NewQueueRepo(),
		approved:        repository.NewApprovedRepo(),
		seats:           seats,
		transactions:    repository.NewTransactionRepo(),
		systemLogs:      repository.NewSystemLogRepo(repository.DefaultSystemLogCap),
		nextQueueNumber: 1,
		clock:           clock.NewSystem(),
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		log:             logrus.StandardLogger(),
		pubWait:         DefaultPublishTimeout,
		listeners:       make(map[int]func()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Join enqueues a new WAITING reservation at the rear of the queue.  If a
// reservation with the same trimmed name is already waiting, the existing
// one is returned with AlreadyQueued set and ErrAlreadyInQueue; nothing is
// changed and no queue number is consumed.
func (e *QueueEngine) Join(ctx context.Context, req JoinRequest) (JoinResult, error) {
	req = req.normalized()
	if err := e.check(req); err != nil {
		return JoinResult{}, err
	}

	e.mu.Lock()
	if existing, ok := e.queue.FindByName(req.Name); ok && existing.IsWaiting() {
		e.mu.Unlock()
		return JoinResult{Reservation: existing, AlreadyQueued: true}, repository.ErrAlreadyInQueue
	}

	now := e.clock.Now()
	r := model.NewReservation(e.nextQueueNumber, req.Name, req.Contact, req.Age, req.Room, req.TimeSlot, now)
	e.nextQueueNumber++
	e.queue.Enqueue(r)

	place := req.Room
	if seat, err := e.seats.Get(req.Room, req.TimeSlot); err == nil {
		place = fmt.Sprintf("%s (%s)", req.Room, seat.Building)
	}
	available := e.seats.HasAvailableSeats(req.Room, req.TimeSlot)
	if available {
		e.seats.DecreaseAvailability(req.Room, req.TimeSlot)
	}

	desc := fmt.Sprintf("Reserved seat for %s at %s", place, req.TimeSlot)
	msg := fmt.Sprintf("ENQUEUE: %s joined the queue (%s) for %s - Added to REAR", r.Name, r.Ticket(), r.Room)
	if !available {
		desc = fmt.Sprintf("Joined waiting queue for %s at %s (Room is full)", place, req.TimeSlot)
		msg += " (Waiting - room full)"
	}
	e.transactions.Append(r.Name, desc, now)
	e.systemLogs.Append(msg, now)
	ev := e.eventLocked(queue.EventEnqueue, r, now)
	ev.RoomFull = !available
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"queue_number": r.QueueNumber,
		"name":         r.Name,
		"room":         r.Room,
		"room_full":    !available,
	}).Info("reservation enqueued")
	e.afterMutation(ctx, ev)
	return JoinResult{Reservation: r, RoomFull: !available}, nil
}

// FindByName returns the live reservation whose trimmed name equals the
// trimmed query.  Removed reservations are not found.
func (e *QueueEngine) FindByName(name string) (model.Reservation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queue.FindByName(name)
}

// PositionOf returns how many WAITING reservations are ahead of the given
// queue number.  Zero means it is that reservation's turn.
func (e *QueueEngine) PositionOf(queueNumber int) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queue.CountWaitingBefore(queueNumber)
}

// StatusOf resolves name and computes its position under a single read.
func (e *QueueEngine) StatusOf(name string) (QueueStatus, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.queue.FindByName(name)
	if !ok {
		return QueueStatus{}, false
	}
	return QueueStatus{
		Reservation: r,
		Position:    e.queue.CountWaitingBefore(r.QueueNumber),
		QueueLength: e.queue.Len(),
	}, true
}

// Cancel removes the caller's own reservation from the queue.
func (e *QueueEngine) Cancel(ctx context.Context, queueNumber int) error {
	e.mu.Lock()
	r, ok := e.queue.Remove(queueNumber)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("cancel Q-%d: %w", queueNumber, repository.ErrNotInQueue)
	}
	now := e.clock.Now()
	e.transactions.Append(r.Name, "Cancelled reservation for "+r.Room, now)
	e.systemLogs.Append(fmt.Sprintf("REMOVE: %s cancelled their reservation (%s)", r.Name, r.Ticket()), now)
	ev := e.eventLocked(queue.EventCancel, r, now)
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{"queue_number": r.QueueNumber, "name": r.Name}).Info("reservation cancelled")
	e.afterMutation(ctx, ev)
	return nil
}

// Approve marks a waiting reservation APPROVED and moves it to the
// approved history.  Staff may approve any waiting entry, not only the
// front one.
func (e *QueueEngine) Approve(ctx context.Context, queueNumber int) (model.Reservation, error) {
	e.mu.Lock()
	r, ok := e.queue.Remove(queueNumber)
	if !ok {
		e.mu.Unlock()
		return model.Reservation{}, fmt.Errorf("approve Q-%d: %w", queueNumber, repository.ErrNotInQueue)
	}
	r.Status = model.StatusApproved
	e.approved.Add(r)
	now := e.clock.Now()
	e.transactions.Append(r.Name, fmt.Sprintf("Reservation approved for %s at %s", r.Room, r.TimeSlot), now)
	e.systemLogs.Append(fmt.Sprintf("DEQUEUE: Staff approved reservation %s for %s - Removed from FRONT", r.Ticket(), r.Name), now)
	ev := e.eventLocked(queue.EventDequeue, r, now)
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{"queue_number": r.QueueNumber, "name": r.Name}).Info("reservation approved")
	e.afterMutation(ctx, ev)
	return r, nil
}

// RemoveByStaff takes a reservation out of the queue on behalf of staff.
func (e *QueueEngine) RemoveByStaff(ctx context.Context, queueNumber int) (model.Reservation, error) {
	e.mu.Lock()
	r, ok := e.queue.Remove(queueNumber)
	if !ok {
		e.mu.Unlock()
		return model.Reservation{}, fmt.Errorf("remove Q-%d: %w", queueNumber, repository.ErrNotInQueue)
	}
	now := e.clock.Now()
	e.transactions.Append(r.Name, "Removed from queue by staff", now)
	e.systemLogs.Append(fmt.Sprintf("REMOVE: Staff removed %s (%s) from queue", r.Name, r.Ticket()), now)
	ev := e.eventLocked(queue.EventRemove, r, now)
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{"queue_number": r.QueueNumber, "name": r.Name}).Info("reservation removed by staff")
	e.afterMutation(ctx, ev)
	return r, nil
}

// SaveUserInfo validates a person's details and records the update in the
// audit logs.  It returns the normalised info.
func (e *QueueEngine) SaveUserInfo(_ context.Context, info UserInfo) (UserInfo, error) {
	info = info.normalized()
	if err := e.check(info); err != nil {
		return UserInfo{}, err
	}
	e.mu.Lock()
	now := e.clock.Now()
	e.transactions.Append(info.Name, "Updated user information", now)
	e.systemLogs.Append("User information updated: "+info.Name, now)
	e.mu.Unlock()
	return info, nil
}

// Preload fills an empty desk with demo reservations.  Demo entries do not
// consume seats.
func (e *QueueEngine) Preload(reqs []JoinRequest) error {
	normalized := make([]JoinRequest, len(reqs))
	for i, req := range reqs {
		normalized[i] = req.normalized()
		if err := e.check(normalized[i]); err != nil {
			return fmt.Errorf("preload entry %d: %w", i, err)
		}
	}

	e.mu.Lock()
	now := e.clock.Now()
	for _, req := range normalized {
		if _, ok := e.queue.FindByName(req.Name); ok {
			continue
		}
		r := model.NewReservation(e.nextQueueNumber, req.Name, req.Contact, req.Age, req.Room, req.TimeSlot, now)
		e.nextQueueNumber++
		e.queue.Enqueue(r)
		e.transactions.Append(r.Name, fmt.Sprintf("Joined queue for %s at %s", r.Room, r.TimeSlot), now)
		e.systemLogs.Append(fmt.Sprintf("ENQUEUE: Demo user %s added to queue (%s) for %s", r.Name, r.Ticket(), r.Room), now)
	}
	e.systemLogs.Append("System initialized - Queue preloaded with demo reservations", now)
	e.systemLogs.Append("Queue operations: Enqueue (add to rear), Dequeue (remove from front)", now)
	size := e.queue.Len()
	e.mu.Unlock()

	e.log.WithField("queue_length", size).Info("queue preloaded")
	e.notify()
	return nil
}

// RecordSystemLog appends an operational line on behalf of a collaborator.
func (e *QueueEngine) RecordSystemLog(message string) {
	e.mu.Lock()
	e.systemLogs.Append(message, e.clock.Now())
	e.mu.Unlock()
}

// TurnNotice computes whether name is at the front of the queue and still
// waiting.
func (e *QueueEngine) TurnNotice(name string) model.Notice {
	if strings.TrimSpace(name) == "" {
		return model.Notice{}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.queue.FindByName(name)
	if !ok || !r.IsWaiting() || e.queue.CountWaitingBefore(r.QueueNumber) != 0 {
		return model.Notice{}
	}
	return model.Notice{
		Visible:     true,
		UserName:    r.Name,
		Room:        r.Room,
		TimeSlot:    r.TimeSlot,
		QueueNumber: r.QueueNumber,
		Message:     fmt.Sprintf(turnMessage, r.Room, r.TimeSlot),
	}
}

// ListQueue returns the queue in FIFO order.
func (e *QueueEngine) ListQueue() []model.Reservation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queue.Snapshot()
}

// SearchQueue filters the queue the way the staff panel does: name and
// room match case-insensitively, contact number and queue number match
// the raw query.  An empty query returns the whole queue.
func (e *QueueEngine) SearchQueue(query string) []model.Reservation {
	all := e.ListQueue()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]model.Reservation, 0, len(all))
	for _, r := range all {
		if strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(r.ContactNumber, query) ||
			strings.Contains(strconv.Itoa(r.QueueNumber), query) ||
			strings.Contains(strings.ToLower(r.Room), q) {
			out = append(out, r)
		}
	}
	return out
}

// ListApproved returns the approved history in approval order.
func (e *QueueEngine) ListApproved() []model.Reservation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.approved.Snapshot()
}

// ListTransactions returns the audit trail, most recent first.
func (e *QueueEngine) ListTransactions() []model.Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.transactions.List()
}

// ListSystemLogs returns the retained system log, most recent first.
func (e *QueueEngine) ListSystemLogs() []model.SystemLogEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.systemLogs.List()
}

// NextQueueNumber reports the number the next join will receive.
func (e *QueueEngine) NextQueueNumber() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nextQueueNumber
}

// HasAvailableSeats reports whether the room and slot still has places.
func (e *QueueEngine) HasAvailableSeats(room, timeSlot string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seats.HasAvailableSeats(room, timeSlot)
}

// DecreaseAvailability takes one place from the room and slot, if any.
func (e *QueueEngine) DecreaseAvailability(room, timeSlot string) {
	e.mu.Lock()
	e.seats.DecreaseAvailability(room, timeSlot)
	e.mu.Unlock()
}

// ListSeats returns the whole catalog.
func (e *QueueEngine) ListSeats() []model.Seat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seats.List()
}

// SearchSeats filters the catalog.
func (e *QueueEngine) SearchSeats(f repository.SeatFilter) []model.Seat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seats.Search(f)
}

// Subscribe registers fn to run after every queue mutation.  fn runs
// outside the engine lock and may read from the engine.  The returned
// function removes the registration.
func (e *QueueEngine) Subscribe(fn func()) (unsubscribe func()) {
	e.lmu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	e.lmu.Unlock()
	return func() {
		e.lmu.Lock()
		delete(e.listeners, id)
		e.lmu.Unlock()
	}
}

func (e *QueueEngine) notify() {
	e.lmu.Lock()
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.lmu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (e *QueueEngine) afterMutation(ctx context.Context, ev queue.QueueEvent) {
	e.notify()
	if e.events == nil {
		return
	}
	// The caller's cancellation does not drop the event, only the timeout does.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.pubWait)
	defer cancel()
	if err := e.events.Publish(pctx, ev); err != nil {
		e.log.WithError(err).WithField("event", ev.Type).Warn("queue event not published")
	}
}

// eventLocked must be called with e.mu held.
func (e *QueueEngine) eventLocked(t queue.EventType, r model.Reservation, at time.Time) queue.QueueEvent {
	return queue.QueueEvent{
		Type:          t,
		QueueNumber:   r.QueueNumber,
		ReservationID: r.ReservationID,
		Name:          r.Name,
		Room:          r.Room,
		TimeSlot:      r.TimeSlot,
		Status:        string(r.Status),
		QueueLength:   e.queue.Len(),
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}

func (e *QueueEngine) check(v any) error {
	err := e.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", repository.ErrInvalidInput, strings.Join(fields, ", "))
}
