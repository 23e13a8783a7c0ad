package service

import (
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/flowdesk/internal/model"
)

// DefaultNotifyInterval is how often a poller re-checks the queue on its
// own, independent of mutations.
const DefaultNotifyInterval = 2 * time.Second

var errPollerStarted = errors.New("notification poller already started")

// NotificationPoller keeps the "it's your turn" notice of one user fresh.
// It re-evaluates on a fixed cadence and right after every queue mutation,
// and only calls OnChange when the notice actually differs from the last
// one.  It holds no state besides that last notice.
type NotificationPoller struct {
	engine   *QueueEngine
	name     func() string
	interval time.Duration
	onChange func(model.Notice)
	log      logrus.FieldLogger

	mu    sync.Mutex
	last  model.Notice
	sched gocron.Scheduler
	unsub func()
}

// PollerOption customises a NotificationPoller.
type PollerOption func(*NotificationPoller)

// WithPollInterval overrides DefaultNotifyInterval.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *NotificationPoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithOnChange sets the callback run when the notice changes.
func WithOnChange(fn func(model.Notice)) PollerOption {
	return func(p *NotificationPoller) { p.onChange = fn }
}

// WithPollerLogger sets the logger.
func WithPollerLogger(l logrus.FieldLogger) PollerOption {
	return func(p *NotificationPoller) {
		if l != nil {
			p.log = l
		}
	}
}

// NewNotificationPoller watches the user whose name is returned by name.
// The function is called on every evaluation, so it may follow a session
// whose details change over time.
func NewNotificationPoller(engine *QueueEngine, name func() string, opts ...PollerOption) *NotificationPoller {
	p := &NotificationPoller{
		engine:   engine,
		name:     name,
		interval: DefaultNotifyInterval,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start evaluates once, subscribes to queue mutations and schedules the
// periodic check.
func (p *NotificationPoller) Start() error {
	p.mu.Lock()
	if p.sched != nil {
		p.mu.Unlock()
		return errPollerStarted
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		p.mu.Unlock()
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() { p.Evaluate() }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = sched.Shutdown()
		p.mu.Unlock()
		return err
	}
	p.sched = sched
	p.mu.Unlock()

	p.Evaluate()
	unsub := p.engine.Subscribe(func() { p.Evaluate() })
	p.mu.Lock()
	p.unsub = unsub
	p.mu.Unlock()
	sched.Start()
	return nil
}

// Stop cancels the periodic check and the mutation subscription.  It is
// safe to call more than once.
func (p *NotificationPoller) Stop() error {
	p.mu.Lock()
	sched, unsub := p.sched, p.unsub
	p.sched, p.unsub = nil, nil
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if sched == nil {
		return nil
	}
	return sched.Shutdown()
}

// Evaluate recomputes the notice now and returns it.
func (p *NotificationPoller) Evaluate() model.Notice {
	n := p.engine.TurnNotice(p.name())

	p.mu.Lock()
	changed := n != p.last
	p.last = n
	cb := p.onChange
	p.mu.Unlock()

	if changed {
		p.log.WithFields(logrus.Fields{"name": n.UserName, "visible": n.Visible}).Debug("turn notice changed")
		if cb != nil {
			cb(n)
		}
	}
	return n
}

// Current returns the last computed notice without re-evaluating.
func (p *NotificationPoller) Current() model.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
