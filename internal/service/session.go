package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/flowdesk/internal/clock"
	"github.com/iliyamo/flowdesk/internal/model"
	"github.com/iliyamo/flowdesk/internal/repository"
)

type sessionEntry struct {
	mu       sync.RWMutex
	session  model.Session
	poller   *NotificationPoller
	lastSeen time.Time
}

func (s *sessionEntry) snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *sessionEntry) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *sessionEntry) userName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.UserName
}

// SessionStore holds the desk clients currently open.  Each session gets
// its own notification poller, started on Create and stopped on Close or
// once the session has been idle past the TTL given to StartExpiry.
type SessionStore struct {
	engine   *QueueEngine
	interval time.Duration
	clock    clock.Clock
	log      logrus.FieldLogger

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	sweeper  gocron.Scheduler
}

// NewSessionStore returns an empty store.  interval is the notification
// poll cadence; zero means DefaultNotifyInterval.
func NewSessionStore(engine *QueueEngine, interval time.Duration, clk clock.Clock, log logrus.FieldLogger) *SessionStore {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionStore{
		engine:   engine,
		interval: interval,
		clock:    clk,
		log:      log,
		sessions: make(map[string]*sessionEntry),
	}
}

// Create opens a new session with no identity yet.
func (s *SessionStore) Create() (model.Session, error) {
	now := s.clock.Now()
	entry := &sessionEntry{session: model.Session{ID: uuid.NewString(), CreatedAt: now}, lastSeen: now}
	logger := s.log.WithField("session", entry.session.ID)
	entry.poller = NewNotificationPoller(s.engine, entry.userName,
		WithPollInterval(s.interval),
		WithPollerLogger(logger),
		WithOnChange(func(n model.Notice) {
			if n.Visible {
				logger.WithField("queue_number", n.QueueNumber).Info(n.Message)
			}
		}),
	)
	if err := entry.poller.Start(); err != nil {
		return model.Session{}, fmt.Errorf("start notification poller: %w", err)
	}

	s.mu.Lock()
	s.sessions[entry.session.ID] = entry
	s.mu.Unlock()
	return entry.snapshot(), nil
}

// Get returns the session with the given id.
func (s *SessionStore) Get(id string) (model.Session, error) {
	entry, err := s.entry(id)
	if err != nil {
		return model.Session{}, err
	}
	return entry.snapshot(), nil
}

// Touch marks the session as used now.
func (s *SessionStore) Touch(id string) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	entry.mu.Lock()
	entry.lastSeen = now
	entry.mu.Unlock()
	return nil
}

// SaveInfo validates info through the engine and stores it on the
// session.  The session's notice is re-evaluated right away since the
// watched name may have changed.
func (s *SessionStore) SaveInfo(ctx context.Context, id string, info UserInfo) (model.Session, error) {
	entry, err := s.entry(id)
	if err != nil {
		return model.Session{}, err
	}
	saved, err := s.engine.SaveUserInfo(ctx, info)
	if err != nil {
		return model.Session{}, err
	}
	entry.mu.Lock()
	entry.session.UserName = saved.Name
	entry.session.ContactNumber = saved.Contact
	entry.session.Age = saved.Age
	entry.mu.Unlock()

	entry.poller.Evaluate()
	return entry.snapshot(), nil
}

// Poller returns the notification poller of a session.
func (s *SessionStore) Poller(id string) (*NotificationPoller, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return entry.poller, nil
}

// Close stops the session's poller and forgets the session.
func (s *SessionStore) Close(id string) error {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return repository.ErrSessionNotFound
	}
	return entry.poller.Stop()
}

// ExpireIdle closes every session not touched for longer than ttl and
// returns how many were closed.
func (s *SessionStore) ExpireIdle(ttl time.Duration) int {
	cutoff := s.clock.Now().Add(-ttl)
	s.mu.Lock()
	stale := make(map[string]*sessionEntry)
	for id, entry := range s.sessions {
		if entry.idleSince().Before(cutoff) {
			stale[id] = entry
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for id, entry := range stale {
		if err := entry.poller.Stop(); err != nil {
			s.log.WithError(err).WithField("session", id).Warn("poller stop failed")
		}
		s.log.WithField("session", id).Info("idle session expired")
	}
	return len(stale)
}

// StartExpiry runs ExpireIdle(ttl) every interval on a single scheduler
// shared by the whole store.  CloseAll stops it.
func (s *SessionStore) StartExpiry(ttl, every time.Duration) error {
	if ttl <= 0 || every <= 0 {
		return fmt.Errorf("session expiry: %w", repository.ErrInvalidInput)
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { s.ExpireIdle(ttl) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = sched.Shutdown()
		return err
	}

	s.mu.Lock()
	prev := s.sweeper
	s.sweeper = sched
	s.mu.Unlock()
	if prev != nil {
		_ = prev.Shutdown()
	}
	sched.Start()
	return nil
}

// CloseAll stops the expiry job and every poller; used on shutdown.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	entries, sweeper := s.sessions, s.sweeper
	s.sessions = make(map[string]*sessionEntry)
	s.sweeper = nil
	s.mu.Unlock()
	if sweeper != nil {
		if err := sweeper.Shutdown(); err != nil {
			s.log.WithError(err).Warn("session sweeper stop failed")
		}
	}
	for id, entry := range entries {
		if err := entry.poller.Stop(); err != nil {
			s.log.WithError(err).WithField("session", id).Warn("poller stop failed")
		}
	}
}

// Len reports the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) entry(id string) (*sessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return entry, nil
}
