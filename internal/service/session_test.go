package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flowdesk/internal/clock"
	"github.com/iliyamo/flowdesk/internal/repository"
)

func newTestStore(t *testing.T, e *QueueEngine) *SessionStore {
	t.Helper()
	s := NewSessionStore(e, time.Hour, clock.NewManual(testNow), quietLogger())
	t.Cleanup(s.CloseAll)
	return s
}

func TestSessionStore_Lifecycle(t *testing.T) {
	e := newTestEngine(t)
	s := newTestStore(t, e)

	sess, err := s.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.HasIdentity())
	assert.Equal(t, testNow, sess.CreatedAt)
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, s.Close(sess.ID))
	assert.Equal(t, 0, s.Len())
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.ErrorIs(t, s.Close(sess.ID), repository.ErrSessionNotFound)
}

func TestSessionStore_SaveInfoRefreshesNotice(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustJoin(t, e, "Alice")
	s := newTestStore(t, e)

	sess, err := s.Create()
	require.NoError(t, err)
	p, err := s.Poller(sess.ID)
	require.NoError(t, err)
	assert.False(t, p.Current().Visible)

	saved, err := s.SaveInfo(ctx, sess.ID, UserInfo{Name: " Alice ", Contact: "0917", Age: 30})
	require.NoError(t, err)
	assert.Equal(t, "Alice", saved.UserName)
	assert.Equal(t, "0917", saved.ContactNumber)
	assert.Equal(t, 30, saved.Age)
	assert.True(t, saved.HasIdentity())

	assert.True(t, p.Current().Visible, "notice follows the new name without waiting for a tick")
}

func TestSessionStore_SaveInfoErrors(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	s := newTestStore(t, e)

	_, err := s.SaveInfo(ctx, "missing", UserInfo{Name: "A", Contact: "1", Age: 1})
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	sess, err := s.Create()
	require.NoError(t, err)
	_, err = s.SaveInfo(ctx, sess.ID, UserInfo{Name: "A", Contact: "1", Age: 0})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.False(t, got.HasIdentity())
}

func TestSessionStore_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustJoin(t, e, "Alice")
	mustJoin(t, e, "Bob")
	s := newTestStore(t, e)

	a, err := s.Create()
	require.NoError(t, err)
	b, err := s.Create()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = s.SaveInfo(ctx, a.ID, UserInfo{Name: "Alice", Contact: "1", Age: 20})
	require.NoError(t, err)
	_, err = s.SaveInfo(ctx, b.ID, UserInfo{Name: "Bob", Contact: "2", Age: 20})
	require.NoError(t, err)

	pa, _ := s.Poller(a.ID)
	pb, _ := s.Poller(b.ID)
	assert.True(t, pa.Current().Visible)
	assert.False(t, pb.Current().Visible)

	alice, _ := e.FindByName("Alice")
	require.NoError(t, e.Cancel(ctx, alice.QueueNumber))
	assert.False(t, pa.Current().Visible)
	assert.True(t, pb.Current().Visible)

	s.CloseAll()
	assert.Equal(t, 0, s.Len())
}

func TestSessionStore_ExpireIdle(t *testing.T) {
	e := newTestEngine(t)
	clk := clock.NewManual(testNow)
	s := NewSessionStore(e, time.Hour, clk, quietLogger())
	t.Cleanup(s.CloseAll)

	idle, err := s.Create()
	require.NoError(t, err)
	busy, err := s.Create()
	require.NoError(t, err)

	clk.Advance(20 * time.Minute)
	require.NoError(t, s.Touch(busy.ID))
	assert.Equal(t, 0, s.ExpireIdle(30*time.Minute))

	clk.Advance(15 * time.Minute)
	assert.Equal(t, 1, s.ExpireIdle(30*time.Minute))
	_, err = s.Get(idle.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = s.Get(busy.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, s.Touch(idle.ID), repository.ErrSessionNotFound)
}

func TestSessionStore_StartExpiry(t *testing.T) {
	e := newTestEngine(t)
	clk := clock.NewManual(testNow)
	s := NewSessionStore(e, time.Hour, clk, quietLogger())
	t.Cleanup(s.CloseAll)

	assert.ErrorIs(t, s.StartExpiry(0, time.Second), repository.ErrInvalidInput)

	_, err := s.Create()
	require.NoError(t, err)
	clk.Advance(time.Hour)
	require.NoError(t, s.StartExpiry(time.Minute, 10*time.Millisecond))

	assert.Eventually(t, func() bool { return s.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
