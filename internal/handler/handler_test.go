package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/flowdesk/internal/handler"
	"github.com/iliyamo/flowdesk/internal/middleware"
	"github.com/iliyamo/flowdesk/internal/model"
	"github.com/iliyamo/flowdesk/internal/repository"
	"github.com/iliyamo/flowdesk/internal/router"
	"github.com/iliyamo/flowdesk/internal/service"
)

const jwtSecret = "handler-test-secret"

type desk struct {
	e      *echo.Echo
	engine *service.QueueEngine
}

func newDesk(t *testing.T) *desk {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	engine := service.NewQueueEngine(repository.NewSeatRepo(repository.DefaultCatalog()), service.WithLogger(log))
	sessions := service.NewSessionStore(engine, time.Hour, nil, log)
	t.Cleanup(sessions.CloseAll)
	gate, err := service.NewStaffGate("staff123", jwtSecret, bcrypt.MinCost, time.Minute, engine, log)
	require.NoError(t, err)

	e := echo.New()
	router.RegisterRoutes(e, engine)
	router.RegisterDesk(e, handler.NewSessionHandler(sessions), handler.NewDeskHandler(engine), sessions)
	router.RegisterStaff(e, handler.NewStaffHandler(engine, gate), jwtSecret)
	return &desk{e: e, engine: engine}
}

func (d *desk) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	d.e.ServeHTTP(rec, req)
	return rec
}

// openSession creates a session and, when name is set, saves the person's
// details on it.
func (d *desk) openSession(t *testing.T, name string) map[string]string {
	t.Helper()
	rec := d.do(t, http.MethodPost, "/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	h := map[string]string{middleware.SessionHeader: sess.ID}
	if name != "" {
		rec = d.do(t, http.MethodPut, "/v1/session/info", `{"name":"`+name+`","contact_number":"09171234567","age":25}`, h)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	return h
}

func (d *desk) staffToken(t *testing.T) map[string]string {
	t.Helper()
	rec := d.do(t, http.MethodPost, "/v1/staff/login", `{"password":"staff123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	return map[string]string{echo.HeaderAuthorization: "Bearer " + tok.Token}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	d := newDesk(t)
	rec := d.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","queue_length":0}`, rec.Body.String())
}

func TestRooms_Filters(t *testing.T) {
	d := newDesk(t)

	rec := d.do(t, http.MethodGet, "/v1/rooms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Seat](t, rec), 6)

	rec = d.do(t, http.MethodGet, "/v1/rooms?building=Annex&time_slot=All", "", nil)
	seats := decode[[]model.Seat](t, rec)
	require.Len(t, seats, 2)
	assert.Equal(t, "B-101", seats[0].RoomCode)

	rec = d.do(t, http.MethodGet, "/v1/rooms?q=nothing-matches", "", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSession_SaveInfoValidation(t *testing.T) {
	d := newDesk(t)
	h := d.openSession(t, "")

	rec := d.do(t, http.MethodPut, "/v1/session/info", `{"name":"Alice","contact_number":"abc","age":25}`, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = d.do(t, http.MethodGet, "/v1/session", "", h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[model.Session](t, rec).UserName)

	rec = d.do(t, http.MethodGet, "/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = d.do(t, http.MethodGet, "/v1/session", "", map[string]string{middleware.SessionHeader: "unknown"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueue_JoinRequiresIdentity(t *testing.T) {
	d := newDesk(t)
	h := d.openSession(t, "")
	rec := d.do(t, http.MethodPost, "/v1/queue", `{"room":"C-301","time_slot":"15:00 - 17:00"}`, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, d.engine.ListQueue())
}

func TestQueue_CustomerFlow(t *testing.T) {
	d := newDesk(t)
	alice := d.openSession(t, "Alice")
	bob := d.openSession(t, "Bob")
	join := `{"room":"C-301","time_slot":"15:00 - 17:00"}`

	rec := d.do(t, http.MethodPost, "/v1/queue", join, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[struct {
		Reservation model.Reservation `json:"reservation"`
		Position    int               `json:"position"`
		Ticket      string            `json:"ticket"`
		RoomFull    bool              `json:"room_full"`
	}](t, rec)
	assert.Equal(t, "Q-1", res.Ticket)
	assert.Equal(t, 0, res.Position)
	assert.False(t, res.RoomFull)

	rec = d.do(t, http.MethodPost, "/v1/queue", join, alice)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = d.do(t, http.MethodPost, "/v1/queue", join, bob)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = d.do(t, http.MethodGet, "/v1/queue/me", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[struct {
		Position    int  `json:"position"`
		QueueLength int  `json:"queue_length"`
		YourTurn    bool `json:"your_turn"`
	}](t, rec)
	assert.Equal(t, 1, st.Position)
	assert.Equal(t, 2, st.QueueLength)
	assert.False(t, st.YourTurn)

	rec = d.do(t, http.MethodGet, "/v1/notification", "", bob)
	assert.False(t, decode[model.Notice](t, rec).Visible)

	rec = d.do(t, http.MethodDelete, "/v1/queue/me", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cancelled":"Q-1"}`, rec.Body.String())
	rec = d.do(t, http.MethodDelete, "/v1/queue/me", "", alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = d.do(t, http.MethodGet, "/v1/queue/me", "", alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = d.do(t, http.MethodGet, "/v1/notification", "", bob)
	n := decode[model.Notice](t, rec)
	assert.True(t, n.Visible)
	assert.Equal(t, "IT'S YOUR TURN NOW! Please proceed to C-301 at 15:00 - 17:00", n.Message)

	rec = d.do(t, http.MethodGet, "/v1/queue", "", nil)
	queue := decode[[]model.Reservation](t, rec)
	require.Len(t, queue, 1)
	assert.Equal(t, "Bob", queue[0].Name)

	rec = d.do(t, http.MethodGet, "/v1/transactions?user=Alice", "", nil)
	txs := decode[[]model.Transaction](t, rec)
	require.Len(t, txs, 3)
	assert.Equal(t, "Cancelled reservation for C-301", txs[0].Description)

	rec = d.do(t, http.MethodDelete, "/v1/session", "", alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = d.do(t, http.MethodGet, "/v1/session", "", alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaff_LoginAndGuards(t *testing.T) {
	d := newDesk(t)

	rec := d.do(t, http.MethodPost, "/v1/staff/login", `{"password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = d.do(t, http.MethodPost, "/v1/staff/login", `{"password":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = d.do(t, http.MethodGet, "/v1/staff/logs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	staff := d.staffToken(t)
	rec = d.do(t, http.MethodGet, "/v1/staff/logs", "", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[[]string](t, rec)
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "Staff logged in")
}

func TestStaff_ApproveAndRemove(t *testing.T) {
	d := newDesk(t)
	require.NoError(t, d.engine.Preload(service.DemoReservations()))
	staff := d.staffToken(t)

	rec := d.do(t, http.MethodGet, "/v1/staff/queue?q=annex", "", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Reservation](t, rec), "building names are not part of the queue filter")

	rec = d.do(t, http.MethodGet, "/v1/staff/queue?q=b-", "", staff)
	assert.Len(t, decode[[]model.Reservation](t, rec), 2)

	rec = d.do(t, http.MethodPost, "/v1/staff/queue/3/approve", "", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decode[model.Reservation](t, rec)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.Equal(t, "Nudo Christine", approved.Name)

	rec = d.do(t, http.MethodPost, "/v1/staff/queue/3/approve", "", staff)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = d.do(t, http.MethodPost, "/v1/staff/queue/abc/approve", "", staff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = d.do(t, http.MethodDelete, "/v1/staff/queue/1", "", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Crishine Bangay", decode[model.Reservation](t, rec).Name)

	rec = d.do(t, http.MethodGet, "/v1/staff/approved", "", staff)
	history := decode[[]model.Reservation](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].QueueNumber)

	assert.Len(t, d.engine.ListQueue(), 3)

	rec = d.do(t, http.MethodPost, "/v1/staff/logout", "", staff)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStaff_LogoutClosesPanel(t *testing.T) {
	d := newDesk(t)
	require.NoError(t, d.engine.Preload(service.DemoReservations()))
	staff := d.staffToken(t)

	rec := d.do(t, http.MethodPost, "/v1/staff/logout", "", staff)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = d.do(t, http.MethodPost, "/v1/staff/queue/1/approve", "", staff)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = d.do(t, http.MethodGet, "/v1/staff/logs", "", staff)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, d.engine.ListQueue(), 5, "nothing was approved after logout")

	logs := d.engine.ListSystemLogs()
	require.NotEmpty(t, logs)
	assert.Contains(t, string(logs[0]), "Staff logged out")

	staff = d.staffToken(t)
	rec = d.do(t, http.MethodGet, "/v1/staff/logs", "", staff)
	assert.Equal(t, http.StatusOK, rec.Code)
}
