package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flowdesk/internal/middleware"
	"github.com/iliyamo/flowdesk/internal/service"
)

// SessionHandler serves the desk client's own session: opening it, saving
// the person's details and reading the "your turn" notice.
type SessionHandler struct {
	Sessions *service.SessionStore
}

// NewSessionHandler panics when store is nil.
func NewSessionHandler(store *service.SessionStore) *SessionHandler {
	if store == nil {
		panic("nil session store passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: store}
}

type saveInfoReq struct {
	Name          string `json:"name"`
	ContactNumber string `json:"contact_number"`
	Age           int    `json:"age"`
}

// Create opens a session.  Clients send the returned id back in the
// X-Session-ID header.
func (h *SessionHandler) Create(c echo.Context) error {
	sess, err := h.Sessions.Create()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// Current returns the caller's session.
func (h *SessionHandler) Current(c echo.Context) error {
	sess, _ := middleware.CurrentSession(c)
	return c.JSON(http.StatusOK, sess)
}

// SaveInfo validates and stores the person's name, contact number and age.
func (h *SessionHandler) SaveInfo(c echo.Context) error {
	var req saveInfoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess, _ := middleware.CurrentSession(c)
	saved, err := h.Sessions.SaveInfo(c.Request().Context(), sess.ID, service.UserInfo{
		Name:    req.Name,
		Contact: req.ContactNumber,
		Age:     req.Age,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// Close ends the session and stops its notification poller.
func (h *SessionHandler) Close(c echo.Context) error {
	sess, _ := middleware.CurrentSession(c)
	if err := h.Sessions.Close(sess.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Notification recomputes the caller's notice on demand.  The session's
// poller keeps it fresh in the background as well.
func (h *SessionHandler) Notification(c echo.Context) error {
	sess, _ := middleware.CurrentSession(c)
	p, err := h.Sessions.Poller(sess.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p.Evaluate())
}
