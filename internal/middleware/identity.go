package middleware

// identity.go resolves who is calling.  Desk clients identify themselves
// with the X-Session-ID header returned by POST /v1/sessions; staff carry
// a JWT whose subject JWTAuth stores under "user_id".

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flowdesk/internal/model"
	"github.com/iliyamo/flowdesk/internal/repository"
)

// SessionHeader carries the desk session id.
const SessionHeader = "X-Session-ID"

const sessionKey = "session"

// SessionLookup finds an open desk session by id and marks it used.
type SessionLookup interface {
	Get(id string) (model.Session, error)
	Touch(id string) error
}

// RequireSession rejects requests without a known session and stores the
// session in the context for handlers (see CurrentSession).  Every accepted
// request keeps the session from expiring as idle.
func RequireSession(store SessionLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(SessionHeader))
			if id == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing " + SessionHeader + " header"})
			}
			sess, err := store.Get(id)
			if errors.Is(err, repository.ErrSessionNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			// A session expired between Get and Touch is still served once.
			_ = store.Touch(sess.ID)
			c.Set("session_id", sess.ID)
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// CurrentSession returns the session resolved by RequireSession, as it was
// when the request arrived.
func CurrentSession(c echo.Context) (model.Session, bool) {
	sess, ok := c.Get(sessionKey).(model.Session)
	return sess, ok
}

// clientID identifies the caller for rate limiting: the desk session, then
// the staff subject, then "anon".  The session header is read directly so
// the limiter can run before RequireSession.
func clientID(c echo.Context) string {
	if v, ok := c.Get("session_id").(string); ok && v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Request().Header.Get(SessionHeader)); v != "" {
		return v
	}
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "anon"
}
