package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/flowdesk/internal/handler"    // handlers that call into the queue core
	"github.com/iliyamo/flowdesk/internal/middleware" // session resolution, JWT auth and role enforcement
	"github.com/iliyamo/flowdesk/internal/service"
)

// RegisterRoutes registers routes that do not need a session or a token.
func RegisterRoutes(e *echo.Echo, q handler.QueueSizer) {
	// Used by load balancers and monitoring.
	e.GET("/healthz", handler.Health(q))
}

// RegisterDesk registers the customer side of the desk.  Opening a session
// and browsing rooms are public; everything tied to a person needs the
// X-Session-ID header.
func RegisterDesk(e *echo.Echo, s *handler.SessionHandler, d *handler.DeskHandler, sessions *service.SessionStore) {
	e.POST("/v1/sessions", s.Create)
	e.GET("/v1/rooms", d.Rooms)
	e.GET("/v1/queue", d.ListQueue)
	e.GET("/v1/transactions", d.Transactions)

	g := e.Group("/v1", middleware.RequireSession(sessions))
	g.GET("/session", s.Current)
	g.PUT("/session/info", s.SaveInfo)
	g.DELETE("/session", s.Close)
	g.GET("/notification", s.Notification)

	g.POST("/queue", d.JoinQueue)
	g.GET("/queue/me", d.MyReservation)
	g.DELETE("/queue/me", d.CancelMine)
}

// RegisterStaff registers the staff panel.  Login is open; the rest needs
// a STAFF token signed with jwtSecret, and everything past logout also
// needs the panel to be logged in.
func RegisterStaff(e *echo.Echo, h *handler.StaffHandler, jwtSecret string) {
	e.POST("/v1/staff/login", h.Login)

	g := e.Group("/v1/staff")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(service.RoleStaff))
	g.POST("/logout", h.Logout)

	g.Use(middleware.RequireStaffLogin(h.Gate))
	g.GET("/queue", h.Queue)
	g.POST("/queue/:number/approve", h.Approve)
	g.DELETE("/queue/:number", h.Remove)
	g.GET("/approved", h.Approved)
	g.GET("/logs", h.Logs)
}
