package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flowdesk/internal/service"
)

// StaffHandler serves the staff panel.  Everything except Login sits behind
// JWTAuth and RequireRole(STAFF); everything except Login and Logout also
// sits behind RequireStaffLogin.
type StaffHandler struct {
	Engine *service.QueueEngine
	Gate   *service.StaffGate
}

// NewStaffHandler panics on nil dependencies.
func NewStaffHandler(engine *service.QueueEngine, gate *service.StaffGate) *StaffHandler {
	if engine == nil || gate == nil {
		panic("nil dependency passed to NewStaffHandler")
	}
	return &StaffHandler{Engine: engine, Gate: gate}
}

type staffLoginReq struct {
	Password string `json:"password"`
}

type tokenResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login exchanges the shared staff password for a short-lived token.
func (h *StaffHandler) Login(c echo.Context) error {
	var req staffLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	tok, err := h.Gate.Login(req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token, Expires: tok.Exp})
}

// Logout closes the staff panel.  Issued tokens keep their signature but
// are refused by RequireStaffLogin until the next login.
func (h *StaffHandler) Logout(c echo.Context) error {
	h.Gate.Logout()
	return c.NoContent(http.StatusNoContent)
}

// Queue lists the waiting queue, filtered by ?q=.
func (h *StaffHandler) Queue(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.SearchQueue(c.QueryParam("q")))
}

// Approve serves the reservation with the given queue number.
func (h *StaffHandler) Approve(c echo.Context) error {
	n, err := queueNumberParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue number"})
	}
	r, err := h.Engine.Approve(c.Request().Context(), n)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Remove takes the reservation with the given queue number out of the
// queue without serving it.
func (h *StaffHandler) Remove(c echo.Context) error {
	n, err := queueNumberParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue number"})
	}
	r, err := h.Engine.RemoveByStaff(c.Request().Context(), n)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Approved returns the approved history in approval order.
func (h *StaffHandler) Approved(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.ListApproved())
}

// Logs returns the retained system log, newest first.
func (h *StaffHandler) Logs(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.ListSystemLogs())
}

func queueNumberParam(c echo.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
