package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flowdesk/internal/middleware"
	"github.com/iliyamo/flowdesk/internal/model"
	"github.com/iliyamo/flowdesk/internal/repository"
	"github.com/iliyamo/flowdesk/internal/service"
)

// DeskHandler serves the customer side of the desk: the room catalog, the
// waiting queue and the transaction history.
type DeskHandler struct {
	Engine *service.QueueEngine
}

// NewDeskHandler panics when engine is nil.
func NewDeskHandler(engine *service.QueueEngine) *DeskHandler {
	if engine == nil {
		panic("nil queue engine passed to NewDeskHandler")
	}
	return &DeskHandler{Engine: engine}
}

type joinReq struct {
	Room     string `json:"room"`
	TimeSlot string `json:"time_slot"`
}

type joinResp struct {
	service.JoinResult
	Position int    `json:"position"`
	Ticket   string `json:"ticket"`
}

type queueStatusResp struct {
	service.QueueStatus
	Ticket   string `json:"ticket"`
	YourTurn bool   `json:"your_turn"`
}

// Rooms lists the catalog filtered by ?q=, ?building= and ?time_slot=.
// "All" or an empty value disables a filter.
func (h *DeskHandler) Rooms(c echo.Context) error {
	seats := h.Engine.SearchSeats(repository.SeatFilter{
		Query:    c.QueryParam("q"),
		Building: c.QueryParam("building"),
		TimeSlot: c.QueryParam("time_slot"),
	})
	return c.JSON(http.StatusOK, seats)
}

// JoinQueue puts the session's person in the queue for a room and slot.
// The person's details must have been saved first.
func (h *DeskHandler) JoinQueue(c echo.Context) error {
	var req joinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess, _ := middleware.CurrentSession(c)
	if !sess.HasIdentity() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "save your information before joining the queue"})
	}

	res, err := h.Engine.Join(c.Request().Context(), service.JoinRequest{
		Name:     sess.UserName,
		Contact:  sess.ContactNumber,
		Age:      sess.Age,
		Room:     req.Room,
		TimeSlot: req.TimeSlot,
	})
	if errors.Is(err, repository.ErrAlreadyInQueue) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "you already have a reservation in the queue",
			"reservation": res.Reservation,
		})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, joinResp{
		JoinResult: res,
		Position:   h.Engine.PositionOf(res.Reservation.QueueNumber),
		Ticket:     res.Reservation.Ticket(),
	})
}

// ListQueue returns every waiting reservation in FIFO order.
func (h *DeskHandler) ListQueue(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.ListQueue())
}

// MyReservation returns the caller's reservation and how many people are
// ahead of it.
func (h *DeskHandler) MyReservation(c echo.Context) error {
	sess, _ := middleware.CurrentSession(c)
	st, ok := h.Engine.StatusOf(sess.UserName)
	if !ok {
		return fail(c, repository.ErrNotInQueue)
	}
	return c.JSON(http.StatusOK, queueStatusResp{
		QueueStatus: st,
		Ticket:      st.Reservation.Ticket(),
		YourTurn:    st.Position == 0 && st.Reservation.IsWaiting(),
	})
}

// CancelMine removes the caller's reservation from the queue.
func (h *DeskHandler) CancelMine(c echo.Context) error {
	sess, _ := middleware.CurrentSession(c)
	r, ok := h.Engine.FindByName(sess.UserName)
	if !ok {
		return fail(c, repository.ErrNotInQueue)
	}
	if err := h.Engine.Cancel(c.Request().Context(), r.QueueNumber); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": r.Ticket()})
}

// Transactions returns the audit trail, newest first.  ?user= narrows it
// to one person's entries.
func (h *DeskHandler) Transactions(c echo.Context) error {
	all := h.Engine.ListTransactions()
	user := strings.TrimSpace(c.QueryParam("user"))
	if user == "" {
		return c.JSON(http.StatusOK, all)
	}
	out := make([]model.Transaction, 0, len(all))
	for _, t := range all {
		if t.UserName == user {
			out = append(out, t)
		}
	}
	return c.JSON(http.StatusOK, out)
}
