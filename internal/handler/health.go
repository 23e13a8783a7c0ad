package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project

	"github.com/iliyamo/flowdesk/internal/model" // reservation values
)

// QueueSizer reports how many reservations are waiting.
type QueueSizer interface {
	ListQueue() []model.Reservation
}

// Health is used by load balancers and monitoring to check that the desk is
// up.  It reports the current queue length alongside "ok".
func Health(q QueueSizer) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "queue_length": len(q.ListQueue())})
	}
}
