package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flowdesk/internal/repository"
)

// errorStatus maps the desk's sentinel errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotInQueue),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAlreadyInQueue):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error": "..."} with the mapped status.  Unexpected
// errors are not echoed back to the client.
func fail(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
