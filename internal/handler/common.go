package handler // handler defines http handlers for the booking API

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evelinagr/apartment-booking/internal/booking"
)

// Role claim values recognised by the API.
const (
	RoleHost  = "HOST"
	RoleAdmin = "ADMIN"
	RoleGuest = "GUEST"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64.  JWT claims arrive as float64 or string depending on how the
// token was minted, so both are accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getEmail extracts the email claim, if any.
func getEmail(c echo.Context) string {
	if s, ok := c.Get("email").(string); ok {
		return s
	}
	return ""
}

// getActor builds the authorization actor from the request context.
func getActor(c echo.Context) (booking.Actor, error) {
	id, err := getUserID(c)
	if err != nil {
		return booking.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return booking.Actor{UserID: id, Admin: role == RoleAdmin}, nil
}

// parseDateParam parses a YYYY-MM-DD query parameter into a UTC date.
func parseDateParam(c echo.Context, name string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", c.QueryParam(name), time.UTC)
}

// writeEngineError maps a booking engine error onto an HTTP response.
// Each error kind gets a distinct body so clients can react precisely;
// an unavailable range in particular carries the conflicts and must not
// look like a generic server error.
func writeEngineError(c echo.Context, err error) error {
	var unavailable *booking.UnavailableError
	switch {
	case errors.As(err, &unavailable):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "date_range_unavailable",
			"conflicts": unavailable.Conflicts,
		})
	case errors.Is(err, booking.ErrDateRangeUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "date_range_unavailable"})
	case errors.Is(err, booking.ErrInvalidRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_date_range", "detail": err.Error()})
	case errors.Is(err, booking.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "detail": err.Error()})
	case errors.Is(err, booking.ErrStayLengthViolation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stay_length_violation", "detail": err.Error()})
	case errors.Is(err, booking.ErrIllegalTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "illegal_transition", "detail": err.Error()})
	case errors.Is(err, booking.ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
