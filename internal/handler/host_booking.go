package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evelinagr/apartment-booking/internal/booking"
	"github.com/evelinagr/apartment-booking/internal/model"
	"github.com/evelinagr/apartment-booking/internal/repository"
)

// HostBookingHandler serves the host dashboard operations: reviewing
// bookings, deciding them in bulk, and managing blocked date windows.
type HostBookingHandler struct {
	Service     *booking.Service
	BookingRepo *repository.BookingRepo
	BlockedRepo *repository.BlockedDateRepo
}

func NewHostBookingHandler(svc *booking.Service, bookings *repository.BookingRepo, blocked *repository.BlockedDateRepo) *HostBookingHandler {
	if svc == nil || bookings == nil || blocked == nil {
		panic("nil dependency passed to NewHostBookingHandler")
	}
	return &HostBookingHandler{Service: svc, BookingRepo: bookings, BlockedRepo: blocked}
}

type statusUpdateRequest struct {
	Updates []booking.StatusUpdate `json:"updates"`
}

// UpdateStatuses handles POST /v1/host/bookings/status.  Every update in
// the batch is applied in a single transaction; if any one of them is
// illegal or touches a booking the caller does not own, none are applied.
func (h *HostBookingHandler) UpdateStatuses(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req statusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(req.Updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "updates must not be empty"})
	}
	updated, err := h.Service.UpdateBookingStatuses(c.Request().Context(), req.Updates, actor)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookingViews(updated), "count": len(updated)})
}

// ListBookings handles GET /v1/host/bookings and returns every booking
// across the host's apartments.
func (h *HostBookingHandler) ListBookings(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.BookingRepo.ListByHost(c.Request().Context(), actor.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookingViews(items), "count": len(items)})
}

// blockedDateView represents a manual block in JSON responses.
type blockedDateView struct {
	ID          uint64  `json:"id"`
	ApartmentID *uint64 `json:"apartment_id,omitempty"`
	Date        string  `json:"date"`
	Reason      *string `json:"reason,omitempty"`
}

func toBlockedDateView(b model.BlockedDate) blockedDateView {
	return blockedDateView{
		ID:          b.ID,
		ApartmentID: b.ApartmentID,
		Date:        b.Date.Format("2006-01-02"),
		Reason:      b.Reason,
	}
}

type blockDatesRequest struct {
	ApartmentID *uint64  `json:"apartment_id"` // nil blocks every apartment of the host
	Dates       []string `json:"dates"`
	Reason      *string  `json:"reason"`
}

// CreateBlockedDates handles POST /v1/host/blocked-dates.  Each date in
// the list becomes its own block row.  Omitting apartment_id blocks the
// dates across every apartment the host owns.
func (h *HostBookingHandler) CreateBlockedDates(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req blockDatesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(req.Dates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must not be empty"})
	}
	created := make([]blockedDateView, 0, len(req.Dates))
	for _, raw := range req.Dates {
		day, perr := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be YYYY-MM-DD", "value": raw})
		}
		blocked := model.BlockedDate{
			HostID:      actor.UserID,
			ApartmentID: req.ApartmentID,
			Date:        day,
			Reason:      req.Reason,
		}
		if err := h.BlockedRepo.Create(c.Request().Context(), &blocked); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create blocked dates"})
		}
		created = append(created, toBlockedDateView(blocked))
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": created, "count": len(created)})
}

// DeleteBlockedDates handles DELETE /v1/host/blocked-dates/:id.  Only
// the owning host can remove a window.
func (h *HostBookingHandler) DeleteBlockedDates(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.BlockedRepo.Delete(c.Request().Context(), actor.UserID, id); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "blocked dates not found"})
	}
	return c.JSON(http.StatusNoContent, nil)
}
