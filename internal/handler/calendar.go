package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/evelinagr/apartment-booking/internal/booking"
	"github.com/evelinagr/apartment-booking/internal/calendar"
	"github.com/evelinagr/apartment-booking/internal/repository"
)

// maxCalendarDays bounds a single calendar request so a careless client
// cannot ask for years of per-day evaluation in one call.
const maxCalendarDays = 366

// CalendarHandler serves the public per-day availability view and stay
// quotes.  Both operations are read only and sit behind the redis
// response cache.
type CalendarHandler struct {
	Service       *booking.Service
	ApartmentRepo *repository.ApartmentRepo
	BookingRepo   *repository.BookingRepo
	BlockedRepo   *repository.BlockedDateRepo
}

func NewCalendarHandler(svc *booking.Service, apartments *repository.ApartmentRepo, bookings *repository.BookingRepo, blocked *repository.BlockedDateRepo) *CalendarHandler {
	if svc == nil || apartments == nil || bookings == nil || blocked == nil {
		panic("nil dependency passed to NewCalendarHandler")
	}
	return &CalendarHandler{Service: svc, ApartmentRepo: apartments, BookingRepo: bookings, BlockedRepo: blocked}
}

type calendarDay struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

// GetCalendar handles GET /v1/apartments/:id/calendar?from=&to=.  It
// evaluates each night in the half-open window [from, to) and reports
// whether that night is free.  The external feed, when configured on
// the apartment, contributes block evidence; a broken feed degrades to
// local data only.
func (h *CalendarHandler) GetCalendar(c echo.Context) error {
	apartmentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || apartmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment id"})
	}
	from, err := parseDateParam(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := parseDateParam(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	if !from.Before(to) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be before to"})
	}
	if int(to.Sub(from).Hours()/24) > maxCalendarDays {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "window too large"})
	}

	ctx := c.Request().Context()
	ap, err := h.ApartmentRepo.GetByID(ctx, apartmentID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "apartment not found"})
	}
	bookings, err := h.BookingRepo.ListByApartment(ctx, apartmentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	blocks, err := h.BlockedRepo.ListForApartment(ctx, ap.HostID, apartmentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var external []string
	if ap.CalendarFeedURL != nil && *ap.CalendarFeedURL != "" {
		external, err = calendar.FetchBlockedDates(ctx, *ap.CalendarFeedURL)
		if err != nil {
			log.Printf("calendar: feed for apartment %d failed: %v", apartmentID, err)
			external = nil
		}
	}

	statuses := h.Service.ConflictStatuses()
	days := make([]calendarDay, 0, maxCalendarDays)
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		res := booking.CheckDay(apartmentID, day, bookings, blocks, external, statuses)
		days = append(days, calendarDay{Date: day.Format("2006-01-02"), Available: res.Available})
	}
	return c.JSON(http.StatusOK, echo.Map{"apartment_id": apartmentID, "days": days})
}

// GetQuote handles GET /v1/apartments/:id/quote?from=&to=.  It prices a
// prospective stay without touching availability or writing anything.
func (h *CalendarHandler) GetQuote(c echo.Context) error {
	apartmentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || apartmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment id"})
	}
	from, err := parseDateParam(c, "from")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := parseDateParam(c, "to")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	quote, err := h.Service.Quote(c.Request().Context(), apartmentID, from, to)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"apartment_id": apartmentID,
		"start_date":   from.Format("2006-01-02"),
		"end_date":     to.Format("2006-01-02"),
		"quote":        quote,
	})
}
