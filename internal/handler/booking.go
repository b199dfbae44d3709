package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evelinagr/apartment-booking/internal/booking"
	"github.com/evelinagr/apartment-booking/internal/calendar"
	"github.com/evelinagr/apartment-booking/internal/model"
	"github.com/evelinagr/apartment-booking/internal/repository"
)

// bookingView represents a booking in JSON responses.  Dates are
// rendered as plain YYYY-MM-DD strings and money stays in minor units.
type bookingView struct {
	ID                 uint64  `json:"id"`
	ApartmentID        uint64  `json:"apartment_id"`
	GuestName          string  `json:"guest_name"`
	GuestEmail         string  `json:"guest_email"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	Status             string  `json:"status"`
	TotalPriceCents    int64   `json:"total_price_cents"`
	HostPayoutCents    int64   `json:"host_payout_cents"`
	CheckoutSessionRef *string `json:"checkout_session_ref,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

func toBookingView(b model.Booking) bookingView {
	return bookingView{
		ID:                 b.ID,
		ApartmentID:        b.ApartmentID,
		GuestName:          b.GuestName,
		GuestEmail:         b.GuestEmail,
		StartDate:          b.StartDate.Format("2006-01-02"),
		EndDate:            b.EndDate.Format("2006-01-02"),
		Status:             b.Status,
		TotalPriceCents:    b.TotalPriceCents,
		HostPayoutCents:    b.HostPayoutCents,
		CheckoutSessionRef: b.CheckoutSessionRef,
		CreatedAt:          b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func bookingViews(items []model.Booking) []bookingView {
	out := make([]bookingView, 0, len(items))
	for _, b := range items {
		out = append(out, toBookingView(b))
	}
	return out
}

// BookingHandler serves the guest-facing booking operations.  The
// transaction discipline lives entirely inside the booking service; the
// handler's job is binding, feeding the external calendar evidence in,
// and mapping engine errors to HTTP responses.
type BookingHandler struct {
	Service       *booking.Service
	ApartmentRepo *repository.ApartmentRepo
	BookingRepo   *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(svc *booking.Service, apartments *repository.ApartmentRepo, bookings *repository.BookingRepo) *BookingHandler {
	if svc == nil || apartments == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Service: svc, ApartmentRepo: apartments, BookingRepo: bookings}
}

// CreateBooking handles POST /v1/apartments/:id/bookings.  The JSON body
// carries the stay dates and guest identity; the apartment comes from the
// path.  On success it returns 201 with the created booking.  When the
// booking committed but the processor checkout session could not be
// created, it still returns 201 with a checkout_warning field; the
// booking is valid and payment setup can be retried.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	apartmentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || apartmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment id"})
	}
	var req booking.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.ApartmentID = apartmentID

	ctx := c.Request().Context()
	ap, err := h.ApartmentRepo.GetByID(ctx, apartmentID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "apartment not found"})
	}
	req.RequireApproval = ap.ManualApproval
	// External feed dates are advisory block evidence; a broken feed is
	// logged and the booking proceeds on local data alone.
	if ap.CalendarFeedURL != nil && *ap.CalendarFeedURL != "" {
		dates, ferr := calendar.FetchBlockedDates(ctx, *ap.CalendarFeedURL)
		if ferr != nil {
			log.Printf("booking: calendar feed for apartment %d failed: %v", apartmentID, ferr)
		} else {
			req.ExternalBlockedDates = dates
		}
	}

	b, err := h.Service.CreateBooking(ctx, req)
	var checkoutErr *booking.CheckoutFailedError
	if errors.As(err, &checkoutErr) {
		return c.JSON(http.StatusCreated, echo.Map{
			"booking":          toBookingView(*b),
			"checkout_warning": "booking created but checkout session failed; payment can be retried",
		})
	}
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": toBookingView(*b)})
}

// ListMyBookings handles GET /v1/my-bookings.  It returns every booking
// made under the authenticated user's email address, newest first.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	email := getEmail(c)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.BookingRepo.ListByGuestEmail(c.Request().Context(), email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookingViews(items), "count": len(items)})
}
