package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evelinagr/apartment-booking/internal/booking"
)

// PaymentWebhookHandler receives checkout completion events from the
// payment processor.  Authentication is a shared secret header rather
// than JWT since the caller is the processor, not a user.
type PaymentWebhookHandler struct {
	Service *booking.Service
	Secret  string
}

func NewPaymentWebhookHandler(svc *booking.Service, secret string) *PaymentWebhookHandler {
	if svc == nil {
		panic("nil service passed to NewPaymentWebhookHandler")
	}
	return &PaymentWebhookHandler{Service: svc, Secret: secret}
}

type webhookEvent struct {
	Type       string `json:"type"`
	SessionRef string `json:"session_ref"`
}

// HandleEvent handles POST /v1/payments/webhook.  Only
// checkout.session.completed events are acted on; everything else is
// acknowledged and dropped so the processor does not keep retrying.
func (h *PaymentWebhookHandler) HandleEvent(c echo.Context) error {
	got := c.Request().Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var ev webhookEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if ev.Type != "checkout.session.completed" {
		return c.JSON(http.StatusOK, echo.Map{"ignored": true})
	}
	if ev.SessionRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_ref is required"})
	}
	b, err := h.Service.MarkPaid(c.Request().Context(), ev.SessionRef)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingView(*b)})
}
