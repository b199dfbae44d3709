package booking

import (
	"fmt"
	"math"
	"time"

	"github.com/evelinagr/apartment-booking/internal/config"
	"github.com/evelinagr/apartment-booking/internal/model"
)

// Quote is the priced breakdown of a stay.  All amounts are minor units
// in the host's currency.  BaseCents is the sum of nightly rates and is
// exactly what the host nets; for processor-routed hosts TotalCents is
// grossed up so the host still receives BaseCents after the processor's
// percentage and fixed fees plus the platform commission are deducted.
// ServiceFeeCents is derived from the rounded total, so the two always
// sum exactly.
type Quote struct {
	Nights          int   `json:"nights"`
	BaseCents       int64 `json:"base_price_cents"`
	ServiceFeeCents int64 `json:"service_fee_cents"`
	TotalCents      int64 `json:"total_price_cents"`
	HostPayoutCents int64 `json:"host_payout_cents"`
}

// Nights returns the whole-day night count of [start, end).
func Nights(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// ValidateStay enforces the apartment's stay-length limits as a step
// separate from price computation.  A non-positive night count returns
// ErrInvalidRange; a count outside [MinStayNights, MaxStayNights]
// returns ErrStayLengthViolation.
func ValidateStay(ap *model.Apartment, start, end time.Time) error {
	nights := Nights(start, end)
	if nights <= 0 {
		return fmt.Errorf("%w: %s to %s spans %d nights", ErrInvalidRange, start.Format(dateLayout), end.Format(dateLayout), nights)
	}
	if ap.MinStayNights > 0 && nights < ap.MinStayNights {
		return fmt.Errorf("%w: %d nights is below the minimum of %d", ErrStayLengthViolation, nights, ap.MinStayNights)
	}
	if ap.MaxStayNights > 0 && nights > ap.MaxStayNights {
		return fmt.Errorf("%w: %d nights exceeds the maximum of %d", ErrStayLengthViolation, nights, ap.MaxStayNights)
	}
	return nil
}

// ComputeQuote prices the stay [start, end).  Each night's rate is the
// covering override rule's price, falling back to the apartment base
// rate.  For hosts without a processor account (or with a zero
// commission) the guest pays the base total directly and the service fee
// is zero.  For processor-routed hosts the total solves
//
//	total = (base + fixedFee) / (1 - commission - procRate)
//
// as a straight linear gross-up, rounded half-up to the currency's minor
// unit.  Pure function of its inputs; no I/O.
func ComputeQuote(ap *model.Apartment, host *model.Host, start, end time.Time, fees config.ProcessorFees) (Quote, error) {
	nights := Nights(start, end)
	if nights <= 0 {
		return Quote{}, fmt.Errorf("%w: non-positive night count", ErrInvalidRange)
	}
	var base int64
	for night := start; night.Before(end); night = night.AddDate(0, 0, 1) {
		base += nightlyRateFor(ap, night)
	}
	q := Quote{
		Nights:          nights,
		BaseCents:       base,
		TotalCents:      base,
		HostPayoutCents: base,
	}
	if !host.ProcessorRouted() || host.CommissionRate == 0 {
		return q, nil
	}
	denom := 1 - host.CommissionRate - fees.RatePct
	if denom <= 0 {
		return Quote{}, fmt.Errorf("commission %.3f plus processor rate %.3f leave nothing to pay out", host.CommissionRate, fees.RatePct)
	}
	fixed := fees.FixedFee(host.CurrencyCode)
	q.TotalCents = roundHalfUp(float64(base+fixed) / denom)
	q.ServiceFeeCents = q.TotalCents - base
	return q, nil
}

// nightlyRateFor resolves the rate for one night.  When several override
// rules cover the night, the most recently created rule wins; exact
// creation-time ties fall to the higher ID.  Stored array order is never
// consulted.
func nightlyRateFor(ap *model.Apartment, night time.Time) int64 {
	rate := ap.BasePriceCents
	var winner *model.PriceOverride
	for i := range ap.PriceOverrides {
		o := &ap.PriceOverrides[i]
		if !o.Covers(night) {
			continue
		}
		if winner == nil || o.CreatedAt.After(winner.CreatedAt) ||
			(o.CreatedAt.Equal(winner.CreatedAt) && o.ID > winner.ID) {
			winner = o
		}
	}
	if winner != nil {
		rate = winner.NightlyRateCents
	}
	return rate
}

// roundHalfUp rounds to the nearest integer with halves away from zero
// upward, the convention for guest-facing currency amounts.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
