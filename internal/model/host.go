package model

// Host owns apartments and receives booking payouts.  When
// ProcessorAccountID is set the platform collects guest payment through
// the payment processor and splits it between the host payout and the
// platform commission; when it is nil the host bills guests directly and
// no gross-up is applied.
type Host struct {
	ID                 uint64  // hosts.id
	Email              string  // hosts.email
	Name               string  // hosts.name
	CommissionRate     float64 // hosts.commission_rate (fraction, e.g. 0.04)
	ProcessorAccountID *string // hosts.processor_account_id (nullable)
	CurrencyCode       string  // hosts.currency_code (ISO 4217)
}

// ProcessorRouted reports whether guest payments for this host are routed
// through the payment processor.
func (h *Host) ProcessorRouted() bool { return h.ProcessorAccountID != nil && *h.ProcessorAccountID != "" }
