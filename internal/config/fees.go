package config

import (
	"os"
	"strconv"
	"strings"
)

// ProcessorFees is the fee table applied when guest payment is routed
// through the payment processor.  RatePct is the processor's percentage
// fee as a fraction (e.g. 0.029); FixedFeeCents holds the per-transaction
// fixed fee in minor units keyed by ISO currency code.  The table is
// resolved once at service construction and injected, never read from
// scattered literals.
type ProcessorFees struct {
	RatePct       float64
	FixedFeeCents map[string]int64
}

// FixedFee returns the fixed per-transaction fee for the currency, or 0
// when the currency has no configured entry.
func (f ProcessorFees) FixedFee(currency string) int64 {
	return f.FixedFeeCents[strings.ToUpper(currency)]
}

// LoadProcessorFees builds the fee table from environment variables with
// sensible defaults.  PROCESSOR_RATE_PCT overrides the percentage fee;
// PROCESSOR_FIXED_FEES overrides the fixed fees as a comma-separated
// list like "USD=30,EUR=25".
func LoadProcessorFees() ProcessorFees {
	fees := ProcessorFees{
		RatePct: 0.029,
		FixedFeeCents: map[string]int64{
			"USD": 30,
			"EUR": 25,
			"GBP": 20,
		},
	}
	if v := os.Getenv("PROCESSOR_RATE_PCT"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r >= 0 && r < 1 {
			fees.RatePct = r
		}
	}
	if v := os.Getenv("PROCESSOR_FIXED_FEES"); v != "" {
		parsed := map[string]int64{}
		for _, pair := range strings.Split(v, ",") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(kv) != 2 {
				continue
			}
			cents, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil || cents < 0 {
				continue
			}
			parsed[strings.ToUpper(strings.TrimSpace(kv[0]))] = cents
		}
		if len(parsed) > 0 {
			fees.FixedFeeCents = parsed
		}
	}
	return fees
}
