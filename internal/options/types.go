package options

import (
	"fmt"
	"time"
)

// Right identifies the option side of a contract
type Right string

const (
	Call Right = "call"
	Put  Right = "put"
)

// Opposite returns the counterpart right for parity lookups
func (r Right) Opposite() Right {
	if r == Call {
		return Put
	}
	return Call
}

// ParseRight normalizes the right aliases seen in raw chain records
func ParseRight(s string) (Right, error) {
	switch s {
	case "C", "c", "CALL", "Call", "call":
		return Call, nil
	case "P", "p", "PUT", "Put", "put":
		return Put, nil
	default:
		return "", fmt.Errorf("unknown option right %q", s)
	}
}

// OptionQuote is an immutable snapshot of one contract. Pointer fields
// distinguish "missing" from a legitimate zero; bid/ask/close use zero as
// "not quoted" since only positive prices are usable anywhere downstream.
type OptionQuote struct {
	Expiry       time.Time `json:"expiry"`
	Strike       float64   `json:"strike"`
	Right        Right     `json:"right"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	Close        float64   `json:"close"`
	IV           *float64  `json:"iv,omitempty"`
	Delta        *float64  `json:"delta,omitempty"`
	Volume       *int64    `json:"volume,omitempty"`
	OpenInterest *int64    `json:"open_interest,omitempty"`
	QuoteAge     *float64  `json:"quote_age,omitempty"` // seconds since quote
}

// DTE returns days to expiry relative to the supplied evaluation time.
// Negative values are clamped to zero so expired contracts price at intrinsic.
func (q OptionQuote) DTE(asOf time.Time) float64 {
	dte := q.Expiry.Sub(asOf).Hours() / 24.0
	if dte < 0 {
		return 0
	}
	return dte
}

// Describe renders a compact contract label for reasons and logs
func (q OptionQuote) Describe() string {
	return fmt.Sprintf("%s %s %.2f", q.Expiry.Format("2006-01-02"), q.Right, q.Strike)
}

// Leg pairs a quote with a signed position. Negative position = short,
// magnitude = contract ratio. Resolution is attached once per evaluation
// and replaced, never mutated.
type Leg struct {
	Quote      OptionQuote    `json:"quote"`
	Position   int            `json:"position"`
	Resolution *MidResolution `json:"resolution,omitempty"`
}

// IsShort reports whether the leg is a short position
func (l Leg) IsShort() bool {
	return l.Position < 0
}

// Qty returns the unsigned contract count
func (l Leg) Qty() int {
	if l.Position < 0 {
		return -l.Position
	}
	return l.Position
}

// Mid returns the resolved mid when present
func (l Leg) Mid() (float64, bool) {
	if l.Resolution == nil || l.Resolution.Mid == nil {
		return 0, false
	}
	return *l.Resolution.Mid, true
}

// MidResolution records one leg's resolved mid with full provenance.
// Invariant: Mid set implies Source set; Mid nil implies Reason explains
// why every fallback failed.
type MidResolution struct {
	Mid        *float64   `json:"mid,omitempty"`
	Source     MidSource  `json:"source"`
	Reason     string     `json:"reason"`
	SpreadFlag SpreadFlag `json:"spread_flag"`
	QuoteAge   *float64   `json:"quote_age,omitempty"`
}

// Resolved reports whether a usable mid was found
func (r *MidResolution) Resolved() bool {
	return r != nil && r.Mid != nil
}

// Float is a convenience constructor for optional float fields
func Float(v float64) *float64 { return &v }

// Int is a convenience constructor for optional integer fields
func Int(v int64) *int64 { return &v }
