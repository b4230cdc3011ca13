package pricing

import "math"

// PutCallParity derives the counterpart mid from a resolved base mid using
// the no-arbitrage relationship:
//
//	call = put + spot - strike*e^{-r*t}
//	put  = call - spot + strike*e^{-r*t}
//
// with t = dte/365. A non-positive derived mid means the relationship gives
// no usable price (ok=false); that is an expected data condition, not an
// error. Non-positive spot or strike cannot be priced at all.
func PutCallParity(baseMid float64, baseIsCall bool, spot, strike, rate, dte float64) (float64, bool) {
	if spot <= 0 || strike <= 0 {
		return 0, false
	}
	if dte < 0 {
		dte = 0
	}

	t := dte / DaysPerYear
	discStrike := strike * math.Exp(-rate*t)

	var derived float64
	if baseIsCall {
		derived = baseMid - spot + discStrike
	} else {
		derived = baseMid + spot - discStrike
	}

	if derived <= 0 || math.IsNaN(derived) || math.IsInf(derived, 0) {
		return 0, false
	}
	return derived, true
}
