package pricing

import (
	"math"

	"github.com/sawpanic/spreadrun/internal/options"
)

// DaysPerYear is the day-count convention used throughout pricing
const DaysPerYear = 365.0

// GreeksResult bundles a theoretical price with first-order sensitivities.
// Vega is per 1.00 of volatility, theta per calendar day.
type GreeksResult struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// Intrinsic returns the exercise value of the contract
func Intrinsic(right options.Right, spot, strike float64) float64 {
	if right == options.Call {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

// BlackScholes prices a European option with the standard d1/d2 formulation.
// Zero or negative dte/iv short-circuit to intrinsic value with no
// discounting. Non-positive spot or strike cannot be priced (ok=false);
// those guards exist so malformed quotes never reach math.Log.
func BlackScholes(right options.Right, spot, strike, dte, iv, rate, dividendYield float64) (float64, bool) {
	if spot <= 0 || strike <= 0 {
		return 0, false
	}
	if dte <= 0 || iv <= 0 {
		return Intrinsic(right, spot, strike), true
	}

	t := dte / DaysPerYear
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate-dividendYield+0.5*iv*iv)*t) / (iv * sqrtT)
	d2 := d1 - iv*sqrtT

	discStrike := strike * math.Exp(-rate*t)
	discSpot := spot * math.Exp(-dividendYield*t)

	if right == options.Call {
		return discSpot*normCDF(d1) - discStrike*normCDF(d2), true
	}
	return discStrike*normCDF(-d2) - discSpot*normCDF(-d1), true
}

// Greeks computes price plus delta/gamma/vega/theta. The zero-variance
// short-circuit yields a step delta (1 or 0 for calls, -1 or 0 for puts)
// and zero for the remaining greeks.
func Greeks(right options.Right, spot, strike, dte, iv, rate, dividendYield float64) (GreeksResult, bool) {
	if spot <= 0 || strike <= 0 {
		return GreeksResult{}, false
	}
	if dte <= 0 || iv <= 0 {
		res := GreeksResult{Price: Intrinsic(right, spot, strike)}
		if right == options.Call {
			if spot > strike {
				res.Delta = 1
			}
		} else {
			if spot < strike {
				res.Delta = -1
			}
		}
		return res, true
	}

	t := dte / DaysPerYear
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate-dividendYield+0.5*iv*iv)*t) / (iv * sqrtT)
	d2 := d1 - iv*sqrtT

	discStrike := strike * math.Exp(-rate*t)
	discSpot := spot * math.Exp(-dividendYield*t)
	pdf := normPDF(d1)

	res := GreeksResult{
		Gamma: math.Exp(-dividendYield*t) * pdf / (spot * iv * sqrtT),
		Vega:  discSpot * pdf * sqrtT,
	}

	if right == options.Call {
		res.Price = discSpot*normCDF(d1) - discStrike*normCDF(d2)
		res.Delta = math.Exp(-dividendYield*t) * normCDF(d1)
		res.Theta = (-discSpot*pdf*iv/(2*sqrtT) - rate*discStrike*normCDF(d2) + dividendYield*discSpot*normCDF(d1)) / DaysPerYear
	} else {
		res.Price = discStrike*normCDF(-d2) - discSpot*normCDF(-d1)
		res.Delta = -math.Exp(-dividendYield*t) * normCDF(-d1)
		res.Theta = (-discSpot*pdf*iv/(2*sqrtT) + rate*discStrike*normCDF(-d2) - dividendYield*discSpot*normCDF(-d1)) / DaysPerYear
	}
	return res, true
}
