package score

import (
	"math"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/midpoint"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/pricing"
)

func pricingModel(q options.OptionQuote, iv float64, mctx midpoint.Context) (float64, bool) {
	if iv <= 0 {
		return 0, false
	}
	return pricing.BlackScholes(q.Right, mctx.Spot, q.Strike, q.DTE(mctx.AsOf), iv, mctx.Rate, 0)
}

// computeMargin resolves the capital requirement per the strategy family.
// ok=false means no model applies to the leg set, which rejects the
// candidate upstream.
func computeMargin(profile config.StrategyProfile, legs []options.Leg, credit float64, mctx midpoint.Context) (float64, bool) {
	switch profile.Family {
	case config.FamilyVertical:
		return verticalMargin(legs, credit)
	case config.FamilyCondor, config.FamilyButterfly:
		return wingMargin(legs, credit)
	case config.FamilyNaked:
		return nakedMargin(legs, credit, mctx.Spot)
	case config.FamilyCalendar:
		return calendarMargin(legs, credit, mctx.Spot)
	default:
		return genericMargin(legs, credit, mctx.Spot)
	}
}

// verticalMargin is strike width times the multiplier, less the credit
func verticalMargin(legs []options.Leg, credit float64) (float64, bool) {
	if len(legs) != 2 {
		return 0, false
	}
	width := math.Abs(legs[0].Quote.Strike - legs[1].Quote.Strike)
	if width <= 0 {
		return 0, false
	}
	qty := float64(minQty(legs))
	margin := width*ContractMultiplier*qty - credit
	return margin, margin > 0
}

// wingMargin uses the widest wing for condors and the wing width for
// butterflies; for debit structures the risk is the debit itself.
func wingMargin(legs []options.Leg, credit float64) (float64, bool) {
	width := maxWingWidth(legs)
	if width <= 0 {
		return 0, false
	}
	if credit <= 0 {
		// Debit structure: capital at risk is the premium paid.
		return -credit, credit < 0
	}
	margin := width*ContractMultiplier*float64(minQty(legs)) - credit
	return margin, margin > 0
}

// nakedMargin is the Reg-T style short option requirement: premium plus the
// larger of 20% of spot less the OTM amount and 10% of strike.
func nakedMargin(legs []options.Leg, credit float64, spot float64) (float64, bool) {
	if spot <= 0 {
		return 0, false
	}
	var margin float64
	var shorts int
	for _, leg := range legs {
		if !leg.IsShort() {
			continue
		}
		shorts++
		margin += shortRequirement(leg, spot)
	}
	if shorts == 0 {
		return 0, false
	}
	margin += credit
	return margin, margin > 0
}

func shortRequirement(leg options.Leg, spot float64) float64 {
	q := leg.Quote
	var otm float64
	if q.Right == options.Put {
		otm = math.Max(0, spot-q.Strike)
	} else {
		otm = math.Max(0, q.Strike-spot)
	}
	base := math.Max(0.20*spot-otm, 0.10*q.Strike)
	return base * ContractMultiplier * float64(leg.Qty())
}

// calendarMargin: a net-debit calendar risks the debit; a rare net-credit
// calendar falls back to the short-leg requirement.
func calendarMargin(legs []options.Leg, credit float64, spot float64) (float64, bool) {
	if credit < 0 {
		return -credit, true
	}
	return nakedMargin(legs, credit, spot)
}

// genericMargin is the heuristic for ratio/backspread structures: short-leg
// requirements offset by the long legs' premium value, floored at any net
// debit paid.
func genericMargin(legs []options.Leg, credit float64, spot float64) (float64, bool) {
	if spot <= 0 {
		return 0, false
	}
	var margin float64
	for _, leg := range legs {
		if leg.IsShort() {
			margin += shortRequirement(leg, spot)
			continue
		}
		if mid, ok := leg.Mid(); ok {
			margin -= mid * ContractMultiplier * float64(leg.Qty())
		}
	}
	if credit < 0 && margin < -credit {
		margin = -credit
	}
	return margin, margin > 0
}

func minQty(legs []options.Leg) int {
	minQ := 0
	for _, leg := range legs {
		if q := leg.Qty(); minQ == 0 || q < minQ {
			minQ = q
		}
	}
	return minQ
}

// maxWingWidth returns the widest short-to-long strike distance per right
func maxWingWidth(legs []options.Leg) float64 {
	var widest float64
	for _, short := range legs {
		if !short.IsShort() {
			continue
		}
		for _, long := range legs {
			if long.IsShort() || long.Quote.Right != short.Quote.Right {
				continue
			}
			if w := math.Abs(short.Quote.Strike - long.Quote.Strike); w > widest {
				widest = w
			}
		}
	}
	return widest
}
