package score

import (
	"math"
	"sort"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/midpoint"
	"github.com/sawpanic/spreadrun/internal/options"
)

// closedFormProfit bounds profit and loss for structures with defined risk.
// Credit structures cap profit at the credit and loss at width beyond it;
// debit butterflies cap profit at the width less the debit.
func closedFormProfit(profile config.StrategyProfile, legs []options.Leg, credit float64) (maxProfit, maxLoss float64) {
	switch profile.Family {
	case config.FamilyVertical, config.FamilyCondor:
		width := maxWingWidth(legs)
		qty := float64(minQty(legs))
		return credit, credit - width*ContractMultiplier*qty
	case config.FamilyButterfly:
		width := maxWingWidth(legs)
		qty := float64(minQty(legs))
		if credit > 0 {
			return credit, credit - width*ContractMultiplier*qty
		}
		return width*ContractMultiplier*qty + credit, credit
	case config.FamilyNaked:
		var loss float64
		for _, leg := range legs {
			if !leg.IsShort() {
				continue
			}
			if leg.Quote.Right == options.Put {
				// Underlying to zero.
				loss += leg.Quote.Strike * ContractMultiplier * float64(leg.Qty())
			} else {
				// Short calls have no closed bound; cap at twice the
				// strike for EV purposes.
				loss += 2 * leg.Quote.Strike * ContractMultiplier * float64(leg.Qty())
			}
		}
		return credit, credit - loss
	default:
		return credit, credit
	}
}

// breakevens computes the per-share breakeven prices for the strategy
// family using the credit/100 per-share offset convention. Scenario-priced
// structures interpolate the zero crossings of the scenario P/L curve.
func breakevens(profile config.StrategyProfile, legs []options.Leg, credit float64, scenario *ScenarioInfo, mctx midpoint.Context) []float64 {
	perShare := credit / ContractMultiplier

	switch profile.Family {
	case config.FamilyNaked, config.FamilyVertical:
		short := firstShort(legs)
		if short == nil {
			return nil
		}
		if short.Quote.Right == options.Put {
			return []float64{short.Quote.Strike - perShare}
		}
		return []float64{short.Quote.Strike + perShare}

	case config.FamilyCondor:
		var bes []float64
		for _, leg := range legs {
			if !leg.IsShort() {
				continue
			}
			if leg.Quote.Right == options.Put {
				bes = append(bes, leg.Quote.Strike-perShare)
			} else {
				bes = append(bes, leg.Quote.Strike+perShare)
			}
		}
		sort.Float64s(bes)
		return bes

	case config.FamilyButterfly:
		// Debit fly: outer strikes plus/minus the debit per share. The rare
		// credit fly mirrors with the credit.
		low, high := strikeRange(legs)
		offset := math.Abs(perShare)
		return []float64{low + offset, high - offset}

	case config.FamilyCalendar:
		// Strike-anchored: the structure pins around the shared strike.
		short := firstShort(legs)
		if short == nil {
			return nil
		}
		return []float64{short.Quote.Strike}

	default:
		if scenario != nil {
			return scenarioBreakevens(scenario, mctx.Spot)
		}
		return nil
	}
}

func firstShort(legs []options.Leg) *options.Leg {
	for i := range legs {
		if legs[i].IsShort() {
			return &legs[i]
		}
	}
	return nil
}

func strikeRange(legs []options.Leg) (low, high float64) {
	low, high = legs[0].Quote.Strike, legs[0].Quote.Strike
	for _, leg := range legs[1:] {
		if leg.Quote.Strike < low {
			low = leg.Quote.Strike
		}
		if leg.Quote.Strike > high {
			high = leg.Quote.Strike
		}
	}
	return low, high
}

// scenarioBreakevens interpolates spot levels where the scenario P/L curve
// crosses zero
func scenarioBreakevens(scenario *ScenarioInfo, spot float64) []float64 {
	var bes []float64
	for i := 1; i < len(scenario.PnL); i++ {
		prev, cur := scenario.PnL[i-1], scenario.PnL[i]
		if prev == 0 || (prev < 0) == (cur < 0) {
			continue
		}
		frac := prev / (prev - cur)
		move := scenario.Moves[i-1] + frac*(scenario.Moves[i]-scenario.Moves[i-1])
		bes = append(bes, spot*(1+move))
	}
	return bes
}
