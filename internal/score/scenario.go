package score

import (
	"math"
	"time"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/midpoint"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/pricing"
)

// ScenarioInfo records the spot-move grid used to bound profit for
// strategies without a closed form, plus the P/L at each move.
type ScenarioInfo struct {
	Moves     []float64 `json:"moves"`
	PnL       []float64 `json:"pnl"`
	MaxProfit float64   `json:"max_profit"`
	MaxLoss   float64   `json:"max_loss"`
	BestMove  float64   `json:"best_move"`
	WorstMove float64   `json:"worst_move"`
}

// estimateScenarioProfit values the structure at the front expiry across the
// profile's spot-move grid. Front-month legs settle at intrinsic; later
// expiries are re-priced with Black-Scholes on their remaining life.
func estimateScenarioProfit(profile config.StrategyProfile, legs []options.Leg, mctx midpoint.Context) (*ScenarioInfo, bool) {
	if len(profile.ScenarioMoves) == 0 || mctx.Spot <= 0 {
		return nil, false
	}

	front := frontExpiry(legs)

	info := &ScenarioInfo{
		Moves:     profile.ScenarioMoves,
		PnL:       make([]float64, len(profile.ScenarioMoves)),
		MaxProfit: math.Inf(-1),
		MaxLoss:   math.Inf(1),
	}

	for i, move := range profile.ScenarioMoves {
		scenarioSpot := mctx.Spot * (1 + move)
		var pnl float64
		for _, leg := range legs {
			value, ok := legValueAtHorizon(leg, scenarioSpot, front, mctx.Rate)
			if !ok {
				return nil, false
			}
			entry, _ := leg.Mid() // excused unpriced wings enter at zero
			pnl += (value - entry) * ContractMultiplier * float64(leg.Position)
		}
		info.PnL[i] = pnl
		if pnl > info.MaxProfit {
			info.MaxProfit = pnl
			info.BestMove = move
		}
		if pnl < info.MaxLoss {
			info.MaxLoss = pnl
			info.WorstMove = move
		}
	}

	return info, true
}

func frontExpiry(legs []options.Leg) time.Time {
	front := legs[0].Quote.Expiry
	for _, leg := range legs[1:] {
		if leg.Quote.Expiry.Before(front) {
			front = leg.Quote.Expiry
		}
	}
	return front
}

// legValueAtHorizon prices one leg at the front expiry under a scenario spot
func legValueAtHorizon(leg options.Leg, scenarioSpot float64, horizon time.Time, rate float64) (float64, bool) {
	q := leg.Quote
	remaining := q.Expiry.Sub(horizon).Hours() / 24.0
	if remaining <= 0 {
		return pricing.Intrinsic(q.Right, scenarioSpot, q.Strike), true
	}

	iv := 0.0
	if q.IV != nil {
		iv = *q.IV
	}
	// With no iv the leg degrades to intrinsic, which still bounds the
	// estimate conservatively for long back-month legs.
	return pricing.BlackScholes(q.Right, scenarioSpot, q.Strike, remaining, iv, rate, 0)
}
