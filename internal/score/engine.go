package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/gates"
	"github.com/sawpanic/spreadrun/internal/midpoint"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/reason"
)

// ContractMultiplier converts per-share prices to per-contract dollars.
// Applied exactly once, at the credit/margin step.
const ContractMultiplier = 100.0

// Metrics is the full economics of one accepted proposal. All currency
// values are per-contract dollars. Values are kept at full precision;
// rounding happens only at the presentation layer.
type Metrics struct {
	Credit          float64       `json:"credit"`
	Margin          float64       `json:"margin"`
	MaxProfit       float64       `json:"max_profit"`
	MaxLoss         float64       `json:"max_loss"`
	ROM             float64       `json:"rom"`
	EV              float64       `json:"ev"`
	EVPct           float64       `json:"ev_pct"`
	PoS             float64       `json:"pos"`
	Edge            float64       `json:"edge"`
	Breakevens      []float64     `json:"breakevens,omitempty"`
	Score           float64       `json:"score"`
	ProfitEstimated bool          `json:"profit_estimated"`
	Scenario        *ScenarioInfo `json:"scenario,omitempty"`
}

// Engine computes proposal economics for candidates that passed gating.
// Stateless across calls; safe to share.
type Engine struct {
	criteria *config.Criteria
}

// NewEngine creates a scoring engine bound to one criteria set
func NewEngine(criteria *config.Criteria) *Engine {
	return &Engine{criteria: criteria}
}

// Score runs the full scoring sequence for one candidate, short-circuiting
// to a reason list on any labeled failure. Margin must resolve before
// ROM/EV are computed; an unresolvable margin rejects the proposal, it is
// never defaulted.
func (e *Engine) Score(strategy string, legs []options.Leg, mctx midpoint.Context) (*Metrics, []reason.Detail) {
	profile, err := e.criteria.Strategy(strategy)
	if err != nil {
		return nil, []reason.Detail{reason.New(reason.CategoryRulesFilter, reason.CodeUnknownStrategy, "%v", err)}
	}

	// Step 1: every leg needs mid, model price, and delta. Missing data on
	// long legs may be excused when the strategy allows unpriced wings.
	if detail := validateLegData(legs, profile, mctx); detail != nil {
		return nil, []reason.Detail{*detail}
	}

	// Step 2: liquidity
	if detail := gates.CheckLiquidity(legs, e.criteria.Liquidity.MinVolume, e.criteria.Liquidity.MinOpenInterest); detail != nil {
		return nil, []reason.Detail{*detail}
	}

	// Step 3: probability of success and edge from the short legs
	pos, edge := shortLegStats(legs, mctx, e.criteria.Scoring.PoSTable)

	// Step 4: net credit; positive-credit strategies reject on credit <= 0
	credit := netCredit(legs)
	if profile.CreditRequired && credit <= 0 {
		return nil, []reason.Detail{reason.New(reason.CategoryRulesFilter, reason.CodeNegativeCredit,
			"negative credit %.2f; %s requires a net credit", credit, strategy)}
	}

	// Step 5: margin; nil/NaN margin is a hard rejection
	margin, ok := computeMargin(profile, legs, credit, mctx)
	if !ok || math.IsNaN(margin) {
		return nil, []reason.Detail{reason.New(reason.CategoryRulesFilter, reason.CodeNoMargin,
			"margin could not be resolved for %s", strategy)}
	}
	if margin <= e.criteria.Scoring.MinMargin {
		return nil, []reason.Detail{reason.New(reason.CategoryRulesFilter, reason.CodeNoMargin,
			"margin %.2f at or below minimum %.2f for %s", margin, e.criteria.Scoring.MinMargin, strategy)}
	}

	// Step 6: max profit / max loss, closed-form or scenario-estimated
	metrics := &Metrics{Credit: credit, Margin: margin, PoS: pos, Edge: edge}
	if profile.ScenarioEstimated {
		scenario, ok := estimateScenarioProfit(profile, legs, mctx)
		if !ok {
			return nil, []reason.Detail{reason.New(reason.CategoryRulesFilter, reason.CodeNoMargin,
				"scenario profit estimation failed for %s", strategy)}
		}
		metrics.Scenario = scenario
		metrics.MaxProfit = scenario.MaxProfit
		metrics.MaxLoss = scenario.MaxLoss
		metrics.ProfitEstimated = true
	} else {
		metrics.MaxProfit, metrics.MaxLoss = closedFormProfit(profile, legs, credit)
	}

	// Step 7: ROM, EV
	metrics.ROM = metrics.MaxProfit / margin
	metrics.EV = pos*metrics.MaxProfit + (1-pos)*metrics.MaxLoss
	metrics.EVPct = metrics.EV / margin

	if profile.MinRiskReward > 0 && metrics.MaxLoss < 0 {
		riskReward := metrics.MaxProfit / -metrics.MaxLoss
		if riskReward < profile.MinRiskReward {
			return nil, []reason.Detail{reason.New(reason.CategoryRulesFilter, reason.CodeRiskReward,
				"risk/reward %.3f below minimum %.3f", riskReward, profile.MinRiskReward)}
		}
	}

	// Step 8: composite score with the strict EV floor. Estimated-profit
	// strategies are exempt from the floor because the estimate is itself
	// approximate.
	w := e.criteria.Weights
	metrics.Score = metrics.ROM*w.ROM + pos*w.PoS + metrics.EVPct*w.EV
	if metrics.Score < 0 {
		return nil, []reason.Detail{reason.New(reason.CategoryRulesFilter, reason.CodeNegativeScore,
			"composite score %.3f below zero", metrics.Score)}
	}
	if metrics.EVPct <= 0 && !metrics.ProfitEstimated {
		return nil, []reason.Detail{reason.New(reason.CategoryRulesFilter, reason.CodeNegativeEV,
			"expected value %.2f (%.2f%% of margin) not positive", metrics.EV, metrics.EVPct*100)}
	}

	// Step 9: breakevens
	metrics.Breakevens = breakevens(profile, legs, credit, metrics.Scenario, mctx)

	return metrics, nil
}

// validateLegData collects legs missing mid, model price, or delta
func validateLegData(legs []options.Leg, profile config.StrategyProfile, mctx midpoint.Context) *reason.Detail {
	if len(legs) == 0 {
		return ptr(reason.New(reason.CategoryMissingStrikes, reason.CodeMissingStrikes, "candidate has no legs"))
	}

	var missing []string
	for _, leg := range legs {
		var fields []string
		if !leg.Resolution.Resolved() {
			fields = append(fields, "mid")
		}
		if _, ok := modelPrice(leg, mctx); !ok {
			fields = append(fields, "model")
		}
		if leg.Quote.Delta == nil {
			fields = append(fields, "delta")
		}
		if len(fields) == 0 {
			continue
		}
		if profile.AllowUnpricedWings && !leg.IsShort() {
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", leg.Quote.Describe(), strings.Join(fields, ",")))
	}

	if len(missing) == 0 {
		return nil
	}
	return ptr(reason.New(reason.CategoryMissingMid, reason.CodeMissingLegData,
		"leg data missing on %s", strings.Join(missing, "; ")).WithData("legs", missing))
}

func ptr(d reason.Detail) *reason.Detail { return &d }

func modelPrice(leg options.Leg, mctx midpoint.Context) (float64, bool) {
	if leg.Quote.IV == nil {
		return 0, false
	}
	return pricingModel(leg.Quote, *leg.Quote.IV, mctx)
}

// shortLegStats derives PoS from the mean absolute short delta and edge as
// the mean model-vs-mid difference over short legs. A candidate with no
// short legs gets a neutral PoS.
func shortLegStats(legs []options.Leg, mctx midpoint.Context, table []config.PoSPoint) (pos, edge float64) {
	var deltaSum, edgeSum float64
	var deltaN, edgeN int

	for _, leg := range legs {
		if !leg.IsShort() {
			continue
		}
		if leg.Quote.Delta != nil {
			deltaSum += math.Abs(*leg.Quote.Delta)
			deltaN++
		}
		if mid, ok := leg.Mid(); ok {
			if model, mok := modelPrice(leg, mctx); mok {
				edgeSum += model - mid
				edgeN++
			}
		}
	}

	if deltaN == 0 {
		pos = 0.5
	} else {
		pos = posFromDelta(deltaSum/float64(deltaN), table)
	}
	if edgeN > 0 {
		edge = edgeSum / float64(edgeN)
	}
	return pos, edge
}

// posFromDelta maps mean absolute short delta to probability of success.
// With no calibration table the classic 1-delta approximation applies;
// otherwise the table is interpolated linearly and clamped at its ends.
func posFromDelta(delta float64, table []config.PoSPoint) float64 {
	if len(table) == 0 {
		return clamp01(1 - delta)
	}
	if delta <= table[0].Delta {
		return table[0].PoS
	}
	for i := 1; i < len(table); i++ {
		if delta <= table[i].Delta {
			lo, hi := table[i-1], table[i]
			frac := (delta - lo.Delta) / (hi.Delta - lo.Delta)
			return lo.PoS + frac*(hi.PoS-lo.PoS)
		}
	}
	return table[len(table)-1].PoS
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// netCredit sums resolved mids into per-contract dollars: shorts collect,
// longs pay. The x100 multiplier is applied here and nowhere else.
func netCredit(legs []options.Leg) float64 {
	var credit float64
	for _, leg := range legs {
		mid, ok := leg.Mid()
		if !ok {
			continue // excused unpriced wings contribute nothing
		}
		credit -= mid * ContractMultiplier * float64(leg.Position)
	}
	return credit
}
