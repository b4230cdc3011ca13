package gates

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/reason"
)

// FallbackBudget is the per-candidate fallback allowance outcome. Derived
// per evaluation, never persisted.
type FallbackBudget struct {
	Allowed   int            `json:"allowed"`
	Used      int            `json:"used"`
	Rejection *reason.Detail `json:"rejection,omitempty"`
	Advisory  *reason.Detail `json:"advisory,omitempty"`
}

// Violated reports whether the candidate must be rejected
func (b FallbackBudget) Violated() bool {
	return b.Rejection != nil
}

// familyCap returns the strategy-family ceiling on the quota; zero means no
// extra cap beyond the leg-count formula.
func familyCap(family config.StrategyFamily) int {
	switch family {
	case config.FamilyVertical, config.FamilyCalendar:
		return 1
	case config.FamilyCondor, config.FamilyButterfly:
		return 2
	default:
		return 0
	}
}

// EvaluateFallback counts legs priced from untrusted sources against the
// strategy's quota and applies the short/long asymmetry: shorts must carry a
// trustworthy quote on every wing/vertical/calendar strategy, so any short
// leg on a fallback source rejects outright. naked_put is the one exception;
// its single short leg has no long wing to quota against, so a fallback
// there is logged and allowed.
func EvaluateFallback(strategy string, profile config.StrategyProfile, legs []options.Leg, cfg config.FallbackConfig) FallbackBudget {
	allowed := int(math.Ceil(cfg.MaxPer4Legs * float64(len(legs)) / 4.0))
	if familyMax := familyCap(profile.Family); familyMax > 0 && allowed > familyMax {
		allowed = familyMax
	}

	budget := FallbackBudget{Allowed: allowed}

	for _, leg := range legs {
		if !leg.Resolution.Resolved() {
			continue // unresolved legs are handled by the missing-mid check
		}
		source := leg.Resolution.Source

		// Calendar long legs must come from a real quote, its parity
		// derivative, or a close; a pure model price carries no market
		// information for the back month.
		if profile.Family == config.FamilyCalendar && !leg.IsShort() {
			switch source {
			case options.SourceModel:
				detail := reason.New(reason.CategoryRulesFilter, reason.CodeCalendarModelLong,
					"calendar long leg %s requires parity or close, got model price", leg.Quote.Describe())
				budget.Rejection = &detail
				return budget
			case options.SourceClose:
				detail := reason.New(reason.CategoryMissingMid, reason.CodeCloseFallback,
					"calendar long leg %s priced from close", leg.Quote.Describe())
				budget.Advisory = &detail
			}
		}

		if !source.IsFallback() {
			continue
		}

		if leg.IsShort() {
			if profile.Family == config.FamilyNaked {
				// No long wing exists to quota against; log and allow.
				log.Warn().
					Str("strategy", strategy).
					Str("leg", leg.Quote.Describe()).
					Str("source", source.String()).
					Msg("naked short leg priced from fallback source")
				continue
			}
			detail := reason.New(reason.CategoryRulesFilter, reason.CodeFallbackShortLeg,
				"short leg %s used fallback source %s; shorts require a trustworthy quote",
				leg.Quote.Describe(), source)
			budget.Rejection = &detail
			return budget
		}

		budget.Used++
	}

	if budget.Used > budget.Allowed {
		detail := reason.New(reason.CategoryRulesFilter, reason.CodeFallbackQuota,
			"too many fallback legs on long wings: %d used, %d allowed", budget.Used, budget.Allowed)
		budget.Rejection = &detail
	}
	return budget
}
