package gates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/reason"
)

func fallbackLeg(position int, right options.Right, strike float64, source options.MidSource) options.Leg {
	return options.Leg{
		Quote: options.OptionQuote{
			Expiry: time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC),
			Strike: strike,
			Right:  right,
		},
		Position: position,
		Resolution: &options.MidResolution{
			Mid:    options.Float(1.0),
			Source: source,
		},
	}
}

func defaultProfiles() map[string]config.StrategyProfile {
	return config.DefaultCriteria().Strategies
}

func TestEvaluateFallback_QuotaFormula(t *testing.T) {
	cfg := config.FallbackConfig{MaxPer4Legs: 1.0}
	condor := defaultProfiles()["iron_condor"]

	// ceil(1.0 * 4/4) = 1; condor family cap 2 does not bite
	legs := []options.Leg{
		fallbackLeg(-1, options.Call, 60, options.SourceTrue),
		fallbackLeg(1, options.Call, 65, options.SourceTrue),
		fallbackLeg(-1, options.Put, 50, options.SourceTrue),
		fallbackLeg(1, options.Put, 45, options.SourceTrue),
	}
	budget := EvaluateFallback("iron_condor", condor, legs, cfg)
	assert.Equal(t, 1, budget.Allowed)
	assert.Equal(t, 0, budget.Used)
	assert.False(t, budget.Violated())

	// Two legs: ceil(1.0 * 2/4) = 1
	vertical := defaultProfiles()["bull_put"]
	budget = EvaluateFallback("bull_put", vertical, legs[:2], cfg)
	assert.Equal(t, 1, budget.Allowed)

	// A richer allowance is clamped by the family cap on verticals
	cfg.MaxPer4Legs = 4.0
	budget = EvaluateFallback("bull_put", vertical, legs[:2], cfg)
	assert.Equal(t, 1, budget.Allowed, "vertical family caps at 1 regardless of formula")

	budget = EvaluateFallback("iron_condor", condor, legs, cfg)
	assert.Equal(t, 2, budget.Allowed, "condor family caps at 2")
}

func TestEvaluateFallback_LongFallbackWithinQuota(t *testing.T) {
	cfg := config.FallbackConfig{MaxPer4Legs: 1.0}
	condor := defaultProfiles()["iron_condor"]

	legs := []options.Leg{
		fallbackLeg(-1, options.Call, 60, options.SourceTrue),
		fallbackLeg(1, options.Call, 65, options.SourceModel), // one long fallback
		fallbackLeg(-1, options.Put, 50, options.SourceTrue),
		fallbackLeg(1, options.Put, 45, options.SourceTrue),
	}

	budget := EvaluateFallback("iron_condor", condor, legs, cfg)
	assert.Equal(t, 1, budget.Used)
	assert.False(t, budget.Violated())
	assert.Nil(t, budget.Advisory)
}

func TestEvaluateFallback_QuotaExceeded(t *testing.T) {
	cfg := config.FallbackConfig{MaxPer4Legs: 1.0}
	condor := defaultProfiles()["iron_condor"]

	legs := []options.Leg{
		fallbackLeg(-1, options.Call, 60, options.SourceTrue),
		fallbackLeg(1, options.Call, 65, options.SourceModel),
		fallbackLeg(-1, options.Put, 50, options.SourceTrue),
		fallbackLeg(1, options.Put, 45, options.SourceClose),
	}

	budget := EvaluateFallback("iron_condor", condor, legs, cfg)
	require.True(t, budget.Violated())
	assert.Equal(t, reason.CodeFallbackQuota, budget.Rejection.Code)
	assert.Equal(t, 2, budget.Used)
	assert.Equal(t, 1, budget.Allowed)
}

func TestEvaluateFallback_ShortLegOnFallbackRejects(t *testing.T) {
	cfg := config.FallbackConfig{MaxPer4Legs: 1.0}
	condor := defaultProfiles()["iron_condor"]

	legs := []options.Leg{
		fallbackLeg(-1, options.Call, 60, options.SourceClose), // short on fallback
		fallbackLeg(1, options.Call, 65, options.SourceTrue),
	}

	budget := EvaluateFallback("iron_condor", condor, legs, cfg)
	require.True(t, budget.Violated())
	assert.Equal(t, reason.CodeFallbackShortLeg, budget.Rejection.Code)
	assert.Contains(t, budget.Rejection.Message, "trustworthy quote")
}

func TestEvaluateFallback_ParityTrueIsTrusted(t *testing.T) {
	cfg := config.FallbackConfig{MaxPer4Legs: 1.0}
	vertical := defaultProfiles()["bull_put"]

	// parity_true derives from a live counterpart quote: not a fallback
	legs := []options.Leg{
		fallbackLeg(-1, options.Put, 50, options.SourceParityTrue),
		fallbackLeg(1, options.Put, 45, options.SourceTrue),
	}

	budget := EvaluateFallback("bull_put", vertical, legs, cfg)
	assert.False(t, budget.Violated())
	assert.Equal(t, 0, budget.Used)
}

func TestEvaluateFallback_NakedPutExceptionAllowsAndDoesNotCount(t *testing.T) {
	cfg := config.FallbackConfig{MaxPer4Legs: 1.0}
	naked := defaultProfiles()["naked_put"]

	legs := []options.Leg{fallbackLeg(-1, options.Put, 90, options.SourceClose)}

	budget := EvaluateFallback("naked_put", naked, legs, cfg)
	assert.False(t, budget.Violated())
	assert.Equal(t, 0, budget.Used, "allowed but never counted against the quota")
}

func TestEvaluateFallback_CalendarLongLegRules(t *testing.T) {
	cfg := config.FallbackConfig{MaxPer4Legs: 1.0}
	calendar := defaultProfiles()["calendar"]

	front := fallbackLeg(-1, options.Call, 100, options.SourceTrue)
	back := fallbackLeg(1, options.Call, 100, options.SourceModel)
	back.Quote.Expiry = front.Quote.Expiry.AddDate(0, 1, 0)

	// Model-priced back month is a hard reject
	budget := EvaluateFallback("calendar", calendar, []options.Leg{front, back}, cfg)
	require.True(t, budget.Violated())
	assert.Equal(t, reason.CodeCalendarModelLong, budget.Rejection.Code)

	// Close-priced back month degrades to advisory and still uses quota
	back.Resolution.Source = options.SourceClose
	budget = EvaluateFallback("calendar", calendar, []options.Leg{front, back}, cfg)
	assert.False(t, budget.Violated())
	require.NotNil(t, budget.Advisory)
	assert.Equal(t, reason.CodeCloseFallback, budget.Advisory.Code)
	assert.Equal(t, 1, budget.Used)
}

func TestEvaluateFallback_UnresolvedLegsIgnored(t *testing.T) {
	cfg := config.FallbackConfig{MaxPer4Legs: 1.0}
	vertical := defaultProfiles()["bull_put"]

	unresolved := options.Leg{
		Quote:      options.OptionQuote{Strike: 50, Right: options.Put},
		Position:   1,
		Resolution: &options.MidResolution{},
	}
	legs := []options.Leg{fallbackLeg(-1, options.Put, 55, options.SourceTrue), unresolved}

	budget := EvaluateFallback("bull_put", vertical, legs, cfg)
	assert.False(t, budget.Violated())
	assert.Equal(t, 0, budget.Used, "missing mids are someone else's rejection")
}
