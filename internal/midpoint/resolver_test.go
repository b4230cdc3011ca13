package midpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/pricing"
)

var testAsOf = time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC)

func testContext() Context {
	return Context{Spot: 100, Rate: 0.04, AsOf: testAsOf}
}

func testResolver() *Resolver {
	return NewResolver(config.DefaultCriteria().Spread)
}

func quote(right options.Right, strike, bid, ask float64) options.OptionQuote {
	return options.OptionQuote{
		Expiry: testAsOf.AddDate(0, 0, 30),
		Strike: strike,
		Right:  right,
		Bid:    bid,
		Ask:    ask,
	}
}

func TestResolveLegs_TrueMidWithinAbsoluteTolerance(t *testing.T) {
	legs := []options.Leg{{Quote: quote(options.Call, 100, 1.20, 1.30), Position: -1}}

	resolved := testResolver().ResolveLegs(legs, testContext())
	require.Len(t, resolved, 1)

	res := resolved[0].Resolution
	require.True(t, res.Resolved())
	assert.Equal(t, options.SourceTrue, res.Source)
	assert.Equal(t, options.SpreadAbs, res.SpreadFlag)
	assert.InDelta(t, 1.25, *res.Mid, 1e-9)
}

func TestResolveLegs_TrueMidWithinRelativeTolerance(t *testing.T) {
	// Spread 0.40 exceeds the $0.20 bucket but sits inside 12% of mid 5.20
	legs := []options.Leg{{Quote: quote(options.Put, 95, 5.00, 5.40), Position: 1}}

	resolved := testResolver().ResolveLegs(legs, testContext())

	res := resolved[0].Resolution
	require.True(t, res.Resolved())
	assert.Equal(t, options.SourceTrue, res.Source)
	assert.Equal(t, options.SpreadRel, res.SpreadFlag)
	assert.InDelta(t, 5.20, *res.Mid, 1e-9)
}

func TestResolveLegs_TooWideFallsThroughToClose(t *testing.T) {
	q := quote(options.Call, 100, 1.00, 2.00)
	q.Close = 1.40
	legs := []options.Leg{{Quote: q, Position: 1}}

	resolved := testResolver().ResolveLegs(legs, testContext())

	res := resolved[0].Resolution
	require.True(t, res.Resolved())
	assert.Equal(t, options.SourceClose, res.Source)
	assert.InDelta(t, 1.40, *res.Mid, 1e-9)
	assert.Equal(t, options.SpreadTooWide, res.SpreadFlag,
		"original quote condition survives the fallback")
}

func TestResolveLegs_OneSidedQuoteFlagged(t *testing.T) {
	q := quote(options.Put, 90, 0.80, 0)
	q.Close = 0.75
	legs := []options.Leg{{Quote: q, Position: -1}}

	resolved := testResolver().ResolveLegs(legs, testContext())

	res := resolved[0].Resolution
	require.True(t, res.Resolved())
	assert.Equal(t, options.SourceClose, res.Source)
	assert.Equal(t, options.SpreadOneSided, res.SpreadFlag)
}

func TestResolveLegs_CrossedQuoteIsInvalid(t *testing.T) {
	legs := []options.Leg{{Quote: quote(options.Call, 100, 1.50, 1.20), Position: 1}}

	resolved := testResolver().ResolveLegs(legs, testContext())

	res := resolved[0].Resolution
	assert.False(t, res.Resolved())
	assert.Equal(t, options.SpreadInvalid, res.SpreadFlag)
	assert.Contains(t, res.Reason, "crossed quote")
}

func TestResolveLegs_ParityFromCounterpartTrueMid(t *testing.T) {
	// Call has a tight quote, put at the same strike has nothing but should
	// derive through parity from the call's true mid.
	callQ := quote(options.Call, 100, 2.40, 2.50)
	putQ := quote(options.Put, 100, 0, 0)
	legs := []options.Leg{
		{Quote: callQ, Position: 1},
		{Quote: putQ, Position: -1},
	}

	mctx := testContext()
	resolved := testResolver().ResolveLegs(legs, mctx)

	putRes := resolved[1].Resolution
	require.True(t, putRes.Resolved())
	assert.Equal(t, options.SourceParityTrue, putRes.Source)

	expected, ok := pricing.PutCallParity(2.45, true, mctx.Spot, 100, mctx.Rate, putQ.DTE(mctx.AsOf))
	require.True(t, ok)
	assert.InDelta(t, expected, *putRes.Mid, 1e-9)
}

func TestResolveLegs_ParityFromCounterpartClose(t *testing.T) {
	// Neither side is quoted; the call carries only a close. The put derives
	// through parity but is tagged with the weaker provenance.
	callQ := quote(options.Call, 100, 0, 0)
	callQ.Close = 2.45
	putQ := quote(options.Put, 100, 0, 0)
	legs := []options.Leg{
		{Quote: callQ, Position: 1},
		{Quote: putQ, Position: -1},
	}

	resolved := testResolver().ResolveLegs(legs, testContext())

	putRes := resolved[1].Resolution
	require.True(t, putRes.Resolved())
	assert.Equal(t, options.SourceParityClose, putRes.Source)
}

func TestResolveLegs_ModelBeatsCloseInHierarchy(t *testing.T) {
	q := quote(options.Call, 100, 0, 0)
	q.IV = options.Float(0.25)
	q.Close = 99.0 // stale nonsense close must lose to the model
	legs := []options.Leg{{Quote: q, Position: 1}}

	mctx := testContext()
	resolved := testResolver().ResolveLegs(legs, mctx)

	res := resolved[0].Resolution
	require.True(t, res.Resolved())
	assert.Equal(t, options.SourceModel, res.Source)

	expected, ok := pricing.BlackScholes(options.Call, mctx.Spot, 100, q.DTE(mctx.AsOf), 0.25, mctx.Rate, 0)
	require.True(t, ok)
	assert.InDelta(t, expected, *res.Mid, 1e-9)
}

func TestResolveLegs_TrueMidBeatsEverything(t *testing.T) {
	q := quote(options.Put, 100, 2.00, 2.10)
	q.IV = options.Float(0.25)
	q.Close = 5.00
	legs := []options.Leg{{Quote: q, Position: 1}}

	resolved := testResolver().ResolveLegs(legs, testContext())

	res := resolved[0].Resolution
	require.True(t, res.Resolved())
	assert.Equal(t, options.SourceTrue, res.Source)
	assert.InDelta(t, 2.05, *res.Mid, 1e-9)
}

func TestResolveLegs_UnresolvedCollectsEveryFailure(t *testing.T) {
	legs := []options.Leg{{Quote: quote(options.Call, 100, 0, 0), Position: 1}}

	resolved := testResolver().ResolveLegs(legs, testContext())

	res := resolved[0].Resolution
	assert.False(t, res.Resolved())
	assert.Equal(t, options.SourceNone, res.Source)
	assert.Contains(t, res.Reason, "no bid/ask quoted")
	assert.Contains(t, res.Reason, "no parity counterpart")
	assert.Contains(t, res.Reason, "model needs a positive iv")
	assert.Contains(t, res.Reason, "no positive close")
}

func TestResolveLegs_DeterministicAndNonMutating(t *testing.T) {
	callQ := quote(options.Call, 100, 2.40, 2.50)
	putQ := quote(options.Put, 100, 0, 0)
	putQ.Close = 1.80
	legs := []options.Leg{
		{Quote: callQ, Position: 1},
		{Quote: putQ, Position: -1},
	}

	resolver := testResolver()
	mctx := testContext()

	first := resolver.ResolveLegs(legs, mctx)
	second := resolver.ResolveLegs(legs, mctx)

	assert.Equal(t, first, second, "identical inputs must resolve identically")
	assert.Nil(t, legs[0].Resolution, "input legs are never mutated")
	assert.Nil(t, legs[1].Resolution)
}
