package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/spreadrun/internal/options"
)

func testChain(expiry time.Time) []options.OptionQuote {
	var chain []options.OptionQuote
	for _, strike := range []float64{45, 50, 55, 60, 65} {
		for _, right := range []options.Right{options.Call, options.Put} {
			chain = append(chain, options.OptionQuote{
				Expiry: expiry,
				Strike: strike,
				Right:  right,
				Bid:    1.00,
				Ask:    1.10,
			})
		}
	}
	return chain
}

func TestBuildCandidates_BullPut(t *testing.T) {
	expiry := scanAsOf.AddDate(0, 0, 30)
	candidates := BuildCandidates("bull_put", testChain(expiry), 55)

	// Anchors below spot: 50 (steps to 45) and 45 (no lower strike) = 1
	require.Len(t, candidates, 1)
	legs := candidates[0].Legs
	assert.Equal(t, -1, legs[0].Position)
	assert.Equal(t, 50.0, legs[0].Quote.Strike)
	assert.Equal(t, 1, legs[1].Position)
	assert.Equal(t, 45.0, legs[1].Quote.Strike)
	assert.Equal(t, options.Put, legs[0].Quote.Right)
}

func TestBuildCandidates_IronCondorLegShape(t *testing.T) {
	expiry := scanAsOf.AddDate(0, 0, 30)
	candidates := BuildCandidates("iron_condor", testChain(expiry), 55)
	require.NotEmpty(t, candidates)

	for _, c := range candidates {
		require.Len(t, c.Legs, 4)
		assert.Equal(t, -1, c.Legs[0].Position, "short put")
		assert.Equal(t, 1, c.Legs[1].Position, "long put below")
		assert.Equal(t, -1, c.Legs[2].Position, "short call")
		assert.Equal(t, 1, c.Legs[3].Position, "long call above")
		assert.Less(t, c.Legs[1].Quote.Strike, c.Legs[0].Quote.Strike)
		assert.Greater(t, c.Legs[3].Quote.Strike, c.Legs[2].Quote.Strike)
		assert.Less(t, c.Legs[0].Quote.Strike, 55.0)
		assert.Greater(t, c.Legs[2].Quote.Strike, 55.0)
	}
}

func TestBuildCandidates_ButterflyIsSymmetric(t *testing.T) {
	expiry := scanAsOf.AddDate(0, 0, 30)
	candidates := BuildCandidates("butterfly", testChain(expiry), 55)
	require.Len(t, candidates, 2, "body at 55 with 1 and 2 step wings")

	for _, c := range candidates {
		require.Len(t, c.Legs, 3)
		assert.Equal(t, 1, c.Legs[0].Position)
		assert.Equal(t, -2, c.Legs[1].Position)
		assert.Equal(t, 1, c.Legs[2].Position)
		assert.Equal(t, 55.0, c.Legs[1].Quote.Strike)
		low := c.Legs[1].Quote.Strike - c.Legs[0].Quote.Strike
		high := c.Legs[2].Quote.Strike - c.Legs[1].Quote.Strike
		assert.Equal(t, low, high, "wings sit symmetrically around the body")
	}
}

func TestBuildCandidates_CalendarSharesStrikeAcrossExpiries(t *testing.T) {
	front := scanAsOf.AddDate(0, 0, 30)
	back := scanAsOf.AddDate(0, 0, 60)
	chain := append(testChain(front), testChain(back)...)

	candidates := BuildCandidates("calendar", chain, 55)
	require.Len(t, candidates, 1)

	legs := candidates[0].Legs
	assert.Equal(t, -1, legs[0].Position)
	assert.Equal(t, 1, legs[1].Position)
	assert.Equal(t, legs[0].Quote.Strike, legs[1].Quote.Strike)
	assert.True(t, legs[0].Quote.Expiry.Before(legs[1].Quote.Expiry), "short the front month")
}

func TestBuildCandidates_RatioBackspreadShape(t *testing.T) {
	expiry := scanAsOf.AddDate(0, 0, 30)
	candidates := BuildCandidates("ratio_backspread", testChain(expiry), 55)
	require.NotEmpty(t, candidates)

	for _, c := range candidates {
		require.Len(t, c.Legs, 2)
		assert.Equal(t, -1, c.Legs[0].Position)
		assert.Equal(t, 2, c.Legs[1].Position, "twice as many longs as shorts")
		assert.Greater(t, c.Legs[1].Quote.Strike, c.Legs[0].Quote.Strike)
	}
}

func TestBuildCandidates_NakedPutAnchorsBelowSpot(t *testing.T) {
	expiry := scanAsOf.AddDate(0, 0, 30)
	candidates := BuildCandidates("naked_put", testChain(expiry), 55)
	require.Len(t, candidates, 2, "strikes 50 and 45")

	for _, c := range candidates {
		require.Len(t, c.Legs, 1)
		assert.Equal(t, -1, c.Legs[0].Position)
		assert.Less(t, c.Legs[0].Quote.Strike, 55.0)
	}
}

func TestBuildCandidates_UnknownStrategyEmpty(t *testing.T) {
	expiry := scanAsOf.AddDate(0, 0, 30)
	assert.Nil(t, BuildCandidates("covered_strangle", testChain(expiry), 55))
}
