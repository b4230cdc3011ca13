package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/spreadrun/internal/options"
)

func TestBlackScholes_ReferenceValues(t *testing.T) {
	tests := []struct {
		name     string
		right    options.Right
		spot     float64
		strike   float64
		dte      float64
		iv       float64
		rate     float64
		expected float64
	}{
		{"atm_call_30d", options.Call, 100, 100, 30, 0.20, 0.05, 2.493377},
		{"atm_put_30d", options.Put, 100, 100, 30, 0.20, 0.05, 2.083261},
		{"itm_call_60d", options.Call, 110, 100, 60, 0.25, 0.03, 11.393462},
		{"otm_put_45d", options.Put, 100, 90, 45, 0.30, 0.04, 0.758087},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok := BlackScholes(tt.right, tt.spot, tt.strike, tt.dte, tt.iv, tt.rate, 0)
			require.True(t, ok, "pricing should succeed for valid inputs")
			assert.InDelta(t, tt.expected, price, 1e-6)
		})
	}
}

func TestBlackScholes_ZeroVarianceReturnsIntrinsic(t *testing.T) {
	// Expired contract: intrinsic only, no discounting
	price, ok := BlackScholes(options.Call, 110, 100, 0, 0.20, 0.05, 0)
	require.True(t, ok)
	assert.Equal(t, 10.0, price, "expired ITM call should be worth intrinsic")

	// Zero IV on a live contract degenerates the same way
	price, ok = BlackScholes(options.Put, 90, 100, 30, 0, 0.05, 0)
	require.True(t, ok)
	assert.Equal(t, 10.0, price)

	price, ok = BlackScholes(options.Put, 110, 100, 0, 0.20, 0.05, 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, price, "expired OTM put should be worthless")
}

func TestBlackScholes_RejectsMalformedInputs(t *testing.T) {
	_, ok := BlackScholes(options.Call, 0, 100, 30, 0.20, 0.05, 0)
	assert.False(t, ok, "zero spot cannot be priced")

	_, ok = BlackScholes(options.Call, 100, -5, 30, 0.20, 0.05, 0)
	assert.False(t, ok, "negative strike cannot be priced")
}

func TestGreeks_ATMCall(t *testing.T) {
	res, ok := Greeks(options.Call, 100, 100, 30, 0.20, 0.05, 0)
	require.True(t, ok)

	assert.InDelta(t, 2.493377, res.Price, 1e-6)
	assert.InDelta(t, 0.539964, res.Delta, 1e-6)
	assert.InDelta(t, 0.069228, res.Gamma, 1e-6)
	assert.InDelta(t, 11.379886, res.Vega, 1e-6)
	assert.Negative(t, res.Theta, "long ATM call decays")
}

func TestGreeks_PutCallDeltaRelationship(t *testing.T) {
	call, ok := Greeks(options.Call, 100, 95, 45, 0.30, 0.04, 0)
	require.True(t, ok)
	put, ok := Greeks(options.Put, 100, 95, 45, 0.30, 0.04, 0)
	require.True(t, ok)

	// With zero dividend yield, call delta - put delta = 1
	assert.InDelta(t, 1.0, call.Delta-put.Delta, 1e-9)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-9, "gamma is right-independent")
	assert.InDelta(t, call.Vega, put.Vega, 1e-9, "vega is right-independent")
}

func TestGreeks_ZeroVarianceStepDelta(t *testing.T) {
	res, ok := Greeks(options.Call, 110, 100, 0, 0.20, 0.05, 0)
	require.True(t, ok)
	assert.Equal(t, 1.0, res.Delta, "expired ITM call has unit delta")
	assert.Equal(t, 0.0, res.Gamma)

	res, ok = Greeks(options.Put, 110, 100, 0, 0.20, 0.05, 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, res.Delta, "expired OTM put has zero delta")

	res, ok = Greeks(options.Put, 90, 100, 30, 0, 0.05, 0)
	require.True(t, ok)
	assert.Equal(t, -1.0, res.Delta, "zero-vol ITM put has -1 delta")
}

func TestIntrinsic(t *testing.T) {
	assert.Equal(t, 10.0, Intrinsic(options.Call, 110, 100))
	assert.Equal(t, 0.0, Intrinsic(options.Call, 90, 100))
	assert.Equal(t, 10.0, Intrinsic(options.Put, 90, 100))
	assert.Equal(t, 0.0, Intrinsic(options.Put, 110, 100))
}
