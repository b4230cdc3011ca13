package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCriteria_IsValid(t *testing.T) {
	criteria := DefaultCriteria()
	require.NoError(t, criteria.Validate(), "shipped defaults must always validate")
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	criteria := DefaultCriteria()
	criteria.Weights = WeightsConfig{ROM: 0.5, PoS: 0.5, EV: 0.1}

	err := criteria.Validate()
	assert.ErrorContains(t, err, "weights must sum to 1.0")

	// Float noise within tolerance passes
	criteria.Weights = WeightsConfig{ROM: 0.4, PoS: 0.4, EV: 0.2 + 1e-9}
	assert.NoError(t, criteria.Validate())
}

func TestValidate_SpreadBuckets(t *testing.T) {
	criteria := DefaultCriteria()
	criteria.Spread.Buckets = nil
	assert.ErrorContains(t, criteria.Validate(), "buckets must not be empty")

	criteria = DefaultCriteria()
	criteria.Spread.Buckets = []SpreadBucket{
		{MaxUnderlying: 200, AbsTolerance: 0.20},
		{MaxUnderlying: 50, AbsTolerance: 0.10},
	}
	assert.ErrorContains(t, criteria.Validate(), "sorted ascending")

	criteria = DefaultCriteria()
	criteria.Spread.Buckets[0].AbsTolerance = 0
	assert.ErrorContains(t, criteria.Validate(), "tolerance must be positive")

	criteria = DefaultCriteria()
	criteria.Spread.RelativeFactor = 1.5
	assert.ErrorContains(t, criteria.Validate(), "relative_factor")
}

func TestValidate_StrategyProfiles(t *testing.T) {
	criteria := DefaultCriteria()
	criteria.Strategies["broken"] = StrategyProfile{Family: "exotic"}
	assert.ErrorContains(t, criteria.Validate(), "unknown family")

	criteria = DefaultCriteria()
	criteria.Strategies["broken"] = StrategyProfile{
		Family:            FamilyCalendar,
		CreditRequired:    true,
		ScenarioEstimated: true,
		ScenarioMoves:     []float64{-0.1, 0.1},
	}
	assert.ErrorContains(t, criteria.Validate(), "mutually exclusive")

	criteria = DefaultCriteria()
	criteria.Strategies["broken"] = StrategyProfile{
		Family:            FamilyCalendar,
		ScenarioEstimated: true,
	}
	assert.ErrorContains(t, criteria.Validate(), "requires scenario_moves")

	criteria = DefaultCriteria()
	criteria.Strategies = nil
	assert.ErrorContains(t, criteria.Validate(), "no strategies configured")
}

func TestValidate_PoSTable(t *testing.T) {
	criteria := DefaultCriteria()
	criteria.Scoring.PoSTable = []PoSPoint{{Delta: 0.1, PoS: 0.9}, {Delta: 0.1, PoS: 0.8}}
	assert.ErrorContains(t, criteria.Validate(), "strictly ascending")

	criteria = DefaultCriteria()
	criteria.Scoring.PoSTable = []PoSPoint{{Delta: 0.3, PoS: 1.2}}
	assert.ErrorContains(t, criteria.Validate(), "out of [0,1]")

	criteria = DefaultCriteria()
	criteria.Scoring.PoSTable = []PoSPoint{
		{Delta: 0.1, PoS: 0.92},
		{Delta: 0.3, PoS: 0.70},
		{Delta: 0.5, PoS: 0.50},
	}
	assert.NoError(t, criteria.Validate())
}

func TestAbsTolerance_BucketSelection(t *testing.T) {
	spread := DefaultCriteria().Spread

	assert.Equal(t, 0.10, spread.AbsTolerance(25))
	assert.Equal(t, 0.10, spread.AbsTolerance(50), "ceilings are inclusive")
	assert.Equal(t, 0.20, spread.AbsTolerance(120))
	assert.Equal(t, 0.50, spread.AbsTolerance(5000), "top bucket is unbounded")
	assert.False(t, math.IsInf(spread.AbsTolerance(1e12), 0))
}

func TestStrategy_Lookup(t *testing.T) {
	criteria := DefaultCriteria()

	profile, err := criteria.Strategy("iron_condor")
	require.NoError(t, err)
	assert.Equal(t, FamilyCondor, profile.Family)
	assert.True(t, profile.CreditRequired)

	_, err = criteria.Strategy("covered_strangle")
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestLoadCriteria_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "criteria.yaml")

	yaml := `
liquidity:
  min_volume: 25
weights:
  rom: 0.5
  pos: 0.3
  ev: 0.2
strategies:
  iron_condor:
    family: condor
    credit_required: true
    min_risk_reward: 0.4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	criteria, err := LoadCriteria(path)
	require.NoError(t, err)

	assert.Equal(t, int64(25), criteria.Liquidity.MinVolume)
	assert.Equal(t, int64(50), criteria.Liquidity.MinOpenInterest, "unset fields keep defaults")
	assert.Equal(t, 0.5, criteria.Weights.ROM)

	profile, err := criteria.Strategy("iron_condor")
	require.NoError(t, err)
	assert.Equal(t, 0.4, profile.MinRiskReward)
}

func TestLoadCriteria_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "criteria.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights:\n  rom: 0.9\n  pos: 0.9\n  ev: 0.9\n"), 0o644))

	_, err := LoadCriteria(path)
	assert.ErrorContains(t, err, "invalid criteria config")

	_, err = LoadCriteria(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read criteria config")
}
