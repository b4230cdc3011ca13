package config

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Criteria is the single read-only configuration handed into every
// evaluation. It is loaded once per run, validated hard at load time, and
// shared by reference; the core never mutates it.
type Criteria struct {
	Liquidity  LiquidityConfig            `yaml:"liquidity"`
	Spread     SpreadConfig               `yaml:"spread"`
	Fallback   FallbackConfig             `yaml:"fallback"`
	Weights    WeightsConfig              `yaml:"weights"`
	Scoring    ScoringConfig              `yaml:"scoring"`
	Strategies map[string]StrategyProfile `yaml:"strategies"`
}

// LiquidityConfig holds the per-leg liquidity minimums. Zero or negative
// values disable the respective check.
type LiquidityConfig struct {
	MinVolume       int64 `yaml:"min_volume"`
	MinOpenInterest int64 `yaml:"min_open_interest"`
}

// SpreadConfig controls true-mid acceptance. A spread is accepted when it is
// at most the larger of the absolute bucket tolerance (keyed by underlying
// price) and RelativeFactor times the mid.
type SpreadConfig struct {
	Buckets        []SpreadBucket `yaml:"buckets"`
	RelativeFactor float64        `yaml:"relative_factor"`
}

// SpreadBucket maps an underlying price ceiling to an absolute spread
// tolerance in dollars. Buckets must be sorted ascending by ceiling; the
// last bucket's tolerance applies above every ceiling.
type SpreadBucket struct {
	MaxUnderlying float64 `yaml:"max_underlying"`
	AbsTolerance  float64 `yaml:"abs_tolerance"`
}

// AbsTolerance selects the absolute spread tolerance for an underlying price
func (s SpreadConfig) AbsTolerance(underlying float64) float64 {
	for _, b := range s.Buckets {
		if underlying <= b.MaxUnderlying {
			return b.AbsTolerance
		}
	}
	if len(s.Buckets) > 0 {
		return s.Buckets[len(s.Buckets)-1].AbsTolerance
	}
	return 0
}

// FallbackConfig parameterizes the fallback budget quota
type FallbackConfig struct {
	MaxPer4Legs float64 `yaml:"max_per_4_legs"`
}

// WeightsConfig holds the composite score weights. Validate enforces the
// sum-to-one invariant at load time.
type WeightsConfig struct {
	ROM float64 `yaml:"rom"`
	PoS float64 `yaml:"pos"`
	EV  float64 `yaml:"ev"`
}

// ScoringConfig holds scoring-wide parameters
type ScoringConfig struct {
	MinMargin float64    `yaml:"min_margin"` // dollars; margins at or below reject
	PoSTable  []PoSPoint `yaml:"pos_table"`  // optional delta->PoS calibration
}

// PoSPoint is one knot of the delta->probability-of-success mapping,
// interpolated linearly over mean absolute short delta. An empty table falls
// back to pos = 1 - delta.
type PoSPoint struct {
	Delta float64 `yaml:"delta"`
	PoS   float64 `yaml:"pos"`
}

// StrategyFamily groups strategies that share risk semantics
type StrategyFamily string

const (
	FamilyVertical  StrategyFamily = "vertical"
	FamilyCondor    StrategyFamily = "condor"
	FamilyButterfly StrategyFamily = "butterfly"
	FamilyCalendar  StrategyFamily = "calendar"
	FamilyNaked     StrategyFamily = "naked"
	FamilyRatio     StrategyFamily = "ratio"
)

var knownFamilies = map[StrategyFamily]bool{
	FamilyVertical:  true,
	FamilyCondor:    true,
	FamilyButterfly: true,
	FamilyCalendar:  true,
	FamilyNaked:     true,
	FamilyRatio:     true,
}

// StrategyProfile captures per-strategy policy: credit requirement, wing
// leniency, risk/reward floor, and the scenario move grid for strategies
// without a closed-form profit bound. CreditRequired and ScenarioEstimated
// are mutually exclusive: a strategy either has closed-form credit economics
// or estimated ones, never both.
type StrategyProfile struct {
	Family             StrategyFamily `yaml:"family"`
	CreditRequired     bool           `yaml:"credit_required"`
	ScenarioEstimated  bool           `yaml:"scenario_estimated"`
	AllowUnpricedWings bool           `yaml:"allow_unpriced_wings"`
	MinRiskReward      float64        `yaml:"min_risk_reward"`
	ScenarioMoves      []float64      `yaml:"scenario_moves"`
}

// DefaultCriteria returns the shipped production configuration. The spread
// bucket table and 12% relative factor are desk heuristics carried over
// as-is; flagged for domain review, not to be tuned silently.
func DefaultCriteria() *Criteria {
	return &Criteria{
		Liquidity: LiquidityConfig{
			MinVolume:       10,
			MinOpenInterest: 50,
		},
		Spread: SpreadConfig{
			Buckets: []SpreadBucket{
				{MaxUnderlying: 50, AbsTolerance: 0.10},
				{MaxUnderlying: 200, AbsTolerance: 0.20},
				{MaxUnderlying: math.Inf(1), AbsTolerance: 0.50},
			},
			RelativeFactor: 0.12,
		},
		Fallback: FallbackConfig{
			MaxPer4Legs: 1.0,
		},
		Weights: WeightsConfig{
			ROM: 0.4,
			PoS: 0.4,
			EV:  0.2,
		},
		Scoring: ScoringConfig{
			MinMargin: 1.0,
			PoSTable:  nil,
		},
		Strategies: map[string]StrategyProfile{
			"iron_condor": {
				Family:         FamilyCondor,
				CreditRequired: true,
				MinRiskReward:  0.25,
			},
			"bull_put": {
				Family:         FamilyVertical,
				CreditRequired: true,
				MinRiskReward:  0.30,
			},
			"bear_call": {
				Family:         FamilyVertical,
				CreditRequired: true,
				MinRiskReward:  0.30,
			},
			"butterfly": {
				Family:             FamilyButterfly,
				CreditRequired:     false,
				AllowUnpricedWings: true,
				MinRiskReward:      0.0,
			},
			"calendar": {
				Family:            FamilyCalendar,
				ScenarioEstimated: true,
				ScenarioMoves:     []float64{-0.15, -0.10, -0.05, 0, 0.05, 0.10, 0.15},
			},
			"naked_put": {
				Family:         FamilyNaked,
				CreditRequired: true,
				// No floor: the loss bound assumes the underlying at zero,
				// which dwarfs any realistic credit.
				MinRiskReward: 0.0,
			},
			"ratio_backspread": {
				Family:            FamilyRatio,
				ScenarioEstimated: true,
				ScenarioMoves:     []float64{-0.25, -0.15, -0.10, -0.05, 0, 0.05, 0.10, 0.15, 0.25},
			},
		},
	}
}

// LoadCriteria loads and validates a criteria file
func LoadCriteria(path string) (*Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria config: %w", err)
	}

	criteria := DefaultCriteria()
	if err := yaml.Unmarshal(data, criteria); err != nil {
		return nil, fmt.Errorf("failed to parse criteria YAML: %w", err)
	}

	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("invalid criteria config: %w", err)
	}
	return criteria, nil
}

// Validate enforces every config invariant hard, at load time, so that no
// configuration problem can surface mid-evaluation.
func (c *Criteria) Validate() error {
	weightSum := c.Weights.ROM + c.Weights.PoS + c.Weights.EV
	if math.Abs(weightSum-1.0) > 1e-6 {
		return fmt.Errorf("score weights must sum to 1.0, got %.6f", weightSum)
	}

	if c.Spread.RelativeFactor <= 0 || c.Spread.RelativeFactor > 1.0 {
		return fmt.Errorf("spread relative_factor must be in (0, 1], got %.4f", c.Spread.RelativeFactor)
	}
	if len(c.Spread.Buckets) == 0 {
		return fmt.Errorf("spread buckets must not be empty")
	}
	if !sort.SliceIsSorted(c.Spread.Buckets, func(i, j int) bool {
		return c.Spread.Buckets[i].MaxUnderlying < c.Spread.Buckets[j].MaxUnderlying
	}) {
		return fmt.Errorf("spread buckets must be sorted ascending by max_underlying")
	}
	for _, b := range c.Spread.Buckets {
		if b.AbsTolerance <= 0 {
			return fmt.Errorf("spread bucket tolerance must be positive, got %.4f", b.AbsTolerance)
		}
	}

	if c.Fallback.MaxPer4Legs < 0 {
		return fmt.Errorf("fallback max_per_4_legs must not be negative, got %.2f", c.Fallback.MaxPer4Legs)
	}

	if c.Scoring.MinMargin <= 0 {
		return fmt.Errorf("scoring min_margin must be positive, got %.4f", c.Scoring.MinMargin)
	}
	for i, p := range c.Scoring.PoSTable {
		if p.Delta < 0 || p.Delta > 1 || p.PoS < 0 || p.PoS > 1 {
			return fmt.Errorf("pos_table entry %d out of [0,1] range", i)
		}
		if i > 0 && p.Delta <= c.Scoring.PoSTable[i-1].Delta {
			return fmt.Errorf("pos_table deltas must be strictly ascending")
		}
	}

	if len(c.Strategies) == 0 {
		return fmt.Errorf("no strategies configured")
	}
	for name, profile := range c.Strategies {
		if !knownFamilies[profile.Family] {
			return fmt.Errorf("strategy %q has unknown family %q", name, profile.Family)
		}
		if profile.CreditRequired && profile.ScenarioEstimated {
			return fmt.Errorf("strategy %q: credit_required and scenario_estimated are mutually exclusive", name)
		}
		if profile.ScenarioEstimated && len(profile.ScenarioMoves) == 0 {
			return fmt.Errorf("strategy %q: scenario_estimated requires scenario_moves", name)
		}
		if profile.MinRiskReward < 0 {
			return fmt.Errorf("strategy %q: min_risk_reward must not be negative", name)
		}
	}

	return nil
}

// Strategy returns the profile for a strategy name, failing on unknown names
func (c *Criteria) Strategy(name string) (StrategyProfile, error) {
	profile, ok := c.Strategies[name]
	if !ok {
		return StrategyProfile{}, fmt.Errorf("unknown strategy %q", name)
	}
	return profile, nil
}
