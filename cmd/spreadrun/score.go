package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/spreadrun/internal/midpoint"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/scan"
)

func runScore(cmd *cobra.Command, args []string) error {
	legsPath, _ := cmd.Flags().GetString("legs")
	strategy, _ := cmd.Flags().GetString("strategy")
	spot, _ := cmd.Flags().GetFloat64("spot")
	rate, _ := cmd.Flags().GetFloat64("rate")
	criteriaPath, _ := cmd.Flags().GetString("criteria")
	asOfRaw, _ := cmd.Flags().GetString("as-of")

	if spot <= 0 {
		return fmt.Errorf("spot must be positive, got %.2f", spot)
	}

	criteria, err := loadCriteria(criteriaPath)
	if err != nil {
		return err
	}

	asOf, err := parseAsOf(asOfRaw)
	if err != nil {
		return err
	}

	legs, err := loadLegsFile(legsPath)
	if err != nil {
		return err
	}

	pipeline := scan.NewPipeline(criteria, nil)
	mctx := midpoint.Context{Spot: spot, Rate: rate, AsOf: asOf}
	proposal := pipeline.Evaluate(strategy, legs, mctx)

	fmt.Printf("Strategy: %s\n", proposal.Strategy)
	fmt.Printf("Verdict:  %s\n", proposal.Verdict.Summary())
	for _, detail := range proposal.Verdict.Reasons {
		fmt.Printf("  [%s] %s: %s\n", detail.Category, detail.Code, detail.Message)
	}
	for _, leg := range proposal.Legs {
		src, mid := "unresolved", 0.0
		if leg.Resolution.Resolved() {
			src = leg.Resolution.Source.String()
			mid = *leg.Resolution.Mid
		}
		fmt.Printf("  %+d %s mid %.2f (%s)\n", leg.Position, leg.Quote.Describe(), mid, src)
	}
	if proposal.Metrics != nil {
		m := proposal.Metrics
		fmt.Printf("Credit %.2f | Margin %.2f | MaxProfit %.2f | MaxLoss %.2f\n", m.Credit, m.Margin, m.MaxProfit, m.MaxLoss)
		fmt.Printf("ROM %.4f | PoS %.4f | EV %.2f | EV%% %.4f | Score %.3f\n", m.ROM, m.PoS, m.EV, m.EVPct, m.Score)
	}
	return nil
}

// loadLegsFile reads a candidate file: a JSON array of quote records each
// carrying a signed "position" field alongside the usual chain fields.
func loadLegsFile(path string) ([]options.Leg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legs file: %w", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse legs file: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("legs file %s is empty", path)
	}

	legs := make([]options.Leg, 0, len(raw))
	for i, record := range raw {
		positionRaw, ok := record["position"]
		if !ok {
			return nil, fmt.Errorf("leg %d is missing position", i)
		}
		position, ok, err := options.CoerceFloat(positionRaw)
		if err != nil || !ok || position == 0 {
			return nil, fmt.Errorf("leg %d has invalid position %v", i, positionRaw)
		}

		quote, err := options.NormalizeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		legs = append(legs, options.Leg{Quote: quote, Position: int(position)})
	}
	return legs, nil
}
