package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/interfaces/alerts"
	httpiface "github.com/sawpanic/spreadrun/internal/interfaces/http"
	"github.com/sawpanic/spreadrun/internal/interfaces/output"
	"github.com/sawpanic/spreadrun/internal/midpoint"
	"github.com/sawpanic/spreadrun/internal/scan"
)

func runScan(cmd *cobra.Command, args []string) error {
	chainPath, _ := cmd.Flags().GetString("chain")
	spot, _ := cmd.Flags().GetFloat64("spot")
	rate, _ := cmd.Flags().GetFloat64("rate")
	criteriaPath, _ := cmd.Flags().GetString("criteria")
	strategyList, _ := cmd.Flags().GetString("strategies")
	topN, _ := cmd.Flags().GetInt("top-n")
	asOfRaw, _ := cmd.Flags().GetString("as-of")
	csvPath, _ := cmd.Flags().GetString("csv")
	legsCSVPath, _ := cmd.Flags().GetString("legs-csv")
	jsonPath, _ := cmd.Flags().GetString("json")
	alertsPath, _ := cmd.Flags().GetString("alerts")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

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

	strategies := splitStrategies(strategyList)
	if len(strategies) == 0 {
		return fmt.Errorf("no strategies requested")
	}

	chain, err := scan.LoadChainFile(chainPath)
	if err != nil {
		return err
	}
	log.Info().Int("quotes", len(chain)).Float64("spot", spot).Msg("Chain snapshot ready")

	var metrics *httpiface.MetricsRegistry
	if metricsAddr != "" {
		metrics = httpiface.NewMetricsRegistry()
		server := httpiface.NewServer(metricsAddr, metrics)
		go func() {
			if err := server.Start(); err != nil {
				log.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}()
	}

	scanner := scan.NewScanner(criteria, metrics)
	mctx := midpoint.Context{Spot: spot, Rate: rate, AsOf: asOf}

	report, err := scanner.Scan(chain, mctx, strategies, topN)
	if err != nil {
		return err
	}

	fmt.Println(report.DetailedReport())

	emitter := output.NewEmitter()
	if csvPath != "" {
		if err := emitter.EmitProposalsCSV(csvPath, report); err != nil {
			return err
		}
		log.Info().Str("path", csvPath).Msg("Proposals CSV written")
	}
	if legsCSVPath != "" {
		if err := emitter.EmitLegsCSV(legsCSVPath, report); err != nil {
			return err
		}
		log.Info().Str("path", legsCSVPath).Msg("Leg audit CSV written")
	}
	if jsonPath != "" {
		if err := emitter.EmitReportJSON(jsonPath, report); err != nil {
			return err
		}
		log.Info().Str("path", jsonPath).Msg("Report JSON written")
	}
	if alertsPath != "" {
		if err := alerts.NewEmitter().EmitAlertsJSON(alertsPath, report); err != nil {
			return err
		}
		log.Info().Str("path", alertsPath).Msg("Alerts JSON written")
	}

	return nil
}

func loadCriteria(path string) (*config.Criteria, error) {
	if path == "" {
		criteria := config.DefaultCriteria()
		if err := criteria.Validate(); err != nil {
			return nil, fmt.Errorf("built-in criteria invalid: %w", err)
		}
		return criteria, nil
	}
	criteria, err := config.LoadCriteria(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("Criteria loaded")
	return criteria, nil
}

func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of value %q: %w", raw, err)
	}
	return asOf, nil
}

func splitStrategies(raw string) []string {
	parts := strings.Split(raw, ",")
	strategies := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			strategies = append(strategies, part)
		}
	}
	return strategies
}
