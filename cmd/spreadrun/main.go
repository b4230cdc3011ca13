package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "SpreadRun"
	version = "v1.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "spreadrun",
		Short:   "Multi-leg option strategy scanner",
		Version: version,
		Long: `SpreadRun evaluates multi-leg option strategy candidates: it resolves a
trustworthy mid for every quoted leg, enforces liquidity and fallback-budget
policy, scores the surviving candidates on ROM/PoS/EV, and ranks the
accepted proposals.`,
	}
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			log.Debug().Str("flag", f.Name).Str("value", f.Value.String()).Msg("Flag set")
		})
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a chain snapshot for strategy candidates",
		Long:  "Enumerates strike/expiry combinations per strategy, evaluates each through the mid-resolution and scoring pipeline, and prints the ranked proposals",
		RunE:  runScan,
	}
	scanCmd.Flags().String("chain", "", "Path to chain snapshot JSON (required)")
	scanCmd.Flags().Float64("spot", 0, "Underlying spot price (required)")
	scanCmd.Flags().Float64("rate", 0.04, "Annualized interest rate, decimal")
	scanCmd.Flags().String("criteria", "", "Criteria YAML path (default: built-in criteria)")
	scanCmd.Flags().String("strategies", "iron_condor,bull_put,bear_call", "Comma-separated strategy list")
	scanCmd.Flags().Int("top-n", 20, "Number of top proposals to keep")
	scanCmd.Flags().String("as-of", "", "Evaluation time RFC3339 (default: now)")
	scanCmd.Flags().String("csv", "", "Write proposals CSV to this path")
	scanCmd.Flags().String("legs-csv", "", "Write per-leg audit CSV to this path")
	scanCmd.Flags().String("json", "", "Write full report JSON to this path")
	scanCmd.Flags().String("alerts", "", "Write action-oriented alerts JSON to this path")
	scanCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the scan")
	_ = scanCmd.MarkFlagRequired("chain")
	_ = scanCmd.MarkFlagRequired("spot")

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single candidate from a legs file",
		Long:  "Evaluates one candidate (JSON legs file with signed positions) through the full pipeline and prints the verdict with every reason",
		RunE:  runScore,
	}
	scoreCmd.Flags().String("legs", "", "Path to candidate legs JSON (required)")
	scoreCmd.Flags().String("strategy", "", "Strategy name (required)")
	scoreCmd.Flags().Float64("spot", 0, "Underlying spot price (required)")
	scoreCmd.Flags().Float64("rate", 0.04, "Annualized interest rate, decimal")
	scoreCmd.Flags().String("criteria", "", "Criteria YAML path (default: built-in criteria)")
	scoreCmd.Flags().String("as-of", "", "Evaluation time RFC3339 (default: now)")
	_ = scoreCmd.MarkFlagRequired("legs")
	_ = scoreCmd.MarkFlagRequired("strategy")
	_ = scoreCmd.MarkFlagRequired("spot")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(scoreCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
