package scan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/spreadrun/internal/config"
	httpiface "github.com/sawpanic/spreadrun/internal/interfaces/http"
	applog "github.com/sawpanic/spreadrun/internal/log"
	"github.com/sawpanic/spreadrun/internal/midpoint"
	"github.com/sawpanic/spreadrun/internal/options"
)

// Report is the outcome of one full chain scan. The run ID exists only at
// this reporting boundary; individual evaluations stay deterministic.
type Report struct {
	RunID      string         `json:"run_id"`
	AsOf       time.Time      `json:"as_of"`
	Spot       float64        `json:"spot"`
	Rate       float64        `json:"rate"`
	Strategies []string       `json:"strategies"`
	Evaluated  int            `json:"evaluated"`
	Rejected   int            `json:"rejected"`
	Proposals  []Proposal     `json:"proposals"` // accepted, ranked by score
	Rejections map[string]int `json:"rejections"` // per canonical category
}

// Scanner runs the strike-search loops over a chain snapshot and ranks the
// surviving proposals.
type Scanner struct {
	criteria *config.Criteria
	pipeline *Pipeline
	metrics  *httpiface.MetricsRegistry
}

// NewScanner creates a scanner; metrics may be nil
func NewScanner(criteria *config.Criteria, metrics *httpiface.MetricsRegistry) *Scanner {
	return &Scanner{
		criteria: criteria,
		pipeline: NewPipeline(criteria, metrics),
		metrics:  metrics,
	}
}

// Scan evaluates every candidate for the requested strategies and returns
// the top-N accepted proposals ranked by composite score.
func (s *Scanner) Scan(chain []options.OptionQuote, mctx midpoint.Context, strategies []string, topN int) (*Report, error) {
	for _, strategy := range strategies {
		if _, err := s.criteria.Strategy(strategy); err != nil {
			return nil, fmt.Errorf("cannot scan: %w", err)
		}
	}

	var timer *httpiface.ScanTimer
	if s.metrics != nil {
		timer = s.metrics.StartScanTimer()
		defer timer.Stop()
	}

	report := &Report{
		RunID:      uuid.New().String(),
		AsOf:       mctx.AsOf,
		Spot:       mctx.Spot,
		Rate:       mctx.Rate,
		Strategies: strategies,
		Rejections: make(map[string]int),
	}

	for _, strategy := range strategies {
		candidates := BuildCandidates(strategy, chain, mctx.Spot)
		log.Info().
			Str("strategy", strategy).
			Int("candidates", len(candidates)).
			Msg("Strike search enumerated candidates")

		progress := applog.NewProgress(strategy, len(candidates))
		for _, candidate := range candidates {
			proposal := s.pipeline.Evaluate(candidate.Strategy, candidate.Legs, mctx)
			progress.Increment()
			report.Evaluated++
			if proposal.Accepted() {
				report.Proposals = append(report.Proposals, proposal)
				continue
			}
			report.Rejected++
			for _, detail := range proposal.Verdict.Reasons {
				report.Rejections[string(detail.Category)]++
			}
		}
		progress.Done()
	}

	sort.SliceStable(report.Proposals, func(i, j int) bool {
		return report.Proposals[i].Metrics.Score > report.Proposals[j].Metrics.Score
	})
	if topN > 0 && len(report.Proposals) > topN {
		report.Proposals = report.Proposals[:topN]
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("evaluated", report.Evaluated).
		Int("accepted", len(report.Proposals)).
		Int("rejected", report.Rejected).
		Msg("Scan complete")
	return report, nil
}

// Summary renders a one-line scan outcome for the CLI
func (r *Report) Summary() string {
	return fmt.Sprintf("scan %s: %d evaluated, %d accepted, %d rejected (%s)",
		r.RunID[:8], r.Evaluated, len(r.Proposals), r.Rejected, strings.Join(r.Strategies, ","))
}

// DetailedReport renders the ranked proposal table
func (r *Report) DetailedReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scan %s: spot %.2f, %d accepted of %d evaluated\n\n", r.RunID[:8], r.Spot, len(r.Proposals), r.Evaluated)
	for i, p := range r.Proposals {
		m := p.Metrics
		fmt.Fprintf(&b, "%2d. %-16s score %.3f | credit %.2f margin %.2f rom %.3f pos %.2f ev%% %.3f | %s\n",
			i+1, p.Strategy, m.Score, m.Credit, m.Margin, m.ROM, m.PoS, m.EVPct, p.Verdict.Summary())
		for _, leg := range p.Legs {
			src := "unresolved"
			mid := 0.0
			if leg.Resolution.Resolved() {
				src = leg.Resolution.Source.String()
				mid = *leg.Resolution.Mid
			}
			fmt.Fprintf(&b, "      %+d %s mid %.2f (%s)\n", leg.Position, leg.Quote.Describe(), mid, src)
		}
	}
	if len(r.Rejections) > 0 {
		fmt.Fprintf(&b, "\nRejections by category:\n")
		categories := make([]string, 0, len(r.Rejections))
		for category := range r.Rejections {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Fprintf(&b, "  %-16s %d\n", category, r.Rejections[category])
		}
	}
	return b.String()
}
