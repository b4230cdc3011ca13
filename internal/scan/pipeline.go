package scan

import (
	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/gates"
	httpiface "github.com/sawpanic/spreadrun/internal/interfaces/http"
	"github.com/sawpanic/spreadrun/internal/midpoint"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/reason"
	"github.com/sawpanic/spreadrun/internal/score"
)

// Proposal is one fully evaluated candidate: resolved legs, budget, economics
// (when gating passed), and the aggregated verdict.
type Proposal struct {
	Strategy string               `json:"strategy"`
	Legs     []options.Leg        `json:"legs"`
	Budget   gates.FallbackBudget `json:"fallback_budget"`
	Metrics  *score.Metrics       `json:"metrics,omitempty"`
	Verdict  reason.Verdict       `json:"verdict"`
}

// Accepted reports whether the proposal survived the full pipeline
func (p Proposal) Accepted() bool {
	return p.Verdict.Status != reason.StatusRejected && p.Metrics != nil
}

// Pipeline wires resolver, gates, scorer and reason engine into the single
// evaluation path every candidate flows through. Stateless per evaluation;
// evaluations are independent and safe to run concurrently since the
// criteria are read-only.
type Pipeline struct {
	criteria *config.Criteria
	resolver *midpoint.Resolver
	scorer   *score.Engine
	metrics  *httpiface.MetricsRegistry
}

// NewPipeline builds the evaluation pipeline; metrics may be nil
func NewPipeline(criteria *config.Criteria, metrics *httpiface.MetricsRegistry) *Pipeline {
	return &Pipeline{
		criteria: criteria,
		resolver: midpoint.NewResolver(criteria.Spread),
		scorer:   score.NewEngine(criteria),
		metrics:  metrics,
	}
}

// Evaluate runs one candidate through resolution, gating, scoring and
// verdict aggregation. The input legs are never retained or mutated.
func (p *Pipeline) Evaluate(strategy string, legs []options.Leg, mctx midpoint.Context) Proposal {
	resolved := p.resolver.ResolveLegs(legs, mctx)
	usage := reason.SummarizeMidUsage(resolved)

	proposal := Proposal{Strategy: strategy, Legs: resolved}

	var rejections, advisories []reason.Detail

	profile, err := p.criteria.Strategy(strategy)
	if err != nil {
		rejections = append(rejections,
			reason.New(reason.CategoryRulesFilter, reason.CodeUnknownStrategy, "%v", err))
	} else {
		proposal.Budget = gates.EvaluateFallback(strategy, profile, resolved, p.criteria.Fallback)
		if proposal.Budget.Rejection != nil {
			rejections = append(rejections, *proposal.Budget.Rejection)
		}
		if proposal.Budget.Advisory != nil {
			advisories = append(advisories, *proposal.Budget.Advisory)
		}
	}

	// Economics are computed only for candidates that pass gating.
	if len(rejections) == 0 && usage.Unresolved == 0 {
		metrics, scoreReasons := p.scorer.Score(strategy, resolved, mctx)
		proposal.Metrics = metrics
		rejections = append(rejections, scoreReasons...)
	}

	proposal.Verdict = reason.Evaluate(usage, rejections, advisories)
	p.record(proposal, usage)
	return proposal
}

func (p *Pipeline) record(proposal Proposal, usage reason.MidUsage) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordEvaluation(proposal.Strategy)
	p.metrics.RecordVerdict(proposal.Strategy, string(proposal.Verdict.Status))
	for source, count := range usage.Sources {
		for i := 0; i < count; i++ {
			p.metrics.RecordMidSource(source.String())
		}
	}
	if proposal.Verdict.Status == reason.StatusRejected {
		for _, detail := range proposal.Verdict.Reasons {
			p.metrics.RecordRejection(proposal.Strategy, string(detail.Category))
		}
	}
}
