package alerts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sawpanic/spreadrun/internal/reason"
	"github.com/sawpanic/spreadrun/internal/scan"
)

type Emitter struct{}

func NewEmitter() *Emitter {
	return &Emitter{}
}

// EmitAlertsJSON writes an action-oriented view of a scan: accepted
// proposals grouped by urgency, with refresh-needed candidates called out
// separately from immediately tradable ones.
func (e *Emitter) EmitAlertsJSON(filePath string, report *scan.Report) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create alerts JSON file: %w", err)
	}
	defer file.Close()

	tradable := e.byStatus(report.Proposals, reason.StatusTradable)
	advisory := e.byStatus(report.Proposals, reason.StatusAdvisory)

	alertsData := map[string]any{
		"run_id":    report.RunID,
		"timestamp": report.AsOf,
		"alert_summary": map[string]any{
			"total_alerts":  len(report.Proposals),
			"tradable":      len(tradable),
			"needs_refresh": len(advisory),
			"best_score":    e.bestScore(report.Proposals),
		},
		"tradable_alerts": e.enrichProposals(tradable),
		"refresh_alerts":  e.enrichProposals(advisory),
		"rejection_analysis": map[string]any{
			"total_rejected": report.Rejected,
			"by_category":    report.Rejections,
		},
		"system_info": map[string]any{
			"spot":       report.Spot,
			"rate":       report.Rate,
			"strategies": report.Strategies,
		},
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(alertsData); err != nil {
		return fmt.Errorf("failed to encode alerts JSON: %w", err)
	}
	return nil
}

func (e *Emitter) byStatus(proposals []scan.Proposal, status reason.Status) []scan.Proposal {
	var out []scan.Proposal
	for _, p := range proposals {
		if p.Verdict.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func (e *Emitter) bestScore(proposals []scan.Proposal) float64 {
	best := 0.0
	for _, p := range proposals {
		if p.Metrics != nil && p.Metrics.Score > best {
			best = p.Metrics.Score
		}
	}
	return best
}

// enrichProposals flattens each proposal into the fields an alert consumer
// acts on
func (e *Emitter) enrichProposals(proposals []scan.Proposal) []map[string]any {
	alerts := make([]map[string]any, 0, len(proposals))
	for _, p := range proposals {
		m := p.Metrics
		legs := make([]string, len(p.Legs))
		for i, leg := range p.Legs {
			legs[i] = fmt.Sprintf("%+d %s", leg.Position, leg.Quote.Describe())
		}
		alerts = append(alerts, map[string]any{
			"strategy":      p.Strategy,
			"legs":          legs,
			"score":         m.Score,
			"credit":        m.Credit,
			"margin":        m.Margin,
			"pos":           m.PoS,
			"breakevens":    m.Breakevens,
			"needs_refresh": p.Verdict.NeedsRefresh,
			"tags":          p.Verdict.Tags,
		})
	}
	return alerts
}
