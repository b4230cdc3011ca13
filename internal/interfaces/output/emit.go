package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/scan"
)

type Emitter struct{}

func NewEmitter() *Emitter {
	return &Emitter{}
}

// EmitProposalsCSV writes the ranked proposals with their economics and
// verdicts. Currency values are rounded to 2 decimals here, at the
// presentation boundary only.
func (e *Emitter) EmitProposalsCSV(filePath string, report *scan.Report) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"RunID", "Strategy", "Status", "NeedsRefresh", "Score",
		"Credit", "Margin", "MaxProfit", "MaxLoss", "ROM", "EV", "EVPct", "PoS",
		"Breakevens", "ProfitEstimated", "FallbackUsed", "FallbackAllowed", "Tags",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, proposal := range report.Proposals {
		m := proposal.Metrics
		breakevens := make([]string, len(m.Breakevens))
		for i, be := range m.Breakevens {
			breakevens[i] = fmt.Sprintf("%.2f", be)
		}

		record := []string{
			report.RunID,
			proposal.Strategy,
			string(proposal.Verdict.Status),
			strconv.FormatBool(proposal.Verdict.NeedsRefresh),
			fmt.Sprintf("%.2f", m.Score),
			fmt.Sprintf("%.2f", m.Credit),
			fmt.Sprintf("%.2f", m.Margin),
			fmt.Sprintf("%.2f", m.MaxProfit),
			fmt.Sprintf("%.2f", m.MaxLoss),
			fmt.Sprintf("%.4f", m.ROM),
			fmt.Sprintf("%.2f", m.EV),
			fmt.Sprintf("%.4f", m.EVPct),
			fmt.Sprintf("%.4f", m.PoS),
			strings.Join(breakevens, "|"),
			strconv.FormatBool(m.ProfitEstimated),
			strconv.Itoa(proposal.Budget.Used),
			strconv.Itoa(proposal.Budget.Allowed),
			strings.Join(proposal.Verdict.Tags, "|"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	return nil
}

// EmitLegsCSV writes every leg of every proposal with its full mid
// provenance, the audit trail the external persistence layer keeps.
func (e *Emitter) EmitLegsCSV(filePath string, report *scan.Report) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"RunID", "Strategy", "Expiry", "Strike", "Right", "Position",
		"Bid", "Ask", "Close", "Mid", "MidSource", "MidReason", "SpreadFlag", "OneSided", "QuoteAge",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, proposal := range report.Proposals {
		for _, leg := range proposal.Legs {
			q := leg.Quote
			res := leg.Resolution

			mid, source, midReason, spreadFlag, quoteAge := "", "none", "", "none", ""
			oneSided := false
			if res != nil {
				if res.Mid != nil {
					mid = fmt.Sprintf("%.4f", *res.Mid)
				}
				source = res.Source.String()
				midReason = res.Reason
				spreadFlag = res.SpreadFlag.String()
				oneSided = res.SpreadFlag == options.SpreadOneSided
				if res.QuoteAge != nil {
					quoteAge = fmt.Sprintf("%.1f", *res.QuoteAge)
				}
			}

			record := []string{
				report.RunID,
				proposal.Strategy,
				q.Expiry.Format("2006-01-02"),
				fmt.Sprintf("%.2f", q.Strike),
				string(q.Right),
				strconv.Itoa(leg.Position),
				fmt.Sprintf("%.2f", q.Bid),
				fmt.Sprintf("%.2f", q.Ask),
				fmt.Sprintf("%.2f", q.Close),
				mid,
				source,
				midReason,
				spreadFlag,
				strconv.FormatBool(oneSided),
				quoteAge,
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	return nil
}

// EmitReportJSON writes the full report, pretty-printed, for downstream
// tooling
func (e *Emitter) EmitReportJSON(filePath string, report *scan.Report) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
