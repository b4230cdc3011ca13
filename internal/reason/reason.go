package reason

import "fmt"

// Category is the canonical rejection taxonomy, stable across the whole
// pipeline. Every rejection from every component funnels into one of these
// so downstream reporting never needs component-specific knowledge.
type Category string

const (
	CategoryLowLiquidity   Category = "low_liquidity"
	CategoryMissingMid     Category = "missing_mid"
	CategoryMissingStrikes Category = "missing_strikes"
	CategoryWideSpread     Category = "wide_spread"
	CategoryRulesFilter    Category = "rules_filter"
	CategoryOther          Category = "other"
)

// Canonical reason codes. Codes are the dedup key within one evaluation and
// the stable contract for automated assertions; messages are for humans.
const (
	CodeLowLiquidity      = "low_liquidity"
	CodeMissingMid        = "missing_mid"
	CodeMissingLegData    = "missing_leg_data"
	CodeMissingStrikes    = "missing_strikes"
	CodeWideSpread        = "wide_spread"
	CodeOneSidedQuote     = "one_sided_quote"
	CodeNegativeCredit    = "negative_credit"
	CodeNoMargin          = "no_margin"
	CodeNegativeScore     = "negative_score"
	CodeNegativeEV        = "negative_ev"
	CodeRiskReward        = "risk_reward"
	CodeFallbackShortLeg  = "fallback_short_leg"
	CodeFallbackQuota     = "fallback_quota"
	CodeCalendarModelLong = "calendar_model_long"
	CodeCloseFallback     = "close_fallback"
	CodeUnknownStrategy   = "unknown_strategy"
)

// Detail is one structured rejection or advisory condition
type Detail struct {
	Category Category       `json:"category"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
}

// New builds a Detail with a formatted message
func New(category Category, code, format string, args ...any) Detail {
	return Detail{
		Category: category,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithData attaches structured context to a Detail, returning a copy
func (d Detail) WithData(key string, value any) Detail {
	data := make(map[string]any, len(d.Data)+1)
	for k, v := range d.Data {
		data[k] = v
	}
	data[key] = value
	d.Data = data
	return d
}

func (d Detail) String() string {
	return fmt.Sprintf("[%s/%s] %s", d.Category, d.Code, d.Message)
}

// Dedupe collapses details sharing a code, keeping first occurrence order
func Dedupe(details []Detail) []Detail {
	seen := make(map[string]bool, len(details))
	out := make([]Detail, 0, len(details))
	for _, d := range details {
		if seen[d.Code] {
			continue
		}
		seen[d.Code] = true
		out = append(out, d)
	}
	return out
}
