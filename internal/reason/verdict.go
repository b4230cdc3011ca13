package reason

import (
	"fmt"
	"sort"

	"github.com/sawpanic/spreadrun/internal/options"
)

// Status is the tradability verdict for one evaluated candidate
type Status string

const (
	StatusTradable Status = "tradable"
	StatusAdvisory Status = "advisory"
	StatusRejected Status = "rejected"
)

// MidUsage summarizes mid provenance across a candidate's legs
type MidUsage struct {
	Sources    map[options.MidSource]int `json:"sources"`
	TooWide    int                       `json:"too_wide"`
	OneSided   int                       `json:"one_sided"`
	Unresolved int                       `json:"unresolved"`
}

// SummarizeMidUsage tallies resolution provenance for a leg set
func SummarizeMidUsage(legs []options.Leg) MidUsage {
	usage := MidUsage{Sources: make(map[options.MidSource]int)}
	for _, leg := range legs {
		res := leg.Resolution
		if !res.Resolved() {
			usage.Unresolved++
			if res != nil {
				switch res.SpreadFlag {
				case options.SpreadTooWide:
					usage.TooWide++
				case options.SpreadOneSided:
					usage.OneSided++
				}
			}
			continue
		}
		usage.Sources[res.Source]++
		switch res.SpreadFlag {
		case options.SpreadTooWide:
			usage.TooWide++
		case options.SpreadOneSided:
			usage.OneSided++
		}
	}
	return usage
}

// PreviewCount returns how many legs used a derived (non-true) source
func (u MidUsage) PreviewCount() int {
	n := 0
	for source, count := range u.Sources {
		if source.IsPreview() {
			n += count
		}
	}
	return n
}

// Verdict is the aggregated tradability outcome for one candidate
type Verdict struct {
	Status       Status   `json:"status"`
	NeedsRefresh bool     `json:"needs_refresh"`
	Tags         []string `json:"tags,omitempty"`
	Reasons      []Detail `json:"reasons,omitempty"`
}

// Evaluate folds mid-usage, accumulated hard rejections, and advisory
// conditions into one verdict. Every hard violation contributes its own
// canonical detail and all are surfaced, not just the first. Advisories and
// derived sources without a hard violation downgrade to advisory with a
// refresh flag instead of rejecting.
func Evaluate(usage MidUsage, rejections []Detail, advisories []Detail) Verdict {
	reasons := make([]Detail, 0, len(rejections)+3)
	reasons = append(reasons, rejections...)

	if usage.TooWide > 0 {
		reasons = append(reasons,
			New(CategoryWideSpread, CodeWideSpread, "%d leg(s) with spread too wide for a true mid", usage.TooWide))
	}
	if usage.OneSided > 0 {
		reasons = append(reasons,
			New(CategoryWideSpread, CodeOneSidedQuote, "%d leg(s) with a one-sided quote", usage.OneSided))
	}
	if usage.Unresolved > 0 {
		reasons = append(reasons,
			New(CategoryMissingMid, CodeMissingMid, "%d leg(s) with no resolvable mid", usage.Unresolved))
	}

	reasons = Dedupe(reasons)

	verdict := Verdict{}
	for source, count := range usage.Sources {
		if count > 0 && source != options.SourceTrue {
			verdict.Tags = append(verdict.Tags, fmt.Sprintf("%s:%d", source, count))
		}
	}
	sort.Strings(verdict.Tags)

	switch {
	case len(reasons) > 0:
		verdict.Status = StatusRejected
		verdict.Reasons = Dedupe(append(reasons, advisories...))
	case usage.PreviewCount() > 0 || len(advisories) > 0:
		verdict.Status = StatusAdvisory
		verdict.NeedsRefresh = true
		verdict.Reasons = Dedupe(advisories)
	default:
		verdict.Status = StatusTradable
	}
	return verdict
}

// Summary renders a one-line verdict for logs and CLI tables
func (v Verdict) Summary() string {
	switch v.Status {
	case StatusTradable:
		return "tradable"
	case StatusAdvisory:
		return fmt.Sprintf("advisory (refresh needed, %d tag(s))", len(v.Tags))
	default:
		first := ""
		if len(v.Reasons) > 0 {
			first = ": " + v.Reasons[0].Message
		}
		return fmt.Sprintf("rejected (%d reason(s))%s", len(v.Reasons), first)
	}
}
