package gates

import (
	"fmt"
	"strings"

	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/reason"
)

// CheckLiquidity validates every leg's volume and open interest against the
// configured minimums. Both minimums at or below zero short-circuit to pass.
// A missing value counts as unknown, which fails only when the respective
// minimum is enforced. Returns one aggregated reason naming every offending
// leg, or nil on pass.
func CheckLiquidity(legs []options.Leg, minVolume, minOpenInterest int64) *reason.Detail {
	if minVolume <= 0 && minOpenInterest <= 0 {
		return nil
	}

	var offending []string
	worstVolume := int64(-1)
	worstOI := int64(-1)

	for _, leg := range legs {
		q := leg.Quote
		var problems []string

		if minVolume > 0 {
			switch {
			case q.Volume == nil:
				problems = append(problems, "volume unknown")
			case *q.Volume < minVolume:
				problems = append(problems, fmt.Sprintf("volume %d < %d", *q.Volume, minVolume))
				if worstVolume < 0 || *q.Volume < worstVolume {
					worstVolume = *q.Volume
				}
			}
		}
		if minOpenInterest > 0 {
			switch {
			case q.OpenInterest == nil:
				problems = append(problems, "open interest unknown")
			case *q.OpenInterest < minOpenInterest:
				problems = append(problems, fmt.Sprintf("open interest %d < %d", *q.OpenInterest, minOpenInterest))
				if worstOI < 0 || *q.OpenInterest < worstOI {
					worstOI = *q.OpenInterest
				}
			}
		}

		if len(problems) > 0 {
			offending = append(offending, fmt.Sprintf("%s: %s", q.Describe(), strings.Join(problems, ", ")))
		}
	}

	if len(offending) == 0 {
		return nil
	}

	detail := reason.New(reason.CategoryLowLiquidity, reason.CodeLowLiquidity,
		"insufficient liquidity on %d leg(s): %s", len(offending), strings.Join(offending, "; ")).
		WithData("legs", offending)
	if worstVolume >= 0 {
		detail = detail.WithData("min_volume_seen", worstVolume)
	}
	if worstOI >= 0 {
		detail = detail.WithData("min_open_interest_seen", worstOI)
	}
	return &detail
}
