package midpoint

import (
	"fmt"
	"strings"
	"time"

	"github.com/sawpanic/spreadrun/internal/config"
	"github.com/sawpanic/spreadrun/internal/options"
	"github.com/sawpanic/spreadrun/internal/pricing"
)

// Context is the market state one resolution pass runs against. AsOf is
// explicit so resolution stays a pure function of its inputs.
type Context struct {
	Spot float64   `json:"spot"`
	Rate float64   `json:"rate"` // annualized, decimal
	AsOf time.Time `json:"as_of"`
}

// Resolver resolves one mid per leg through the fixed source hierarchy:
// true mid, put-call parity, Black-Scholes model, last close. Each source is
// attempted globally across the whole leg set before the next, so parity
// lookups always see already-resolved true mids of the counterpart leg.
// The resolver holds no state between calls.
type Resolver struct {
	spread config.SpreadConfig
}

// NewResolver creates a resolver with the given spread tolerance policy
func NewResolver(spread config.SpreadConfig) *Resolver {
	return &Resolver{spread: spread}
}

// ResolveLegs returns a copy of the leg set with a MidResolution attached to
// every leg. Input legs are never mutated; identical inputs produce
// identical outputs.
func (r *Resolver) ResolveLegs(legs []options.Leg, mctx Context) []options.Leg {
	resolved := make([]options.Leg, len(legs))
	copy(resolved, legs)

	attempts := make([]*attempt, len(legs))
	for i := range resolved {
		attempts[i] = &attempt{quoteAge: resolved[i].Quote.QuoteAge}
	}

	// Pass 1: true mid from bid/ask within spread tolerance
	for i := range resolved {
		r.tryTrue(&resolved[i], attempts[i], mctx)
	}
	// Pass 2: parity from the counterpart leg's true mid or close
	for i := range resolved {
		if attempts[i].done() {
			continue
		}
		r.tryParity(&resolved[i], attempts[i], resolved, attempts, mctx)
	}
	// Pass 3: Black-Scholes model price
	for i := range resolved {
		if attempts[i].done() {
			continue
		}
		r.tryModel(&resolved[i], attempts[i], mctx)
	}
	// Pass 4: last traded price
	for i := range resolved {
		if attempts[i].done() {
			continue
		}
		r.tryClose(&resolved[i], attempts[i])
	}

	for i := range resolved {
		resolved[i].Resolution = attempts[i].finalize()
	}
	return resolved
}

// attempt accumulates state for one leg across the resolution passes
type attempt struct {
	mid        *float64
	source     options.MidSource
	reason     string
	spreadFlag options.SpreadFlag
	failures   []string
	quoteAge   *float64
}

func (a *attempt) done() bool { return a.mid != nil }

func (a *attempt) succeed(mid float64, source options.MidSource, reason string) {
	a.mid = options.Float(mid)
	a.source = source
	a.reason = reason
}

func (a *attempt) fail(format string, args ...any) {
	a.failures = append(a.failures, fmt.Sprintf(format, args...))
}

func (a *attempt) finalize() *options.MidResolution {
	res := &options.MidResolution{
		Mid:        a.mid,
		Source:     a.source,
		SpreadFlag: a.spreadFlag,
		QuoteAge:   a.quoteAge,
	}
	if a.mid != nil {
		res.Reason = a.reason
	} else {
		res.Reason = strings.Join(a.failures, "; ")
	}
	return res
}

func (r *Resolver) tryTrue(leg *options.Leg, a *attempt, mctx Context) {
	q := leg.Quote

	switch {
	case q.Bid <= 0 && q.Ask <= 0:
		if q.Bid < 0 || q.Ask < 0 {
			a.spreadFlag = options.SpreadInvalid
			a.fail("negative bid/ask %.2f/%.2f", q.Bid, q.Ask)
		} else {
			a.spreadFlag = options.SpreadMissing
			a.fail("no bid/ask quoted")
		}
		return
	case q.Bid <= 0 || q.Ask <= 0:
		a.spreadFlag = options.SpreadOneSided
		a.fail("one-sided quote bid %.2f / ask %.2f", q.Bid, q.Ask)
		return
	case q.Ask < q.Bid:
		a.spreadFlag = options.SpreadInvalid
		a.fail("crossed quote bid %.2f > ask %.2f", q.Bid, q.Ask)
		return
	}

	mid := (q.Bid + q.Ask) / 2
	spread := q.Ask - q.Bid
	absTol := r.spread.AbsTolerance(mctx.Spot)
	relTol := r.spread.RelativeFactor * mid

	switch {
	case spread <= absTol && absTol >= relTol:
		a.spreadFlag = options.SpreadAbs
		a.succeed(mid, options.SourceTrue,
			fmt.Sprintf("true mid %.4f from %.2f/%.2f (spread %.2f <= abs %.2f)", mid, q.Bid, q.Ask, spread, absTol))
	case spread <= relTol:
		a.spreadFlag = options.SpreadRel
		a.succeed(mid, options.SourceTrue,
			fmt.Sprintf("true mid %.4f from %.2f/%.2f (spread %.2f <= rel %.2f)", mid, q.Bid, q.Ask, spread, relTol))
	default:
		a.spreadFlag = options.SpreadTooWide
		a.fail("spread %.2f too wide (abs %.2f, rel %.2f)", spread, absTol, relTol)
	}
}

// tryParity derives the mid from the counterpart (same expiry+strike,
// opposite right) in the leg set. A counterpart with a resolved true mid
// tags ParityTrue; a counterpart with only a positive close tags
// ParityClose.
func (r *Resolver) tryParity(leg *options.Leg, a *attempt, legs []options.Leg, attempts []*attempt, mctx Context) {
	idx := findCounterpart(leg.Quote, legs)
	if idx < 0 {
		a.fail("no parity counterpart in leg set")
		return
	}
	counterpart := &legs[idx]
	counterAttempt := attempts[idx]

	var baseMid float64
	var source options.MidSource
	switch {
	case counterAttempt.done() && counterAttempt.source == options.SourceTrue:
		baseMid = *counterAttempt.mid
		source = options.SourceParityTrue
	case counterpart.Quote.Close > 0:
		baseMid = counterpart.Quote.Close
		source = options.SourceParityClose
	default:
		a.fail("parity counterpart has no true mid and no close")
		return
	}

	if mctx.Spot <= 0 {
		a.fail("parity needs a positive spot price")
		return
	}

	dte := leg.Quote.DTE(mctx.AsOf)
	derived, ok := pricing.PutCallParity(baseMid, counterpart.Quote.Right == options.Call,
		mctx.Spot, leg.Quote.Strike, mctx.Rate, dte)
	if !ok {
		a.fail("parity from %s base %.4f gave no positive mid", source, baseMid)
		return
	}
	a.succeed(derived, source,
		fmt.Sprintf("parity mid %.4f from %s %s base %.4f", derived, counterpart.Quote.Right, sourceNoun(source), baseMid))
}

func sourceNoun(s options.MidSource) string {
	if s == options.SourceParityTrue {
		return "true-mid"
	}
	return "close"
}

func findCounterpart(q options.OptionQuote, legs []options.Leg) int {
	for i := range legs {
		cq := legs[i].Quote
		if cq.Right == q.Right.Opposite() && cq.Strike == q.Strike && cq.Expiry.Equal(q.Expiry) {
			return i
		}
	}
	return -1
}

func (r *Resolver) tryModel(leg *options.Leg, a *attempt, mctx Context) {
	q := leg.Quote
	if q.IV == nil || *q.IV <= 0 {
		a.fail("model needs a positive iv")
		return
	}
	if mctx.Spot <= 0 {
		a.fail("model needs a positive spot price")
		return
	}

	dte := q.DTE(mctx.AsOf)
	price, ok := pricing.BlackScholes(q.Right, mctx.Spot, q.Strike, dte, *q.IV, mctx.Rate, 0)
	if !ok || price <= 0 {
		a.fail("model price not positive (iv %.4f, dte %.1f)", *q.IV, dte)
		return
	}
	a.succeed(price, options.SourceModel,
		fmt.Sprintf("model mid %.4f (iv %.4f, dte %.1f)", price, *q.IV, dte))
}

func (r *Resolver) tryClose(leg *options.Leg, a *attempt) {
	if leg.Quote.Close <= 0 {
		a.fail("no positive close")
		return
	}
	a.succeed(leg.Quote.Close, options.SourceClose,
		fmt.Sprintf("close %.4f as last resort", leg.Quote.Close))
}
