package scan

import (
	"sort"
	"time"

	"github.com/sawpanic/spreadrun/internal/options"
)

// Candidate is one strike/expiry combination to evaluate
type Candidate struct {
	Strategy string
	Legs     []options.Leg
}

// chainIndex organizes a chain snapshot for strike-search iteration
type chainIndex struct {
	expiries []time.Time
	calls    map[time.Time][]options.OptionQuote // sorted by strike
	puts     map[time.Time][]options.OptionQuote
}

func indexChain(chain []options.OptionQuote) *chainIndex {
	idx := &chainIndex{
		calls: make(map[time.Time][]options.OptionQuote),
		puts:  make(map[time.Time][]options.OptionQuote),
	}
	seen := make(map[time.Time]bool)
	for _, q := range chain {
		if !seen[q.Expiry] {
			seen[q.Expiry] = true
			idx.expiries = append(idx.expiries, q.Expiry)
		}
		if q.Right == options.Call {
			idx.calls[q.Expiry] = append(idx.calls[q.Expiry], q)
		} else {
			idx.puts[q.Expiry] = append(idx.puts[q.Expiry], q)
		}
	}
	sort.Slice(idx.expiries, func(i, j int) bool { return idx.expiries[i].Before(idx.expiries[j]) })
	for _, quotes := range idx.calls {
		sortByStrike(quotes)
	}
	for _, quotes := range idx.puts {
		sortByStrike(quotes)
	}
	return idx
}

func sortByStrike(quotes []options.OptionQuote) {
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Strike < quotes[j].Strike })
}

// widthSteps limits how many wing widths each builder tries per anchor
const widthSteps = 3

// BuildCandidates enumerates strike/expiry combinations for one strategy.
// These loops are deliberately thin: all judgment lives in the pipeline.
func BuildCandidates(strategy string, chain []options.OptionQuote, spot float64) []Candidate {
	idx := indexChain(chain)
	switch strategy {
	case "iron_condor":
		return idx.ironCondors(spot)
	case "bull_put":
		return idx.bullPuts(spot)
	case "bear_call":
		return idx.bearCalls(spot)
	case "butterfly":
		return idx.butterflies(spot)
	case "calendar":
		return idx.calendars(spot)
	case "naked_put":
		return idx.nakedPuts(spot)
	case "ratio_backspread":
		return idx.ratioBackspreads(spot)
	default:
		return nil
	}
}

// otmPutAnchors returns indexes of puts below spot, nearest first
func otmPutAnchors(puts []options.OptionQuote, spot float64) []int {
	var anchors []int
	for i := len(puts) - 1; i >= 0; i-- {
		if puts[i].Strike < spot {
			anchors = append(anchors, i)
		}
	}
	return anchors
}

// otmCallAnchors returns indexes of calls above spot, nearest first
func otmCallAnchors(calls []options.OptionQuote, spot float64) []int {
	var anchors []int
	for i := range calls {
		if calls[i].Strike > spot {
			anchors = append(anchors, i)
		}
	}
	return anchors
}

func (idx *chainIndex) bullPuts(spot float64) []Candidate {
	var out []Candidate
	for _, expiry := range idx.expiries {
		puts := idx.puts[expiry]
		for _, short := range otmPutAnchors(puts, spot) {
			for step := 1; step <= widthSteps && short-step >= 0; step++ {
				out = append(out, Candidate{
					Strategy: "bull_put",
					Legs: []options.Leg{
						{Quote: puts[short], Position: -1},
						{Quote: puts[short-step], Position: 1},
					},
				})
			}
		}
	}
	return out
}

func (idx *chainIndex) bearCalls(spot float64) []Candidate {
	var out []Candidate
	for _, expiry := range idx.expiries {
		calls := idx.calls[expiry]
		for _, short := range otmCallAnchors(calls, spot) {
			for step := 1; step <= widthSteps && short+step < len(calls); step++ {
				out = append(out, Candidate{
					Strategy: "bear_call",
					Legs: []options.Leg{
						{Quote: calls[short], Position: -1},
						{Quote: calls[short+step], Position: 1},
					},
				})
			}
		}
	}
	return out
}

func (idx *chainIndex) ironCondors(spot float64) []Candidate {
	var out []Candidate
	for _, expiry := range idx.expiries {
		puts, calls := idx.puts[expiry], idx.calls[expiry]
		for _, shortPut := range otmPutAnchors(puts, spot) {
			for _, shortCall := range otmCallAnchors(calls, spot) {
				for step := 1; step <= widthSteps; step++ {
					if shortPut-step < 0 || shortCall+step >= len(calls) {
						continue
					}
					out = append(out, Candidate{
						Strategy: "iron_condor",
						Legs: []options.Leg{
							{Quote: puts[shortPut], Position: -1},
							{Quote: puts[shortPut-step], Position: 1},
							{Quote: calls[shortCall], Position: -1},
							{Quote: calls[shortCall+step], Position: 1},
						},
					})
				}
			}
		}
	}
	return out
}

func (idx *chainIndex) butterflies(spot float64) []Candidate {
	var out []Candidate
	for _, expiry := range idx.expiries {
		calls := idx.calls[expiry]
		body := nearestStrike(calls, spot)
		if body < 0 {
			continue
		}
		for step := 1; step <= widthSteps; step++ {
			if body-step < 0 || body+step >= len(calls) {
				break
			}
			out = append(out, Candidate{
				Strategy: "butterfly",
				Legs: []options.Leg{
					{Quote: calls[body-step], Position: 1},
					{Quote: calls[body], Position: -2},
					{Quote: calls[body+step], Position: 1},
				},
			})
		}
	}
	return out
}

func (idx *chainIndex) calendars(spot float64) []Candidate {
	var out []Candidate
	for i := 0; i+1 < len(idx.expiries); i++ {
		front, back := idx.expiries[i], idx.expiries[i+1]
		frontCalls, backCalls := idx.calls[front], idx.calls[back]
		anchor := nearestStrike(frontCalls, spot)
		if anchor < 0 {
			continue
		}
		strike := frontCalls[anchor].Strike
		for _, backQuote := range backCalls {
			if backQuote.Strike != strike {
				continue
			}
			out = append(out, Candidate{
				Strategy: "calendar",
				Legs: []options.Leg{
					{Quote: frontCalls[anchor], Position: -1},
					{Quote: backQuote, Position: 1},
				},
			})
		}
	}
	return out
}

func (idx *chainIndex) nakedPuts(spot float64) []Candidate {
	var out []Candidate
	for _, expiry := range idx.expiries {
		puts := idx.puts[expiry]
		for _, short := range otmPutAnchors(puts, spot) {
			out = append(out, Candidate{
				Strategy: "naked_put",
				Legs:     []options.Leg{{Quote: puts[short], Position: -1}},
			})
		}
	}
	return out
}

func (idx *chainIndex) ratioBackspreads(spot float64) []Candidate {
	var out []Candidate
	for _, expiry := range idx.expiries {
		calls := idx.calls[expiry]
		for _, short := range otmCallAnchors(calls, spot) {
			for step := 1; step <= widthSteps && short+step < len(calls); step++ {
				out = append(out, Candidate{
					Strategy: "ratio_backspread",
					Legs: []options.Leg{
						{Quote: calls[short], Position: -1},
						{Quote: calls[short+step], Position: 2},
					},
				})
			}
		}
	}
	return out
}

func nearestStrike(quotes []options.OptionQuote, spot float64) int {
	best := -1
	var bestDist float64
	for i, q := range quotes {
		dist := q.Strike - spot
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
