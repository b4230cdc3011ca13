package log

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Progress reports periodic completion updates for long evaluation loops.
// Updates are throttled so a scan over thousands of candidates logs a
// handful of lines, not one per candidate. Safe for concurrent Increment.
type Progress struct {
	mu         sync.Mutex
	name       string
	total      int
	current    int
	start      time.Time
	lastLogged time.Time
	interval   time.Duration
}

// NewProgress starts tracking a loop of total steps
func NewProgress(name string, total int) *Progress {
	return &Progress{
		name:     name,
		total:    total,
		start:    time.Now(),
		interval: 2 * time.Second,
	}
}

// Increment records one completed step, logging at most once per interval
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	now := time.Now()
	if now.Sub(p.lastLogged) < p.interval || p.current == p.total {
		return
	}
	p.lastLogged = now

	log.Info().
		Str("task", p.name).
		Int("done", p.current).
		Int("total", p.total).
		Str("eta", p.eta(now)).
		Msg("Progress")
}

// Done logs the final timing line
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Info().
		Str("task", p.name).
		Int("done", p.current).
		Dur("elapsed", time.Since(p.start)).
		Msg("Completed")
}

func (p *Progress) eta(now time.Time) string {
	if p.current == 0 || p.total <= 0 {
		return "unknown"
	}
	elapsed := now.Sub(p.start)
	perStep := elapsed / time.Duration(p.current)
	remaining := perStep * time.Duration(p.total-p.current)
	return remaining.Round(time.Second).String()
}
