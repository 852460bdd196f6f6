// Package rules is the read model for per-draw wagering rules: stake
// limits per game type and the limited-number blacklist. Rules are
// authored by the banca and consumed here as configuration, never
// modified.
package rules

import (
	"time"

	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
)

// TypeLimits bounds the stake for one game type.
type TypeLimits struct {
	MinAmount int64 `json:"min_amount"`
	MaxAmount int64 `json:"max_amount"`
}

// DrawRules is the rule set of one scheduled draw.
type DrawRules struct {
	DrawID   string                        `json:"draw_id"`
	Limits   map[entry.GameType]TypeLimits `json:"limits"`
	Limited  []string                      `json:"limited_numbers"`
	ClosesAt time.Time                     `json:"closes_at"`
}

// LimitsFor returns the stake bounds for a game type. A missing game
// falls back to unbounded, matching draws that do not restrict a type.
func (r DrawRules) LimitsFor(g entry.GameType) TypeLimits {
	if l, ok := r.Limits[g]; ok {
		return l
	}
	return TypeLimits{MinAmount: 1, MaxAmount: 1<<63 - 1}
}

// NumberLimited reports whether a number is on the draw's blacklist.
func (r DrawRules) NumberLimited(n string) bool {
	for _, ln := range r.Limited {
		if ln == n {
			return true
		}
	}
	return false
}
