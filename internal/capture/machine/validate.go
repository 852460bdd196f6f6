package machine

import (
	"fmt"

	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/rules"
)

// limitsGame maps a stake to the game type whose limits bound it. The
// corrido rider on a fijo entry is bounded by the corrido limits.
func limitsGame(g entry.GameType, kind entry.AmountKind) entry.GameType {
	if g == entry.GameFijo && kind == entry.KindCorrido {
		return entry.GameCorrido
	}
	return g
}

func checkAmountLimits(r rules.DrawRules, target entry.Entry, kind entry.AmountKind, amt int64) *ValidationError {
	l := r.LimitsFor(limitsGame(target.Game, kind))
	if amt < l.MinAmount || amt > l.MaxAmount {
		return &ValidationError{
			EntryID: target.ID,
			Field:   "amount",
			Reason:  fmt.Sprintf("amount %d outside limits [%d, %d]", amt, l.MinAmount, l.MaxAmount),
		}
	}
	return nil
}

// validateEntry gates Submit: number shape, stake presence, stake limits
// and the draw's limited-number blacklist.
func validateEntry(r rules.DrawRules, e entry.Entry) *ValidationError {
	bad := func(field, reason string) *ValidationError {
		return &ValidationError{EntryID: e.ID, Field: field, Reason: reason}
	}

	switch e.Game {
	case entry.GameParlet:
		if len(e.Pairs) < entry.ParletMinPairs {
			return bad("number", "parlet needs at least 2 pairs")
		}
		if len(e.Pairs) > entry.ParletMaxPairs {
			return bad("number", "parlet exceeds 10 pairs")
		}
		for _, p := range e.Pairs {
			if len(p) != 2 {
				return bad("number", "parlet pair must have 2 digits")
			}
		}
	case entry.GameFijo, entry.GameCorrido, entry.GameCentena:
		if len(e.Number) != e.Game.NumberLen() {
			return bad("number", fmt.Sprintf("%s number needs %d digits", e.Game, e.Game.NumberLen()))
		}
	default:
		return bad("number", "unknown game type")
	}

	if !e.HasAmount() {
		return bad("amount", "entry has no amount")
	}

	if e.Game == entry.GameFijo {
		if e.AmountFijo > 0 {
			if verr := checkAmountLimits(r, e, entry.KindFijo, e.AmountFijo); verr != nil {
				return verr
			}
		}
		if e.AmountCorrido > 0 {
			if verr := checkAmountLimits(r, e, entry.KindCorrido, e.AmountCorrido); verr != nil {
				return verr
			}
		}
	} else {
		if verr := checkAmountLimits(r, e, "", e.Amount); verr != nil {
			return verr
		}
	}

	for _, n := range e.Numbers() {
		if r.NumberLimited(n) {
			return bad("number", fmt.Sprintf("number %s is limited for this draw", n))
		}
	}

	return nil
}
