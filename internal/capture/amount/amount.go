// Package amount resolves how a keyed-in stake applies to a slip: to one
// entry only, or retroactively to every fijo-type entry captured so far.
// Bulk wagering is the dominant usage pattern, so the ambiguous case is
// surfaced as an explicit confirmation instead of a silent default.
package amount

import (
	"errors"

	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
)

var (
	// ErrNoSuchEntry means the target left the slip before the amount
	// was submitted.
	ErrNoSuchEntry = errors.New("amount target not on slip")
	// ErrNotPositive rejects zero or negative stakes.
	ErrNotPositive = errors.New("amount must be positive")
)

// Outcome says what happened to a submitted amount.
type Outcome int

const (
	// AppliedDirectly attached the amount to the target entry.
	AppliedDirectly Outcome = iota
	// RequiresConfirmation suspended amount entry pending a
	// single-vs-all choice from the operator.
	RequiresConfirmation
)

// ConfirmationRequest is the ephemeral value held between "amount keyed"
// and "operator resolves the dialog". It never outlives one machine
// transition and is not part of the slip.
type ConfirmationRequest struct {
	Amount   int64            `json:"amount"`
	TargetID string           `json:"target_id"`
	Kind     entry.AmountKind `json:"kind"`
}

// Resolution is the operator's answer to a confirmation request.
type Resolution string

const (
	ResolveCancel Resolution = "cancel"
	ResolveSingle Resolution = "apply_to_single"
	ResolveAll    Resolution = "apply_to_all"
)

// Submit attaches the amount to the identified entry. Single-stake game
// types (corrido, centena, parlet) apply immediately; fijo entries carry
// two stakes, so the same keystrokes are ambiguous between "this number
// only" and "all fijo numbers so far" and come back as a confirmation
// request instead.
func Submit(s entry.Slip, targetID string, kind entry.AmountKind, amt int64) (entry.Slip, Outcome, *ConfirmationRequest, error) {
	if amt <= 0 {
		return s, AppliedDirectly, nil, ErrNotPositive
	}
	target, idx := s.Find(targetID)
	if idx < 0 {
		return s, AppliedDirectly, nil, ErrNoSuchEntry
	}

	if target.Game == entry.GameFijo {
		req := &ConfirmationRequest{Amount: amt, TargetID: targetID, Kind: kind}
		return s, RequiresConfirmation, req, nil
	}

	target.Amount = amt
	s = cloneSlip(s)
	s.Entries[idx] = target
	return s, AppliedDirectly, nil, nil
}

// Resolve applies the operator's choice for a pending confirmation.
// apply_to_all rewrites the matching stake of every fijo entry already on
// the slip, preserving order and identities; apply_to_single touches only
// the target; cancel leaves the slip unchanged. Entries added after the
// confirmation was raised are never affected, because resolution happens
// in the same transition that created the request.
func Resolve(s entry.Slip, req ConfirmationRequest, choice Resolution) entry.Slip {
	s = cloneSlip(s)
	switch choice {
	case ResolveAll:
		for i, e := range s.Entries {
			if e.Game != entry.GameFijo {
				continue
			}
			s.Entries[i] = withFijoStake(e, req.Kind, req.Amount)
		}
	case ResolveSingle:
		if target, idx := s.Find(req.TargetID); idx >= 0 {
			s.Entries[idx] = withFijoStake(target, req.Kind, req.Amount)
		}
	case ResolveCancel:
		// Pending amount discarded, slip untouched.
	}
	return s
}

// cloneSlip copies the entries slice so resolved slips never alias the
// model the reducer received.
func cloneSlip(s entry.Slip) entry.Slip {
	out := entry.Slip{DrawID: s.DrawID, Entries: make([]entry.Entry, len(s.Entries))}
	copy(out.Entries, s.Entries)
	return out
}

func withFijoStake(e entry.Entry, kind entry.AmountKind, amt int64) entry.Entry {
	if kind == entry.KindCorrido {
		e.AmountCorrido = amt
	} else {
		e.AmountFijo = amt
	}
	return e
}
