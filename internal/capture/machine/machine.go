// Package machine drives the capture workflow for one bet slip as a
// finite state machine: add number, assign amount, repeat, submit. The
// reducer is a pure function; the UI dispatches messages and renders the
// model snapshot that comes back. Nothing here blocks or performs I/O —
// the confirmation dialog is a state, not a callback.
package machine

import (
	"fmt"
	"strconv"

	"github.com/lotobanca/bolita-terminal/internal/capture/amount"
	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/rules"
)

// Phase is the machine's current state.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseEnteringNumber       Phase = "entering_number"
	PhaseNumberComplete       Phase = "number_complete"
	PhaseEnteringAmount       Phase = "entering_amount"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseSubmitting           Phase = "submitting"
	PhaseSubmitted            Phase = "submitted"
	PhaseFailed               Phase = "failed"
)

// maxAmountDigits caps the amount keypad; anything longer than 9 digits
// is a miskey, not a wager.
const maxAmountDigits = 9

// ValidationError is recoverable, rendered inline next to the offending
// entry. It never aborts the machine; the previous valid model is kept.
type ValidationError struct {
	EntryID string `json:"entry_id,omitempty"`
	Field   string `json:"field"` // "number" | "amount" | "slip"
	Reason  string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation (%s): %s", e.Field, e.Reason)
}

// Model is the full snapshot the UI renders after every transition.
type Model struct {
	Phase Phase           `json:"phase"`
	Slip  entry.Slip      `json:"slip"`
	Rules rules.DrawRules `json:"rules"`

	// Active number buffer; meaningful in entering_number and
	// number_complete.
	Buffer entry.Buffer `json:"buffer"`

	// Amount keypad state; meaningful in entering_amount.
	AmountDigits string           `json:"amount_digits,omitempty"`
	AmountTarget string           `json:"amount_target,omitempty"`
	AmountKind   entry.AmountKind `json:"amount_kind,omitempty"`

	// Pending single-vs-all choice; meaningful in awaiting_confirmation.
	Pending *amount.ConfirmationRequest `json:"pending,omitempty"`

	// Validation is the inline error of the last rejected message, nil
	// after any accepted one.
	Validation *ValidationError `json:"validation,omitempty"`

	// Outbox carries the finalized slip while submitting. The session
	// hands it to the sync queue and answers with SubmitAccepted or
	// SubmitFailed.
	Outbox *entry.Slip `json:"-"`

	// SubmitError explains the failed phase.
	SubmitError string `json:"submit_error,omitempty"`
}

// New opens a machine for one draw with the draw's rule set injected.
func New(drawID string, r rules.DrawRules) Model {
	return Model{
		Phase: PhaseIdle,
		Slip:  entry.Slip{DrawID: drawID},
		Rules: r,
	}
}

// Msg is a user or session event dispatched into Reduce.
type Msg interface{ isMsg() }

// SelectGame starts (or restarts) number entry for a game type.
type SelectGame struct {
	Game entry.GameType `json:"game"`
}

// DigitPressed appends a digit to the active number buffer.
type DigitPressed struct {
	Digit byte `json:"digit"`
}

// BackspacePressed removes the last digit of whichever buffer is active.
type BackspacePressed struct{}

// OpenAmountKeyboard begins amount entry. An empty EntryID targets the
// active number buffer, committing it to the slip first; a non-empty one
// re-opens the amount of an entry already on the slip.
type OpenAmountKeyboard struct {
	EntryID string           `json:"entry_id,omitempty"`
	Kind    entry.AmountKind `json:"kind,omitempty"`
}

// AmountDigitPressed appends a digit to the amount keypad.
type AmountDigitPressed struct {
	Digit byte `json:"digit"`
}

// ConfirmAmount submits the keyed amount for the current target.
type ConfirmAmount struct{}

// ResolveConfirmation answers the pending single-vs-all dialog.
type ResolveConfirmation struct {
	Choice amount.Resolution `json:"choice"`
}

// RemoveEntry deletes an entry from the slip.
type RemoveEntry struct {
	EntryID string `json:"entry_id"`
}

// Submit finalizes the slip and hands it off for delivery.
type Submit struct{}

// SubmitAccepted is dispatched by the session once the sync queue owns
// the slip.
type SubmitAccepted struct{}

// SubmitFailed is dispatched by the session when the hand-off failed;
// the slip stays on the machine so nothing is lost.
type SubmitFailed struct {
	Reason string `json:"reason"`
}

func (SelectGame) isMsg()          {}
func (DigitPressed) isMsg()        {}
func (BackspacePressed) isMsg()    {}
func (OpenAmountKeyboard) isMsg()  {}
func (AmountDigitPressed) isMsg()  {}
func (ConfirmAmount) isMsg()       {}
func (ResolveConfirmation) isMsg() {}
func (RemoveEntry) isMsg()         {}
func (Submit) isMsg()              {}
func (SubmitAccepted) isMsg()      {}
func (SubmitFailed) isMsg()        {}

// Reduce is the pure transition function. Malformed input surfaces as a
// ValidationError on the returned model; it never panics past this
// boundary and never leaves the model in a half-applied state.
func Reduce(m Model, msg Msg) Model {
	m.Validation = nil

	switch v := msg.(type) {
	case SelectGame:
		return reduceSelectGame(m, v)
	case DigitPressed:
		return reduceDigit(m, v)
	case BackspacePressed:
		return reduceBackspace(m)
	case OpenAmountKeyboard:
		return reduceOpenAmount(m, v)
	case AmountDigitPressed:
		return reduceAmountDigit(m, v)
	case ConfirmAmount:
		return reduceConfirmAmount(m)
	case ResolveConfirmation:
		return reduceResolve(m, v)
	case RemoveEntry:
		return reduceRemove(m, v)
	case Submit:
		return reduceSubmit(m)
	case SubmitAccepted:
		return reduceSubmitAccepted(m)
	case SubmitFailed:
		return reduceSubmitFailed(m, v)
	default:
		return m
	}
}

func invalid(m Model, entryID, field, reason string) Model {
	m.Validation = &ValidationError{EntryID: entryID, Field: field, Reason: reason}
	return m
}

func capturing(m Model) bool {
	switch m.Phase {
	case PhaseIdle, PhaseNumberComplete, PhaseEnteringNumber, PhaseSubmitted, PhaseFailed:
		return true
	}
	return false
}

func reduceSelectGame(m Model, v SelectGame) Model {
	if !v.Game.Valid() {
		return invalid(m, "", "number", "unknown game type")
	}
	if !capturing(m) {
		return invalid(m, "", "number", "finish the current amount first")
	}
	m.Buffer = entry.NewBuffer(v.Game)
	m.Phase = PhaseEnteringNumber
	m.SubmitError = ""
	return m
}

func reduceDigit(m Model, v DigitPressed) Model {
	if !capturing(m) {
		return invalid(m, "", "number", "amount entry in progress")
	}
	if !m.Buffer.Game.Valid() {
		return invalid(m, "", "number", "select a game first")
	}
	buf, complete, err := m.Buffer.Push(v.Digit)
	if err != nil {
		return invalid(m, "", "number", err.Error())
	}
	m.Buffer = buf
	if complete {
		m.Phase = PhaseNumberComplete
	} else {
		m.Phase = PhaseEnteringNumber
	}
	return m
}

func reduceBackspace(m Model) Model {
	switch m.Phase {
	case PhaseEnteringAmount:
		if len(m.AmountDigits) > 0 {
			m.AmountDigits = m.AmountDigits[:len(m.AmountDigits)-1]
		}
		return m
	case PhaseEnteringNumber, PhaseNumberComplete:
		m.Buffer = m.Buffer.Pop()
		if m.Buffer.Complete() {
			m.Phase = PhaseNumberComplete
		} else {
			m.Phase = PhaseEnteringNumber
		}
		return m
	default:
		return m
	}
}

func reduceOpenAmount(m Model, v OpenAmountKeyboard) Model {
	if !capturing(m) {
		return invalid(m, "", "amount", "another amount is being entered")
	}

	targetID := v.EntryID
	if targetID == "" {
		// Commit the active buffer; the guard below is what keeps the
		// machine from ever entering amount entry on an incomplete
		// number.
		e, err := m.Buffer.Commit()
		if err != nil {
			return invalid(m, "", "number", err.Error())
		}
		m.Slip = withEntry(m.Slip, e)
		m.Buffer = entry.NewBuffer(m.Buffer.Game)
		targetID = e.ID
	} else if _, idx := m.Slip.Find(targetID); idx < 0 {
		return invalid(m, targetID, "amount", "entry not on slip")
	}

	kind := v.Kind
	if kind == "" {
		kind = entry.KindFijo
	}

	m.AmountTarget = targetID
	m.AmountKind = kind
	m.AmountDigits = ""
	m.Phase = PhaseEnteringAmount
	return m
}

func reduceAmountDigit(m Model, v AmountDigitPressed) Model {
	if m.Phase != PhaseEnteringAmount {
		return invalid(m, m.AmountTarget, "amount", "amount keyboard not open")
	}
	if v.Digit < '0' || v.Digit > '9' {
		return invalid(m, m.AmountTarget, "amount", "invalid digit")
	}
	if len(m.AmountDigits) >= maxAmountDigits {
		return invalid(m, m.AmountTarget, "amount", "amount too long")
	}
	m.AmountDigits += string(v.Digit)
	return m
}

func reduceConfirmAmount(m Model) Model {
	if m.Phase != PhaseEnteringAmount {
		return invalid(m, "", "amount", "amount keyboard not open")
	}
	if m.AmountDigits == "" {
		return invalid(m, m.AmountTarget, "amount", "no amount entered")
	}
	amt, err := strconv.ParseInt(m.AmountDigits, 10, 64)
	if err != nil || amt <= 0 {
		return invalid(m, m.AmountTarget, "amount", "amount must be positive")
	}

	target, idx := m.Slip.Find(m.AmountTarget)
	if idx < 0 {
		return invalid(m, m.AmountTarget, "amount", "entry not on slip")
	}
	if verr := checkAmountLimits(m.Rules, target, m.AmountKind, amt); verr != nil {
		m.Validation = verr
		return m
	}

	slip, outcome, req, err := amount.Submit(m.Slip, m.AmountTarget, m.AmountKind, amt)
	if err != nil {
		return invalid(m, m.AmountTarget, "amount", err.Error())
	}

	m.Slip = slip
	m.AmountDigits = ""
	if outcome == amount.RequiresConfirmation {
		// Suspend further amount entry until the operator resolves the
		// single-vs-all choice.
		m.Pending = req
		m.Phase = PhaseAwaitingConfirmation
		return m
	}

	m.AmountTarget = ""
	m.Phase = PhaseNumberComplete
	return m
}

func reduceResolve(m Model, v ResolveConfirmation) Model {
	if m.Phase != PhaseAwaitingConfirmation || m.Pending == nil {
		return invalid(m, "", "amount", "no confirmation pending")
	}
	switch v.Choice {
	case amount.ResolveCancel, amount.ResolveSingle, amount.ResolveAll:
	default:
		return invalid(m, m.Pending.TargetID, "amount", "unknown resolution")
	}

	m.Slip = amount.Resolve(m.Slip, *m.Pending, v.Choice)
	m.Pending = nil
	m.AmountTarget = ""
	m.Phase = PhaseNumberComplete
	return m
}

func reduceRemove(m Model, v RemoveEntry) Model {
	if _, idx := m.Slip.Find(v.EntryID); idx < 0 {
		return invalid(m, v.EntryID, "slip", "entry not on slip")
	}
	m.Slip = m.Slip.WithoutEntry(v.EntryID)

	// Removing the confirmation target cancels the pending request.
	if m.Pending != nil && m.Pending.TargetID == v.EntryID {
		m.Pending = nil
		m.Phase = PhaseNumberComplete
	}
	if m.AmountTarget == v.EntryID {
		m.AmountTarget = ""
		m.AmountDigits = ""
		if m.Phase == PhaseEnteringAmount {
			m.Phase = PhaseNumberComplete
		}
	}
	return m
}

func reduceSubmit(m Model) Model {
	if !capturing(m) {
		return invalid(m, "", "slip", "finish the current amount first")
	}
	if len(m.Buffer.Digits) > 0 {
		return invalid(m, "", "slip", "unfinished number on the pad")
	}
	if len(m.Slip.Entries) == 0 {
		return invalid(m, "", "slip", "slip is empty")
	}
	for _, e := range m.Slip.Entries {
		if verr := validateEntry(m.Rules, e); verr != nil {
			m.Validation = verr
			return m
		}
	}

	finalized := m.Slip
	m.Outbox = &finalized
	m.Phase = PhaseSubmitting
	return m
}

func reduceSubmitAccepted(m Model) Model {
	if m.Phase != PhaseSubmitting {
		return m
	}
	// Ownership of the slip passed to the sync queue; reset for the next
	// one on the same draw.
	fresh := New(m.Slip.DrawID, m.Rules)
	fresh.Phase = PhaseSubmitted
	return fresh
}

func reduceSubmitFailed(m Model, v SubmitFailed) Model {
	if m.Phase != PhaseSubmitting {
		return m
	}
	m.Outbox = nil
	m.SubmitError = v.Reason
	m.Phase = PhaseFailed
	return m
}

// withEntry appends without aliasing the previous model's slice.
func withEntry(s entry.Slip, e entry.Entry) entry.Slip {
	out := entry.Slip{DrawID: s.DrawID, Entries: make([]entry.Entry, 0, len(s.Entries)+1)}
	out.Entries = append(out.Entries, s.Entries...)
	out.Entries = append(out.Entries, e)
	return out
}
