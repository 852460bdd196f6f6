package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotobanca/bolita-terminal/internal/capture/amount"
	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/rules"
)

func testRules() rules.DrawRules {
	return rules.DrawRules{
		DrawID: "DIA-001",
		Limits: map[entry.GameType]rules.TypeLimits{
			entry.GameFijo:    {MinAmount: 1, MaxAmount: 5000},
			entry.GameCorrido: {MinAmount: 1, MaxAmount: 5000},
			entry.GameCentena: {MinAmount: 1, MaxAmount: 2000},
			entry.GameParlet:  {MinAmount: 5, MaxAmount: 1000},
		},
		Limited: []string{"13"},
	}
}

// drive runs a message sequence, failing the test on any validation error
// along the way.
func drive(t *testing.T, m Model, msgs ...Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		m = Reduce(m, msg)
		require.Nil(t, m.Validation, "unexpected validation error on %T: %v", msg, m.Validation)
	}
	return m
}

// keyNumber selects a game and types its digits.
func keyNumber(game entry.GameType, digits string) []Msg {
	msgs := []Msg{SelectGame{Game: game}}
	for i := 0; i < len(digits); i++ {
		msgs = append(msgs, DigitPressed{Digit: digits[i]})
	}
	return msgs
}

// keyAmount opens the amount keyboard for the active buffer and types
// the amount.
func keyAmount(digits string, kind entry.AmountKind) []Msg {
	msgs := []Msg{OpenAmountKeyboard{Kind: kind}}
	for i := 0; i < len(digits); i++ {
		msgs = append(msgs, AmountDigitPressed{Digit: digits[i]})
	}
	return append(msgs, ConfirmAmount{})
}

func TestNumberEntryPhases(t *testing.T) {
	m := New("DIA-001", testRules())
	assert.Equal(t, PhaseIdle, m.Phase)

	m = drive(t, m, SelectGame{Game: entry.GameFijo})
	assert.Equal(t, PhaseEnteringNumber, m.Phase)

	m = drive(t, m, DigitPressed{Digit: '0'})
	assert.Equal(t, PhaseEnteringNumber, m.Phase)

	m = drive(t, m, DigitPressed{Digit: '5'})
	assert.Equal(t, PhaseNumberComplete, m.Phase)
	assert.Equal(t, "05", m.Buffer.Digits)
}

func TestDigitWithoutGameIsValidationError(t *testing.T) {
	m := New("DIA-001", testRules())
	m = Reduce(m, DigitPressed{Digit: '5'})
	require.NotNil(t, m.Validation)
	assert.Equal(t, PhaseIdle, m.Phase)
}

func TestAmountKeyboardRequiresCompleteNumber(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, SelectGame{Game: entry.GameCentena}, DigitPressed{Digit: '1'})

	m = Reduce(m, OpenAmountKeyboard{})
	require.NotNil(t, m.Validation)
	assert.NotEqual(t, PhaseEnteringAmount, m.Phase)
	assert.Empty(t, m.Slip.Entries)
}

func TestDirectAmountFlow(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameCentena, "123")...)
	m = drive(t, m, keyAmount("250", "")...)

	assert.Equal(t, PhaseNumberComplete, m.Phase)
	require.Len(t, m.Slip.Entries, 1)
	e := m.Slip.Entries[0]
	assert.Equal(t, entry.GameCentena, e.Game)
	assert.Equal(t, "123", e.Number)
	assert.Equal(t, int64(250), e.Amount)
}

func TestFijoAmountRaisesConfirmationAndSuspends(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameFijo, "05")...)
	m = drive(t, m, keyAmount("100", entry.KindFijo)...)

	assert.Equal(t, PhaseAwaitingConfirmation, m.Phase)
	require.NotNil(t, m.Pending)
	assert.Equal(t, int64(100), m.Pending.Amount)

	// Amount entry is suspended until the dialog resolves.
	blocked := Reduce(m, AmountDigitPressed{Digit: '9'})
	require.NotNil(t, blocked.Validation)
	assert.Equal(t, PhaseAwaitingConfirmation, blocked.Phase)

	blocked = Reduce(m, OpenAmountKeyboard{})
	require.NotNil(t, blocked.Validation)
}

func TestApplyToAllDoesNotReachLaterEntries(t *testing.T) {
	m := New("DIA-001", testRules())

	// First fijo "05", amount 100, apply to all.
	m = drive(t, m, keyNumber(entry.GameFijo, "05")...)
	m = drive(t, m, keyAmount("100", entry.KindFijo)...)
	m = drive(t, m, ResolveConfirmation{Choice: amount.ResolveAll})

	// Second fijo "12" entered afterwards.
	m = drive(t, m, keyNumber(entry.GameFijo, "12")...)
	m = drive(t, m, OpenAmountKeyboard{Kind: entry.KindFijo})

	require.Len(t, m.Slip.Entries, 2)
	assert.Equal(t, int64(100), m.Slip.Entries[0].AmountFijo)
	assert.Zero(t, m.Slip.Entries[1].AmountFijo, "later entry must not inherit the bulk amount")
}

func TestApplyToAllRewritesPriorFijoEntries(t *testing.T) {
	m := New("DIA-001", testRules())

	m = drive(t, m, keyNumber(entry.GameFijo, "05")...)
	m = drive(t, m, keyAmount("50", entry.KindFijo)...)
	m = drive(t, m, ResolveConfirmation{Choice: amount.ResolveSingle})

	m = drive(t, m, keyNumber(entry.GameCorrido, "33")...)
	m = drive(t, m, keyAmount("20", "")...)

	m = drive(t, m, keyNumber(entry.GameFijo, "12")...)
	m = drive(t, m, keyAmount("100", entry.KindFijo)...)
	m = drive(t, m, ResolveConfirmation{Choice: amount.ResolveAll})

	require.Len(t, m.Slip.Entries, 3)
	// The bulk amount overwrites the first entry's earlier stake of 50.
	assert.Equal(t, int64(100), m.Slip.Entries[0].AmountFijo)
	assert.Equal(t, int64(100), m.Slip.Entries[2].AmountFijo)
	// The corrido entry keeps its own stake.
	assert.Equal(t, int64(20), m.Slip.Entries[1].Amount)
	assert.Zero(t, m.Slip.Entries[1].AmountFijo)
}

func TestResolveCancelDiscardsAmount(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameFijo, "05")...)
	m = drive(t, m, keyAmount("100", entry.KindFijo)...)
	m = drive(t, m, ResolveConfirmation{Choice: amount.ResolveCancel})

	assert.Equal(t, PhaseNumberComplete, m.Phase)
	assert.Nil(t, m.Pending)
	require.Len(t, m.Slip.Entries, 1)
	assert.Zero(t, m.Slip.Entries[0].AmountFijo)
}

func TestRemoveConfirmationTargetCancelsPending(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameFijo, "05")...)
	m = drive(t, m, keyAmount("100", entry.KindFijo)...)
	require.NotNil(t, m.Pending)

	m = drive(t, m, RemoveEntry{EntryID: m.Pending.TargetID})
	assert.Nil(t, m.Pending)
	assert.Equal(t, PhaseNumberComplete, m.Phase)
	assert.Empty(t, m.Slip.Entries)
}

func TestAmountOutsideLimitsIsRecoverable(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameCentena, "123")...)
	m = drive(t, m, OpenAmountKeyboard{})
	for _, d := range []byte("9999") {
		m = drive(t, m, AmountDigitPressed{Digit: d})
	}

	m = Reduce(m, ConfirmAmount{})
	require.NotNil(t, m.Validation)
	assert.Equal(t, "amount", m.Validation.Field)

	// The machine stays in amount entry with the previous model intact.
	assert.Equal(t, PhaseEnteringAmount, m.Phase)
	assert.Zero(t, m.Slip.Entries[0].Amount)
}

func TestSubmitEmptySlipRejected(t *testing.T) {
	m := New("DIA-001", testRules())
	m = Reduce(m, Submit{})
	require.NotNil(t, m.Validation)
	assert.Equal(t, "slip", m.Validation.Field)
	assert.Equal(t, PhaseIdle, m.Phase)
	assert.Nil(t, m.Outbox)
}

func TestSubmitRejectsMissingAmount(t *testing.T) {
	m := New("DIA-001", testRules())
	// Cancel the confirmation so the committed entry stays amountless.
	m = drive(t, m, keyNumber(entry.GameFijo, "05")...)
	m = drive(t, m, keyAmount("100", entry.KindFijo)...)
	m = drive(t, m, ResolveConfirmation{Choice: amount.ResolveCancel})

	m = Reduce(m, Submit{})
	require.NotNil(t, m.Validation)
	assert.Equal(t, "amount", m.Validation.Field)
	assert.NotEqual(t, PhaseSubmitting, m.Phase)
}

func TestSubmitRejectsLimitedNumber(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameCorrido, "13")...)
	m = drive(t, m, keyAmount("10", "")...)

	m = Reduce(m, Submit{})
	require.NotNil(t, m.Validation)
	assert.Contains(t, m.Validation.Reason, "limited")
}

func TestParletSubmitScenario(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameParlet, "051223")...)
	m = drive(t, m, keyAmount("50", "")...)

	m = Reduce(m, Submit{})
	require.Nil(t, m.Validation)
	assert.Equal(t, PhaseSubmitting, m.Phase)
	require.NotNil(t, m.Outbox)
	require.Len(t, m.Outbox.Entries, 1)

	e := m.Outbox.Entries[0]
	assert.Equal(t, entry.GameParlet, e.Game)
	assert.Equal(t, []string{"05", "12", "23"}, e.Pairs)
	assert.Equal(t, int64(50), e.Amount)
}

func TestOnePairParletNeverReachesSubmit(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameParlet, "05")...)

	// One pair cannot be committed.
	m = Reduce(m, OpenAmountKeyboard{})
	require.NotNil(t, m.Validation)
	assert.Empty(t, m.Slip.Entries)

	// And a hand-built 1-pair entry is rejected at submit.
	m2 := New("DIA-001", testRules())
	m2.Slip.Entries = []entry.Entry{{
		ID: entry.NewID(), Game: entry.GameParlet, Pairs: []string{"05"}, Amount: 50,
	}}
	m2 = Reduce(m2, Submit{})
	require.NotNil(t, m2.Validation)
	assert.Contains(t, m2.Validation.Reason, "at least 2 pairs")
}

func TestSubmitLifecycle(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameCentena, "123")...)
	m = drive(t, m, keyAmount("250", "")...)
	m = drive(t, m, Submit{})
	require.Equal(t, PhaseSubmitting, m.Phase)

	// While submitting, capture input is refused.
	blocked := Reduce(m, DigitPressed{Digit: '1'})
	require.NotNil(t, blocked.Validation)

	accepted := Reduce(m, SubmitAccepted{})
	assert.Equal(t, PhaseSubmitted, accepted.Phase)
	assert.Empty(t, accepted.Slip.Entries)
	assert.Equal(t, "DIA-001", accepted.Slip.DrawID)

	failed := Reduce(m, SubmitFailed{Reason: "queue unavailable"})
	assert.Equal(t, PhaseFailed, failed.Phase)
	assert.Equal(t, "queue unavailable", failed.SubmitError)
	// The slip survives a failed hand-off.
	require.Len(t, failed.Slip.Entries, 1)

	// A failed machine accepts a retried submit.
	retried := Reduce(failed, Submit{})
	assert.Equal(t, PhaseSubmitting, retried.Phase)
}

func TestBackspaceEditsBuffers(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameCentena, "123")...)
	m = drive(t, m, BackspacePressed{})
	assert.Equal(t, "12", m.Buffer.Digits)
	assert.Equal(t, PhaseEnteringNumber, m.Phase)

	m = drive(t, m, DigitPressed{Digit: '9'})
	m = drive(t, m, OpenAmountKeyboard{})
	m = drive(t, m, AmountDigitPressed{Digit: '5'}, AmountDigitPressed{Digit: '0'})
	m = drive(t, m, BackspacePressed{})
	assert.Equal(t, "5", m.AmountDigits)
}

func TestUnfinishedNumberBlocksSubmit(t *testing.T) {
	m := New("DIA-001", testRules())
	m = drive(t, m, keyNumber(entry.GameCentena, "123")...)
	m = drive(t, m, keyAmount("100", "")...)
	m = drive(t, m, SelectGame{Game: entry.GameCentena}, DigitPressed{Digit: '4'})

	m = Reduce(m, Submit{})
	require.NotNil(t, m.Validation)
	assert.Contains(t, m.Validation.Reason, "unfinished")
}
