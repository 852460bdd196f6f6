package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/capture/machine"
	"github.com/lotobanca/bolita-terminal/internal/rules"
	"github.com/lotobanca/bolita-terminal/internal/syncqueue"
)

type staticRules struct {
	rules rules.DrawRules
	err   error
}

func (s staticRules) Get(ctx context.Context, drawID string) (rules.DrawRules, error) {
	return s.rules, s.err
}

type captureQueue struct {
	slips []entry.Slip
	err   error
}

func (q *captureQueue) Enqueue(ctx context.Context, slip entry.Slip) (syncqueue.PendingBet, error) {
	if q.err != nil {
		return syncqueue.PendingBet{}, q.err
	}
	q.slips = append(q.slips, slip)
	return syncqueue.PendingBet{OfflineID: "tok-1", DrawID: slip.DrawID, Entries: slip.Entries}, nil
}

func openRules() rules.DrawRules {
	return rules.DrawRules{
		DrawID: "DIA-001",
		Limits: map[entry.GameType]rules.TypeLimits{
			entry.GameCorrido: {MinAmount: 1, MaxAmount: 100000},
		},
	}
}

func keyCorridoBet(t *testing.T, r *Registry, id string) {
	t.Helper()
	ctx := context.Background()
	msgs := []machine.Msg{
		machine.SelectGame{Game: entry.GameCorrido},
		machine.DigitPressed{Digit: '2'},
		machine.DigitPressed{Digit: '7'},
		machine.OpenAmountKeyboard{},
		machine.AmountDigitPressed{Digit: '5'},
		machine.AmountDigitPressed{Digit: '0'},
		machine.ConfirmAmount{},
	}
	for _, m := range msgs {
		_, err := r.Dispatch(ctx, id, m)
		require.NoError(t, err)
	}
}

func TestOpenLoadsRulesOnce(t *testing.T) {
	r := NewRegistry(zap.NewNop(), staticRules{rules: openRules()}, &captureQueue{})

	s, err := r.Open(context.Background(), "DIA-001")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, machine.PhaseIdle, s.Model().Phase)
	assert.Equal(t, "DIA-001", s.Model().Slip.DrawID)
}

func TestOpenFailsWhenRulesUnavailable(t *testing.T) {
	r := NewRegistry(zap.NewNop(), staticRules{err: errors.New("authority unreachable")}, &captureQueue{})

	_, err := r.Open(context.Background(), "DIA-001")
	assert.Error(t, err, "a session without limits could take unbounded wagers")
}

func TestDispatchSubmitHandsSlipToQueue(t *testing.T) {
	q := &captureQueue{}
	r := NewRegistry(zap.NewNop(), staticRules{rules: openRules()}, q)

	s, err := r.Open(context.Background(), "DIA-001")
	require.NoError(t, err)
	keyCorridoBet(t, r, s.ID)

	m, err := r.Dispatch(context.Background(), s.ID, machine.Submit{})
	require.NoError(t, err)

	assert.Equal(t, machine.PhaseSubmitted, m.Phase)
	require.Len(t, q.slips, 1)
	require.Len(t, q.slips[0].Entries, 1)
	assert.Equal(t, "27", q.slips[0].Entries[0].Number)
	assert.Equal(t, int64(50), q.slips[0].Entries[0].Amount)
}

func TestDispatchSubmitFailureKeepsSlip(t *testing.T) {
	q := &captureQueue{err: errors.New("disk full")}
	r := NewRegistry(zap.NewNop(), staticRules{rules: openRules()}, q)

	s, err := r.Open(context.Background(), "DIA-001")
	require.NoError(t, err)
	keyCorridoBet(t, r, s.ID)

	m, err := r.Dispatch(context.Background(), s.ID, machine.Submit{})
	require.NoError(t, err)

	assert.Equal(t, machine.PhaseFailed, m.Phase)
	assert.Contains(t, m.SubmitError, "disk full")
	require.Len(t, m.Slip.Entries, 1, "the slip must survive a failed hand-off")

	// Hand-off recovers: retrying the submit succeeds.
	q.err = nil
	m, err = r.Dispatch(context.Background(), s.ID, machine.Submit{})
	require.NoError(t, err)
	assert.Equal(t, machine.PhaseSubmitted, m.Phase)
	assert.Len(t, q.slips, 1)
}

func TestDispatchUnknownSession(t *testing.T) {
	r := NewRegistry(zap.NewNop(), staticRules{rules: openRules()}, &captureQueue{})
	_, err := r.Dispatch(context.Background(), "missing", machine.Submit{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloseDiscardsSession(t *testing.T) {
	r := NewRegistry(zap.NewNop(), staticRules{rules: openRules()}, &captureQueue{})

	s, err := r.Open(context.Background(), "DIA-001")
	require.NoError(t, err)

	require.NoError(t, r.Close(s.ID))
	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Close(s.ID), ErrNotFound)
}
