package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
)

func fijoEntry(number string) entry.Entry {
	return entry.Entry{ID: entry.NewID(), Game: entry.GameFijo, Number: number}
}

func corridoEntry(number string) entry.Entry {
	return entry.Entry{ID: entry.NewID(), Game: entry.GameCorrido, Number: number}
}

func TestSubmitAppliesDirectlyToSingleStakeGames(t *testing.T) {
	c := corridoEntry("22")
	slip := entry.Slip{DrawID: "DIA-001", Entries: []entry.Entry{c}}

	out, outcome, req, err := Submit(slip, c.ID, "", 75)
	require.NoError(t, err)
	assert.Equal(t, AppliedDirectly, outcome)
	assert.Nil(t, req)
	assert.Equal(t, int64(75), out.Entries[0].Amount)

	// The input slip is untouched.
	assert.Zero(t, slip.Entries[0].Amount)
}

func TestSubmitOnFijoRequiresConfirmation(t *testing.T) {
	f := fijoEntry("05")
	slip := entry.Slip{Entries: []entry.Entry{f}}

	out, outcome, req, err := Submit(slip, f.ID, entry.KindFijo, 100)
	require.NoError(t, err)
	assert.Equal(t, RequiresConfirmation, outcome)
	require.NotNil(t, req)
	assert.Equal(t, int64(100), req.Amount)
	assert.Equal(t, f.ID, req.TargetID)
	assert.Equal(t, entry.KindFijo, req.Kind)

	// Nothing applied until the operator resolves.
	assert.Zero(t, out.Entries[0].AmountFijo)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	f := fijoEntry("05")
	slip := entry.Slip{Entries: []entry.Entry{f}}

	_, _, _, err := Submit(slip, f.ID, entry.KindFijo, 0)
	assert.ErrorIs(t, err, ErrNotPositive)

	_, _, _, err = Submit(slip, "missing", entry.KindFijo, 10)
	assert.ErrorIs(t, err, ErrNoSuchEntry)
}

func TestResolveApplyToAll(t *testing.T) {
	f1 := fijoEntry("05")
	f2 := fijoEntry("12")
	c := corridoEntry("33")
	slip := entry.Slip{Entries: []entry.Entry{f1, c, f2}}

	req := ConfirmationRequest{Amount: 100, TargetID: f2.ID, Kind: entry.KindFijo}
	out := Resolve(slip, req, ResolveAll)

	// Every fijo entry gets the fijo stake; order and identities kept.
	assert.Equal(t, f1.ID, out.Entries[0].ID)
	assert.Equal(t, int64(100), out.Entries[0].AmountFijo)
	assert.Equal(t, f2.ID, out.Entries[2].ID)
	assert.Equal(t, int64(100), out.Entries[2].AmountFijo)

	// Corrido-only entries are untouched.
	assert.Equal(t, c.ID, out.Entries[1].ID)
	assert.Zero(t, out.Entries[1].Amount)
	assert.Zero(t, out.Entries[1].AmountCorrido)
}

func TestResolveApplyToAllCorridoKind(t *testing.T) {
	f1 := fijoEntry("05")
	f2 := fijoEntry("12")
	slip := entry.Slip{Entries: []entry.Entry{f1, f2}}

	req := ConfirmationRequest{Amount: 40, TargetID: f1.ID, Kind: entry.KindCorrido}
	out := Resolve(slip, req, ResolveAll)

	for _, e := range out.Entries {
		assert.Equal(t, int64(40), e.AmountCorrido)
		assert.Zero(t, e.AmountFijo)
	}
}

func TestResolveApplyToSingle(t *testing.T) {
	f1 := fijoEntry("05")
	f2 := fijoEntry("12")
	slip := entry.Slip{Entries: []entry.Entry{f1, f2}}

	req := ConfirmationRequest{Amount: 100, TargetID: f2.ID, Kind: entry.KindFijo}
	out := Resolve(slip, req, ResolveSingle)

	assert.Zero(t, out.Entries[0].AmountFijo)
	assert.Equal(t, int64(100), out.Entries[1].AmountFijo)
}

func TestResolveCancelLeavesSlipUnchanged(t *testing.T) {
	f := fijoEntry("05")
	f.AmountFijo = 20
	slip := entry.Slip{Entries: []entry.Entry{f}}

	req := ConfirmationRequest{Amount: 999, TargetID: f.ID, Kind: entry.KindFijo}
	out := Resolve(slip, req, ResolveCancel)

	assert.Equal(t, int64(20), out.Entries[0].AmountFijo)
	assert.Zero(t, out.Entries[0].AmountCorrido)
}

func TestResolveDoesNotAliasInput(t *testing.T) {
	f := fijoEntry("05")
	slip := entry.Slip{Entries: []entry.Entry{f}}

	req := ConfirmationRequest{Amount: 100, TargetID: f.ID, Kind: entry.KindFijo}
	out := Resolve(slip, req, ResolveAll)

	assert.Equal(t, int64(100), out.Entries[0].AmountFijo)
	assert.Zero(t, slip.Entries[0].AmountFijo)
}
