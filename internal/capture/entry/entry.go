// Package entry holds the wager domain model of the capture terminal:
// game types, bet entries, the in-progress slip and the keystroke codec
// that turns digit presses into typed numbers. Everything here is pure.
package entry

import (
	"github.com/google/uuid"
)

// GameType tags a wager with its game. Digit counts and amount shape
// depend on it.
type GameType string

const (
	GameFijo    GameType = "fijo"
	GameCorrido GameType = "corrido"
	GameCentena GameType = "centena"
	GameParlet  GameType = "parlet"
)

// Parlet entries group digits into 2-digit pairs, bounded below and above.
const (
	ParletMinPairs = 2
	ParletMaxPairs = 10
)

func (g GameType) Valid() bool {
	switch g {
	case GameFijo, GameCorrido, GameCentena, GameParlet:
		return true
	}
	return false
}

// NumberLen is the fixed digit count of a single number for the game:
// 2 for fijo/corrido and each parlet pair, 3 for centena.
func (g GameType) NumberLen() int {
	if g == GameCentena {
		return 3
	}
	return 2
}

// AmountKind distinguishes the two stakes a fijo entry can carry.
type AmountKind string

const (
	KindFijo    AmountKind = "fijo"
	KindCorrido AmountKind = "corrido"
)

// Entry is one committed wager line on a slip. Number is set for
// fijo/corrido/centena, Pairs for parlet. Amounts are positive integers
// in the draw's currency unit; zero means not yet assigned.
//
// An entry is immutable once committed: the machine replaces entries
// instead of editing them in place. Amount assignment is the one
// operation that rewrites an entry while keeping its identity.
type Entry struct {
	ID     string   `json:"id"`
	Game   GameType `json:"game"`
	Number string   `json:"number,omitempty"`
	Pairs  []string `json:"pairs,omitempty"`

	// Amount is the stake for corrido/centena/parlet entries.
	Amount int64 `json:"amount,omitempty"`
	// AmountFijo/AmountCorrido are the two stakes of a fijo entry.
	AmountFijo    int64 `json:"amount_fijo,omitempty"`
	AmountCorrido int64 `json:"amount_corrido,omitempty"`
}

// NewID mints an entry identity.
func NewID() string { return uuid.NewString() }

// HasAmount reports whether the entry carries at least one positive stake.
func (e Entry) HasAmount() bool {
	if e.Game == GameFijo {
		return e.AmountFijo > 0 || e.AmountCorrido > 0
	}
	return e.Amount > 0
}

// Numbers returns every number the entry plays, for limit and blacklist
// checks.
func (e Entry) Numbers() []string {
	if e.Game == GameParlet {
		return e.Pairs
	}
	return []string{e.Number}
}

// Total is the entry's combined stake.
func (e Entry) Total() int64 {
	if e.Game == GameFijo {
		return e.AmountFijo + e.AmountCorrido
	}
	return e.Amount
}

// Slip is the ordered in-progress collection of entries for one draw.
// It is created when the capture screen opens and only mutated through
// machine transitions.
type Slip struct {
	DrawID  string  `json:"draw_id"`
	Entries []Entry `json:"entries"`
}

// Total is the combined stake of every entry on the slip.
func (s Slip) Total() int64 {
	var t int64
	for _, e := range s.Entries {
		t += e.Total()
	}
	return t
}

// Find returns the entry with the given id and its position, or -1.
func (s Slip) Find(id string) (Entry, int) {
	for i, e := range s.Entries {
		if e.ID == id {
			return e, i
		}
	}
	return Entry{}, -1
}

// WithoutEntry returns a copy of the slip with the identified entry
// removed. Order of the remaining entries is preserved.
func (s Slip) WithoutEntry(id string) Slip {
	out := Slip{DrawID: s.DrawID, Entries: make([]Entry, 0, len(s.Entries))}
	for _, e := range s.Entries {
		if e.ID != id {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}
