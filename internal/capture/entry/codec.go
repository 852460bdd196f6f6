package entry

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDigit rejects a keystroke that is not 0-9.
	ErrInvalidDigit = errors.New("invalid digit")
	// ErrUnknownGame rejects keystrokes for a game type we do not price.
	ErrUnknownGame = errors.New("unknown game type")
	// ErrBufferFull rejects digits once the number is at its fixed
	// length. Excess keystrokes are refused, never truncated, so a
	// miskeyed number cannot silently merge into the amount.
	ErrBufferFull = errors.New("number buffer full")
	// ErrIncomplete rejects committing a buffer that has not reached a
	// valid shape yet.
	ErrIncomplete = errors.New("incomplete number")
)

// Buffer accumulates raw digit keystrokes for one entry number. For
// parlet, digits group into 2-digit pairs and the buffer stays open
// until the pair ceiling.
type Buffer struct {
	Game   GameType `json:"game"`
	Digits string   `json:"digits"`
}

// NewBuffer starts an empty buffer for the game.
func NewBuffer(g GameType) Buffer { return Buffer{Game: g} }

// Push appends one digit. The returned bool mirrors the Complete state
// after the push, so callers can flip to amount entry on the keystroke
// that finishes the number.
func (b Buffer) Push(d byte) (Buffer, bool, error) {
	if !b.Game.Valid() {
		return b, false, ErrUnknownGame
	}
	if d < '0' || d > '9' {
		return b, false, fmt.Errorf("%w: %q", ErrInvalidDigit, string(d))
	}
	if b.Full() {
		return b, b.Complete(), ErrBufferFull
	}
	b.Digits += string(d)
	return b, b.Complete(), nil
}

// Pop removes the last digit, if any.
func (b Buffer) Pop() Buffer {
	if len(b.Digits) > 0 {
		b.Digits = b.Digits[:len(b.Digits)-1]
	}
	return b
}

// Complete reports whether the buffer can be committed as an entry
// number. Fixed-length games complete at exactly NumberLen digits; a
// parlet completes on any even digit count once the pair floor is met.
func (b Buffer) Complete() bool {
	if b.Game == GameParlet {
		return len(b.Digits)%2 == 0 && len(b.Digits)/2 >= ParletMinPairs
	}
	return len(b.Digits) == b.Game.NumberLen()
}

// Full reports whether no further digit fits.
func (b Buffer) Full() bool {
	if b.Game == GameParlet {
		return len(b.Digits) >= ParletMaxPairs*2
	}
	return len(b.Digits) >= b.Game.NumberLen()
}

// Pairs splits the buffered digits into 2-digit parlet groups. The last
// group is omitted while it only has one digit.
func (b Buffer) Pairs() []string {
	n := len(b.Digits) / 2
	pairs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, b.Digits[i*2:i*2+2])
	}
	return pairs
}

// Commit turns a complete buffer into a fresh entry with no amount
// assigned yet.
func (b Buffer) Commit() (Entry, error) {
	if !b.Complete() {
		return Entry{}, ErrIncomplete
	}
	e := Entry{ID: NewID(), Game: b.Game}
	if b.Game == GameParlet {
		e.Pairs = b.Pairs()
	} else {
		e.Number = b.Digits
	}
	return e, nil
}
