package httpapi

import (
	"errors"
	"fmt"

	"github.com/lotobanca/bolita-terminal/internal/capture/amount"
	"github.com/lotobanca/bolita-terminal/internal/capture/entry"
	"github.com/lotobanca/bolita-terminal/internal/capture/machine"
)

type openSessionRequest struct {
	DrawID string `json:"draw_id"`
}

type sessionResponse struct {
	SessionID string        `json:"session_id"`
	Model     machine.Model `json:"model"`
}

// msgRequest is the wire shape of a dispatched message. Type selects the
// variant; the remaining fields apply per type.
type msgRequest struct {
	Type    string `json:"type"`
	Game    string `json:"game,omitempty"`
	Digit   string `json:"digit,omitempty"`
	EntryID string `json:"entry_id,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Choice  string `json:"choice,omitempty"`
}

var errUnknownMsg = errors.New("unknown msg type")

// decodeMsg maps a wire message onto the machine's Msg set.
func decodeMsg(req msgRequest) (machine.Msg, error) {
	digit := func() (byte, error) {
		if len(req.Digit) != 1 {
			return 0, fmt.Errorf("digit must be a single character, got %q", req.Digit)
		}
		return req.Digit[0], nil
	}

	switch req.Type {
	case "select_game":
		return machine.SelectGame{Game: entry.GameType(req.Game)}, nil
	case "digit_pressed":
		d, err := digit()
		if err != nil {
			return nil, err
		}
		return machine.DigitPressed{Digit: d}, nil
	case "backspace_pressed":
		return machine.BackspacePressed{}, nil
	case "open_amount_keyboard":
		return machine.OpenAmountKeyboard{EntryID: req.EntryID, Kind: entry.AmountKind(req.Kind)}, nil
	case "amount_digit_pressed":
		d, err := digit()
		if err != nil {
			return nil, err
		}
		return machine.AmountDigitPressed{Digit: d}, nil
	case "confirm_amount":
		return machine.ConfirmAmount{}, nil
	case "resolve_confirmation":
		return machine.ResolveConfirmation{Choice: amount.Resolution(req.Choice)}, nil
	case "remove_entry":
		return machine.RemoveEntry{EntryID: req.EntryID}, nil
	case "submit":
		return machine.Submit{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownMsg, req.Type)
	}
}
